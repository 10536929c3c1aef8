package commons

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "deligo/internal/errors"
)

type ErrorResponse struct {
	TraceID   string                       `json:"traceId"`
	Status    int                          `json:"status"`
	Code      string                       `json:"code"`
	Message   string                       `json:"message"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
	State     string                       `json:"state,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}

func WriteJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// WriteError is the single translation boundary from typed errors to HTTP.
// Anything outside the closed error set is logged and surfaced as a generic
// internal error.
func WriteError(w http.ResponseWriter, logger *zap.Logger, traceID string, err error) {
	resp := ErrorResponse{
		TraceID:   traceID,
		Timestamp: time.Now().UTC(),
	}

	if ve, ok := apperrors.IsValidationError(err); ok {
		resp.Status = http.StatusBadRequest
		resp.Code = "VALIDATION_ERROR"
		resp.Message = ve.Message
		resp.Details = ve.Details
	} else if _, ok := apperrors.IsNotFoundError(err); ok {
		resp.Status = http.StatusNotFound
		resp.Code = "NOT_FOUND"
		resp.Message = err.Error()
	} else if _, ok := apperrors.IsForbiddenError(err); ok {
		resp.Status = http.StatusForbidden
		resp.Code = "FORBIDDEN"
		resp.Message = err.Error()
	} else if ge, ok := apperrors.IsGuardViolationError(err); ok {
		resp.Status = http.StatusConflict
		resp.Code = "GUARD_VIOLATION"
		resp.Message = ge.Message
		resp.State = ge.CurrentState
	} else if vi, ok := apperrors.IsVoucherInvalidError(err); ok {
		resp.Status = http.StatusUnprocessableEntity
		resp.Code = "VOUCHER_INVALID"
		resp.Message = vi.Reason
	} else if _, ok := apperrors.IsInsufficientFundsError(err); ok {
		resp.Status = http.StatusPaymentRequired
		resp.Code = "INSUFFICIENT_FUNDS"
		resp.Message = err.Error()
	} else if _, ok := apperrors.IsConflictError(err); ok {
		resp.Status = http.StatusConflict
		resp.Code = "CONFLICT"
		resp.Message = err.Error()
	} else {
		logger.Error("unexpected error", zap.String("traceId", traceID), zap.Error(err))
		resp.Status = http.StatusInternalServerError
		resp.Code = "INTERNAL_ERROR"
		resp.Message = "an unexpected error occurred"
	}

	WriteJSON(w, logger, resp.Status, resp)
}
