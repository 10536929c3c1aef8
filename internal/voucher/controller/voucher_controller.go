package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deligo/internal/commons"
	"deligo/internal/dto"
	apperrors "deligo/internal/errors"
	"deligo/internal/middleware"
)

type VoucherService interface {
	Preview(ctx context.Context, userID uint, req dto.PreviewVoucherRequest) (*dto.PreviewVoucherResponse, error)
	ListAvailable(ctx context.Context, userID uint, restaurantID *uint) ([]dto.AvailableVoucherDTO, error)
	ListExpired(ctx context.Context, userID uint, restaurantID *uint) ([]dto.VoucherDTO, error)
}

type VoucherController struct {
	service VoucherService
	logger  *zap.Logger
}

func NewVoucherController(service VoucherService, logger *zap.Logger) *VoucherController {
	return &VoucherController{
		service: service,
		logger:  logger,
	}
}

func (c *VoucherController) Preview(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		commons.WriteError(w, logger, traceID, apperrors.NewForbiddenError("missing caller identity"))
		return
	}

	var req dto.PreviewVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteError(w, logger, traceID, apperrors.NewValidationError("request body must be valid JSON"))
		return
	}

	if err := validatePreviewRequest(req); err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	resp, err := c.service.Preview(r.Context(), caller.ID, req)
	if err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *VoucherController) ListAvailable(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		commons.WriteError(w, logger, traceID, apperrors.NewForbiddenError("missing caller identity"))
		return
	}

	restaurantID, err := optionalUintQuery(r, "restaurantId")
	if err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	vouchers, err := c.service.ListAvailable(r.Context(), caller.ID, restaurantID)
	if err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, vouchers)
}

func (c *VoucherController) ListExpired(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		commons.WriteError(w, logger, traceID, apperrors.NewForbiddenError("missing caller identity"))
		return
	}

	restaurantID, err := optionalUintQuery(r, "restaurantId")
	if err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	vouchers, err := c.service.ListExpired(r.Context(), caller.ID, restaurantID)
	if err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, vouchers)
}

func validatePreviewRequest(req dto.PreviewVoucherRequest) error {
	var details []apperrors.ValidationDetail

	if req.RestaurantID == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "restaurantId",
			Message: "restaurantId is required",
		})
	}
	if req.Subtotal < 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "subtotal",
			Message: "subtotal must be non-negative",
		})
	}
	if req.ShippingFee < 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "shippingFee",
			Message: "shippingFee must be non-negative",
		})
	}
	if req.PromoID == nil && (req.Code == nil || *req.Code == "") {
		details = append(details, apperrors.ValidationDetail{
			Field:   "promoId",
			Message: "promoId or code is required",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

func optionalUintQuery(r *http.Request, name string) (*uint, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Message: name + " must be a positive integer",
		})
	}
	value := uint(parsed)
	return &value, nil
}
