package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"deligo/internal/commons"
	"deligo/internal/domain"
	"deligo/internal/dto"
	apperrors "deligo/internal/errors"
	"deligo/internal/middleware"
)

type PaymentService interface {
	Get(ctx context.Context, requesterID uint, requesterRole domain.Role, paymentID uint) (*dto.PaymentResponse, error)
	GetByOrder(ctx context.Context, requesterID uint, requesterRole domain.Role, orderID uint) (*dto.PaymentResponse, error)
	ListMine(ctx context.Context, userID uint, status *string) ([]dto.PaymentResponse, error)
}

type PaymentController struct {
	service PaymentService
	logger  *zap.Logger
}

func NewPaymentController(service PaymentService, logger *zap.Logger) *PaymentController {
	return &PaymentController{
		service: service,
		logger:  logger,
	}
}

func (c *PaymentController) Get(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		commons.WriteError(w, logger, traceID, apperrors.NewForbiddenError("missing caller identity"))
		return
	}

	paymentID, err := pathID(r, "paymentId")
	if err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	resp, err := c.service.Get(r.Context(), caller.ID, caller.Role, paymentID)
	if err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *PaymentController) GetByOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		commons.WriteError(w, logger, traceID, apperrors.NewForbiddenError("missing caller identity"))
		return
	}

	orderID, err := pathID(r, "orderId")
	if err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	resp, err := c.service.GetByOrder(r.Context(), caller.ID, caller.Role, orderID)
	if err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *PaymentController) ListMine(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		commons.WriteError(w, logger, traceID, apperrors.NewForbiddenError("missing caller identity"))
		return
	}

	var status *string
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = &raw
	}

	resp, err := c.service.ListMine(r.Context(), caller.ID, status)
	if err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, resp)
}

func pathID(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, apperrors.NewValidationError("invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Message: name + " must be a positive integer",
		})
	}
	return uint(parsed), nil
}
