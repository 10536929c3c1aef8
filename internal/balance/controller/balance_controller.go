package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deligo/internal/commons"
	"deligo/internal/dto"
	apperrors "deligo/internal/errors"
	"deligo/internal/middleware"
)

type BalanceService interface {
	Get(ctx context.Context, userID uint) (*dto.BalanceResponse, error)
	TopUp(ctx context.Context, userID uint, amount float64) (*dto.BalanceResponse, error)
	Withdraw(ctx context.Context, userID uint, amount float64) (*dto.BalanceResponse, error)
}

type BalanceController struct {
	service BalanceService
	logger  *zap.Logger
}

func NewBalanceController(service BalanceService, logger *zap.Logger) *BalanceController {
	return &BalanceController{
		service: service,
		logger:  logger,
	}
}

func (c *BalanceController) Get(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		commons.WriteError(w, logger, traceID, apperrors.NewForbiddenError("missing caller identity"))
		return
	}

	resp, err := c.service.Get(r.Context(), caller.ID)
	if err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *BalanceController) TopUp(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		commons.WriteError(w, logger, traceID, apperrors.NewForbiddenError("missing caller identity"))
		return
	}

	var req dto.TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteError(w, logger, traceID, apperrors.NewValidationError("request body must be valid JSON"))
		return
	}

	resp, err := c.service.TopUp(r.Context(), caller.ID, req.Amount)
	if err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, resp)
}

func (c *BalanceController) Withdraw(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		commons.WriteError(w, logger, traceID, apperrors.NewForbiddenError("missing caller identity"))
		return
	}

	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteError(w, logger, traceID, apperrors.NewValidationError("request body must be valid JSON"))
		return
	}

	resp, err := c.service.Withdraw(r.Context(), caller.ID, req.Amount)
	if err != nil {
		commons.WriteError(w, logger, traceID, err)
		return
	}

	commons.WriteJSON(w, logger, http.StatusOK, resp)
}
