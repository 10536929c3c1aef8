package controller

import (
	"context"
	"encoding/json"
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
	"deligo/internal/order/usecase"
)

type OrderUseCase interface {
	Checkout(ctx context.Context, caller usecase.Caller, req dto.CheckoutRequest) (*dto.OrderResponse, error)
	Accept(ctx context.Context, caller usecase.Caller, orderID uint) (*dto.OrderResponse, error)
	Complete(ctx context.Context, caller usecase.Caller, orderID uint) (*dto.OrderResponse, error)
	Reject(ctx context.Context, caller usecase.Caller, orderID uint, reason *string) (*dto.OrderResponse, error)
	Cancel(ctx context.Context, caller usecase.Caller, orderID uint, reason *string) (*dto.OrderResponse, error)
}

type OrderQueryService interface {
	Get(ctx context.Context, requesterID uint, requesterRole domain.Role, orderID uint) (*dto.OrderResponse, error)
	ListMine(ctx context.Context, userID uint, status *string) ([]dto.OrderResponse, error)
	ListByRestaurant(ctx context.Context, restaurantID uint, status *string) ([]dto.OrderResponse, error)
	ListForShipper(ctx context.Context, shipperID uint, status *string) ([]dto.OrderResponse, error)
	ListAll(ctx context.Context, status *string) ([]dto.OrderResponse, error)
	ListPendingForShipper(ctx context.Context, shipperID uint) ([]dto.OrderResponse, error)
	ShipperStats(ctx context.Context, shipperID uint) (*dto.ShipperStatsResponse, error)
	MonthlyRevenue(ctx context.Context, shipperID uint, year int) (*dto.MonthlyRevenueResponse, error)
	CurrentMonthRevenue(ctx context.Context, shipperID uint) (*dto.CurrentMonthRevenueResponse, error)
}

type OrderController struct {
	useCase OrderUseCase
	queries OrderQueryService
	logger  *zap.Logger
}

func NewOrderController(useCase OrderUseCase, queries OrderQueryService, logger *zap.Logger) *OrderController {
	return &OrderController{
		useCase: useCase,
		queries: queries,
		logger:  logger,
	}
}

type requestScope struct {
	traceID string
	logger  *zap.Logger
	caller  middleware.Caller
}

func (c *OrderController) begin(w http.ResponseWriter, r *http.Request) (*requestScope, bool) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		commons.WriteError(w, logger, traceID, apperrors.NewForbiddenError("missing caller identity"))
		return nil, false
	}

	return &requestScope{traceID: traceID, logger: logger, caller: caller}, true
}

func (scope *requestScope) asCaller() usecase.Caller {
	return usecase.Caller{ID: scope.caller.ID, Role: scope.caller.Role}
}

func (c *OrderController) Checkout(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.begin(w, r)
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		scope.logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteError(w, scope.logger, scope.traceID, apperrors.NewValidationError("request body must be valid JSON"))
		return
	}

	resp, err := c.useCase.Checkout(r.Context(), scope.asCaller(), req)
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	commons.WriteJSON(w, scope.logger, http.StatusCreated, resp)
}

func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.begin(w, r)
	if !ok {
		return
	}

	orderID, err := pathID(r, "orderId")
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	resp, err := c.queries.Get(r.Context(), scope.caller.ID, scope.caller.Role, orderID)
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	commons.WriteJSON(w, scope.logger, http.StatusOK, resp)
}

func (c *OrderController) ListMine(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.begin(w, r)
	if !ok {
		return
	}

	resp, err := c.queries.ListMine(r.Context(), scope.caller.ID, statusQuery(r))
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	commons.WriteJSON(w, scope.logger, http.StatusOK, resp)
}

func (c *OrderController) ListByRestaurant(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.begin(w, r)
	if !ok {
		return
	}

	restaurantID, err := pathID(r, "restaurantId")
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	resp, err := c.queries.ListByRestaurant(r.Context(), restaurantID, statusQuery(r))
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	commons.WriteJSON(w, scope.logger, http.StatusOK, resp)
}

func (c *OrderController) ListAll(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.begin(w, r)
	if !ok {
		return
	}

	resp, err := c.queries.ListAll(r.Context(), statusQuery(r))
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	commons.WriteJSON(w, scope.logger, http.StatusOK, resp)
}

func (c *OrderController) Accept(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(ctx context.Context, scope *requestScope, orderID uint) (*dto.OrderResponse, error) {
		return c.useCase.Accept(ctx, scope.asCaller(), orderID)
	})
}

func (c *OrderController) Complete(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(ctx context.Context, scope *requestScope, orderID uint) (*dto.OrderResponse, error) {
		return c.useCase.Complete(ctx, scope.asCaller(), orderID)
	})
}

func (c *OrderController) Reject(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.begin(w, r)
	if !ok {
		return
	}

	orderID, err := pathID(r, "orderId")
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	var req dto.RejectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			scope.logger.Warn("invalid JSON body", zap.Error(err))
			commons.WriteError(w, scope.logger, scope.traceID, apperrors.NewValidationError("request body must be valid JSON"))
			return
		}
	}

	resp, err := c.useCase.Reject(r.Context(), scope.asCaller(), orderID, req.Reason)
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	commons.WriteJSON(w, scope.logger, http.StatusOK, resp)
}

func (c *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.begin(w, r)
	if !ok {
		return
	}

	orderID, err := pathID(r, "orderId")
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	var req dto.CancelRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			scope.logger.Warn("invalid JSON body", zap.Error(err))
			commons.WriteError(w, scope.logger, scope.traceID, apperrors.NewValidationError("request body must be valid JSON"))
			return
		}
	}

	resp, err := c.useCase.Cancel(r.Context(), scope.asCaller(), orderID, req.Reason)
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	commons.WriteJSON(w, scope.logger, http.StatusOK, resp)
}

func (c *OrderController) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, scope *requestScope, orderID uint) (*dto.OrderResponse, error)) {
	scope, ok := c.begin(w, r)
	if !ok {
		return
	}

	orderID, err := pathID(r, "orderId")
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	resp, err := fn(r.Context(), scope, orderID)
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	commons.WriteJSON(w, scope.logger, http.StatusOK, resp)
}

func (c *OrderController) PendingFeed(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.begin(w, r)
	if !ok {
		return
	}

	resp, err := c.queries.ListPendingForShipper(r.Context(), scope.caller.ID)
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	commons.WriteJSON(w, scope.logger, http.StatusOK, resp)
}

func (c *OrderController) ShipperOrders(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.begin(w, r)
	if !ok {
		return
	}

	resp, err := c.queries.ListForShipper(r.Context(), scope.caller.ID, statusQuery(r))
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	commons.WriteJSON(w, scope.logger, http.StatusOK, resp)
}

func (c *OrderController) ShipperStats(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.begin(w, r)
	if !ok {
		return
	}

	resp, err := c.queries.ShipperStats(r.Context(), scope.caller.ID)
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	commons.WriteJSON(w, scope.logger, http.StatusOK, resp)
}

func (c *OrderController) MonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.begin(w, r)
	if !ok {
		return
	}

	yearStr := chi.URLParam(r, "year")
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, apperrors.NewValidationError("year must be an integer"))
		return
	}

	resp, err := c.queries.MonthlyRevenue(r.Context(), scope.caller.ID, year)
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	commons.WriteJSON(w, scope.logger, http.StatusOK, resp)
}

func (c *OrderController) CurrentMonthRevenue(w http.ResponseWriter, r *http.Request) {
	scope, ok := c.begin(w, r)
	if !ok {
		return
	}

	resp, err := c.queries.CurrentMonthRevenue(r.Context(), scope.caller.ID)
	if err != nil {
		commons.WriteError(w, scope.logger, scope.traceID, err)
		return
	}

	commons.WriteJSON(w, scope.logger, http.StatusOK, resp)
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

func statusQuery(r *http.Request) *string {
	if raw := r.URL.Query().Get("status"); raw != "" {
		return &raw
	}
	return nil
}
