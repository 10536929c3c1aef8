package usecase

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"deligo/internal/domain"
	"deligo/internal/dto"
	apperrors "deligo/internal/errors"
)

type CheckoutService interface {
	Checkout(ctx context.Context, userID uint, req dto.CheckoutRequest) (*dto.OrderResponse, error)
}

type LifecycleService interface {
	Accept(ctx context.Context, shipperID, orderID uint) (*dto.OrderResponse, error)
	Complete(ctx context.Context, shipperID, orderID uint) (*dto.OrderResponse, error)
	Reject(ctx context.Context, shipperID, orderID uint, reason *string) (*dto.OrderResponse, error)
	CancelByUser(ctx context.Context, userID, orderID uint, reason *string) (*dto.OrderResponse, error)
	CancelByAdmin(ctx context.Context, orderID uint, reason *string) (*dto.OrderResponse, error)
}

// OrderUseCase fronts the write-side order operations. Role gating happens
// here, and the contended paths retry on storage deadlocks.
type OrderUseCase struct {
	checkout         CheckoutService
	lifecycle        LifecycleService
	logger           *zap.Logger
	maxRetryAttempts int
}

func NewOrderUseCase(checkout CheckoutService, lifecycle LifecycleService, logger *zap.Logger, maxRetryAttempts int) *OrderUseCase {
	return &OrderUseCase{
		checkout:         checkout,
		lifecycle:        lifecycle,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
	}
}

func (uc *OrderUseCase) Checkout(ctx context.Context, caller Caller, req dto.CheckoutRequest) (*dto.OrderResponse, error) {
	if caller.Role == domain.RoleShipper {
		return nil, apperrors.NewForbiddenError("shippers cannot place orders")
	}

	uc.logger.Info("checkout started",
		zap.Uint("userId", caller.ID),
		zap.Uint("restaurantId", req.RestaurantID),
		zap.Int("itemCount", len(req.Items)),
	)

	return uc.checkout.Checkout(ctx, caller.ID, req)
}

func (uc *OrderUseCase) Accept(ctx context.Context, caller Caller, orderID uint) (*dto.OrderResponse, error) {
	if caller.Role != domain.RoleShipper {
		return nil, apperrors.NewForbiddenError("only shippers can accept orders")
	}

	return uc.withDeadlockRetry(ctx, orderID, func() (*dto.OrderResponse, error) {
		return uc.lifecycle.Accept(ctx, caller.ID, orderID)
	})
}

func (uc *OrderUseCase) Complete(ctx context.Context, caller Caller, orderID uint) (*dto.OrderResponse, error) {
	if caller.Role != domain.RoleShipper {
		return nil, apperrors.NewForbiddenError("only shippers can complete orders")
	}
	return uc.lifecycle.Complete(ctx, caller.ID, orderID)
}

func (uc *OrderUseCase) Reject(ctx context.Context, caller Caller, orderID uint, reason *string) (*dto.OrderResponse, error) {
	if caller.Role != domain.RoleShipper {
		return nil, apperrors.NewForbiddenError("only shippers can reject orders")
	}
	return uc.lifecycle.Reject(ctx, caller.ID, orderID, reason)
}

func (uc *OrderUseCase) Cancel(ctx context.Context, caller Caller, orderID uint, reason *string) (*dto.OrderResponse, error) {
	if caller.Role == domain.RoleAdmin {
		return uc.withDeadlockRetry(ctx, orderID, func() (*dto.OrderResponse, error) {
			return uc.lifecycle.CancelByAdmin(ctx, orderID, reason)
		})
	}
	if caller.Role == domain.RoleShipper {
		return nil, apperrors.NewForbiddenError("shippers cannot cancel orders")
	}

	return uc.withDeadlockRetry(ctx, orderID, func() (*dto.OrderResponse, error) {
		return uc.lifecycle.CancelByUser(ctx, caller.ID, orderID, reason)
	})
}

// Caller mirrors the authenticated principal without importing the HTTP
// middleware into the usecase layer.
type Caller struct {
	ID   uint
	Role domain.Role
}

func (uc *OrderUseCase) withDeadlockRetry(ctx context.Context, orderID uint, fn func() (*dto.OrderResponse, error)) (*dto.OrderResponse, error) {
	maxAttempts := uc.maxRetryAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := 100 * time.Millisecond

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		if !isDeadlockError(err) {
			return nil, err
		}
		if attempt < maxAttempts {
			// jitter: 80%-120% of the backoff base
			wait := time.Duration(float64(backoff*time.Duration(attempt)) * (0.8 + rand.Float64()*0.4))
			uc.logger.Warn("deadlock detected, retrying",
				zap.Int("attempt", attempt),
				zap.Uint("orderId", orderID),
			)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, apperrors.NewConflictError("operation kept deadlocking, retry later")
}

func isDeadlockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}
