package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deligo/internal/domain"
	"deligo/internal/dto"
	"deligo/internal/errors"
	"deligo/internal/events"
	"deligo/internal/order/repository"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type LifecycleOrderRepository interface {
	FindByID(ctx context.Context, orderID uint) (*domain.Order, error)
	AcceptIf(ctx context.Context, orderID, shipperID uint) (bool, error)
	CompleteIf(ctx context.Context, orderID, shipperID uint) (bool, error)
	Release(ctx context.Context, orderID, shipperID uint, reason *string) (bool, error)
	CancelIf(ctx context.Context, q repository.Querier, orderID uint, allowed []domain.OrderStatus, cancelledBy string, reason *string) (bool, error)
	CancelItems(ctx context.Context, q repository.Querier, orderID uint) error
	MarkRefunded(ctx context.Context, q repository.Querier, orderID uint, amount float64) error
}

type PaymentSettler interface {
	MarkPaid(ctx context.Context, paymentID uint) error
	CancelTx(ctx context.Context, tx *sql.Tx, paymentID uint) (*domain.Payment, bool, error)
}

type VoucherReleaser interface {
	RefundUsed(ctx context.Context, promoID, userID uint) error
}

// LifecycleService drives the order state machine after creation: shipper
// accept/complete/reject and buyer/admin cancellation with payment and
// voucher compensation.
type LifecycleService struct {
	db        TransactionManager
	orders    LifecycleOrderRepository
	payments  PaymentSettler
	vouchers  VoucherReleaser
	users     UserRepository
	publisher events.Publisher
	logger    *zap.Logger
	txTimeout time.Duration
}

func NewLifecycleService(
	db TransactionManager,
	orders LifecycleOrderRepository,
	payments PaymentSettler,
	vouchers VoucherReleaser,
	users UserRepository,
	publisher events.Publisher,
	logger *zap.Logger,
	txTimeout time.Duration,
) *LifecycleService {
	return &LifecycleService{
		db:        db,
		orders:    orders,
		payments:  payments,
		vouchers:  vouchers,
		users:     users,
		publisher: publisher,
		logger:    logger,
		txTimeout: txTimeout,
	}
}

// Accept assigns a pending order to the shipper. Concurrent shippers race on
// a conditional update; exactly one wins, the rest get ConflictError.
func (s *LifecycleService) Accept(ctx context.Context, shipperID, orderID uint) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.RejectedBy(shipperID) {
		return nil, errors.NewForbiddenError("shipper previously rejected this order")
	}
	if order.Status != domain.OrderStatusPending {
		return nil, s.acceptFailure(order)
	}

	ok, err := s.orders.AcceptIf(ctx, orderID, shipperID)
	if err != nil {
		return nil, err
	}
	if !ok {
		order, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return nil, s.acceptFailure(order)
	}

	s.publish(events.OrderAccepted, order, &shipperID)
	s.logger.Info("order accepted", zap.Uint("orderId", orderID), zap.Uint("shipperId", shipperID))

	return s.hydrate(ctx, orderID)
}

func (s *LifecycleService) acceptFailure(order *domain.Order) error {
	if order.Status.Terminal() {
		return errors.NewGuardViolationError("order cannot be accepted", string(order.Status))
	}
	return errors.NewConflictError("order was taken by another shipper")
}

// Complete finishes a shipping order. For COD orders the payment is marked
// paid on delivery; that bookkeeping is best-effort and never undoes the
// completed state.
func (s *LifecycleService) Complete(ctx context.Context, shipperID, orderID uint) (*dto.OrderResponse, error) {
	ok, err := s.orders.CompleteIf(ctx, orderID, shipperID)
	if err != nil {
		return nil, err
	}
	if !ok {
		order, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if order.Status != domain.OrderStatusShipping {
			return nil, errors.NewGuardViolationError("order cannot be completed", string(order.Status))
		}
		if !order.AssignedTo(shipperID) {
			return nil, errors.NewForbiddenError("order is assigned to another shipper")
		}
		return nil, errors.NewConflictError("order completion lost a concurrent update")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentID != nil && order.PaymentMethod != nil && *order.PaymentMethod == domain.PaymentMethodCOD {
		if err := s.payments.MarkPaid(ctx, *order.PaymentID); err != nil {
			s.logger.Warn("failed to mark COD payment paid on completion",
				zap.Uint("orderId", orderID),
				zap.Uint("paymentId", *order.PaymentID),
				zap.Error(err))
		}
	}

	s.publish(events.OrderCompleted, order, &shipperID)
	s.logger.Info("order completed", zap.Uint("orderId", orderID), zap.Uint("shipperId", shipperID))

	return s.hydrate(ctx, orderID)
}

// Reject hands a shipping order back to the pending pool. The rejection is
// recorded so the order never reappears in this shipper's feed.
func (s *LifecycleService) Reject(ctx context.Context, shipperID, orderID uint, reason *string) (*dto.OrderResponse, error) {
	ok, err := s.orders.Release(ctx, orderID, shipperID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		order, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if order.Status != domain.OrderStatusShipping {
			return nil, errors.NewGuardViolationError("order cannot be rejected", string(order.Status))
		}
		if !order.AssignedTo(shipperID) {
			return nil, errors.NewForbiddenError("order is assigned to another shipper")
		}
		return nil, errors.NewConflictError("order rejection lost a concurrent update")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.publish(events.OrderRejected, order, &shipperID)
	s.logger.Info("order rejected", zap.Uint("orderId", orderID), zap.Uint("shipperId", shipperID))

	return toOrderResponse(order, nil), nil
}

// CancelByUser cancels the buyer's own pending order.
func (s *LifecycleService) CancelByUser(ctx context.Context, userID, orderID uint, reason *string) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, errors.NewForbiddenError("order belongs to another user")
	}

	return s.cancel(ctx, order, []domain.OrderStatus{domain.OrderStatusPending}, domain.CancelledByUser, reason)
}

// CancelByAdmin cancels any non-terminal order.
func (s *LifecycleService) CancelByAdmin(ctx context.Context, orderID uint, reason *string) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	allowed := []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusShipping}
	return s.cancel(ctx, order, allowed, domain.CancelledByAdmin, reason)
}

// cancel runs the cancellation transaction: the conditional status update
// decides any race, then the payment is refunded or failed and the refund
// flagged on the order, all atomically. Voucher release happens after commit
// and is best-effort.
func (s *LifecycleService) cancel(ctx context.Context, order *domain.Order, allowed []domain.OrderStatus, actor string, reason *string) (*dto.OrderResponse, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, nil)
	if err != nil {
		return nil, errors.NewInternalError("failed to begin cancel transaction", err)
	}
	defer tx.Rollback()

	ok, err := s.orders.CancelIf(txCtx, tx, order.ID, allowed, actor, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.orders.FindByID(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		for _, status := range allowed {
			if current.Status == status {
				return nil, errors.NewConflictError("order cancellation lost a concurrent update")
			}
		}
		return nil, errors.NewGuardViolationError("order cannot be cancelled", string(current.Status))
	}

	if err := s.orders.CancelItems(txCtx, tx, order.ID); err != nil {
		return nil, err
	}

	if order.PaymentID != nil {
		payment, refunded, err := s.payments.CancelTx(txCtx, tx, *order.PaymentID)
		if err != nil {
			return nil, err
		}
		if refunded {
			if err := s.orders.MarkRefunded(txCtx, tx, order.ID, payment.Amount); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternalError("failed to commit cancel transaction", err)
	}

	if order.PromoID != nil {
		if err := s.vouchers.RefundUsed(ctx, *order.PromoID, order.UserID); err != nil {
			s.logger.Warn("failed to release voucher redemption",
				zap.Uint("promoId", *order.PromoID),
				zap.Uint("orderId", order.ID),
				zap.Error(err))
		}
	}

	s.publish(events.OrderCancelled, order, nil)
	s.logger.Info("order cancelled",
		zap.Uint("orderId", order.ID),
		zap.String("cancelledBy", actor),
	)

	return s.hydrate(ctx, order.ID)
}

func (s *LifecycleService) hydrate(ctx context.Context, orderID uint) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var shipper *domain.User
	if order.ShipperID != nil {
		shipper, err = s.users.FindByID(ctx, *order.ShipperID)
		if err != nil {
			s.logger.Warn("failed to load shipper info", zap.Uint("orderId", orderID), zap.Error(err))
			shipper = nil
		}
	}

	return toOrderResponse(order, shipper), nil
}

func (s *LifecycleService) publish(eventType string, order *domain.Order, shipperID *uint) {
	s.publisher.Publish(events.OrderEvent{
		EventID:     uuid.New().String(),
		Type:        eventType,
		OrderID:     order.ID,
		UserID:      order.UserID,
		ShipperID:   shipperID,
		TotalAmount: order.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	})
}
