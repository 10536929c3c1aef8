package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"deligo/internal/domain"
	"deligo/internal/errors"
	"deligo/internal/events"
	"deligo/internal/order/repository"
)

type mockLifecycleOrderRepository struct {
	FindByIDFunc     func(ctx context.Context, orderID uint) (*domain.Order, error)
	AcceptIfFunc     func(ctx context.Context, orderID, shipperID uint) (bool, error)
	CompleteIfFunc   func(ctx context.Context, orderID, shipperID uint) (bool, error)
	ReleaseFunc      func(ctx context.Context, orderID, shipperID uint, reason *string) (bool, error)
	CancelIfFunc     func(ctx context.Context, q repository.Querier, orderID uint, allowed []domain.OrderStatus, cancelledBy string, reason *string) (bool, error)
	CancelItemsFunc  func(ctx context.Context, q repository.Querier, orderID uint) error
	MarkRefundedFunc func(ctx context.Context, q repository.Querier, orderID uint, amount float64) error
}

func (m *mockLifecycleOrderRepository) FindByID(ctx context.Context, orderID uint) (*domain.Order, error) {
	return m.FindByIDFunc(ctx, orderID)
}

func (m *mockLifecycleOrderRepository) AcceptIf(ctx context.Context, orderID, shipperID uint) (bool, error) {
	return m.AcceptIfFunc(ctx, orderID, shipperID)
}

func (m *mockLifecycleOrderRepository) CompleteIf(ctx context.Context, orderID, shipperID uint) (bool, error) {
	return m.CompleteIfFunc(ctx, orderID, shipperID)
}

func (m *mockLifecycleOrderRepository) Release(ctx context.Context, orderID, shipperID uint, reason *string) (bool, error) {
	return m.ReleaseFunc(ctx, orderID, shipperID, reason)
}

func (m *mockLifecycleOrderRepository) CancelIf(ctx context.Context, q repository.Querier, orderID uint, allowed []domain.OrderStatus, cancelledBy string, reason *string) (bool, error) {
	return m.CancelIfFunc(ctx, q, orderID, allowed, cancelledBy, reason)
}

func (m *mockLifecycleOrderRepository) CancelItems(ctx context.Context, q repository.Querier, orderID uint) error {
	return m.CancelItemsFunc(ctx, q, orderID)
}

func (m *mockLifecycleOrderRepository) MarkRefunded(ctx context.Context, q repository.Querier, orderID uint, amount float64) error {
	return m.MarkRefundedFunc(ctx, q, orderID, amount)
}

type mockPaymentSettler struct {
	MarkPaidFunc func(ctx context.Context, paymentID uint) error
	CancelTxFunc func(ctx context.Context, tx *sql.Tx, paymentID uint) (*domain.Payment, bool, error)
}

func (m *mockPaymentSettler) MarkPaid(ctx context.Context, paymentID uint) error {
	return m.MarkPaidFunc(ctx, paymentID)
}

func (m *mockPaymentSettler) CancelTx(ctx context.Context, tx *sql.Tx, paymentID uint) (*domain.Payment, bool, error) {
	return m.CancelTxFunc(ctx, tx, paymentID)
}

type mockVoucherReleaser struct {
	RefundUsedFunc func(ctx context.Context, promoID, userID uint) error
}

func (m *mockVoucherReleaser) RefundUsed(ctx context.Context, promoID, userID uint) error {
	return m.RefundUsedFunc(ctx, promoID, userID)
}

func pendingOrder() *domain.Order {
	return &domain.Order{
		ID:          77,
		UserID:      1,
		Status:      domain.OrderStatusPending,
		TotalAmount: 115000,
	}
}

func shippingOrder(shipperID uint) *domain.Order {
	o := pendingOrder()
	o.Status = domain.OrderStatusShipping
	o.ShipperID = &shipperID
	return o
}

func newLifecycleFixture(orders *mockLifecycleOrderRepository, payments *mockPaymentSettler) *LifecycleService {
	users := &mockUserRepository{
		FindByIDFunc: func(ctx context.Context, id uint) (*domain.User, error) {
			return &domain.User{ID: id, Fullname: "Binh Tran", Role: domain.RoleShipper}, nil
		},
	}
	vouchers := &mockVoucherReleaser{
		RefundUsedFunc: func(ctx context.Context, promoID, userID uint) error { return nil },
	}
	return NewLifecycleService(nil, orders, payments, vouchers, users, events.NopPublisher{}, zap.NewNop(), 5*time.Second)
}

func TestAccept_Success(t *testing.T) {
	orders := &mockLifecycleOrderRepository{
		FindByIDFunc: func(ctx context.Context, orderID uint) (*domain.Order, error) {
			return pendingOrder(), nil
		},
		AcceptIfFunc: func(ctx context.Context, orderID, shipperID uint) (bool, error) {
			assert.Equal(t, uint(9), shipperID)
			return true, nil
		},
	}
	svc := newLifecycleFixture(orders, &mockPaymentSettler{})

	resp, err := svc.Accept(context.Background(), 9, 77)

	require.NoError(t, err)
	assert.Equal(t, uint(77), resp.ID)
}

func TestAccept_RaceLoserGetsConflict(t *testing.T) {
	other := uint(4)
	calls := 0
	orders := &mockLifecycleOrderRepository{
		FindByIDFunc: func(ctx context.Context, orderID uint) (*domain.Order, error) {
			calls++
			if calls == 1 {
				return pendingOrder(), nil
			}
			return shippingOrder(other), nil
		},
		AcceptIfFunc: func(ctx context.Context, orderID, shipperID uint) (bool, error) {
			return false, nil
		},
	}
	svc := newLifecycleFixture(orders, &mockPaymentSettler{})

	_, err := svc.Accept(context.Background(), 9, 77)

	_, ok := errors.IsConflictError(err)
	assert.True(t, ok)
}

func TestAccept_PreviouslyRejectedShipperForbidden(t *testing.T) {
	orders := &mockLifecycleOrderRepository{
		FindByIDFunc: func(ctx context.Context, orderID uint) (*domain.Order, error) {
			o := pendingOrder()
			o.Rejections = []domain.RejectionEntry{{OrderID: 77, ShipperID: 9}}
			return o, nil
		},
	}
	svc := newLifecycleFixture(orders, &mockPaymentSettler{})

	_, err := svc.Accept(context.Background(), 9, 77)

	_, ok := errors.IsForbiddenError(err)
	assert.True(t, ok)
}

func TestAccept_TerminalOrderGuarded(t *testing.T) {
	orders := &mockLifecycleOrderRepository{
		FindByIDFunc: func(ctx context.Context, orderID uint) (*domain.Order, error) {
			o := pendingOrder()
			o.Status = domain.OrderStatusCancelled
			return o, nil
		},
	}
	svc := newLifecycleFixture(orders, &mockPaymentSettler{})

	_, err := svc.Accept(context.Background(), 9, 77)

	gErr, ok := errors.IsGuardViolationError(err)
	require.True(t, ok)
	assert.Equal(t, string(domain.OrderStatusCancelled), gErr.CurrentState)
}

func TestComplete_CODMarksPaymentPaid(t *testing.T) {
	paymentID := uint(11)
	method := domain.PaymentMethodCOD
	markPaidCalls := 0

	orders := &mockLifecycleOrderRepository{
		CompleteIfFunc: func(ctx context.Context, orderID, shipperID uint) (bool, error) {
			return true, nil
		},
		FindByIDFunc: func(ctx context.Context, orderID uint) (*domain.Order, error) {
			o := shippingOrder(9)
			o.Status = domain.OrderStatusCompleted
			o.PaymentID = &paymentID
			o.PaymentMethod = &method
			return o, nil
		},
	}
	payments := &mockPaymentSettler{
		MarkPaidFunc: func(ctx context.Context, id uint) error {
			markPaidCalls++
			assert.Equal(t, paymentID, id)
			return nil
		},
	}
	svc := newLifecycleFixture(orders, payments)

	resp, err := svc.Complete(context.Background(), 9, 77)

	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusCompleted), resp.Status)
	assert.Equal(t, 1, markPaidCalls)
}

func TestComplete_MarkPaidFailureDoesNotFailCompletion(t *testing.T) {
	paymentID := uint(11)
	method := domain.PaymentMethodCOD

	orders := &mockLifecycleOrderRepository{
		CompleteIfFunc: func(ctx context.Context, orderID, shipperID uint) (bool, error) {
			return true, nil
		},
		FindByIDFunc: func(ctx context.Context, orderID uint) (*domain.Order, error) {
			o := shippingOrder(9)
			o.Status = domain.OrderStatusCompleted
			o.PaymentID = &paymentID
			o.PaymentMethod = &method
			return o, nil
		},
	}
	payments := &mockPaymentSettler{
		MarkPaidFunc: func(ctx context.Context, id uint) error {
			return errors.NewInternalError("payment store unavailable", nil)
		},
	}
	svc := newLifecycleFixture(orders, payments)

	_, err := svc.Complete(context.Background(), 9, 77)

	assert.NoError(t, err)
}

func TestComplete_WrongShipperForbidden(t *testing.T) {
	other := uint(4)
	orders := &mockLifecycleOrderRepository{
		CompleteIfFunc: func(ctx context.Context, orderID, shipperID uint) (bool, error) {
			return false, nil
		},
		FindByIDFunc: func(ctx context.Context, orderID uint) (*domain.Order, error) {
			return shippingOrder(other), nil
		},
	}
	svc := newLifecycleFixture(orders, &mockPaymentSettler{})

	_, err := svc.Complete(context.Background(), 9, 77)

	_, ok := errors.IsForbiddenError(err)
	assert.True(t, ok)
}

func TestComplete_PendingOrderGuarded(t *testing.T) {
	orders := &mockLifecycleOrderRepository{
		CompleteIfFunc: func(ctx context.Context, orderID, shipperID uint) (bool, error) {
			return false, nil
		},
		FindByIDFunc: func(ctx context.Context, orderID uint) (*domain.Order, error) {
			return pendingOrder(), nil
		},
	}
	svc := newLifecycleFixture(orders, &mockPaymentSettler{})

	_, err := svc.Complete(context.Background(), 9, 77)

	gErr, ok := errors.IsGuardViolationError(err)
	require.True(t, ok)
	assert.Equal(t, string(domain.OrderStatusPending), gErr.CurrentState)
}

func TestReject_Success(t *testing.T) {
	reason := "vehicle broke down"
	orders := &mockLifecycleOrderRepository{
		ReleaseFunc: func(ctx context.Context, orderID, shipperID uint, r *string) (bool, error) {
			require.NotNil(t, r)
			assert.Equal(t, reason, *r)
			return true, nil
		},
		FindByIDFunc: func(ctx context.Context, orderID uint) (*domain.Order, error) {
			o := pendingOrder()
			o.Rejections = []domain.RejectionEntry{{OrderID: 77, ShipperID: 9, Reason: &reason}}
			return o, nil
		},
	}
	svc := newLifecycleFixture(orders, &mockPaymentSettler{})

	resp, err := svc.Reject(context.Background(), 9, 77, &reason)

	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusPending), resp.Status)
	require.Len(t, resp.Rejections, 1)
	assert.Equal(t, uint(9), resp.Rejections[0].ShipperID)
}

func TestCancelByUser_ForeignOrderForbidden(t *testing.T) {
	orders := &mockLifecycleOrderRepository{
		FindByIDFunc: func(ctx context.Context, orderID uint) (*domain.Order, error) {
			o := pendingOrder()
			o.UserID = 42
			return o, nil
		},
	}
	svc := newLifecycleFixture(orders, &mockPaymentSettler{})

	_, err := svc.CancelByUser(context.Background(), 1, 77, nil)

	_, ok := errors.IsForbiddenError(err)
	assert.True(t, ok)
}

func TestCancelByUser_NotFoundPropagates(t *testing.T) {
	orders := &mockLifecycleOrderRepository{
		FindByIDFunc: func(ctx context.Context, orderID uint) (*domain.Order, error) {
			return nil, errors.NewNotFoundError("order with id 77 not found")
		},
	}
	svc := newLifecycleFixture(orders, &mockPaymentSettler{})

	_, err := svc.CancelByUser(context.Background(), 1, 77, nil)

	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}
