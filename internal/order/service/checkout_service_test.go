package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"deligo/internal/domain"
	"deligo/internal/dto"
	"deligo/internal/errors"
	"deligo/internal/events"
)

type mockUserRepository struct {
	FindByIDFunc func(ctx context.Context, id uint) (*domain.User, error)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	return m.FindByIDFunc(ctx, id)
}

type mockRestaurantFinder struct {
	FindByIDFunc func(ctx context.Context, id uint) (*domain.Restaurant, error)
}

func (m *mockRestaurantFinder) FindByID(ctx context.Context, id uint) (*domain.Restaurant, error) {
	return m.FindByIDFunc(ctx, id)
}

type mockVoucherEngine struct {
	QuoteFunc      func(ctx context.Context, userID, promoID, restaurantID uint, subtotal, shippingFee float64) (float64, error)
	MarkUsedFunc   func(ctx context.Context, promoID, userID uint) error
	RefundUsedFunc func(ctx context.Context, promoID, userID uint) error
}

func (m *mockVoucherEngine) Quote(ctx context.Context, userID, promoID, restaurantID uint, subtotal, shippingFee float64) (float64, error) {
	return m.QuoteFunc(ctx, userID, promoID, restaurantID, subtotal, shippingFee)
}

func (m *mockVoucherEngine) MarkUsed(ctx context.Context, promoID, userID uint) error {
	return m.MarkUsedFunc(ctx, promoID, userID)
}

func (m *mockVoucherEngine) RefundUsed(ctx context.Context, promoID, userID uint) error {
	return m.RefundUsedFunc(ctx, promoID, userID)
}

type mockPaymentCreator struct {
	CreateFunc func(ctx context.Context, orderID, userID uint, amount float64, method domain.PaymentMethod) (*domain.Payment, error)
}

func (m *mockPaymentCreator) Create(ctx context.Context, orderID, userID uint, amount float64, method domain.PaymentMethod) (*domain.Payment, error) {
	return m.CreateFunc(ctx, orderID, userID, amount, method)
}

type mockCheckoutOrderRepository struct {
	CreateFunc   func(ctx context.Context, order *domain.Order) (uint, error)
	DeleteFunc   func(ctx context.Context, orderID uint) error
	FindByIDFunc func(ctx context.Context, orderID uint) (*domain.Order, error)
}

func (m *mockCheckoutOrderRepository) Create(ctx context.Context, order *domain.Order) (uint, error) {
	return m.CreateFunc(ctx, order)
}

func (m *mockCheckoutOrderRepository) Delete(ctx context.Context, orderID uint) error {
	return m.DeleteFunc(ctx, orderID)
}

func (m *mockCheckoutOrderRepository) FindByID(ctx context.Context, orderID uint) (*domain.Order, error) {
	return m.FindByIDFunc(ctx, orderID)
}

func testBuyer() *domain.User {
	phone := "0901234567"
	return &domain.User{
		ID:       1,
		Fullname: "An Nguyen",
		Phone:    &phone,
		Role:     domain.RoleCustomer,
		Balance:  500000,
	}
}

func testRestaurant() *domain.Restaurant {
	hotline := "1900-1234"
	address := "12 Ly Thuong Kiet"
	return &domain.Restaurant{
		ID:      3,
		Name:    "Pho 24",
		Address: &address,
		Hotline: &hotline,
		Menu: []domain.MenuItem{
			{FoodName: "Pho Bo", Price: 50000, Available: true},
			{FoodName: "Pho Ga", Price: 45000, Available: true},
		},
	}
}

func testCheckoutRequest() dto.CheckoutRequest {
	return dto.CheckoutRequest{
		RestaurantID: 3,
		Items: []dto.CheckoutItem{
			{FoodName: "Pho Bo", Quantity: 2},
		},
		Address:       "34 Tran Hung Dao",
		ShippingFee:   15000,
		PaymentMethod: "COD",
	}
}

func newCheckoutFixture() (*CheckoutService, *mockCheckoutOrderRepository, *mockPaymentCreator, *mockVoucherEngine) {
	users := &mockUserRepository{
		FindByIDFunc: func(ctx context.Context, id uint) (*domain.User, error) {
			return testBuyer(), nil
		},
	}
	restaurants := &mockRestaurantFinder{
		FindByIDFunc: func(ctx context.Context, id uint) (*domain.Restaurant, error) {
			return testRestaurant(), nil
		},
	}
	vouchers := &mockVoucherEngine{
		QuoteFunc: func(ctx context.Context, userID, promoID, restaurantID uint, subtotal, shippingFee float64) (float64, error) {
			return 0, nil
		},
		MarkUsedFunc: func(ctx context.Context, promoID, userID uint) error {
			return nil
		},
	}
	payments := &mockPaymentCreator{
		CreateFunc: func(ctx context.Context, orderID, userID uint, amount float64, method domain.PaymentMethod) (*domain.Payment, error) {
			return &domain.Payment{ID: 11, OrderID: orderID, UserID: userID, Amount: amount, Method: method, Status: domain.PaymentStatusPending}, nil
		},
	}
	orders := &mockCheckoutOrderRepository{
		CreateFunc: func(ctx context.Context, order *domain.Order) (uint, error) {
			order.ID = 77
			return 77, nil
		},
		DeleteFunc: func(ctx context.Context, orderID uint) error {
			return nil
		},
		FindByIDFunc: func(ctx context.Context, orderID uint) (*domain.Order, error) {
			method := domain.PaymentMethodCOD
			paymentID := uint(11)
			return &domain.Order{
				ID:          orderID,
				UserID:      1,
				Status:      domain.OrderStatusPending,
				PaymentID:   &paymentID,
				Subtotal:    100000,
				ShippingFee: 15000,
				TotalAmount: 115000,
				PaymentMethod: &method,
			}, nil
		},
	}

	svc := NewCheckoutService(users, restaurants, vouchers, payments, orders, events.NopPublisher{}, zap.NewNop(), 100)
	return svc, orders, payments, vouchers
}

func TestCheckout_Success(t *testing.T) {
	svc, orders, _, _ := newCheckoutFixture()

	var created *domain.Order
	orders.CreateFunc = func(ctx context.Context, order *domain.Order) (uint, error) {
		created = order
		order.ID = 77
		return 77, nil
	}

	resp, err := svc.Checkout(context.Background(), 1, testCheckoutRequest())

	require.NoError(t, err)
	assert.Equal(t, uint(77), resp.ID)
	require.NotNil(t, created)
	assert.Equal(t, 100000.0, created.Subtotal)
	assert.Equal(t, 115000.0, created.TotalAmount)
	assert.Equal(t, "An Nguyen", created.UserFullname)
	assert.Equal(t, "Pho 24", created.RestaurantName)
	assert.Equal(t, domain.OrderStatusPending, created.Status)
}

func TestCheckout_EmptyItemsRejected(t *testing.T) {
	svc, _, _, _ := newCheckoutFixture()
	req := testCheckoutRequest()
	req.Items = nil

	_, err := svc.Checkout(context.Background(), 1, req)

	_, ok := errors.IsValidationError(err)
	assert.True(t, ok)
}

func TestCheckout_ShipperForbidden(t *testing.T) {
	svc, _, _, _ := newCheckoutFixture()
	svc.users = &mockUserRepository{
		FindByIDFunc: func(ctx context.Context, id uint) (*domain.User, error) {
			return &domain.User{ID: id, Role: domain.RoleShipper}, nil
		},
	}

	_, err := svc.Checkout(context.Background(), 1, testCheckoutRequest())

	_, ok := errors.IsForbiddenError(err)
	assert.True(t, ok)
}

func TestCheckout_VoucherFailureAbortsBeforeOrder(t *testing.T) {
	svc, orders, _, vouchers := newCheckoutFixture()
	orderCreated := false
	orders.CreateFunc = func(ctx context.Context, order *domain.Order) (uint, error) {
		orderCreated = true
		return 77, nil
	}
	vouchers.QuoteFunc = func(ctx context.Context, userID, promoID, restaurantID uint, subtotal, shippingFee float64) (float64, error) {
		return 0, errors.NewVoucherInvalidError("voucher is not active")
	}

	req := testCheckoutRequest()
	promoID := uint(7)
	req.PromoID = &promoID

	_, err := svc.Checkout(context.Background(), 1, req)

	_, ok := errors.IsVoucherInvalidError(err)
	assert.True(t, ok)
	assert.False(t, orderCreated)
}

func TestCheckout_PaymentFailureRollsBackOrder(t *testing.T) {
	svc, orders, payments, _ := newCheckoutFixture()
	deleted := []uint{}
	orders.DeleteFunc = func(ctx context.Context, orderID uint) error {
		deleted = append(deleted, orderID)
		return nil
	}
	payments.CreateFunc = func(ctx context.Context, orderID, userID uint, amount float64, method domain.PaymentMethod) (*domain.Payment, error) {
		return nil, errors.NewInsufficientFundsError("balance is insufficient")
	}

	req := testCheckoutRequest()
	req.PaymentMethod = "Balance"

	_, err := svc.Checkout(context.Background(), 1, req)

	_, ok := errors.IsInsufficientFundsError(err)
	assert.True(t, ok)
	assert.Equal(t, []uint{77}, deleted)
}

func TestCheckout_MarkUsedFailureDoesNotFailOrder(t *testing.T) {
	svc, _, _, vouchers := newCheckoutFixture()
	vouchers.QuoteFunc = func(ctx context.Context, userID, promoID, restaurantID uint, subtotal, shippingFee float64) (float64, error) {
		return 10000, nil
	}
	vouchers.MarkUsedFunc = func(ctx context.Context, promoID, userID uint) error {
		return errors.NewInternalError("redemption write failed", nil)
	}

	req := testCheckoutRequest()
	promoID := uint(7)
	req.PromoID = &promoID

	resp, err := svc.Checkout(context.Background(), 1, req)

	require.NoError(t, err)
	assert.Equal(t, uint(77), resp.ID)
}

func TestCheckout_DiscountNeverExceedsOrderValue(t *testing.T) {
	svc, orders, _, vouchers := newCheckoutFixture()
	var created *domain.Order
	orders.CreateFunc = func(ctx context.Context, order *domain.Order) (uint, error) {
		created = order
		return 77, nil
	}
	vouchers.QuoteFunc = func(ctx context.Context, userID, promoID, restaurantID uint, subtotal, shippingFee float64) (float64, error) {
		return 999999, nil
	}

	req := testCheckoutRequest()
	promoID := uint(7)
	req.PromoID = &promoID

	_, err := svc.Checkout(context.Background(), 1, req)

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, created.Subtotal+created.ShippingFee, created.Discount)
	assert.Equal(t, 0.0, created.TotalAmount)
}

func TestCheckout_UnknownPaymentMethodRejected(t *testing.T) {
	svc, _, _, _ := newCheckoutFixture()
	req := testCheckoutRequest()
	req.PaymentMethod = "Card"

	_, err := svc.Checkout(context.Background(), 1, req)

	_, ok := errors.IsValidationError(err)
	assert.True(t, ok)
}
