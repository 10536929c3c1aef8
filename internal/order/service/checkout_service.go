package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deligo/internal/domain"
	"deligo/internal/dto"
	"deligo/internal/errors"
	"deligo/internal/events"
	"deligo/internal/pricing"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.User, error)
}

type RestaurantFinder interface {
	FindByID(ctx context.Context, id uint) (*domain.Restaurant, error)
}

type VoucherEngine interface {
	Quote(ctx context.Context, userID, promoID, restaurantID uint, subtotal, shippingFee float64) (float64, error)
	MarkUsed(ctx context.Context, promoID, userID uint) error
	RefundUsed(ctx context.Context, promoID, userID uint) error
}

type PaymentCreator interface {
	Create(ctx context.Context, orderID, userID uint, amount float64, method domain.PaymentMethod) (*domain.Payment, error)
}

type CheckoutOrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (uint, error)
	Delete(ctx context.Context, orderID uint) error
	FindByID(ctx context.Context, orderID uint) (*domain.Order, error)
}

// CheckoutService orchestrates order creation: snapshot, pricing, voucher
// quote, the order insert, payment settlement, and the compensating delete
// when settlement fails.
type CheckoutService struct {
	users       UserRepository
	restaurants RestaurantFinder
	vouchers    VoucherEngine
	payments    PaymentCreator
	orders      CheckoutOrderRepository
	publisher   events.Publisher
	logger      *zap.Logger
	maxItems    int
}

func NewCheckoutService(
	users UserRepository,
	restaurants RestaurantFinder,
	vouchers VoucherEngine,
	payments PaymentCreator,
	orders CheckoutOrderRepository,
	publisher events.Publisher,
	logger *zap.Logger,
	maxItems int,
) *CheckoutService {
	return &CheckoutService{
		users:       users,
		restaurants: restaurants,
		vouchers:    vouchers,
		payments:    payments,
		orders:      orders,
		publisher:   publisher,
		logger:      logger,
		maxItems:    maxItems,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, userID uint, req dto.CheckoutRequest) (*dto.OrderResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	buyer, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if buyer.Role == domain.RoleShipper {
		return nil, errors.NewForbiddenError("shippers cannot place orders")
	}

	restaurant, err := s.restaurants.FindByID(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}

	items, subtotal, err := pricing.Resolve(restaurant, req.Items)
	if err != nil {
		return nil, err
	}

	var discount float64
	if req.PromoID != nil {
		discount, err = s.vouchers.Quote(ctx, userID, *req.PromoID, req.RestaurantID, subtotal, req.ShippingFee)
		if err != nil {
			return nil, err
		}
	}
	if discount > subtotal+req.ShippingFee {
		discount = subtotal + req.ShippingFee
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	var phone string
	if buyer.Phone != nil {
		phone = *buyer.Phone
	}
	var restaurantAddress string
	if restaurant.Address != nil {
		restaurantAddress = *restaurant.Address
	}

	order := &domain.Order{
		UserID:            userID,
		RestaurantID:      req.RestaurantID,
		UserFullname:      buyer.Fullname,
		UserPhone:         phone,
		RestaurantName:    restaurant.Name,
		RestaurantAddress: restaurantAddress,
		RestaurantHotline: restaurant.Hotline,
		Items:             items,
		Address:           req.Address,
		Note:              req.Note,
		Subtotal:          subtotal,
		ShippingFee:       req.ShippingFee,
		Discount:          discount,
		TotalAmount:       subtotal + req.ShippingFee - discount,
		PromoID:           req.PromoID,
		PaymentMethod:     &method,
		Status:            domain.OrderStatusPending,
	}

	orderID, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}
	order.ID = orderID

	payment, err := s.payments.Create(ctx, orderID, userID, order.TotalAmount, method)
	if err != nil {
		// The order must never exist without a settled payment outcome.
		if delErr := s.orders.Delete(ctx, orderID); delErr != nil {
			s.logger.Error("failed to roll back order after payment failure",
				zap.Uint("orderId", orderID), zap.Error(delErr))
		}
		return nil, err
	}
	order.PaymentID = &payment.ID

	// Redemption bookkeeping must never undo a settled payment. A miss here
	// is repaired by the reconciler.
	if req.PromoID != nil {
		if err := s.vouchers.MarkUsed(ctx, *req.PromoID, userID); err != nil {
			s.logger.Warn("failed to mark voucher used",
				zap.Uint("promoId", *req.PromoID),
				zap.Uint("orderId", orderID),
				zap.Error(err))
		}
	}

	s.publisher.Publish(events.OrderEvent{
		EventID:     uuid.New().String(),
		Type:        events.OrderCreated,
		OrderID:     orderID,
		UserID:      userID,
		TotalAmount: order.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	})

	s.logger.Info("order created",
		zap.Uint("orderId", orderID),
		zap.Uint("userId", userID),
		zap.Float64("total", order.TotalAmount),
		zap.String("method", string(method)),
	)

	hydrated, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		// The order is committed; fall back to the in-memory copy.
		s.logger.Warn("failed to rehydrate created order", zap.Uint("orderId", orderID), zap.Error(err))
		return toOrderResponse(order, nil), nil
	}

	return toOrderResponse(hydrated, nil), nil
}

func (s *CheckoutService) validate(req dto.CheckoutRequest) error {
	var details []errors.ValidationDetail

	if req.RestaurantID == 0 {
		details = append(details, errors.ValidationDetail{
			Field:   "restaurantId",
			Message: "restaurantId is required",
		})
	}
	if len(req.Items) == 0 {
		details = append(details, errors.ValidationDetail{
			Field:   "items",
			Message: "items must not be empty",
		})
	}
	if s.maxItems > 0 && len(req.Items) > s.maxItems {
		details = append(details, errors.ValidationDetail{
			Field:   "items",
			Message: "items exceeds the maximum allowed",
		})
	}
	for i, item := range req.Items {
		if item.FoodName == "" {
			details = append(details, errors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(i) + "].foodName",
				Message: "foodName is required",
			})
		}
		if item.Quantity < 1 {
			details = append(details, errors.ValidationDetail{
				Field:   "items[" + strconv.Itoa(i) + "].quantity",
				Message: "quantity must be at least 1",
			})
		}
	}
	if req.Address == "" {
		details = append(details, errors.ValidationDetail{
			Field:   "address",
			Message: "address is required",
		})
	}
	if req.ShippingFee < 0 {
		details = append(details, errors.ValidationDetail{
			Field:   "shippingFee",
			Message: "shippingFee must be non-negative",
		})
	}
	if !domain.ValidPaymentMethod(req.PaymentMethod) {
		details = append(details, errors.ValidationDetail{
			Field:   "paymentMethod",
			Message: "paymentMethod must be COD or Balance",
		})
	}

	if len(details) > 0 {
		return errors.NewValidationError("validation failed", details...)
	}
	return nil
}
