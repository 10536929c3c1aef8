package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"deligo/internal/domain"
	"deligo/internal/dto"
	"deligo/internal/errors"
)

type QueryOrderRepository interface {
	FindByID(ctx context.Context, orderID uint) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uint, status *domain.OrderStatus) ([]*domain.Order, error)
	ListByRestaurant(ctx context.Context, restaurantID uint, status *domain.OrderStatus) ([]*domain.Order, error)
	ListByShipper(ctx context.Context, shipperID uint, status *domain.OrderStatus) ([]*domain.Order, error)
	ListAll(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error)
	ListPendingForShipper(ctx context.Context, shipperID uint) ([]*domain.Order, error)
	ShipperStats(ctx context.Context, shipperID uint) (*domain.ShipperStats, error)
	ShipperMonthlyRevenue(ctx context.Context, shipperID uint, year int) ([]domain.MonthRevenue, error)
	ShipperMonthRevenue(ctx context.Context, shipperID uint, year, month int) (*domain.MonthRevenue, error)
}

// QueryService answers the read side: single orders with access control,
// role-scoped listings, and the shipper dashboards.
type QueryService struct {
	orders QueryOrderRepository
	users  UserRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewQueryService(orders QueryOrderRepository, users UserRepository, logger *zap.Logger) *QueryService {
	return &QueryService{
		orders: orders,
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns one order. Buyers see their own orders, shippers the orders
// they carry or could pick up, admins everything.
func (s *QueryService) Get(ctx context.Context, requesterID uint, requesterRole domain.Role, orderID uint) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch requesterRole {
	case domain.RoleAdmin:
	case domain.RoleShipper:
		assignedElsewhere := order.ShipperID != nil && *order.ShipperID != requesterID
		if assignedElsewhere {
			return nil, errors.NewForbiddenError("order is assigned to another shipper")
		}
	default:
		if order.UserID != requesterID {
			return nil, errors.NewForbiddenError("order belongs to another user")
		}
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

func (s *QueryService) ListMine(ctx context.Context, userID uint, status *string) ([]dto.OrderResponse, error) {
	filter, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

func (s *QueryService) ListByRestaurant(ctx context.Context, restaurantID uint, status *string) ([]dto.OrderResponse, error) {
	filter, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByRestaurant(ctx, restaurantID, filter)
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

func (s *QueryService) ListForShipper(ctx context.Context, shipperID uint, status *string) ([]dto.OrderResponse, error) {
	filter, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByShipper(ctx, shipperID, filter)
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

func (s *QueryService) ListAll(ctx context.Context, status *string) ([]dto.OrderResponse, error) {
	filter, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

// ListPendingForShipper returns the shipper's feed: unassigned pending
// orders minus anything this shipper already rejected.
func (s *QueryService) ListPendingForShipper(ctx context.Context, shipperID uint) ([]dto.OrderResponse, error) {
	orders, err := s.orders.ListPendingForShipper(ctx, shipperID)
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

func (s *QueryService) ShipperStats(ctx context.Context, shipperID uint) (*dto.ShipperStatsResponse, error) {
	stats, err := s.orders.ShipperStats(ctx, shipperID)
	if err != nil {
		return nil, err
	}
	return &dto.ShipperStatsResponse{
		TotalOrders:     stats.TotalOrders,
		PendingOrders:   stats.PendingOrders,
		ShippingOrders:  stats.ShippingOrders,
		CompletedOrders: stats.CompletedOrders,
		CancelledOrders: stats.CancelledOrders,
		TotalRevenue:    stats.TotalRevenue,
	}, nil
}

// MonthlyRevenue returns a full twelve-month view for the year; months with
// no completed orders are zero-filled.
func (s *QueryService) MonthlyRevenue(ctx context.Context, shipperID uint, year int) (*dto.MonthlyRevenueResponse, error) {
	if year < 2000 || year > s.now().Year() {
		return nil, errors.NewValidationError("year is out of range")
	}

	months, err := s.orders.ShipperMonthlyRevenue(ctx, shipperID, year)
	if err != nil {
		return nil, err
	}

	resp := &dto.MonthlyRevenueResponse{
		Year:    year,
		Monthly: make([]dto.MonthRevenue, 12),
	}
	for i := range resp.Monthly {
		resp.Monthly[i].Month = i + 1
	}
	for _, m := range months {
		if m.Month < 1 || m.Month > 12 {
			continue
		}
		resp.Monthly[m.Month-1].Orders = m.Orders
		resp.Monthly[m.Month-1].Revenue = m.Revenue
		resp.TotalOrders += m.Orders
		resp.TotalRevenue += m.Revenue
	}

	return resp, nil
}

func (s *QueryService) CurrentMonthRevenue(ctx context.Context, shipperID uint) (*dto.CurrentMonthRevenueResponse, error) {
	now := s.now()
	m, err := s.orders.ShipperMonthRevenue(ctx, shipperID, now.Year(), int(now.Month()))
	if err != nil {
		return nil, err
	}
	return &dto.CurrentMonthRevenueResponse{
		Year:    now.Year(),
		Month:   int(now.Month()),
		Orders:  m.Orders,
		Revenue: m.Revenue,
	}, nil
}

func statusFilter(status *string) (*domain.OrderStatus, error) {
	if status == nil || *status == "" {
		return nil, nil
	}
	if !domain.ValidOrderStatus(*status) {
		return nil, errors.NewValidationError("unknown order status")
	}
	s := domain.OrderStatus(*status)
	return &s, nil
}

func toOrderResponses(orders []*domain.Order) []dto.OrderResponse {
	result := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, *toOrderResponse(o, nil))
	}
	return result
}
