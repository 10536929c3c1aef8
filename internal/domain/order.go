package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipping  OrderStatus = "Shipping"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// Terminal reports whether no further transition is allowed from the status.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func ValidOrderStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusShipping, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

const (
	OrderItemActive    = "Active"
	OrderItemCancelled = "Cancelled"
)

// Cancellation actors recorded on the order.
const (
	CancelledByUser  = "user"
	CancelledByAdmin = "admin"
)

type OrderItem struct {
	ID        uint
	OrderID   uint
	FoodName  string
	Quantity  int
	UnitPrice float64
	Subtotal  float64
	Status    string
}

// RejectionEntry records a shipper handing an order back. The history survives
// re-acceptance cycles and is used to hide the order from that shipper's feed.
type RejectionEntry struct {
	ID         uint
	OrderID    uint
	ShipperID  uint
	Reason     *string
	RejectedAt time.Time
}

// Order carries a denormalized snapshot of the buyer and the restaurant taken
// at creation time. The snapshot is immutable: later profile edits must not
// change what the shipper sees on an order already in flight.
type Order struct {
	ID           uint
	UserID       uint
	RestaurantID uint
	ShipperID    *uint
	PaymentID    *uint

	UserFullname      string
	UserPhone         string
	RestaurantName    string
	RestaurantAddress string
	RestaurantHotline *string

	Items   []OrderItem
	Address string
	Note    *string

	Subtotal    float64
	ShippingFee float64
	Discount    float64
	TotalAmount float64

	PromoID       *uint
	PaymentMethod *PaymentMethod

	Status     OrderStatus
	IsReviewed bool

	Refunded       bool
	RefundedAmount float64
	RefundedAt     *time.Time

	CancelledBy        *string
	CancellationReason *string

	Rejections []RejectionEntry

	PickedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RejectedBy reports whether the given shipper has previously handed this
// order back.
func (o *Order) RejectedBy(shipperID uint) bool {
	for _, r := range o.Rejections {
		if r.ShipperID == shipperID {
			return true
		}
	}
	return false
}

// AssignedTo reports whether the order is currently held by the given shipper.
func (o *Order) AssignedTo(shipperID uint) bool {
	return o.ShipperID != nil && *o.ShipperID == shipperID
}
