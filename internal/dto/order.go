package dto

import "time"

type OrderItemDTO struct {
	FoodName  string  `json:"foodName"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
	Status    string  `json:"status"`
}

type RejectionDTO struct {
	ShipperID  uint      `json:"shipperId"`
	Reason     *string   `json:"reason,omitempty"`
	RejectedAt time.Time `json:"rejectedAt"`
}

// ShipperInfoDTO is filled on the full response when a shipper is assigned.
type ShipperInfoDTO struct {
	ShipperID uint    `json:"shipperId"`
	Fullname  string  `json:"fullname"`
	Phone     *string `json:"phone,omitempty"`
}

type OrderResponse struct {
	ID                 uint            `json:"id"`
	UserID             uint            `json:"userId"`
	RestaurantID       uint            `json:"restaurantId"`
	ShipperID          *uint           `json:"shipperId,omitempty"`
	Shipper            *ShipperInfoDTO `json:"shipper,omitempty"`
	UserFullname       string          `json:"userFullname"`
	UserPhone          string          `json:"userPhone"`
	RestaurantName     string          `json:"restaurantName"`
	RestaurantAddress  string          `json:"restaurantAddress"`
	RestaurantHotline  *string         `json:"restaurantHotline,omitempty"`
	Items              []OrderItemDTO  `json:"items"`
	Address            string          `json:"address"`
	Note               *string         `json:"note,omitempty"`
	Subtotal           float64         `json:"subtotal"`
	ShippingFee        float64         `json:"shippingFee"`
	Discount           float64         `json:"discount"`
	TotalAmount        float64         `json:"totalAmount"`
	PromoID            *uint           `json:"promoId,omitempty"`
	PaymentID          *uint           `json:"paymentId,omitempty"`
	PaymentMethod      *string         `json:"paymentMethod,omitempty"`
	Status             string          `json:"status"`
	IsReviewed         bool            `json:"isReviewed"`
	Refunded           bool            `json:"refunded"`
	RefundedAmount     float64         `json:"refundedAmount"`
	RefundedAt         *time.Time      `json:"refundedAt,omitempty"`
	CancelledBy        *string         `json:"cancelledBy,omitempty"`
	CancellationReason *string         `json:"cancellationReason,omitempty"`
	Rejections         []RejectionDTO  `json:"rejections"`
	PickedAt           *time.Time      `json:"pickedAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

type ShipperStatsResponse struct {
	TotalOrders     int     `json:"totalOrders"`
	PendingOrders   int     `json:"pendingOrders"`
	ShippingOrders  int     `json:"shippingOrders"`
	CompletedOrders int     `json:"completedOrders"`
	CancelledOrders int     `json:"cancelledOrders"`
	TotalRevenue    float64 `json:"totalRevenue"`
}

type MonthRevenue struct {
	Month   int     `json:"month"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type MonthlyRevenueResponse struct {
	Year         int            `json:"year"`
	Monthly      []MonthRevenue `json:"monthly"`
	TotalOrders  int            `json:"totalOrders"`
	TotalRevenue float64        `json:"totalRevenue"`
}

type CurrentMonthRevenueResponse struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}
