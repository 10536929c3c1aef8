package dto

type CheckoutItem struct {
	FoodName string `json:"foodName"`
	Quantity int    `json:"quantity"`
}

type CheckoutRequest struct {
	RestaurantID  uint           `json:"restaurantId"`
	Items         []CheckoutItem `json:"items"`
	Address       string         `json:"address"`
	Note          *string        `json:"note,omitempty"`
	ShippingFee   float64        `json:"shippingFee"`
	PromoID       *uint          `json:"promoId,omitempty"`
	PaymentMethod string         `json:"paymentMethod"`
}

type CancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type RejectRequest struct {
	Reason *string `json:"reason,omitempty"`
}
