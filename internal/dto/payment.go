package dto

import "time"

type PaymentResponse struct {
	ID        uint      `json:"id"`
	OrderID   uint      `json:"orderId"`
	UserID    uint      `json:"userId"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
