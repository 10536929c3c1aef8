package domain

import "time"

type PaymentMethod string

const (
	PaymentMethodCOD     PaymentMethod = "COD"
	PaymentMethodBalance PaymentMethod = "Balance"
)

func ValidPaymentMethod(m string) bool {
	return PaymentMethod(m) == PaymentMethodCOD || PaymentMethod(m) == PaymentMethodBalance
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusFailed   PaymentStatus = "Failed"
	PaymentStatusRefunded PaymentStatus = "Refunded"
)

// CanTransition enforces the payment status DAG:
// Pending -> Paid | Failed, Paid -> Refunded. Failed and Refunded are terminal.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return to == PaymentStatusPaid || to == PaymentStatusFailed
	case PaymentStatusPaid:
		return to == PaymentStatusRefunded
	}
	return false
}

// Payment mirrors the order total at creation time. Amount never changes
// afterwards; only Status transitions in place.
type Payment struct {
	ID        uint
	OrderID   uint
	UserID    uint
	Amount    float64
	Method    PaymentMethod
	Status    PaymentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
