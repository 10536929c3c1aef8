package events

import "time"

const (
	OrderCreated   = "order.created"
	OrderAccepted  = "order.accepted"
	OrderRejected  = "order.rejected"
	OrderCompleted = "order.completed"
	OrderCancelled = "order.cancelled"
)

// OrderEvent is the message published for every lifecycle transition.
// Publishing is best-effort: a broker outage never fails the transition.
type OrderEvent struct {
	EventID     string    `json:"eventId"`
	Type        string    `json:"type"`
	OrderID     uint      `json:"orderId"`
	UserID      uint      `json:"userId"`
	ShipperID   *uint     `json:"shipperId,omitempty"`
	TotalAmount float64   `json:"totalAmount"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(event OrderEvent)
	Close() error
}

// NopPublisher is used when Kafka is disabled and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(OrderEvent) {}
func (NopPublisher) Close() error       { return nil }
