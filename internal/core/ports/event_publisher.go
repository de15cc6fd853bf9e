package ports

import (
	"context"
	"time"
)

// OrderChangedEvent is the integration event published on every order status
// transition for downstream consumers (analytics, customer communications).
type OrderChangedEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	CourierID   string    `json:"courier_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventPublisher pushes integration events onto the message bus.
// Publishing failures must never abort the business transaction that caused
// the event; callers log and move on.
type EventPublisher interface {
	PublishOrderChanged(ctx context.Context, event OrderChangedEvent) error
}
