package ports

import (
	"fulfillment/internal/core/domain/model/kernel"
)

// Role identifies which participant population a push channel belongs to.
// The connection registry keeps an independent map per role.
type Role string

const (
	RoleVendor   Role = "vendor"
	RoleCustomer Role = "customer"
	RoleCourier  Role = "courier"
)

// Real-time event types emitted by the coordinator.
const (
	// EventNewOrderOffer is sent to a vendor with only its own line items.
	EventNewOrderOffer = "new-order-offer"
	// EventOrderStatusUpdate is sent to the customer on every transition.
	EventOrderStatusUpdate = "order-status-update"
	// EventCourierOffer is broadcast to every available courier at once.
	EventCourierOffer = "courier-offer"
	// EventCourierAssigned is sent to the winning courier.
	EventCourierAssigned = "courier-assigned"
	// EventOfferVoided is sent to losing couriers after a win. Informational;
	// their offers are void with or without it.
	EventOfferVoided = "offer-voided"
	// EventOfferTimeout is informational: an offer window expired unresolved.
	EventOfferTimeout = "offer-timeout"
)

// Event is one typed real-time message.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Notifier delivers typed events to connected participants. Delivery is
// best-effort: sending to an offline participant is a no-op and no retry is
// guaranteed. Callers needing durable delivery must keep their own fallback
// (the vendor pending-requests queue, for example).
type Notifier interface {
	// IsOnline reports whether the participant has a live push channel.
	IsOnline(role Role, id kernel.UUID) bool

	// Send delivers an event to one participant. No-op when offline.
	Send(role Role, id kernel.UUID, event Event)

	// Broadcast delivers an event to every connected participant of a role.
	Broadcast(role Role, event Event)
}
