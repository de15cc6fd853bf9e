package commands

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/dispatch"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
)

// Realtime payload shapes. These are the wire bodies of the typed events the
// coordinator pushes over the connection registry.

type statusUpdatePayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	CourierID   string `json:"courier_id,omitempty"`
}

type offerItemPayload struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type vendorOfferPayload struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Items       []offerItemPayload `json:"items"`
	RespondBy   time.Time          `json:"respond_by"`
}

type courierOfferPayload struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Payout      string    `json:"payout"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type offerClosedPayload struct {
	OrderID string `json:"order_id"`
}

type courierAssignedPayload struct {
	OrderID       string `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
}

func statusUpdateEvent(o *order.Order) ports.Event {
	payload := statusUpdatePayload{
		OrderID:     o.ID().String(),
		OrderNumber: o.Number(),
		Status:      o.Status().String(),
	}
	if o.Courier() != nil {
		payload.CourierID = o.Courier().String()
	}
	return ports.Event{Type: ports.EventOrderStatusUpdate, Payload: payload}
}

// notifyCustomerStatus pushes the order's current status to its customer.
// Best-effort; an offline customer simply polls the order later.
func notifyCustomerStatus(notifier ports.Notifier, o *order.Order) {
	notifier.Send(ports.RoleCustomer, o.CustomerID(), statusUpdateEvent(o))
}

// notifyVendorsStatus pushes the order's current status to every vendor with
// a line in it. Used on cancellation so kitchens stop working a dead order.
func notifyVendorsStatus(notifier ports.Notifier, o *order.Order) {
	event := statusUpdateEvent(o)
	for _, vendorID := range o.VendorIDs() {
		notifier.Send(ports.RoleVendor, vendorID, event)
	}
}

// notifyVendorOffers pushes a new-order offer to each vendor in the order,
// restricted to that vendor's own lines. Vendors that are offline miss the
// push and pick the order up from their durable pending queue instead.
func notifyVendorOffers(notifier ports.Notifier, o *order.Order, respondBy time.Time) {
	for _, vendorID := range o.VendorIDs() {
		items := o.ItemsForVendor(vendorID)
		payload := vendorOfferPayload{
			OrderID:     o.ID().String(),
			OrderNumber: o.Number(),
			Items:       make([]offerItemPayload, 0, len(items)),
			RespondBy:   respondBy,
		}
		for _, item := range items {
			payload.Items = append(payload.Items, offerItemPayload{
				Name:      item.Name(),
				Quantity:  item.Quantity(),
				UnitPrice: item.UnitPrice().String(),
			})
		}
		notifier.Send(ports.RoleVendor, vendorID, ports.Event{
			Type:    ports.EventNewOrderOffer,
			Payload: payload,
		})
	}
}

// broadcastCourierOffer pushes a courier offer to every candidate at once.
func broadcastCourierOffer(notifier ports.Notifier, o *order.Order, candidates []kernel.UUID, expiresAt time.Time) {
	event := ports.Event{
		Type: ports.EventCourierOffer,
		Payload: courierOfferPayload{
			OrderID:     o.ID().String(),
			OrderNumber: o.Number(),
			Payout:      o.Totals().DeliveryCharge.String(),
			ExpiresAt:   expiresAt,
		},
	}
	for _, candidate := range candidates {
		notifier.Send(ports.RoleCourier, candidate, event)
	}
}

// publishOrderChanged emits the integration event for the order's current
// state. Publish failures are logged and swallowed; the business transaction
// that caused the change has already committed.
func publishOrderChanged(ctx context.Context, publisher ports.EventPublisher, logger *slog.Logger, o *order.Order, now time.Time) {
	event := ports.OrderChangedEvent{
		OrderID:     o.ID().String(),
		OrderNumber: o.Number(),
		Status:      o.Status().String(),
		OccurredAt:  now,
	}
	if o.Courier() != nil {
		event.CourierID = o.Courier().String()
	}
	if err := publisher.PublishOrderChanged(ctx, event); err != nil {
		logger.Error("failed to publish order changed event",
			"order_id", o.ID().String(), "error", err)
	}
}

func availableCourierIDs(couriers []*courier.Courier) []kernel.UUID {
	ids := make([]kernel.UUID, 0, len(couriers))
	for _, c := range couriers {
		ids = append(ids, c.ID())
	}
	return ids
}

// courierDispatch bundles the side effects of opening a courier offer window:
// tracking it on the board, broadcasting it, and arming the expiry wake-up.
// Shared by the vendor response handler (merged accept path), the courier
// response handler (re-broadcast after reject) and the reconciliation sweep.
type courierDispatch struct {
	board     *services.DispatchBoard
	notifier  ports.Notifier
	scheduler ports.Scheduler
	timings   order.Timings
	logger    *slog.Logger
}

// open starts a fresh offer window for the order over the given candidates.
// With no candidates there is nothing to broadcast; the wake-up is still
// armed so the sweep retries once the window would have closed.
func (d courierDispatch) open(o *order.Order, candidates []kernel.UUID, now time.Time) {
	if len(candidates) == 0 {
		d.logger.Warn("no available couriers to offer order to",
			"order_id", o.ID().String())
		d.scheduler.WakeAt(o.ID(), now.Add(d.timings.CourierWindow))
		return
	}

	offer, err := dispatch.NewOffer(o.ID(), dispatch.CourierStage, candidates, now, d.timings.CourierWindow)
	if err != nil {
		d.logger.Error("failed to create courier offer",
			"order_id", o.ID().String(), "error", err)
		return
	}

	if err := d.board.Open(offer); err != nil {
		d.logger.Warn("courier offer is already open",
			"order_id", o.ID().String(), "error", err)
		return
	}

	broadcastCourierOffer(d.notifier, o, candidates, offer.ExpiresAt())
	d.scheduler.WakeAt(o.ID(), offer.ExpiresAt())
}

// openOffer tracks and broadcasts an already constructed offer. Used when the
// candidate set was derived from a predecessor's exclusions.
func (d courierDispatch) openOffer(o *order.Order, offer *dispatch.Offer) {
	if err := d.board.Open(offer); err != nil {
		d.logger.Warn("courier offer is already open",
			"order_id", o.ID().String(), "error", err)
		return
	}

	broadcastCourierOffer(d.notifier, o, offer.RemainingCandidates(), offer.ExpiresAt())
	d.scheduler.WakeAt(o.ID(), offer.ExpiresAt())
}
