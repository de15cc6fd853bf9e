package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// CheckoutOrderCommandHandler turns a confirmed basket into a Placed order
// and starts the vendor offer stage: each vendor in the order gets a push
// with its own lines and a soft respond-by hint. The hard vendor deadline is
// owned by the state machine once the scheduler marks the order pending.
type CheckoutOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	notifier   ports.Notifier
	publisher  ports.EventPublisher
	scheduler  ports.Scheduler
	clock      ports.Clock
	policy     order.FeePolicy
	timings    order.Timings
	logger     *slog.Logger
}

// NewCheckoutOrderCommandHandler creates a handler for order placement.
func NewCheckoutOrderCommandHandler(
	uowFactory OrderUoWFactory,
	notifier ports.Notifier,
	publisher ports.EventPublisher,
	scheduler ports.Scheduler,
	clock ports.Clock,
	policy order.FeePolicy,
	timings order.Timings,
	logger *slog.Logger,
) CheckoutOrderCommandHandler {
	return CheckoutOrderCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		publisher:  publisher,
		scheduler:  scheduler,
		clock:      clock,
		policy:     policy,
		timings:    timings,
		logger:     logger.With("component", "checkout_order"),
	}
}

// Handle places the order. The aggregate derives its totals from the priced
// lines; persistence commits before any notification leaves the process, so
// a crash mid-handle never announces an order that does not exist.
func (h CheckoutOrderCommandHandler) Handle(ctx context.Context, cmd CheckoutOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	now := h.clock.Now()

	requested := cmd.Items()
	items := make([]order.Item, 0, len(requested))
	for _, line := range requested {
		item, err := order.NewItem(line.VendorID, line.Name, line.UnitPrice, line.Quantity)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	newOrder, err := order.NewOrder(
		cmd.OrderID(),
		newOrderNumber(cmd.OrderID(), now),
		cmd.CustomerID(),
		items,
		h.policy,
		cmd.Discount(),
		now,
	)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, newOrder); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	notifyVendorOffers(h.notifier, newOrder, now.Add(h.timings.VendorSoftWindow))
	notifyCustomerStatus(h.notifier, newOrder)
	publishOrderChanged(ctx, h.publisher, h.logger, newOrder, now)
	h.scheduler.WakeAt(newOrder.ID(), now.Add(h.timings.PendingAfter))

	h.logger.Info("order placed",
		"order_id", newOrder.ID().String(),
		"order_number", newOrder.Number(),
		"vendors", len(newOrder.VendorIDs()),
		"total", newOrder.Totals().Total.String())
	return nil
}

// newOrderNumber derives the immutable human-readable order number, e.g.
// "ORD-20260830-4F2A".
func newOrderNumber(id kernel.UUID, now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(id.String()[:4]))
}
