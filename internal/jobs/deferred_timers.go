package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
)

// DeferredTimers implements the scheduler port with one in-process timer per
// order. A firing timer runs an immediate reconciliation sweep, so a deadline
// is acted on within moments of passing instead of waiting for the next
// periodic tick.
//
// Timers live only in this process. After a crash or restart nothing is
// re-armed; the periodic sweep picks up whatever the timers would have
// handled.
type DeferredTimers struct {
	handler sweepRunner
	logger  *slog.Logger

	mu      sync.Mutex
	timers  map[kernel.UUID]*time.Timer
	stopped bool
}

// NewDeferredTimers creates the per-order wake-up scheduler.
func NewDeferredTimers(handler sweepRunner, logger *slog.Logger) *DeferredTimers {
	return &DeferredTimers{
		handler: handler,
		logger:  logger.With("component", "deferred_timers"),
		timers:  make(map[kernel.UUID]*time.Timer),
	}
}

// WakeAt arms a wake-up for the order at the given moment. A newer call
// replaces an older one; a moment already in the past fires immediately.
func (d *DeferredTimers) WakeAt(orderID kernel.UUID, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if existing, ok := d.timers[orderID]; ok {
		existing.Stop()
	}

	delay := max(time.Until(at), 0)
	d.timers[orderID] = time.AfterFunc(delay, func() {
		d.fire(orderID)
	})
}

// Cancel drops any armed wake-up for the order. Idempotent.
func (d *DeferredTimers) Cancel(orderID kernel.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[orderID]; ok {
		timer.Stop()
		delete(d.timers, orderID)
	}
}

// Stop drops every armed wake-up and refuses new ones. Used on shutdown so
// no sweep starts while the rest of the application is tearing down.
func (d *DeferredTimers) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for orderID, timer := range d.timers {
		timer.Stop()
		delete(d.timers, orderID)
	}
	d.logger.InfoContext(context.Background(), "Deferred timers stopped")
}

func (d *DeferredTimers) fire(orderID kernel.UUID) {
	d.mu.Lock()
	delete(d.timers, orderID)
	stopped := d.stopped
	d.mu.Unlock()

	if stopped {
		return
	}

	ctx := context.Background()
	d.logger.DebugContext(ctx, "Deferred wake-up fired", "order_id", orderID.String())

	if err := d.handler.Handle(ctx, commands.NewReconcileOrdersCommand()); err != nil {
		d.logger.ErrorContext(ctx, "Deferred reconciliation sweep failed",
			"order_id", orderID.String(), "error", err)
	}
}
