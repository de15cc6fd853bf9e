package ports

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
)

// Scheduler arms best-effort per-order wake-ups. A wake-up asks the scheduler
// to reconcile the order at (or shortly after) the given moment instead of
// waiting for the next periodic sweep. Wake-ups are a latency optimization
// only: losing every armed timer delays transitions by at most one sweep
// interval and never changes the outcome.
type Scheduler interface {
	// WakeAt arms a wake-up for the order. A newer call replaces an older one.
	WakeAt(orderID kernel.UUID, at time.Time)

	// Cancel drops any armed wake-up for the order. Idempotent.
	Cancel(orderID kernel.UUID)
}
