package order

import "time"

// Timings bundles every deadline that drives the time-based transitions of
// the state machine and the dispatch protocol. All values are externally
// tunable through configuration; the defaults below are the production ones.
type Timings struct {
	// PendingAfter is how long a Placed order waits before it is marked
	// PendingVendorResponse by the scheduler.
	PendingAfter time.Duration

	// VendorSoftWindow is the soft deadline shown to vendors in the initial
	// new-order offer before the order falls back to their durable queue.
	VendorSoftWindow time.Duration

	// VendorResponse is the hard deadline: an order with no vendor action
	// this long after entering PendingVendorResponse is cancelled.
	VendorResponse time.Duration

	// ConfirmToPreparing is the delay between Confirmed and the automatic
	// transition to Preparing.
	ConfirmToPreparing time.Duration

	// CourierWindow is the overall courier assignment deadline for one
	// dispatch broadcast.
	CourierWindow time.Duration

	// PreparingWatchdog flags orders stuck in Preparing without a courier.
	PreparingWatchdog time.Duration

	// DeliveryWatchdog flags orders out for delivery for suspiciously long.
	DeliveryWatchdog time.Duration
}

// DefaultTimings returns the production deadlines.
func DefaultTimings() Timings {
	return Timings{
		PendingAfter:       30 * time.Second,
		VendorSoftWindow:   10 * time.Second,
		VendorResponse:     10 * time.Minute,
		ConfirmToPreparing: 2 * time.Minute,
		CourierWindow:      5 * time.Minute,
		PreparingWatchdog:  60 * time.Minute,
		DeliveryWatchdog:   20 * time.Minute,
	}
}
