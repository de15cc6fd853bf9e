package order

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// the NewOrder or RestoreOrder factory methods.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")

	// ErrItemsAreRequired is returned when attempting to create an order without line items.
	ErrItemsAreRequired = errs.NewValueIsRequiredError("items")

	// ErrNumberIsRequired is returned when attempting to create an order without an order number.
	ErrNumberIsRequired = errs.NewValueIsRequiredError("order number")
)

// Order represents one customer purchase across one or more vendors. It is
// the aggregate root the whole coordinator operates on: the status state
// machine, the append-only status timeline, the dispatch bookkeeping, and
// the derived financial totals all live here.
//
// Order maintains these invariants:
//   - status changes only along the edges defined by the Status state machine
//   - the timeline never records the same status twice and its timestamps
//     are monotonically non-decreasing
//   - the courier reference is set at most once over the order's lifetime
//     and only on the Preparing -> OutForDelivery transition
//   - the vendor response deadline is present only while the order is
//     pending a vendor response
//   - financial fields are derived, recomputed only by CalculateTotals
//
// Orders are never physically deleted; they end in Delivered or Cancelled.
type Order struct {
	// id is the internal unique identifier of the order
	id kernel.UUID

	// number is the immutable human-readable order number, e.g. "ORD-20260830-4F2A"
	number string

	// customerID references the customer the order belongs to
	customerID kernel.UUID

	// courierID is the assigned courier (nil until a courier wins the dispatch race)
	courierID *kernel.UUID

	// items are the ordered lines; each carries its own vendor reference
	items []Item

	// status is the current state in the order lifecycle
	status Status

	// timeline is the append-only audit log of status transitions
	timeline Timeline

	// vendorResponseDeadline is set only while status is PendingVendorResponse
	vendorResponseDeadline *time.Time

	// dispatchStartedAt marks when the current courier offer window opened.
	// Together with status and courierID it makes "open offer" a fact
	// derivable from persisted state alone.
	dispatchStartedAt *time.Time

	// totals is the derived financial breakdown
	totals Totals

	// isConstructed ensures the order was created via a factory method
	isConstructed bool
}

// NewOrder creates a freshly placed order with validated items and derived
// totals. The order starts in Placed status with a single timeline entry.
//
// Example:
//
//	item, _ := order.NewItem(vendorID, "Masala Dosa", price, 2)
//	o, err := order.NewOrder(kernel.NewUUID(), "ORD-20260830-4F2A", customerID,
//	    []order.Item{item}, policy, kernel.Zero(), time.Now())
func NewOrder(
	id kernel.UUID,
	number string,
	customerID kernel.UUID,
	items []Item,
	policy FeePolicy,
	discount kernel.Money,
	now time.Time,
) (*Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if number == "" {
		return nil, ErrNumberIsRequired
	}
	if err := customerID.Validate(); err != nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("customer", err)
	}
	if len(items) == 0 {
		return nil, ErrItemsAreRequired
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}

	totals, err := CalculateTotals(items, policy, discount)
	if err != nil {
		return nil, err
	}

	timeline := NewTimeline()
	timeline.Append(Placed, now)

	copied := make([]Item, len(items))
	copy(copied, items)

	return &Order{
		id:            id,
		number:        number,
		customerID:    customerID,
		items:         copied,
		status:        Placed,
		timeline:      timeline,
		totals:        totals,
		isConstructed: true,
	}, nil
}

// RestoreOrder reconstructs an order from persistence. Items are restored
// without structural validation so that legacy partial writes remain
// loadable; callers that drive automatic transitions must check
// ValidateItems first and exclude broken records.
func RestoreOrder(
	id kernel.UUID,
	number string,
	customerID kernel.UUID,
	courierID *kernel.UUID,
	items []Item,
	status Status,
	timeline Timeline,
	vendorResponseDeadline *time.Time,
	dispatchStartedAt *time.Time,
	totals Totals,
) (*Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := status.Validate(); err != nil {
		return nil, err
	}
	if err := status.ValidateCanHaveCourier(courierID != nil); err != nil {
		return nil, err
	}

	return &Order{
		id:                     id,
		number:                 number,
		customerID:             customerID,
		courierID:              courierID,
		items:                  items,
		status:                 status,
		timeline:               timeline,
		vendorResponseDeadline: vendorResponseDeadline,
		dispatchStartedAt:      dispatchStartedAt,
		totals:                 totals,
		isConstructed:          true,
	}, nil
}

// Validate ensures the Order instance was properly constructed through a
// factory method. Call it when reconstructing orders from external input.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// ValidateItems checks every line for structural integrity. A legacy record
// with missing price or quantity fields fails here; such orders must be
// excluded from automatic transitions rather than cancelled, to avoid
// masking real financial data.
func (o *Order) ValidateItems() error {
	if len(o.items) == 0 {
		return ErrItemsAreRequired
	}
	for _, item := range o.items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsEqual compares two orders by their internal identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's internal unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// Number returns the immutable human-readable order number.
func (o *Order) Number() string {
	return o.number
}

// CustomerID returns the customer the order belongs to.
func (o *Order) CustomerID() kernel.UUID {
	return o.customerID
}

// Courier returns the assigned courier's ID, or nil before assignment.
func (o *Order) Courier() *kernel.UUID {
	return o.courierID
}

// Items returns a copy of the order lines.
func (o *Order) Items() []Item {
	copied := make([]Item, len(o.items))
	copy(copied, o.items)
	return copied
}

// Status returns the current status of the order.
func (o *Order) Status() Status {
	return o.status
}

// Timeline returns a copy of the recorded status transitions.
func (o *Order) Timeline() []TimelineEntry {
	return o.timeline.Entries()
}

// StatusRecordedAt returns the moment the given status was entered.
func (o *Order) StatusRecordedAt(status Status) (time.Time, bool) {
	return o.timeline.At(status)
}

// VendorResponseDeadline returns the hard vendor deadline, present only
// while the order is pending a vendor response.
func (o *Order) VendorResponseDeadline() *time.Time {
	return o.vendorResponseDeadline
}

// DispatchStartedAt returns when the current courier offer window opened.
func (o *Order) DispatchStartedAt() *time.Time {
	return o.dispatchStartedAt
}

// Totals returns the derived financial breakdown.
func (o *Order) Totals() Totals {
	return o.totals
}

// VendorIDs returns the distinct vendors represented in the order's items,
// in first-appearance order.
func (o *Order) VendorIDs() []kernel.UUID {
	seen := make(map[kernel.UUID]struct{}, len(o.items))
	vendors := make([]kernel.UUID, 0, len(o.items))
	for _, item := range o.items {
		if _, ok := seen[item.VendorID()]; ok {
			continue
		}
		seen[item.VendorID()] = struct{}{}
		vendors = append(vendors, item.VendorID())
	}
	return vendors
}

// ItemsForVendor returns only the lines belonging to the given vendor.
// Stage A notifications show each vendor its own lines and nothing else.
func (o *Order) ItemsForVendor(vendorID kernel.UUID) []Item {
	items := make([]Item, 0, len(o.items))
	for _, item := range o.items {
		if item.VendorID().IsEqual(vendorID) {
			items = append(items, item)
		}
	}
	return items
}

// HasVendor reports whether the given vendor has at least one line in the order.
func (o *Order) HasVendor(vendorID kernel.UUID) bool {
	for _, item := range o.items {
		if item.VendorID().IsEqual(vendorID) {
			return true
		}
	}
	return false
}

// HasOpenCourierOffer reports whether a courier offer is currently open.
// The fact is derived purely from persisted fields so any process can resume
// dispatch reconciliation after a crash.
func (o *Order) HasOpenCourierOffer() bool {
	return o.status == Preparing && o.courierID == nil && o.dispatchStartedAt != nil
}

// MarkAwaitingVendor transitions a Placed order to PendingVendorResponse and
// arms the hard vendor response deadline.
func (o *Order) MarkAwaitingVendor(now time.Time, responseWindow time.Duration) error {
	if err := o.applyStatus(PendingVendorResponse, now); err != nil {
		return err
	}

	deadline := now.Add(responseWindow)
	o.vendorResponseDeadline = &deadline
	return nil
}

// AcceptByVendor applies a vendor acceptance. The canonical path moves the
// order to Confirmed and leaves the Confirmed -> Preparing transition to the
// scheduler; with startImmediately the merged path jumps straight to
// Preparing (the vendor reports the kitchen is already working).
//
// A vendor acting faster than the scheduler (order still Placed) first passes
// through PendingVendorResponse so the timeline keeps every edge it took.
//
// Returns an AlreadyResolvedError when the order is past the point where a
// vendor response means anything.
func (o *Order) AcceptByVendor(now time.Time, startImmediately bool) error {
	if o.status == Placed {
		if err := o.applyStatus(PendingVendorResponse, now); err != nil {
			return err
		}
	}

	if o.status != PendingVendorResponse {
		return errs.NewAlreadyResolvedError("order", o.id.String())
	}

	o.vendorResponseDeadline = nil

	if startImmediately {
		return o.StartPreparing(now)
	}
	return o.applyStatus(Confirmed, now)
}

// RejectByVendor cancels the order on an explicit vendor rejection.
// Returns an AlreadyResolvedError when the order is already terminal.
func (o *Order) RejectByVendor(now time.Time) error {
	if o.status != Placed && o.status != PendingVendorResponse && o.status != Confirmed {
		return errs.NewAlreadyResolvedError("order", o.id.String())
	}
	return o.Cancel(now)
}

// StartPreparing moves the order into Preparing and opens the courier
// dispatch window. Legal from Confirmed (timer path) and from
// PendingVendorResponse (merged vendor-accept path).
func (o *Order) StartPreparing(now time.Time) error {
	if err := o.applyStatus(Preparing, now); err != nil {
		return err
	}

	o.vendorResponseDeadline = nil
	o.dispatchStartedAt = &now
	return nil
}

// RestartCourierDispatch opens a fresh courier offer window after a
// rejection. The original deadline is deliberately not reused.
func (o *Order) RestartCourierDispatch(now time.Time) error {
	if o.status != Preparing || o.courierID != nil {
		return errs.NewAlreadyResolvedError("order", o.id.String())
	}

	o.dispatchStartedAt = &now
	return nil
}

// AssignCourier resolves the dispatch race in favour of the given courier.
// The order must still be Preparing with no courier; otherwise the
// acceptance is stale and an AlreadyResolvedError is returned. The courier
// reference is set exactly once, here.
//
// In-memory use of this method is a convenience; against shared storage the
// same condition must be enforced with an atomic conditional update (see
// ports.OrderRepository.UpdateIf).
func (o *Order) AssignCourier(courierID kernel.UUID, now time.Time) error {
	if err := courierID.Validate(); err != nil {
		return err
	}

	if o.status != Preparing || o.courierID != nil {
		return errs.NewAlreadyResolvedError("order", o.id.String())
	}

	if err := o.applyStatus(OutForDelivery, now); err != nil {
		return err
	}

	o.courierID = &courierID
	o.dispatchStartedAt = nil
	return nil
}

// MarkDelivered records the courier's delivery report. Terminal.
func (o *Order) MarkDelivered(now time.Time) error {
	if o.status != OutForDelivery {
		return errs.NewAlreadyResolvedError("order", o.id.String())
	}
	return o.applyStatus(Delivered, now)
}

// Cancel moves any non-terminal order to Cancelled and clears all pending
// deadlines and dispatch state. Returns an AlreadyResolvedError when the
// order is already terminal.
func (o *Order) Cancel(now time.Time) error {
	if o.status.IsTerminal() {
		return errs.NewAlreadyResolvedError("order", o.id.String())
	}

	if err := o.applyStatus(Cancelled, now); err != nil {
		return err
	}

	o.vendorResponseDeadline = nil
	o.dispatchStartedAt = nil
	return nil
}

// NextTimedTransition derives the overdue transition for this order, if any,
// purely from the persisted timeline and deadlines. The reconciliation sweep
// applies exactly what this returns; calling it twice on an unchanged order
// yields the same answer, which is what makes the sweep idempotent.
func (o *Order) NextTimedTransition(now time.Time, timings Timings) (Status, bool) {
	switch o.status {
	case Placed:
		if placedAt, ok := o.timeline.At(Placed); ok && !now.Before(placedAt.Add(timings.PendingAfter)) {
			return PendingVendorResponse, true
		}
	case PendingVendorResponse:
		deadline := o.vendorResponseDeadline
		if deadline == nil {
			if pendingAt, ok := o.timeline.At(PendingVendorResponse); ok {
				d := pendingAt.Add(timings.VendorResponse)
				deadline = &d
			}
		}
		if deadline != nil && !now.Before(*deadline) {
			return Cancelled, true
		}
	case Confirmed:
		if confirmedAt, ok := o.timeline.At(Confirmed); ok && !now.Before(confirmedAt.Add(timings.ConfirmToPreparing)) {
			return Preparing, true
		}
	}
	return Unknown, false
}

// IsCourierWindowExpired reports whether the current courier offer window
// has run out without an acceptance.
func (o *Order) IsCourierWindowExpired(now time.Time, timings Timings) bool {
	return o.HasOpenCourierOffer() &&
		!now.Before(o.dispatchStartedAt.Add(timings.CourierWindow))
}

// IsPreparingOverdue reports whether the order has been stuck in Preparing
// without a courier for longer than the preparing watchdog allows.
func (o *Order) IsPreparingOverdue(now time.Time, timings Timings) bool {
	if o.status != Preparing || o.courierID != nil {
		return false
	}
	preparingAt, ok := o.timeline.At(Preparing)
	return ok && !now.Before(preparingAt.Add(timings.PreparingWatchdog))
}

// IsDeliveryOverdue reports whether the order has been out for delivery for
// longer than the delivery watchdog allows.
func (o *Order) IsDeliveryOverdue(now time.Time, timings Timings) bool {
	if o.status != OutForDelivery {
		return false
	}
	outAt, ok := o.timeline.At(OutForDelivery)
	return ok && !now.Before(outAt.Add(timings.DeliveryWatchdog))
}

// applyStatus performs a guarded transition and records it on the timeline.
// The timeline append is idempotent per status value.
func (o *Order) applyStatus(next Status, now time.Time) error {
	newStatus, err := o.status.TransitionTo(next)
	if err != nil {
		return err
	}

	o.status = newStatus
	o.timeline.Append(newStatus, now)
	return nil
}
