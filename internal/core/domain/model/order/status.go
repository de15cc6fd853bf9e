package order

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
// It implements a state machine with defined transitions to ensure
// orders follow the correct fulfillment workflow.
//
// State transitions:
//
//	Placed ──> PendingVendorResponse ──┬──> Confirmed ──> Preparing ──> OutForDelivery ──> Delivered
//	                                   └───────────────────────^
//	                                   (merged vendor-accept path)
//
// Every non-terminal status can additionally transition to Cancelled
// (vendor rejection, response timeout, or admin override).
// Delivered and Cancelled are terminal with no outbound transitions.
//
// Status is a value object that validates state transitions
// and provides string representations for persistence and display.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Placed is the initial status right after checkout or payment capture.
	Placed

	// PendingVendorResponse indicates the vendor(s) have been notified and
	// the order is waiting for an accept or reject within the response deadline.
	PendingVendorResponse

	// Confirmed indicates a vendor has accepted the order.
	Confirmed

	// Preparing indicates the kitchen is working on the order.
	// Entering this status opens the courier dispatch stage.
	Preparing

	// OutForDelivery indicates a courier has accepted the dispatch offer
	// and is carrying the order. The courier reference is set exactly here.
	OutForDelivery

	// Delivered indicates the courier reported successful delivery.
	// This is a terminal state.
	Delivered

	// Cancelled indicates the order was rejected, timed out, or cancelled
	// by an administrator. This is a terminal state.
	Cancelled
)

// getStatusStrings returns a map of Status values to their wire representations.
// All statuses are included for string conversion.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:               "unknown",
		Placed:                "placed",
		PendingVendorResponse: "pending_vendor_response",
		Confirmed:             "confirmed",
		Preparing:             "preparing",
		OutForDelivery:        "out_for_delivery",
		Delivered:             "delivered",
		Cancelled:             "cancelled",
	}
}

// getValidStatusStrings returns a map of only valid Status values.
// Only valid statuses are included to support validation.
func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Placed:                "placed",
		PendingVendorResponse: "pending_vendor_response",
		Confirmed:             "confirmed",
		Preparing:             "preparing",
		OutForDelivery:        "out_for_delivery",
		Delivered:             "delivered",
		Cancelled:             "cancelled",
	}
}

// transitions defines every legal edge of the order state machine.
// The merged vendor-accept path (PendingVendorResponse -> Preparing) is a
// deliberate shortcut that coexists with the timer-driven
// Confirmed -> Preparing edge.
func transitions() map[Status][]Status {
	return map[Status][]Status{
		Placed:                {PendingVendorResponse, Cancelled},
		PendingVendorResponse: {Confirmed, Preparing, Cancelled},
		Confirmed:             {Preparing, Cancelled},
		Preparing:             {OutForDelivery, Cancelled},
		OutForDelivery:        {Delivered, Cancelled},
		Delivered:             {},
		Cancelled:             {},
	}
}

// StatusFromString parses a wire representation back into a Status.
// Returns an error for unrecognized values.
func StatusFromString(s string) (Status, error) {
	for status, str := range getValidStatusStrings() {
		if str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status",
		fmt.Errorf("%q is not a valid status", s))
}

// Validate checks if the Status value is valid.
//
// Returns:
//   - nil if the status is valid
//   - error with details if the status is invalid
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name of the status, e.g. "out_for_delivery".
// Implements fmt.Stringer and is safe to call on any Status value.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether the status has no outbound transitions.
// Delivered and Cancelled are the only terminal statuses.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// CanTransitionTo reports whether the edge from s to next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions()[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo validates and performs the transition from s to next.
//
// Returns:
//   - (next, nil) on a legal transition
//   - (0, error) if the edge is not part of the state machine
func (s Status) TransitionTo(next Status) (Status, error) {
	if err := next.Validate(); err != nil {
		return 0, err
	}

	if !s.CanTransitionTo(next) {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("transition %s -> %s is not allowed", s.String(), next.String()),
		)
	}

	return next, nil
}

// ValidateCanHaveCourier validates the consistency between order status and
// courier assignment. A courier reference is set exactly when the order goes
// out for delivery and never before.
//
// Business rules:
//   - Placed, PendingVendorResponse, Confirmed and Preparing orders must not have a courier
//   - OutForDelivery and Delivered orders must have a courier
//   - Cancelled orders may or may not have one, depending on when they were cancelled
func (s Status) ValidateCanHaveCourier(courier bool) error {
	if courier && s != OutForDelivery && s != Delivered && s != Cancelled {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s is not a valid status to have a courier", s.String()),
		)
	}

	if !courier && (s == OutForDelivery || s == Delivered) {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s is not a valid status to have no courier", s.String()),
		)
	}

	return nil
}
