package dispatch

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// Stage identifies which offer/acceptance protocol an offer belongs to.
// Both stages are structurally identical; they differ only in recipient role
// and deadline.
type Stage int

const (
	// VendorStage is the initial offer of a new order to its vendors.
	VendorStage Stage = iota + 1
	// CourierStage is the broadcast of a ready order to available couriers.
	CourierStage
)

// String returns the wire name of the stage.
func (s Stage) String() string {
	switch s {
	case VendorStage:
		return "vendor"
	case CourierStage:
		return "courier"
	default:
		return "unknown"
	}
}

// ResolutionKind classifies how an offer ended.
type ResolutionKind int

const (
	// Open means the offer has not been resolved yet.
	Open ResolutionKind = iota
	// Accepted means a recipient won the offer.
	Accepted
	// Rejected means a recipient explicitly declined; a successor offer
	// excluding the rejecter usually follows.
	Rejected
	// Expired means the window ran out with no acceptance.
	Expired
)

// String returns the wire form of the resolution, e.g. "accepted-by:<id>".
func (r Resolution) String() string {
	switch r.Kind {
	case Accepted:
		return "accepted-by:" + r.Actor.String()
	case Rejected:
		return "rejected-by:" + r.Actor.String()
	case Expired:
		return "expired"
	default:
		return "open"
	}
}

// Resolution records the outcome of an offer and who caused it.
type Resolution struct {
	Kind  ResolutionKind
	Actor kernel.UUID
}

var (
	// ErrOfferIsNotConstructed is returned when an Offer was not created via NewOffer.
	ErrOfferIsNotConstructed = errors.New("Offer must be created via NewOffer constructor")

	// ErrCandidatesAreRequired is returned when an offer has no recipients.
	ErrCandidatesAreRequired = errs.NewValueIsRequiredError("candidates")
)

// Offer is an ephemeral proposal of one order to one or more candidate
// recipients with an expiry time. It is deliberately not persisted: the
// authoritative "open offer" fact is derivable from the order's own fields,
// and an Offer only adds the in-memory bookkeeping (who was asked, who
// declined, when the window closes) that lets the coordinator react between
// reconciliation sweeps.
//
// Invariants:
//   - at most one resolution over the offer's lifetime (single winner)
//   - excluded recipients can neither accept nor be re-offered
type Offer struct {
	orderID    kernel.UUID
	stage      Stage
	candidates []kernel.UUID
	excluded   map[kernel.UUID]struct{}
	startedAt  time.Time
	expiresAt  time.Time
	resolution Resolution

	isConstructed bool
}

// NewOffer creates an open offer of the given order to the given candidates.
func NewOffer(orderID kernel.UUID, stage Stage, candidates []kernel.UUID, startedAt time.Time, window time.Duration) (*Offer, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrCandidatesAreRequired
	}

	copied := make([]kernel.UUID, len(candidates))
	copy(copied, candidates)

	return &Offer{
		orderID:       orderID,
		stage:         stage,
		candidates:    copied,
		excluded:      make(map[kernel.UUID]struct{}),
		startedAt:     startedAt,
		expiresAt:     startedAt.Add(window),
		isConstructed: true,
	}, nil
}

// Validate ensures the Offer was created via NewOffer.
func (o *Offer) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOfferIsNotConstructed
	}
	return nil
}

// OrderID returns the order being offered.
func (o *Offer) OrderID() kernel.UUID {
	return o.orderID
}

// Stage returns which protocol stage the offer belongs to.
func (o *Offer) Stage() Stage {
	return o.stage
}

// StartedAt returns when the offer window opened.
func (o *Offer) StartedAt() time.Time {
	return o.startedAt
}

// ExpiresAt returns when the offer window closes.
func (o *Offer) ExpiresAt() time.Time {
	return o.expiresAt
}

// Resolution returns the offer outcome; Kind is Open while unresolved.
func (o *Offer) Resolution() Resolution {
	return o.resolution
}

// IsOpen reports whether the offer can still be resolved.
func (o *Offer) IsOpen() bool {
	return o.resolution.Kind == Open
}

// Candidates returns every recipient the offer was broadcast to.
func (o *Offer) Candidates() []kernel.UUID {
	copied := make([]kernel.UUID, len(o.candidates))
	copy(copied, o.candidates)
	return copied
}

// RemainingCandidates returns the candidates that have not declined.
func (o *Offer) RemainingCandidates() []kernel.UUID {
	remaining := make([]kernel.UUID, 0, len(o.candidates))
	for _, c := range o.candidates {
		if _, excluded := o.excluded[c]; !excluded {
			remaining = append(remaining, c)
		}
	}
	return remaining
}

// Excluded returns the recipients that declined this offer or a predecessor.
func (o *Offer) Excluded() []kernel.UUID {
	excluded := make([]kernel.UUID, 0, len(o.excluded))
	for _, c := range o.candidates {
		if _, ok := o.excluded[c]; ok {
			excluded = append(excluded, c)
		}
	}
	return excluded
}

// IsCandidate reports whether the recipient was offered and has not declined.
func (o *Offer) IsCandidate(recipient kernel.UUID) bool {
	if _, excluded := o.excluded[recipient]; excluded {
		return false
	}
	for _, c := range o.candidates {
		if c.IsEqual(recipient) {
			return true
		}
	}
	return false
}

// IsExpired reports whether the window has closed at the given moment.
func (o *Offer) IsExpired(now time.Time) bool {
	return !now.Before(o.expiresAt)
}

// Accept resolves the offer in favour of the given recipient.
// Returns an AlreadyResolvedError when the offer was already resolved, and a
// validation error when the recipient was never a live candidate.
func (o *Offer) Accept(recipient kernel.UUID) error {
	if !o.IsOpen() {
		return errs.NewAlreadyResolvedError("offer", o.orderID.String())
	}
	if !o.IsCandidate(recipient) {
		return errs.NewValueIsInvalidErrorWithCause("recipient",
			fmt.Errorf("%s is not a candidate of this offer", recipient.String()))
	}

	o.resolution = Resolution{Kind: Accepted, Actor: recipient}
	return nil
}

// Reject resolves the offer as declined by the given recipient and excludes
// it from any successor offer. The caller re-broadcasts with a fresh window;
// the original deadline is never reused.
func (o *Offer) Reject(recipient kernel.UUID) error {
	if !o.IsOpen() {
		return errs.NewAlreadyResolvedError("offer", o.orderID.String())
	}
	if !o.IsCandidate(recipient) {
		return errs.NewValueIsInvalidErrorWithCause("recipient",
			fmt.Errorf("%s is not a candidate of this offer", recipient.String()))
	}

	o.excluded[recipient] = struct{}{}
	o.resolution = Resolution{Kind: Rejected, Actor: recipient}
	return nil
}

// Include adds a late recipient to an open offer, typically a courier that
// came online mid-window. Recipients that declined this offer or a
// predecessor stay excluded. Reports whether the recipient was added.
func (o *Offer) Include(recipient kernel.UUID) (bool, error) {
	if !o.IsOpen() {
		return false, errs.NewAlreadyResolvedError("offer", o.orderID.String())
	}
	if !o.IsEligible(recipient) || o.IsCandidate(recipient) {
		return false, nil
	}

	o.candidates = append(o.candidates, recipient)
	return true, nil
}

// IsEligible reports whether the recipient has not declined this offer or a
// predecessor.
func (o *Offer) IsEligible(recipient kernel.UUID) bool {
	_, excluded := o.excluded[recipient]
	return !excluded
}

// Expire resolves the offer as run out.
func (o *Offer) Expire() error {
	if !o.IsOpen() {
		return errs.NewAlreadyResolvedError("offer", o.orderID.String())
	}

	o.resolution = Resolution{Kind: Expired}
	return nil
}

// Successor creates a fresh open offer for the same order excluding every
// recipient that declined so far. Candidates are the currently eligible
// recipients minus the exclusions.
func (o *Offer) Successor(candidates []kernel.UUID, startedAt time.Time, window time.Duration) (*Offer, error) {
	eligible := make([]kernel.UUID, 0, len(candidates))
	for _, c := range candidates {
		if _, excluded := o.excluded[c]; !excluded {
			eligible = append(eligible, c)
		}
	}

	successor, err := NewOffer(o.orderID, o.stage, eligible, startedAt, window)
	if err != nil {
		return nil, err
	}

	for excluded := range o.excluded {
		successor.excluded[excluded] = struct{}{}
	}
	return successor, nil
}
