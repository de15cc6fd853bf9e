package services

import (
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/dispatch"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// DispatchBoard is the in-memory book of open dispatch offers, keyed by
// order. It enforces the "at most one open offer per order" rule and tracks
// which recipients have declined, so a re-broadcast can exclude them.
//
// The board is a latency optimization, not a source of truth: every decision
// it informs must be re-verified against persisted order state before any
// mutation, and a process that loses the board resumes correctly from the
// reconciliation sweep alone.
//
// DispatchBoard is safe for concurrent use.
type DispatchBoard struct {
	mu     sync.Mutex
	offers map[kernel.UUID]*dispatch.Offer
}

// NewDispatchBoard creates an empty board.
func NewDispatchBoard() *DispatchBoard {
	return &DispatchBoard{
		offers: make(map[kernel.UUID]*dispatch.Offer),
	}
}

// Open records a fresh offer for an order. An existing open offer for the
// same order is an error; a resolved one is silently replaced.
func (b *DispatchBoard) Open(offer *dispatch.Offer) error {
	if err := offer.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.offers[offer.OrderID()]; ok && existing.IsOpen() {
		return errs.NewValueIsInvalidError("offer is already open for this order")
	}

	b.offers[offer.OrderID()] = offer
	return nil
}

// Get returns the tracked offer for an order, open or resolved.
func (b *DispatchBoard) Get(orderID kernel.UUID) (*dispatch.Offer, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	offer, ok := b.offers[orderID]
	return offer, ok
}

// Accept resolves the open offer for an order in favour of the recipient.
// Returns an ObjectNotFoundError when no offer is tracked (for example after
// a restart; the caller then falls back to persisted state alone).
func (b *DispatchBoard) Accept(orderID, recipient kernel.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	offer, ok := b.offers[orderID]
	if !ok {
		return errs.NewObjectNotFoundError("offer", orderID.String())
	}
	return offer.Accept(recipient)
}

// Reject marks the recipient as declined and replaces the offer with a
// successor over the given eligible recipients, opened on a fresh window.
// Returns the successor, or nil when nobody is left to re-offer to.
func (b *DispatchBoard) Reject(orderID, recipient kernel.UUID, eligible []kernel.UUID, now time.Time, window time.Duration) (*dispatch.Offer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	offer, ok := b.offers[orderID]
	if !ok {
		return nil, errs.NewObjectNotFoundError("offer", orderID.String())
	}

	if err := offer.Reject(recipient); err != nil {
		return nil, err
	}

	successor, err := offer.Successor(eligible, now, window)
	if err != nil {
		// Nobody left; keep the rejected offer so exclusions survive until
		// the sweep escalates or new couriers come online.
		return nil, nil //nolint:nilnil // absence of a successor is not a failure
	}

	b.offers[orderID] = successor
	return successor, nil
}

// Include adds a late recipient to the open offer tracked for an order.
// Returns the window's expiry and whether the recipient was added; untracked
// orders, resolved offers, and recipients that already declined or already
// hold the offer all report false.
func (b *DispatchBoard) Include(orderID, recipient kernel.UUID) (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	offer, ok := b.offers[orderID]
	if !ok {
		return time.Time{}, false
	}

	added, err := offer.Include(recipient)
	if err != nil || !added {
		return time.Time{}, false
	}
	return offer.ExpiresAt(), true
}

// Close drops the tracked offer for an order. Called on terminal transitions
// and after a courier wins; idempotent.
func (b *DispatchBoard) Close(orderID kernel.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.offers, orderID)
}

// ExpireDue resolves and returns every open offer whose window has closed at
// the given moment. The caller escalates them; the orders stay untouched for
// the next reconciliation sweep.
func (b *DispatchBoard) ExpireDue(now time.Time) []*dispatch.Offer {
	b.mu.Lock()
	defer b.mu.Unlock()

	var due []*dispatch.Offer
	for _, offer := range b.offers {
		if offer.IsOpen() && offer.IsExpired(now) {
			if err := offer.Expire(); err == nil {
				due = append(due, offer)
			}
		}
	}
	return due
}

// OpenCount returns the number of currently open offers. Used by logging.
func (b *DispatchBoard) OpenCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0
	for _, offer := range b.offers {
		if offer.IsOpen() {
			count++
		}
	}
	return count
}
