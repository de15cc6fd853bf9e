package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
//
// Two kinds of writes are distinguished on purpose. Update is a plain save
// for mutations with no concurrent writer. UpdateIf is the atomic
// conditional update required by every race-resolving mutation (vendor
// accept, courier accept, status timeout): it persists the aggregate only if
// the stored row still matches the expected prior state, in a single
// compare-and-swap statement, never as a separate read and write.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate without a
	// state precondition. Only for mutations with no concurrent writer.
	Update(ctx context.Context, aggregate *order.Order) error

	// UpdateIf persists the aggregate only when the stored order still has
	// the expected status, and, when requireUnassigned is set, still has no
	// courier. Returns an AlreadyResolvedError when the precondition no
	// longer holds: the caller lost the race and must not retry blindly.
	UpdateIf(ctx context.Context, aggregate *order.Order, expected order.Status, requireUnassigned bool) error

	// Get retrieves an order aggregate by its internal identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetByNumber retrieves an order by its human-readable order number.
	GetByNumber(ctx context.Context, number string) (*order.Order, error)

	// GetAllActive retrieves every order in a non-terminal status. The
	// reconciliation sweep walks this set; records that fail domain
	// restoration are skipped by the sweep, not by the repository.
	GetAllActive(ctx context.Context) ([]*order.Order, error)

	// GetAllAwaitingCourier retrieves orders in Preparing with no courier
	// whose dispatch window opened before the given moment. Used to resume
	// dispatch after a restart.
	GetAllAwaitingCourier(ctx context.Context, openedBefore time.Time) ([]*order.Order, error)

	// GetVendorQueue retrieves non-terminal orders containing lines from
	// the given vendor that still await a vendor response.
	GetVendorQueue(ctx context.Context, vendorID kernel.UUID) ([]*order.Order, error)
}
