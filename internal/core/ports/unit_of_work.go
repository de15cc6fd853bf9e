package ports

import (
	"context"
)

// UnitOfWorkFactory creates one UnitOfWork per command execution so
// concurrent commands never share transaction state.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is the transaction boundary for a single business operation.
// Callers drive the lifecycle explicitly: Begin, work through the bound
// repositories, then Commit or Rollback.
type UnitOfWork interface {
	// Begin starts a database transaction. Calling it with one already
	// open is a no-op.
	Begin(ctx context.Context) error

	// Commit commits the open transaction. Errors when none is open.
	Commit(ctx context.Context) error

	// Rollback discards the open transaction. Errors when none is open.
	Rollback(ctx context.Context) error

	// CourierRepository returns a courier repository bound to the open
	// transaction, or to the plain connection before Begin.
	CourierRepository() CourierRepository

	// OrderRepository returns an order repository bound to the open
	// transaction, or to the plain connection before Begin.
	OrderRepository() OrderRepository
}
