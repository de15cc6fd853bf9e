// Package commands holds the write-side operations of the coordinator:
// checkout, vendor and courier responses, cancellation, courier registry
// changes, and the reconciliation sweep. Every handler validates its command,
// runs inside a unit of work, and reports outcomes through the ports.
package commands

import (
	"context"

	"fulfillment/internal/core/ports"
)

// The unit-of-work interfaces below narrow ports.UnitOfWork to exactly the
// repositories a handler touches, so a checkout handler cannot accidentally
// reach the courier table.
type (
	// TxManager is the transaction lifecycle shared by every unit of work.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory yields an order repository bound to the transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// CourierRepoFactory yields a courier repository bound to the transaction.
	CourierRepoFactory interface {
		CourierRepository() ports.CourierRepository
	}

	// OrderUoW serves handlers that only touch orders (checkout, cancel).
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates one OrderUoW per command execution.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// CourierUoW serves handlers that only touch the courier registry.
	CourierUoW interface {
		TxManager
		CourierRepoFactory
	}

	// CourierUoWFactory creates one CourierUoW per command execution.
	CourierUoWFactory interface {
		Create() CourierUoW
	}

	// UoW serves handlers that read couriers while mutating orders: the
	// dispatch responses and the reconciliation sweep, which need the
	// available-courier set to build broadcast candidate lists.
	UoW interface {
		TxManager
		CourierRepoFactory
		OrderRepoFactory
	}

	// UoWFactory creates one UoW per command execution.
	UoWFactory interface {
		Create() UoW
	}
)
