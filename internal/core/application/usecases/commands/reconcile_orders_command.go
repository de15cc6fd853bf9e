package commands

import (
	"errors"

	"fulfillment/internal/pkg/guard"
)

var ErrReconcileOrdersCommandIsNotConstructed = errors.New(
	"ReconcileOrdersCommand must be created via NewReconcileOrdersCommand constructor",
)

// ReconcileOrdersCommand triggers one reconciliation sweep over every active
// order. The command carries no parameters; the sweep derives everything it
// needs from persisted state and the clock.
type ReconcileOrdersCommand struct {
	guard guard.ConstructorGuard
}

// NewReconcileOrdersCommand creates a sweep trigger.
func NewReconcileOrdersCommand() ReconcileOrdersCommand {
	return ReconcileOrdersCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c ReconcileOrdersCommand) Validate() error {
	return c.guard.Validate(ErrReconcileOrdersCommandIsNotConstructed)
}
