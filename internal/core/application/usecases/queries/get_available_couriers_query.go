package queries

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrGetAvailableCouriersQueryIsNotConstructed = errors.New(
		"GetAvailableCouriersQuery must be created via NewGetAvailableCouriersQuery constructor",
	)
)

// GetAvailableCouriersQuery retrieves the couriers currently marked available
// for dispatch offers. Used for monitoring the size of the dispatch pool.
//
// Example:
//
//	query := NewGetAvailableCouriersQuery()
//	handler := NewGetAvailableCouriersQueryHandler(db)
//
//	couriers, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to retrieve couriers: %w", err)
//	}
//
//	fmt.Printf("%d couriers online\n", len(couriers))
type GetAvailableCouriersQuery struct {
	guard guard.ConstructorGuard
}

// NewGetAvailableCouriersQuery creates a query to retrieve available couriers.
// This is a parameterless query that fetches the current dispatch pool.
func NewGetAvailableCouriersQuery() GetAvailableCouriersQuery {
	return GetAvailableCouriersQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetAvailableCouriersQueryIsNotConstructed if validation fails.
func (q GetAvailableCouriersQuery) Validate() error {
	return q.guard.Validate(ErrGetAvailableCouriersQueryIsNotConstructed)
}

// GetAvailableCouriersQueryResponse represents one courier in the dispatch
// pool read model.
type GetAvailableCouriersQueryResponse struct {
	ID    kernel.UUID
	Name  string
	Phone string
}
