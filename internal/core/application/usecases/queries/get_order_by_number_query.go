package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrGetOrderByNumberQueryIsNotConstructed = errors.New(
	"GetOrderByNumberQuery must be created via NewGetOrderByNumberQuery constructor",
)

// GetOrderByNumberQuery retrieves one order by its human-readable number, the
// identifier printed on receipts and quoted by customers on support calls.
type GetOrderByNumberQuery struct {
	number string

	guard guard.ConstructorGuard
}

// NewGetOrderByNumberQuery creates a tracking query for the given order number.
func NewGetOrderByNumberQuery(number string) (GetOrderByNumberQuery, error) {
	if number == "" {
		return GetOrderByNumberQuery{}, errs.NewValueIsRequiredError("order number")
	}

	return GetOrderByNumberQuery{
		number: number,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Number returns the order number being looked up.
func (q GetOrderByNumberQuery) Number() string {
	return q.number
}

// Validate ensures the query was created through the constructor.
func (q GetOrderByNumberQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderByNumberQueryIsNotConstructed)
}

// GetOrderByNumberQueryResponse is the customer-facing tracking view of one
// order: where it stands now and every status it has passed through.
type GetOrderByNumberQueryResponse struct {
	OrderID    kernel.UUID
	Number     string
	CustomerID kernel.UUID
	CourierID  *kernel.UUID
	Status     string
	Total      kernel.Money
	Timeline   []OrderTimelineEntry
}

// OrderTimelineEntry is one recorded status transition.
type OrderTimelineEntry struct {
	Status string
	At     time.Time
}
