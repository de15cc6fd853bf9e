package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrGetVendorQueueQueryIsNotConstructed = errors.New(
		"GetVendorQueueQuery must be created via NewGetVendorQueueQuery constructor",
	)
)

// GetVendorQueueQuery retrieves the orders currently awaiting a response from
// one vendor. The vendor dashboard polls this to rebuild its pending list
// after a reconnect, so the result carries everything the vendor needs to
// respond: its own lines and the hard deadline.
type GetVendorQueueQuery struct {
	vendorID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetVendorQueueQuery creates a query for the given vendor's pending
// requests. Returns a validation error when the vendor ID is invalid.
func NewGetVendorQueueQuery(vendorID kernel.UUID) (GetVendorQueueQuery, error) {
	if err := vendorID.Validate(); err != nil {
		return GetVendorQueueQuery{}, err
	}

	return GetVendorQueueQuery{
		vendorID: vendorID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// VendorID returns the vendor whose queue is being read.
func (q GetVendorQueueQuery) VendorID() kernel.UUID {
	return q.vendorID
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetVendorQueueQueryIsNotConstructed if validation fails.
func (q GetVendorQueueQuery) Validate() error {
	return q.guard.Validate(ErrGetVendorQueueQueryIsNotConstructed)
}

// GetVendorQueueQueryResponse is one order awaiting this vendor's response.
// Items contains only the vendor's own lines; other vendors' lines on the
// same order are never exposed.
type GetVendorQueueQueryResponse struct {
	OrderID   kernel.UUID
	Number    string
	RespondBy *time.Time
	Items     []VendorQueueItem
}

// VendorQueueItem is one line of the vendor's portion of an order.
type VendorQueueItem struct {
	Name      string
	UnitPrice kernel.Money
	Quantity  int
}
