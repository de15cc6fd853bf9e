package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
)

// Contact is the display identity of a participant, used to enrich
// notification payloads (the customer sees the courier's name and phone, the
// courier sees the customer's address, and so on).
type Contact struct {
	ID    kernel.UUID
	Name  string
	Phone string
}

// Directory resolves participant ids to display identities. Backed by an
// external customer/vendor service; this core only consumes the contract.
type Directory interface {
	ResolveCustomer(ctx context.Context, id kernel.UUID) (Contact, error)
	ResolveVendor(ctx context.Context, id kernel.UUID) (Contact, error)
	ResolveCourier(ctx context.Context, id kernel.UUID) (Contact, error)
}
