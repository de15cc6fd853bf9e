package courier

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// Domain errors for courier operations.
var (
	// ErrNameIsRequired is returned when attempting to create a courier without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrCourierIsNotConstructed is returned when using an improperly initialized Courier.
	ErrCourierIsNotConstructed = errors.New("Courier must be created via NewCourier constructor")
)

// Courier represents a delivery courier in the fulfillment system.
// It is an aggregate root that manages courier identity and availability.
//
// Availability is the single dispatch-relevant fact about a courier: the
// Dispatch Coordinator broadcasts courier offers to every courier currently
// marked available. A courier goes unavailable when it wins an order and
// comes back when the delivery is reported done (or when it toggles itself
// through the courier app).
//
// Business rules:
//   - Courier must have a valid UUID and a non-empty name
//   - A freshly registered courier starts unavailable until it goes online
type Courier struct {
	// id uniquely identifies the courier
	id kernel.UUID
	// name is the human-readable name of the courier
	name string
	// phone is the contact number shared with the customer on assignment
	phone string
	// available reports whether the courier can receive dispatch offers
	available bool
	// guard ensures the courier was properly constructed
	guard guard.ConstructorGuard
}

// NewCourier creates a new Courier with the specified identity.
// The courier starts unavailable; it must explicitly go online before it
// receives dispatch offers.
//
// Returns a validation error when the ID is invalid or the name is empty.
func NewCourier(id kernel.UUID, name, phone string) (*Courier, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, ErrNameIsRequired
	}

	return &Courier{
		id:    id,
		name:  name,
		phone: phone,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// RestoreCourier reconstructs a courier from persistence.
func RestoreCourier(id kernel.UUID, name, phone string, available bool) (*Courier, error) {
	c, err := NewCourier(id, name, phone)
	if err != nil {
		return nil, err
	}
	c.available = available
	return c, nil
}

// Validate ensures the Courier instance was properly constructed.
func (c *Courier) Validate() error {
	if c == nil {
		return ErrCourierIsNotConstructed
	}
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

// IsEqual compares two couriers by their unique identifiers.
func (c *Courier) IsEqual(other *Courier) bool {
	return other != nil && c.id.IsEqual(other.id)
}

// ID returns the courier's unique identifier.
func (c *Courier) ID() kernel.UUID {
	return c.id
}

// Name returns the courier's display name.
func (c *Courier) Name() string {
	return c.name
}

// Phone returns the courier's contact number.
func (c *Courier) Phone() string {
	return c.phone
}

// IsAvailable reports whether the courier can receive dispatch offers.
func (c *Courier) IsAvailable() bool {
	return c.available
}

// GoOnline marks the courier as available for dispatch offers.
func (c *Courier) GoOnline() {
	c.available = true
}

// GoOffline marks the courier as unavailable. Offers already broadcast to it
// remain resolvable; the flag only gates future broadcasts.
func (c *Courier) GoOffline() {
	c.available = false
}
