package order

import (
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// Item is one line of an order: a dish from a specific vendor with a price
// snapshot taken at checkout time. An order may carry items from several
// vendors; each vendor is only ever shown its own lines.
type Item struct {
	vendorID  kernel.UUID
	name      string
	unitPrice kernel.Money
	quantity  int
}

// NewItem creates a validated order line.
//
// Returns an error when the vendor reference is missing, the name is empty,
// the unit price is zero, or the quantity is not positive.
func NewItem(vendorID kernel.UUID, name string, unitPrice kernel.Money, quantity int) (Item, error) {
	item := RestoreItem(vendorID, name, unitPrice, quantity)
	if err := item.Validate(); err != nil {
		return Item{}, err
	}
	return item, nil
}

// RestoreItem reconstructs an item from persistence without validation.
// Legacy records with missing price or quantity fields are representable;
// Validate surfaces them so the caller can exclude the order from automatic
// processing instead of crashing on it.
func RestoreItem(vendorID kernel.UUID, name string, unitPrice kernel.Money, quantity int) Item {
	return Item{
		vendorID:  vendorID,
		name:      name,
		unitPrice: unitPrice,
		quantity:  quantity,
	}
}

// Validate checks the structural integrity of the line.
func (i Item) Validate() error {
	if err := i.vendorID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("item vendor", err)
	}
	if i.name == "" {
		return errs.NewValueIsRequiredError("item name")
	}
	if i.unitPrice.IsZero() {
		return errs.NewValueIsRequiredError("item unit price")
	}
	if i.quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("item quantity",
			fmt.Errorf("%d is not greater than 0", i.quantity))
	}
	return nil
}

// VendorID returns the vendor this line belongs to.
func (i Item) VendorID() kernel.UUID {
	return i.vendorID
}

// Name returns the display name snapshot of the dish.
func (i Item) Name() string {
	return i.name
}

// UnitPrice returns the price snapshot per unit.
func (i Item) UnitPrice() kernel.Money {
	return i.unitPrice
}

// Quantity returns the ordered quantity.
func (i Item) Quantity() int {
	return i.quantity
}

// LineTotal returns unit price times quantity.
func (i Item) LineTotal() (kernel.Money, error) {
	return i.unitPrice.MultiplyQty(i.quantity)
}
