package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrCheckoutOrderCommandIsNotConstructed = errors.New(
		"CheckoutOrderCommand must be created via NewCheckoutOrderCommand constructor",
	)
	ErrCheckoutItemsAreRequired = errs.NewValueIsRequiredError("items")
)

// CheckoutItem is one requested order line at checkout time. Prices are
// snapshots taken by the basket service; the coordinator never re-reads the
// catalog.
type CheckoutItem struct {
	VendorID  kernel.UUID
	Name      string
	UnitPrice kernel.Money
	Quantity  int
}

// CheckoutOrderCommand represents a confirmed basket entering fulfillment.
// Carries the customer, the priced lines, and any discount already granted.
//
// Example:
//
//	cmd, err := NewCheckoutOrderCommand(kernel.NewUUID(), customerID, items, discount)
//	if err != nil {
//	    return fmt.Errorf("invalid checkout data: %w", err)
//	}
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to place order: %w", err)
//	}
type CheckoutOrderCommand struct { //nolint:recvcheck //using for validation
	orderID    kernel.UUID
	customerID kernel.UUID
	items      []CheckoutItem
	discount   kernel.Money

	guard guard.ConstructorGuard
}

// NewCheckoutOrderCommand creates a command to place a new order.
// Validates that both identifiers are valid and at least one line is present.
// Line-level validation (price, quantity) happens in the order aggregate.
func NewCheckoutOrderCommand(
	orderID kernel.UUID,
	customerID kernel.UUID,
	items []CheckoutItem,
	discount kernel.Money,
) (CheckoutOrderCommand, error) {
	checkoutCommand := CheckoutOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		checkoutCommand.setOrderID(orderID),
		checkoutCommand.setCustomerID(customerID),
		checkoutCommand.setItems(items),
	); err != nil {
		return CheckoutOrderCommand{}, err
	}

	checkoutCommand.discount = discount
	return checkoutCommand, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCheckoutOrderCommandIsNotConstructed if validation fails.
func (c CheckoutOrderCommand) Validate() error {
	return c.guard.Validate(ErrCheckoutOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the new order.
func (c CheckoutOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// CustomerID returns the customer placing the order.
func (c CheckoutOrderCommand) CustomerID() kernel.UUID {
	return c.customerID
}

// Items returns a copy of the requested lines.
func (c CheckoutOrderCommand) Items() []CheckoutItem {
	copied := make([]CheckoutItem, len(c.items))
	copy(copied, c.items)
	return copied
}

// Discount returns the discount already granted to the basket.
func (c CheckoutOrderCommand) Discount() kernel.Money {
	return c.discount
}

func (c *CheckoutOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CheckoutOrderCommand) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer", err)
	}

	c.customerID = customerID
	return nil
}

func (c *CheckoutOrderCommand) setItems(items []CheckoutItem) error {
	if len(items) == 0 {
		return ErrCheckoutItemsAreRequired
	}

	c.items = make([]CheckoutItem, len(items))
	copy(c.items, items)
	return nil
}
