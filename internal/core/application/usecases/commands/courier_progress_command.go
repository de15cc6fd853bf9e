package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrCourierProgressCommandIsNotConstructed = errors.New(
	"CourierProgressCommand must be created via NewCourierProgressCommand constructor",
)

// CourierProgressCommand represents the courier's delivery report: the
// assigned courier handed the order to the customer. This is the only
// post-assignment milestone the coordinator tracks; it closes the order.
type CourierProgressCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	courierID kernel.UUID

	guard guard.ConstructorGuard
}

// NewCourierProgressCommand creates a command reporting a completed delivery.
func NewCourierProgressCommand(orderID, courierID kernel.UUID) (CourierProgressCommand, error) {
	progressCommand := CourierProgressCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		progressCommand.setOrderID(orderID),
		progressCommand.setCourierID(courierID),
	); err != nil {
		return CourierProgressCommand{}, err
	}

	return progressCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c CourierProgressCommand) Validate() error {
	return c.guard.Validate(ErrCourierProgressCommandIsNotConstructed)
}

// OrderID returns the delivered order.
func (c CourierProgressCommand) OrderID() kernel.UUID {
	return c.orderID
}

// CourierID returns the reporting courier.
func (c CourierProgressCommand) CourierID() kernel.UUID {
	return c.courierID
}

func (c *CourierProgressCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CourierProgressCommand) setCourierID(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("courier", err)
	}

	c.courierID = courierID
	return nil
}
