package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrCourierResponseCommandIsNotConstructed = errors.New(
	"CourierResponseCommand must be created via NewCourierResponseCommand constructor",
)

// CourierResponseCommand represents a courier's reaction to a broadcast
// delivery offer: take the order or pass on it.
type CourierResponseCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	courierID kernel.UUID
	accept    bool

	guard guard.ConstructorGuard
}

// NewCourierResponseCommand creates a command carrying a courier decision.
func NewCourierResponseCommand(orderID, courierID kernel.UUID, accept bool) (CourierResponseCommand, error) {
	responseCommand := CourierResponseCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		responseCommand.setOrderID(orderID),
		responseCommand.setCourierID(courierID),
	); err != nil {
		return CourierResponseCommand{}, err
	}

	responseCommand.accept = accept
	return responseCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c CourierResponseCommand) Validate() error {
	return c.guard.Validate(ErrCourierResponseCommandIsNotConstructed)
}

// OrderID returns the offered order.
func (c CourierResponseCommand) OrderID() kernel.UUID {
	return c.orderID
}

// CourierID returns the responding courier.
func (c CourierResponseCommand) CourierID() kernel.UUID {
	return c.courierID
}

// Accept reports whether the courier took the order.
func (c CourierResponseCommand) Accept() bool {
	return c.accept
}

func (c *CourierResponseCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CourierResponseCommand) setCourierID(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("courier", err)
	}

	c.courierID = courierID
	return nil
}
