package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrSetCourierAvailabilityCommandIsNotConstructed = errors.New(
	"SetCourierAvailabilityCommand must be created via NewSetCourierAvailabilityCommand constructor",
)

// SetCourierAvailabilityCommand toggles whether a courier receives dispatch
// offers. Going offline does not void offers already broadcast to it.
type SetCourierAvailabilityCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	available bool

	guard guard.ConstructorGuard
}

// NewSetCourierAvailabilityCommand creates an availability toggle command.
func NewSetCourierAvailabilityCommand(courierID kernel.UUID, available bool) (SetCourierAvailabilityCommand, error) {
	availabilityCommand := SetCourierAvailabilityCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := availabilityCommand.setCourierID(courierID); err != nil {
		return SetCourierAvailabilityCommand{}, err
	}

	availabilityCommand.available = available
	return availabilityCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c SetCourierAvailabilityCommand) Validate() error {
	return c.guard.Validate(ErrSetCourierAvailabilityCommandIsNotConstructed)
}

// CourierID returns the courier being toggled.
func (c SetCourierAvailabilityCommand) CourierID() kernel.UUID {
	return c.courierID
}

// Available reports the requested availability.
func (c SetCourierAvailabilityCommand) Available() bool {
	return c.available
}

func (c *SetCourierAvailabilityCommand) setCourierID(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return err
	}

	c.courierID = courierID
	return nil
}
