package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrVendorResponseCommandIsNotConstructed = errors.New(
		"VendorResponseCommand must be created via NewVendorResponseCommand constructor",
	)
	ErrStartImmediatelyRequiresAccept = errs.NewValueIsInvalidError(
		"startImmediately is only valid on an acceptance",
	)
)

// VendorResponseCommand represents a vendor's decision on an offered order.
// An acceptance may additionally report that the kitchen started right away,
// which collapses the confirmed stage and moves the order straight to
// preparing.
type VendorResponseCommand struct { //nolint:recvcheck //using for validation
	orderID          kernel.UUID
	vendorID         kernel.UUID
	accept           bool
	startImmediately bool

	guard guard.ConstructorGuard
}

// NewVendorResponseCommand creates a command carrying a vendor decision.
func NewVendorResponseCommand(
	orderID kernel.UUID,
	vendorID kernel.UUID,
	accept bool,
	startImmediately bool,
) (VendorResponseCommand, error) {
	responseCommand := VendorResponseCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		responseCommand.setOrderID(orderID),
		responseCommand.setVendorID(vendorID),
	); err != nil {
		return VendorResponseCommand{}, err
	}

	if startImmediately && !accept {
		return VendorResponseCommand{}, ErrStartImmediatelyRequiresAccept
	}

	responseCommand.accept = accept
	responseCommand.startImmediately = startImmediately
	return responseCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c VendorResponseCommand) Validate() error {
	return c.guard.Validate(ErrVendorResponseCommandIsNotConstructed)
}

// OrderID returns the order being responded to.
func (c VendorResponseCommand) OrderID() kernel.UUID {
	return c.orderID
}

// VendorID returns the responding vendor.
func (c VendorResponseCommand) VendorID() kernel.UUID {
	return c.vendorID
}

// Accept reports whether the vendor accepted the order.
func (c VendorResponseCommand) Accept() bool {
	return c.accept
}

// StartImmediately reports whether the kitchen started on acceptance.
func (c VendorResponseCommand) StartImmediately() bool {
	return c.startImmediately
}

func (c *VendorResponseCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *VendorResponseCommand) setVendorID(vendorID kernel.UUID) error {
	if err := vendorID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("vendor", err)
	}

	c.vendorID = vendorID
	return nil
}
