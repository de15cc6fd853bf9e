package commands_test

import (
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVendorResponseCommand_Success(t *testing.T) {
	orderID := kernel.NewUUID()
	vendorID := kernel.NewUUID()

	cmd, err := commands.NewVendorResponseCommand(orderID, vendorID, true, true)

	require.NoError(t, err)
	assert.NoError(t, cmd.Validate())
	assert.True(t, cmd.Accept())
	assert.True(t, cmd.StartImmediately())
}

func TestNewVendorResponseCommand_InvalidIDs(t *testing.T) {
	_, err := commands.NewVendorResponseCommand(kernel.UUID{}, kernel.NewUUID(), true, false)
	require.Error(t, err)

	_, err = commands.NewVendorResponseCommand(kernel.NewUUID(), kernel.UUID{}, true, false)
	require.Error(t, err)
}

func TestNewVendorResponseCommand_StartImmediatelyOnReject(t *testing.T) {
	_, err := commands.NewVendorResponseCommand(kernel.NewUUID(), kernel.NewUUID(), false, true)
	require.ErrorIs(t, err, commands.ErrStartImmediatelyRequiresAccept)
}

func TestVendorResponseCommand_Validate_NotConstructed(t *testing.T) {
	var cmd commands.VendorResponseCommand
	require.ErrorIs(t, cmd.Validate(), commands.ErrVendorResponseCommandIsNotConstructed)
}
