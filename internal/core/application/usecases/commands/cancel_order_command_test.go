package commands_test

import (
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCancelOrderCommand_Success(t *testing.T) {
	cmd, err := commands.NewCancelOrderCommand(kernel.NewUUID(), "vendor closed early")

	require.NoError(t, err)
	assert.NoError(t, cmd.Validate())
	assert.Equal(t, "vendor closed early", cmd.Reason())
}

func TestNewCancelOrderCommand_ReasonIsRequired(t *testing.T) {
	_, err := commands.NewCancelOrderCommand(kernel.NewUUID(), "")
	require.ErrorIs(t, err, commands.ErrReasonIsRequired)
}

func TestCancelOrderCommand_Validate_NotConstructed(t *testing.T) {
	var cmd commands.CancelOrderCommand
	require.ErrorIs(t, cmd.Validate(), commands.ErrCancelOrderCommandIsNotConstructed)
}
