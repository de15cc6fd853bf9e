package commands_test

import (
	"testing"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/stretchr/testify/require"
)

func TestNewReconcileOrdersCommand_Success(t *testing.T) {
	cmd := commands.NewReconcileOrdersCommand()
	require.NoError(t, cmd.Validate())
}

func TestReconcileOrdersCommand_Validate_NotConstructed(t *testing.T) {
	var cmd commands.ReconcileOrdersCommand
	require.ErrorIs(t, cmd.Validate(), commands.ErrReconcileOrdersCommandIsNotConstructed)
}
