package order_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Validate(t *testing.T) {
	valid := []order.Status{
		order.Placed,
		order.PendingVendorResponse,
		order.Confirmed,
		order.Preparing,
		order.OutForDelivery,
		order.Delivered,
		order.Cancelled,
	}
	for _, s := range valid {
		t.Run(s.String(), func(t *testing.T) {
			require.NoError(t, s.Validate())
		})
	}

	t.Run("unknown is invalid", func(t *testing.T) {
		require.Error(t, order.Unknown.Validate())
	})

	t.Run("out of range is invalid", func(t *testing.T) {
		require.Error(t, order.Status(42).Validate())
	})
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "placed", order.Placed.String())
	assert.Equal(t, "pending_vendor_response", order.PendingVendorResponse.String())
	assert.Equal(t, "confirmed", order.Confirmed.String())
	assert.Equal(t, "preparing", order.Preparing.String())
	assert.Equal(t, "out_for_delivery", order.OutForDelivery.String())
	assert.Equal(t, "delivered", order.Delivered.String())
	assert.Equal(t, "cancelled", order.Cancelled.String())
	assert.Equal(t, "unknown", order.Unknown.String())
}

func TestStatusFromString(t *testing.T) {
	t.Run("round trips every valid status", func(t *testing.T) {
		for _, s := range []order.Status{
			order.Placed, order.PendingVendorResponse, order.Confirmed,
			order.Preparing, order.OutForDelivery, order.Delivered, order.Cancelled,
		} {
			parsed, err := order.StatusFromString(s.String())
			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		}
	})

	t.Run("rejects unrecognized values", func(t *testing.T) {
		_, err := order.StatusFromString("on_hold")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestStatus_Transitions(t *testing.T) {
	t.Run("happy path edges are legal", func(t *testing.T) {
		assert.True(t, order.Placed.CanTransitionTo(order.PendingVendorResponse))
		assert.True(t, order.PendingVendorResponse.CanTransitionTo(order.Confirmed))
		assert.True(t, order.Confirmed.CanTransitionTo(order.Preparing))
		assert.True(t, order.Preparing.CanTransitionTo(order.OutForDelivery))
		assert.True(t, order.OutForDelivery.CanTransitionTo(order.Delivered))
	})

	t.Run("merged vendor-accept path is legal", func(t *testing.T) {
		assert.True(t, order.PendingVendorResponse.CanTransitionTo(order.Preparing))
	})

	t.Run("every non-terminal status can be cancelled", func(t *testing.T) {
		for _, s := range []order.Status{
			order.Placed, order.PendingVendorResponse, order.Confirmed,
			order.Preparing, order.OutForDelivery,
		} {
			assert.True(t, s.CanTransitionTo(order.Cancelled), s.String())
		}
	})

	t.Run("terminal statuses have no outbound edges", func(t *testing.T) {
		for _, terminal := range []order.Status{order.Delivered, order.Cancelled} {
			assert.True(t, terminal.IsTerminal())
			for _, next := range []order.Status{
				order.Placed, order.PendingVendorResponse, order.Confirmed,
				order.Preparing, order.OutForDelivery, order.Delivered, order.Cancelled,
			} {
				assert.False(t, terminal.CanTransitionTo(next),
					"%s -> %s must be illegal", terminal, next)
			}
		}
	})

	t.Run("skipping states is illegal", func(t *testing.T) {
		assert.False(t, order.Placed.CanTransitionTo(order.Preparing))
		assert.False(t, order.Placed.CanTransitionTo(order.OutForDelivery))
		assert.False(t, order.Confirmed.CanTransitionTo(order.OutForDelivery))
		assert.False(t, order.Preparing.CanTransitionTo(order.Delivered))
	})

	t.Run("TransitionTo rejects illegal edges", func(t *testing.T) {
		_, err := order.Delivered.TransitionTo(order.Preparing)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)

		next, err := order.Preparing.TransitionTo(order.OutForDelivery)
		require.NoError(t, err)
		assert.Equal(t, order.OutForDelivery, next)
	})
}

func TestStatus_ValidateCanHaveCourier(t *testing.T) {
	t.Run("pre-dispatch statuses must have no courier", func(t *testing.T) {
		for _, s := range []order.Status{
			order.Placed, order.PendingVendorResponse, order.Confirmed, order.Preparing,
		} {
			require.NoError(t, s.ValidateCanHaveCourier(false), s.String())
			require.Error(t, s.ValidateCanHaveCourier(true), s.String())
		}
	})

	t.Run("delivery statuses require a courier", func(t *testing.T) {
		for _, s := range []order.Status{order.OutForDelivery, order.Delivered} {
			require.NoError(t, s.ValidateCanHaveCourier(true), s.String())
			require.Error(t, s.ValidateCanHaveCourier(false), s.String())
		}
	})

	t.Run("cancelled tolerates both", func(t *testing.T) {
		require.NoError(t, order.Cancelled.ValidateCanHaveCourier(true))
		require.NoError(t, order.Cancelled.ValidateCanHaveCourier(false))
	})
}
