package queries_test

import (
	"testing"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetVendorQueueQuery_Valid(t *testing.T) {
	vendorID := kernel.NewUUID()

	query, err := queries.NewGetVendorQueueQuery(vendorID)

	require.NoError(t, err)
	assert.NoError(t, query.Validate())
	assert.Equal(t, vendorID, query.VendorID())
}

func TestNewGetVendorQueueQuery_InvalidVendorID(t *testing.T) {
	_, err := queries.NewGetVendorQueueQuery(kernel.UUID{})
	require.Error(t, err)
}

func TestGetVendorQueueQuery_NotConstructedViaConstructor(t *testing.T) {
	query := queries.GetVendorQueueQuery{}
	err := query.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, queries.ErrGetVendorQueueQueryIsNotConstructed)
}
