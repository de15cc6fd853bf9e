package order_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMoney(t *testing.T, paise int64) kernel.Money {
	t.Helper()
	m, err := kernel.NewMoney(paise)
	require.NoError(t, err)
	return m
}

func mustItem(t *testing.T, vendorID kernel.UUID, name string, paise int64, qty int) order.Item {
	t.Helper()
	item, err := order.NewItem(vendorID, name, mustMoney(t, paise), qty)
	require.NoError(t, err)
	return item
}

func testPolicy() order.FeePolicy {
	return order.FeePolicy{
		PlatformFeeBasisPoints: 500,  // 5%
		TaxBasisPoints:         1800, // 18% GST
		DeliveryCharge:         kernel.Zero(),
	}
}

func TestCalculateTotals(t *testing.T) {
	vendorID := kernel.NewUUID()

	t.Run("derives every field from the items", func(t *testing.T) {
		policy := testPolicy()
		delivery := mustMoney(t, 4000)
		policy.DeliveryCharge = delivery

		items := []order.Item{
			mustItem(t, vendorID, "Masala Dosa", 12000, 2), // 240.00
			mustItem(t, vendorID, "Filter Coffee", 4000, 1),
		}

		totals, err := order.CalculateTotals(items, policy, kernel.Zero())
		require.NoError(t, err)

		assert.Equal(t, int64(28000), totals.Subtotal.Paise())
		assert.Equal(t, int64(1400), totals.PlatformFee.Paise())
		assert.Equal(t, int64(5040), totals.Tax.Paise())
		assert.Equal(t, int64(4000), totals.DeliveryCharge.Paise())
		assert.Equal(t, int64(0), totals.Discount.Paise())
		assert.Equal(t, int64(38440), totals.Total.Paise())
	})

	t.Run("discount reduces the total", func(t *testing.T) {
		items := []order.Item{mustItem(t, vendorID, "Thali", 20000, 1)}

		totals, err := order.CalculateTotals(items, testPolicy(), mustMoney(t, 5000))
		require.NoError(t, err)

		// 20000 + 1000 fee + 3600 tax - 5000 discount
		assert.Equal(t, int64(19600), totals.Total.Paise())
		assert.Equal(t, int64(5000), totals.Discount.Paise())
	})

	t.Run("discount larger than the gross is capped", func(t *testing.T) {
		items := []order.Item{mustItem(t, vendorID, "Vada", 2000, 1)}

		totals, err := order.CalculateTotals(items, testPolicy(), mustMoney(t, 100000))
		require.NoError(t, err)

		assert.True(t, totals.Total.IsZero())
		assert.Equal(t, totals.Discount,
			totals.Subtotal.Add(totals.PlatformFee).Add(totals.DeliveryCharge).Add(totals.Tax))
	})

	t.Run("same inputs produce the same totals", func(t *testing.T) {
		items := []order.Item{mustItem(t, vendorID, "Biryani", 25000, 3)}

		first, err := order.CalculateTotals(items, testPolicy(), kernel.Zero())
		require.NoError(t, err)
		second, err := order.CalculateTotals(items, testPolicy(), kernel.Zero())
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}
