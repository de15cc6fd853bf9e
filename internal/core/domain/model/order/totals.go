package order

import "fulfillment/internal/core/domain/model/kernel"

// FeePolicy carries the marketplace charges applied on top of the item
// subtotal. Percentages are expressed in basis points to keep the math exact.
type FeePolicy struct {
	PlatformFeeBasisPoints int64
	TaxBasisPoints         int64
	DeliveryCharge         kernel.Money
}

// Totals is the derived financial breakdown of an order. It is never mutated
// directly: CalculateTotals recomputes it as a pure function of the items,
// the fee policy, and the discount.
type Totals struct {
	Subtotal       kernel.Money
	PlatformFee    kernel.Money
	DeliveryCharge kernel.Money
	Tax            kernel.Money
	Discount       kernel.Money
	Total          kernel.Money
}

// CalculateTotals derives the financial breakdown for the given lines.
// The discount is capped at the pre-discount total rather than producing a
// negative amount owed.
func CalculateTotals(items []Item, policy FeePolicy, discount kernel.Money) (Totals, error) {
	subtotal := kernel.Zero()
	for _, item := range items {
		line, err := item.LineTotal()
		if err != nil {
			return Totals{}, err
		}
		subtotal = subtotal.Add(line)
	}

	platformFee := subtotal.PercentBasisPoints(policy.PlatformFeeBasisPoints)
	tax := subtotal.PercentBasisPoints(policy.TaxBasisPoints)

	gross := subtotal.Add(platformFee).Add(policy.DeliveryCharge).Add(tax)

	applied := discount
	total, err := gross.Subtract(applied)
	if err != nil {
		applied = gross
		total = kernel.Zero()
	}

	return Totals{
		Subtotal:       subtotal,
		PlatformFee:    platformFee,
		DeliveryCharge: policy.DeliveryCharge,
		Tax:            tax,
		Discount:       applied,
		Total:          total,
	}, nil
}
