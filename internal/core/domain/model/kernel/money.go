package kernel

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// basisPointsDenominator converts basis points to a fraction (100 bp = 1%).
const basisPointsDenominator = 10_000

// Money is a value object that represents an exact monetary amount in minor
// currency units (paise). Storing minor units as an integer keeps order
// totals free of floating point drift.
//
// The zero value is a valid amount of zero. Money is immutable; arithmetic
// methods return new values.
//
// Example usage:
//
//	price, _ := kernel.NewMoney(24900)         // ₹249.00
//	line, _ := price.MultiplyQty(3)
//	fee := line.PercentBasisPoints(500)        // 5%
type Money struct {
	paise int64
}

// NewMoney creates a Money value from an amount in minor units.
// Negative amounts are not representable; use Subtract for discounts.
func NewMoney(paise int64) (Money, error) {
	if paise < 0 {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("money",
			fmt.Errorf("%d paise is negative", paise))
	}
	return Money{paise: paise}, nil
}

// Zero returns a zero amount.
func Zero() Money {
	return Money{}
}

// Paise returns the amount in minor units.
func (m Money) Paise() int64 {
	return m.paise
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.paise == 0
}

// IsEqual compares two amounts for equality.
func (m Money) IsEqual(other Money) bool {
	return m.paise == other.paise
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{paise: m.paise + other.paise}
}

// Subtract returns the difference of two amounts.
// Returns an error when the result would be negative, which keeps derived
// totals (for example discounted subtotals) from going below zero.
func (m Money) Subtract(other Money) (Money, error) {
	if other.paise > m.paise {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("money",
			fmt.Errorf("cannot subtract %d paise from %d paise", other.paise, m.paise))
	}
	return Money{paise: m.paise - other.paise}, nil
}

// MultiplyQty returns the amount multiplied by a positive item quantity.
func (m Money) MultiplyQty(qty int) (Money, error) {
	if qty <= 0 {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("quantity",
			fmt.Errorf("%d is not greater than 0", qty))
	}
	return Money{paise: m.paise * int64(qty)}, nil
}

// PercentBasisPoints returns the given fraction of the amount, expressed in
// basis points (100 bp = 1%). Rounds down to the nearest paisa.
func (m Money) PercentBasisPoints(bp int64) Money {
	return Money{paise: m.paise * bp / basisPointsDenominator}
}

// String renders the amount in major units for logs and notifications,
// e.g. "249.00".
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m.paise/100, m.paise%100)
}
