package coupon

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront-coupons/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// Calculate computes the monetary discount for a coupon already judged
// eligible. It re-checks nothing except its own arithmetic invariants:
// a fixed discount never exceeds the eligible subtotal, the optional
// MaxDiscountAmount caps the result, and the result is rounded to two
// decimal places half away from zero.
//
// Calculate panics on corrupted coupon configuration (negative discount
// value, percentage above 100, unknown discount type). Those are data
// errors upstream, not user-facing conditions.
func Calculate(c *models.Coupon, eligibleLines []models.CartLine) decimal.Decimal {
	if c.DiscountValue.IsNegative() {
		panic(fmt.Sprintf("coupon %s: negative discount value %s", c.Code, c.DiscountValue))
	}

	if len(eligibleLines) == 0 {
		return decimal.Zero
	}

	eligibleSubtotal := decimal.Zero
	for _, line := range eligibleLines {
		eligibleSubtotal = eligibleSubtotal.Add(line.LineTotal)
	}

	var raw decimal.Decimal
	switch c.DiscountType {
	case models.DiscountTypePercentage:
		if c.DiscountValue.GreaterThan(oneHundred) {
			panic(fmt.Sprintf("coupon %s: percentage discount %s exceeds 100", c.Code, c.DiscountValue))
		}
		raw = eligibleSubtotal.Mul(c.DiscountValue).Div(oneHundred)
	case models.DiscountTypeFixedAmount:
		// A fixed discount cannot exceed the value of the items it
		// applies to.
		raw = decimal.Min(c.DiscountValue, eligibleSubtotal)
	default:
		panic(fmt.Sprintf("coupon %s: unknown discount type %q", c.Code, c.DiscountType))
	}

	if c.MaxDiscountAmount != nil {
		raw = decimal.Min(raw, *c.MaxDiscountAmount)
	}

	// decimal.Round rounds half away from zero, the mode used for all
	// monetary math in this system.
	return raw.Round(2)
}
