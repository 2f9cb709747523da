// Package discount contains the pure discount computation used for order
// pricing and coupon previews. It performs no I/O; validity and ownership
// checks live in the coupon service.
package discount

import (
	"github.com/shopspring/decimal"

	"storefront/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Calculate returns the discount for an order amount under the given
// policy. Orders below the minimum order amount get no discount. A
// PERCENTAGE policy yields orderAmount * value / 100, a FIXED_AMOUNT policy
// yields the value itself. The result is capped at the policy's maximum
// discount amount when one is set, and never exceeds the order amount.
func Calculate(d *model.Discount, orderAmount decimal.Decimal) decimal.Decimal {
	if orderAmount.LessThan(d.MinimumOrderAmount) {
		return decimal.Zero
	}

	var amount decimal.Decimal
	if d.Type == model.DiscountTypePercentage {
		amount = orderAmount.Mul(d.Value).Div(hundred)
	} else {
		amount = d.Value
	}

	if d.MaximumDiscountAmount != nil && amount.GreaterThan(*d.MaximumDiscountAmount) {
		amount = *d.MaximumDiscountAmount
	}

	if amount.GreaterThan(orderAmount) {
		amount = orderAmount
	}

	return amount
}
