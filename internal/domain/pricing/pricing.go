// Package pricing derives display prices from a level's list price.
package pricing

import "github.com/shopspring/decimal"

// AutoRenewPrice returns price minus the auto-renewal discount, floored at zero.
// A negative discount is treated as no discount.
func AutoRenewPrice(price, discount decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	auto := price.Sub(discount)
	if auto.IsNegative() {
		return decimal.Zero
	}
	return auto
}

// HasAutoRenewDiscount reports whether a discount should be advertised.
func HasAutoRenewDiscount(discount decimal.Decimal) bool {
	return discount.IsPositive()
}
