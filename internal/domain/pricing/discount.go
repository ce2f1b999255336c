// Package pricing holds the discount and tax rules applied to orders and
// invoices before they are saved. Everything here is free of I/O.
package pricing

import (
	"github.com/sangkips/qbo-connector/pkg/apperror"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// quantityTiers is ordered highest threshold first; the first match wins.
var quantityTiers = []struct {
	minQty  decimal.Decimal
	percent decimal.Decimal
}{
	{decimal.NewFromInt(10000), decimal.NewFromInt(20)},
	{decimal.NewFromInt(4000), decimal.NewFromInt(17)},
	{decimal.NewFromInt(3000), decimal.NewFromInt(15)},
	{decimal.NewFromInt(2000), decimal.NewFromInt(12)},
	{decimal.NewFromInt(1500), decimal.NewFromInt(10)},
	{decimal.NewFromInt(1200), decimal.NewFromInt(7)},
	{decimal.NewFromInt(800), decimal.NewFromInt(5)},
	{decimal.NewFromInt(500), decimal.NewFromInt(2)},
}

// QuantityDiscountModifier returns the extra discount percent earned by
// ordering qty units in total.
func QuantityDiscountModifier(qty decimal.Decimal) decimal.Decimal {
	for _, tier := range quantityTiers {
		if qty.GreaterThanOrEqual(tier.minQty) {
			return tier.percent
		}
	}
	return decimal.Zero
}

// EffectiveDiscount is the customer's base discount plus the quantity
// modifier, or zero when the order ignores discounts.
func EffectiveDiscount(baseDiscount, qty decimal.Decimal, ignoreDiscount bool) decimal.Decimal {
	if ignoreDiscount {
		return decimal.Zero
	}
	return baseDiscount.Add(QuantityDiscountModifier(qty))
}

// ValidateBaseDiscount rejects a customer discount outside [0,100].
func ValidateBaseDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() || discount.GreaterThan(hundred) {
		return apperror.NewFieldValidationError("base_discount",
			"Discount must be a number between 0 and 100, got "+discount.String())
	}
	return nil
}

// ShouldApplyDiscount decides whether a recomputed discount replaces the
// stored one. prior is the persisted percent, nil for a document that has
// never been saved; current is the percent on the incoming document.
func ShouldApplyDiscount(prior *decimal.Decimal, current, next decimal.Decimal) bool {
	if prior == nil {
		return current.IsZero()
	}
	return !prior.Equal(next)
}

// DiscountAmount is percent of net, rounded to cents.
func DiscountAmount(net, percent decimal.Decimal) decimal.Decimal {
	return net.Mul(percent).Div(hundred).Round(2)
}
