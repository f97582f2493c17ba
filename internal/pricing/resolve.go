package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ResolveDiscount computes the amount to store on an order when a discount is chosen.
// entered is the operator-keyed value for variable discounts: an amount for Fixed, a percentage for Percent.
// It is ignored when the rate is not editable.
//
// Percent discounts are capped at MaxCap when set, and every discount is capped at itemsTotal.
func ResolveDiscount(d Discount, itemsTotal, entered decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch d.Type {
	case Fixed:
		if d.IsVariable() {
			amount = clampRange(entered, d.MinRate, d.MaxRate)
		} else {
			amount = d.MinRate
		}
	case Percent:
		rate := d.MinRate
		if d.IsVariable() {
			rate = clampRange(entered, d.MinRate, d.MaxRate)
		}
		amount = percentOf(rate, itemsTotal)
		if d.MaxCap != nil {
			amount = decimal.Min(amount, *d.MaxCap)
		}
	default:
		return decimal.Zero
	}
	amount = decimal.Min(amount, itemsTotal)
	return nonNegative(amount)
}

// ResolveCharge computes a service charge or tip amount. Percent charges apply to itemsTotal.
func ResolveCharge(c Charge, itemsTotal decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case Percent:
		return nonNegative(percentOf(c.Value, itemsTotal))
	case Fixed:
		return nonNegative(c.Value)
	}
	return decimal.Zero
}

// ResolveTax computes the tax amount for a rate applied to itemsTotal.
func ResolveTax(t Tax, itemsTotal decimal.Decimal) decimal.Decimal {
	return nonNegative(percentOf(t.Rate, itemsTotal))
}

// ParseAmount turns keypad input into an amount. Anything that does not parse is zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func percentOf(rate, total decimal.Decimal) decimal.Decimal {
	return rate.Mul(total).Div(hundred)
}

// bounds may arrive swapped from catalog data
func clampRange(v, lo, hi decimal.Decimal) decimal.Decimal {
	if lo.GreaterThan(hi) {
		lo, hi = hi, lo
	}
	return decimal.Max(lo, decimal.Min(v, hi))
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
