package orders

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
)

// Adjustment changes one of the bill-level components of an order.
type Adjustment func(*Order)

// WithDiscount sets the discount. entered is the raw keypad text for variable discounts; garbage reads as zero.
// A nil discount removes it.
func WithDiscount(d *pricing.Discount, entered string) Adjustment {
	return func(o *Order) {
		o.Discount = d
		o.DiscountEntered = pricing.ParseAmount(entered)
	}
}

func WithServiceCharge(c *pricing.Charge) Adjustment {
	return func(o *Order) { o.ServiceCharge = c }
}

func WithTip(c *pricing.Charge) Adjustment {
	return func(o *Order) { o.Tip = c }
}

func WithTax(t *pricing.Tax) Adjustment {
	return func(o *Order) { o.Tax = t }
}

// WithExtras replaces the extras list.
func WithExtras(extras []pricing.Extra) Adjustment {
	return func(o *Order) { o.Extras = extras }
}

// ApplyAdjustments applies each adjustment and stores the re-resolved amounts.
func (s *Store) ApplyAdjustments(ctx context.Context, orderID string, adjustments ...Adjustment) (*Order, error) {
	return s.Update(ctx, orderID, func(o *Order) error {
		for _, adj := range adjustments {
			adj(o)
		}
		return nil
	})
}

// Reprice resolves the stored tax, discount, service charge and tip amounts against the current items total.
// Amounts for missing components are zero.
//
// Amounts are re-resolved on every order change, not frozen when the adjustment is chosen: percent charges
// follow item edits and the discount never exceeds the items total left on the order.
func (o *Order) Reprice() {
	items := pricing.OrderItemsTotal(&o.Order)

	o.DiscountAmount = decimal.Zero
	if o.Discount != nil {
		o.DiscountAmount = pricing.ResolveDiscount(*o.Discount, items, o.DiscountEntered)
	}
	o.TaxAmount = decimal.Zero
	if o.Tax != nil {
		o.TaxAmount = pricing.ResolveTax(*o.Tax, items)
	}
	o.ServiceChargeAmount = decimal.Zero
	if o.ServiceCharge != nil {
		o.ServiceChargeAmount = pricing.ResolveCharge(*o.ServiceCharge, items)
	}
	o.TipAmount = decimal.Zero
	if o.Tip != nil {
		o.TipAmount = pricing.ResolveCharge(*o.Tip, items)
	}
}
