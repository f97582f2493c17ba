package pricing

import "github.com/shopspring/decimal"

// Parts selects which order-level charges a bill includes. The sign of each term never changes.
type Parts struct {
	Tax           bool
	ServiceCharge bool
	Tip           bool
}

var (
	// FinalBill is the bill after the tip is collected.
	FinalBill = Parts{Tax: true, ServiceCharge: true, Tip: true}
	// TempBill is presented before a tip is collected.
	TempBill = Parts{Tax: true, ServiceCharge: true}
)

// ExtrasTotal sums the extras of an order.
func ExtrasTotal(order *Order) decimal.Decimal {
	total := decimal.Zero
	if order == nil {
		return total
	}
	for _, e := range order.Extras {
		total = total.Add(e.Value)
	}
	return total
}

// GrandTotal is items + extras + tax - discount + service charge + tip, with the included charges chosen by parts.
// The discount is always subtracted.
func GrandTotal(order *Order, parts Parts) decimal.Decimal {
	if order == nil {
		return decimal.Zero
	}
	total := OrderItemsTotal(order).
		Add(ExtrasTotal(order)).
		Sub(order.DiscountAmount)
	if parts.Tax {
		total = total.Add(order.TaxAmount)
	}
	if parts.ServiceCharge {
		total = total.Add(order.ServiceChargeAmount)
	}
	if parts.Tip {
		total = total.Add(order.TipAmount)
	}
	return total
}

// Refund is a refund document. Every amount on it is already negated relative to the source order.
type Refund struct {
	OrderID             string
	Items               []*OrderItem
	TaxAmount           decimal.Decimal
	DiscountAmount      decimal.Decimal
	ServiceChargeAmount decimal.Decimal
	TipAmount           decimal.Decimal
	Extras              []Extra
}

// NewRefund builds the refund document for the refunded items of an order.
func NewRefund(order *Order) Refund {
	if order == nil {
		return Refund{}
	}
	extras := make([]Extra, 0, len(order.Extras))
	for _, e := range order.Extras {
		extras = append(extras, Extra{Name: e.Name, Value: e.Value.Neg()})
	}
	return Refund{
		OrderID:             order.ID,
		Items:               RefundItems(order),
		TaxAmount:           order.TaxAmount.Neg(),
		DiscountAmount:      order.DiscountAmount.Neg(),
		ServiceChargeAmount: order.ServiceChargeAmount.Neg(),
		TipAmount:           order.TipAmount.Neg(),
		Extras:              extras,
	}
}

// RefundTotal adds every term of the refund document, the discount included.
// This differs from GrandTotal, which subtracts the discount. Kept as printed on existing refund bills.
func RefundTotal(r Refund) decimal.Decimal {
	total := sumItems(r.Items)
	for _, e := range r.Extras {
		total = total.Add(e.Value)
	}
	return total.
		Add(r.TaxAmount).
		Add(r.DiscountAmount).
		Add(r.ServiceChargeAmount).
		Add(r.TipAmount)
}
