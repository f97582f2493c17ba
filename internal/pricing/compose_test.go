package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func orderWithItems(total string) *Order {
	return &Order{Items: []*OrderItem{{ID: "i1", Quantity: 1, UnitPrice: dec(total)}}}
}

func TestGrandTotal_SignConvention(t *testing.T) {
	order := orderWithItems("100")
	order.TaxAmount = dec("10")
	order.DiscountAmount = dec("15")
	order.ServiceChargeAmount = dec("5")
	order.TipAmount = dec("8")
	order.Extras = []Extra{{Name: "Corkage", Value: dec("2")}}

	if got := GrandTotal(order, FinalBill); !got.Equal(dec("110")) {
		t.Fatalf("expected 110, got %s", got)
	}
	// temp bill leaves the tip out, nothing else changes sign
	if got := GrandTotal(order, TempBill); !got.Equal(dec("102")) {
		t.Fatalf("expected 102, got %s", got)
	}
	if got := GrandTotal(order, Parts{}); !got.Equal(dec("87")) {
		t.Fatalf("expected 87, got %s", got)
	}
}

func TestGrandTotal_NilAndMissingParts(t *testing.T) {
	if got := GrandTotal(nil, FinalBill); !got.IsZero() {
		t.Fatalf("expected 0, got %s", got)
	}
	if got := GrandTotal(orderWithItems("12.34"), FinalBill); !got.Equal(dec("12.34")) {
		t.Fatalf("expected items total only, got %s", got)
	}
	if got := ExtrasTotal(nil); !got.IsZero() {
		t.Fatalf("expected 0 extras, got %s", got)
	}
}

func TestGrandTotal_NegativeExtra(t *testing.T) {
	order := orderWithItems("40")
	order.Extras = []Extra{{Name: "Voucher", Value: dec("-5")}, {Name: "Bag", Value: dec("0.5")}}
	if got := GrandTotal(order, FinalBill); !got.Equal(dec("35.5")) {
		t.Fatalf("expected 35.5, got %s", got)
	}
}

func TestGrandTotal_DoesNotMutate(t *testing.T) {
	order := orderWithItems("50")
	order.TaxAmount = dec("5")
	order.DiscountAmount = dec("2")
	order.Extras = []Extra{{Name: "x", Value: dec("1")}}

	first := GrandTotal(order, FinalBill)
	second := GrandTotal(order, FinalBill)
	if !first.Equal(second) {
		t.Fatalf("expected identical results, got %s and %s", first, second)
	}
	if !order.Extras[0].Value.Equal(dec("1")) || !order.TaxAmount.Equal(dec("5")) {
		t.Fatalf("order was mutated: %+v", order)
	}

	r1 := RefundTotal(NewRefund(order))
	r2 := RefundTotal(NewRefund(order))
	if !r1.Equal(r2) || !order.DiscountAmount.Equal(dec("2")) {
		t.Fatalf("refund computation not idempotent or mutated the order")
	}
}

// Refund bills add the (negated) discount instead of subtracting it like every other bill.
func TestRefundTotal_AddsDiscountTerm(t *testing.T) {
	order := &Order{
		ID: "o1",
		Items: []*OrderItem{
			{ID: "kept", Quantity: 1, UnitPrice: dec("60")},
			{ID: "back", Quantity: 1, UnitPrice: dec("40"), Refunded: true},
		},
		TaxAmount:           dec("10"),
		DiscountAmount:      dec("15"),
		ServiceChargeAmount: dec("5"),
		TipAmount:           dec("8"),
		Extras:              []Extra{{Name: "Corkage", Value: dec("2")}},
	}

	refund := NewRefund(order)
	if len(refund.Items) != 1 || refund.Items[0].ID != "back" {
		t.Fatalf("expected only the refunded item, got %+v", refund.Items)
	}
	if !refund.DiscountAmount.Equal(dec("-15")) || !refund.TaxAmount.Equal(dec("-10")) {
		t.Fatalf("expected pre-negated amounts, got %+v", refund)
	}

	// 40 - 2 - 10 + (-15) - 5 - 8
	if got := RefundTotal(refund); !got.Equal(dec("0")) {
		t.Fatalf("expected 0, got %s", got)
	}

	// the standard formula over the same document would subtract the discount term instead
	standard := sumItems(refund.Items).Add(refund.Extras[0].Value).Add(refund.TaxAmount).
		Sub(refund.DiscountAmount).Add(refund.ServiceChargeAmount).Add(refund.TipAmount)
	if standard.Equal(RefundTotal(refund)) {
		t.Fatalf("refund total should differ from the standard formula when a discount is present")
	}
}

func TestRefundItems_SkipsDeleted(t *testing.T) {
	order := &Order{Items: []*OrderItem{
		{ID: "a", Refunded: true},
		{ID: "b", Refunded: true, DeletedAt: nowPtr()},
		{ID: "c"},
	}}
	got := RefundItems(order)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected [a], got %+v", got)
	}
	if RefundItems(nil) != nil {
		t.Fatalf("expected nil for nil order")
	}
	if r := NewRefund(nil); !RefundTotal(r).Equal(decimal.Zero) {
		t.Fatalf("expected zero refund for nil order")
	}
}
