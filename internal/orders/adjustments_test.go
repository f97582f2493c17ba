package orders

import (
	"context"
	"testing"

	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
)

func TestApplyAdjustments_ResolvesAndReprices(t *testing.T) {
	mem := newMemory()
	s := NewStore(mem, ordersTable)
	ctx := context.Background()

	order := &Order{Order: pricing.Order{ID: "o5", Items: []*pricing.OrderItem{
		{ID: "order_item:a", Quantity: 2, UnitPrice: dec("50")},
		{ID: "order_item:b", Quantity: 1, UnitPrice: dec("100")},
	}}}
	if err := s.Put(ctx, order); err != nil {
		t.Fatalf("put: %v", err)
	}

	cap20 := dec("20")
	got, err := s.ApplyAdjustments(ctx, "o5",
		WithDiscount(&pricing.Discount{Name: "Happy hour", Type: pricing.Percent, MinRate: dec("5"), MaxRate: dec("15"), MaxCap: &cap20}, "12"),
		WithTax(&pricing.Tax{Name: "VAT", Rate: dec("10")}),
		WithServiceCharge(&pricing.Charge{Type: pricing.Percent, Value: dec("5")}),
		WithTip(&pricing.Charge{Type: pricing.Fixed, Value: dec("7")}),
		WithExtras([]pricing.Extra{{Name: "Corkage", Value: dec("3")}}),
	)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	// 12% of 200 is 24, capped at 20
	if !got.DiscountAmount.Equal(dec("20")) {
		t.Fatalf("expected discount 20, got %s", got.DiscountAmount)
	}
	if !got.TaxAmount.Equal(dec("20")) || !got.ServiceChargeAmount.Equal(dec("10")) || !got.TipAmount.Equal(dec("7")) {
		t.Fatalf("unexpected amounts tax=%s sc=%s tip=%s", got.TaxAmount, got.ServiceChargeAmount, got.TipAmount)
	}
	// 200 + 3 - 20 + 20 + 10 + 7
	if total := pricing.GrandTotal(&got.Order, pricing.FinalBill); !total.Equal(dec("220")) {
		t.Fatalf("expected 220, got %s", total)
	}

	// amounts follow the items: deleting b halves the percent components
	got, err = s.DeleteItem(ctx, "o5", "order_item:b")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !got.DiscountAmount.Equal(dec("12")) || !got.TaxAmount.Equal(dec("10")) || !got.ServiceChargeAmount.Equal(dec("5")) {
		t.Fatalf("expected repriced amounts, got discount=%s tax=%s sc=%s", got.DiscountAmount, got.TaxAmount, got.ServiceChargeAmount)
	}

	stored, _ := s.Get(ctx, "o5")
	if !stored.DiscountEntered.Equal(dec("12")) || stored.Discount == nil || stored.Discount.MaxCap == nil {
		t.Fatalf("discount not persisted: %+v", stored.Discount)
	}

	got, err = s.ApplyAdjustments(ctx, "o5", WithDiscount(nil, ""), WithTip(nil))
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !got.DiscountAmount.IsZero() || !got.TipAmount.IsZero() {
		t.Fatalf("expected cleared discount and tip, got %s %s", got.DiscountAmount, got.TipAmount)
	}
}

func TestWithDiscount_GarbageEntryIsZero(t *testing.T) {
	o := &Order{Order: pricing.Order{Items: []*pricing.OrderItem{{ID: "x", Quantity: 1, UnitPrice: dec("40")}}}}
	WithDiscount(&pricing.Discount{Type: pricing.Fixed, MinRate: dec("0"), MaxRate: dec("10")}, "1..2")(o)
	o.Reprice()
	if !o.DiscountAmount.IsZero() {
		t.Fatalf("expected 0 for unparseable entry, got %s", o.DiscountAmount)
	}
}
