package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func burger() LineRequest {
	return LineRequest{
		Name:      "Burger",
		Quantity:  2,
		UnitPrice: dec("20"),
		ModifierGroups: []ModifierGroupRequest{{
			ID:    "sides",
			Label: "Sides",
			Modifiers: []LineRequest{
				{Name: "Fries", Quantity: 1, UnitPrice: dec("5")},
				{Name: "Salad", Quantity: 1, UnitPrice: dec("7")},
			},
		}},
	}
}

func TestCartRequest_Valid(t *testing.T) {
	v := New()
	total := dec("52")
	req := CartRequest{TableID: "t1", Lines: []LineRequest{burger()}, Total: &total}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}

	lines := req.CartLines()
	if lines[0].SelectedModifierGroups[0].SelectedModifiers[1].Level != 1 {
		t.Fatalf("expected modifiers at level 1")
	}
	if !pricing.CartTotal(lines).Equal(total) {
		t.Fatalf("expected converted lines to price at 52")
	}
}

func TestCartRequest_TotalMismatch(t *testing.T) {
	v := New()
	total := dec("47")
	req := CartRequest{Lines: []LineRequest{burger()}, Total: &total}

	err := v.Struct(req)
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if ve[0].Tag() != "total_match_lines" {
		t.Fatalf("expected total_match_lines, got %s", ve[0].Tag())
	}
}

func TestCartRequest_InvalidLines(t *testing.T) {
	v := New()
	cases := map[string]CartRequest{
		"no lines":          {},
		"zero quantity":     {Lines: []LineRequest{{Name: "Soda", Quantity: 0, UnitPrice: dec("2")}}},
		"negative price":    {Lines: []LineRequest{{Name: "Soda", Quantity: 1, UnitPrice: dec("-2")}}},
		"bad nested name":   {Lines: []LineRequest{{Name: "Dish", Quantity: 1, ModifierGroups: []ModifierGroupRequest{{Modifiers: []LineRequest{{Quantity: 1}}}}}}},
		"too deep nesting":  {Lines: []LineRequest{deep(pricing.MaxModifierDepth + 1)}},
		"missing line name": {Lines: []LineRequest{{Quantity: 1}}},
	}
	for name, req := range cases {
		if err := v.Struct(req); err == nil {
			t.Errorf("%s: expected validation error, got nil", name)
		}
	}
}

func deep(levels int) LineRequest {
	root := LineRequest{Name: "l0", Quantity: 1, UnitPrice: dec("1")}
	if levels == 0 {
		return root
	}
	root.ModifierGroups = []ModifierGroupRequest{{Modifiers: []LineRequest{deep(levels - 1)}}}
	return root
}

func TestDiscountAndChargeRequests(t *testing.T) {
	v := New()
	ok := DiscountRequest{Name: "Staff", Type: "PERCENT", MinRate: dec("5"), MaxRate: dec("20")}
	if err := v.Struct(ok); err != nil {
		t.Fatalf("expected valid discount, got %v", err)
	}
	if d := ok.ToDiscount(); !d.IsVariable() || d.Type != pricing.Percent {
		t.Fatalf("unexpected discount %+v", d)
	}

	bad := []DiscountRequest{
		{Name: "x", Type: "BOGUS"},
		{Name: "x", Type: "FIXED", MinRate: dec("10"), MaxRate: dec("5")},
		{Name: "x", Type: "FIXED", MinRate: dec("-1"), MaxRate: dec("5")},
	}
	for i, d := range bad {
		if err := v.Struct(d); err == nil {
			t.Errorf("discount %d: expected error", i)
		}
	}

	if err := v.Struct(ChargeRequest{Type: "FIXED", Value: dec("-3")}); err == nil {
		t.Fatalf("expected negative charge to fail")
	}
	if c := (ChargeRequest{}).ToCharge(); c != nil {
		t.Fatalf("empty type should clear the charge")
	}
	if tax := (TaxRequest{Rate: decimal.Zero}).ToTax(); tax != nil {
		t.Fatalf("zero rate should clear the tax")
	}
	if err := v.Struct(PrintRequest{PrintType: "receipt"}); err == nil {
		t.Fatalf("expected unknown print type to fail")
	}
}

func TestBindAndValidate_WritesFieldErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := New()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/cart/quote", strings.NewReader(`{"lines":[{"name":"Soda","quantity":0,"unit_price":"2"}]}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req CartRequest
	if err := BindAndValidate(c, &req, v); err == nil {
		t.Fatalf("expected error")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"lines[0].quantity":"required"`) {
		t.Fatalf("expected json field path in body, got %s", w.Body.String())
	}
}
