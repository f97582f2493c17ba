package validation

import (
	"fmt"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
)

// New returns a configured validator with the POS struct-level rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(lineStructValidation, LineRequest{})
	v.RegisterStructValidation(cartStructValidation, CartRequest{})
	v.RegisterStructValidation(discountStructValidation, DiscountRequest{})
	v.RegisterStructValidation(chargeStructValidation, ChargeRequest{})
	v.RegisterStructValidation(taxStructValidation, TaxRequest{})

	return v
}

func lineStructValidation(sl validatorv10.StructLevel) {
	l := sl.Current().Interface().(LineRequest)
	if l.UnitPrice.IsNegative() {
		sl.ReportError(l.UnitPrice, "unit_price", "UnitPrice", "non_negative", l.UnitPrice.String())
	}
}

// cartStructValidation bounds modifier nesting and, when the terminal sent a total,
// checks it equals the sum of the line prices.
func cartStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CartRequest)
	lines := req.CartLines()

	for _, l := range lines {
		if err := pricing.CheckDepth(l); err != nil {
			sl.ReportError(req.Lines, "lines", "Lines", "modifier_depth", fmt.Sprintf("max %d", pricing.MaxModifierDepth))
			break
		}
	}

	if req.Total == nil {
		return
	}
	sum := pricing.CartTotal(lines)
	if !sum.Equal(*req.Total) {
		sl.ReportError(*req.Total, "total", "Total", "total_match_lines", fmt.Sprintf("lines sum %s != total %s", sum, req.Total))
	}
}

func discountStructValidation(sl validatorv10.StructLevel) {
	d := sl.Current().Interface().(DiscountRequest)
	if d.MinRate.IsNegative() {
		sl.ReportError(d.MinRate, "min_rate", "MinRate", "non_negative", d.MinRate.String())
	}
	if d.MaxRate.LessThan(d.MinRate) {
		sl.ReportError(d.MaxRate, "max_rate", "MaxRate", "gtefield_min_rate", d.MaxRate.String())
	}
	if d.MaxCap != nil && d.MaxCap.IsNegative() {
		sl.ReportError(*d.MaxCap, "max_cap", "MaxCap", "non_negative", d.MaxCap.String())
	}
}

func chargeStructValidation(sl validatorv10.StructLevel) {
	c := sl.Current().Interface().(ChargeRequest)
	if c.Value.IsNegative() {
		sl.ReportError(c.Value, "value", "Value", "non_negative", c.Value.String())
	}
}

func taxStructValidation(sl validatorv10.StructLevel) {
	t := sl.Current().Interface().(TaxRequest)
	if t.Rate.IsNegative() {
		sl.ReportError(t.Rate, "rate", "Rate", "non_negative", t.Rate.String())
	}
}
