package validation

import (
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
)

// LineRequest is one cart line as sent by a terminal. Modifiers nest recursively.
type LineRequest struct {
	ID             string                 `json:"id,omitempty"` // order_item:... for lines already on the order
	DishID         string                 `json:"dish_id,omitempty"`
	Name           string                 `json:"name" validate:"required"`
	Quantity       int                    `json:"quantity" validate:"required,min=1"`
	UnitPrice      decimal.Decimal        `json:"unit_price"`
	Seat           string                 `json:"seat,omitempty"`
	Held           bool                   `json:"held,omitempty"`
	ModifierGroups []ModifierGroupRequest `json:"modifier_groups,omitempty" validate:"dive"`
}

// ModifierGroupRequest is a modifier group with the modifiers chosen from it.
type ModifierGroupRequest struct {
	ID        string        `json:"id,omitempty"`
	Label     string        `json:"label,omitempty"`
	Required  int           `json:"required,omitempty" validate:"min=0"`
	Modifiers []LineRequest `json:"modifiers" validate:"dive"`
}

// CartRequest is the payload for POST /cart/quote and POST /orders/:id/checkout
type CartRequest struct {
	TableID string           `json:"table_id,omitempty"`
	Lines   []LineRequest    `json:"lines" validate:"required,min=1,dive"`
	Total   *decimal.Decimal `json:"total,omitempty"` // total the terminal displayed, checked when present
}

// DiscountRequest applies a discount. Entered is the raw amount typed for variable discounts.
type DiscountRequest struct {
	ID      string           `json:"id,omitempty"`
	Name    string           `json:"name" validate:"required"`
	Type    string           `json:"type" validate:"required,oneof=FIXED PERCENT"`
	MinRate decimal.Decimal  `json:"min_rate"`
	MaxRate decimal.Decimal  `json:"max_rate"`
	MaxCap  *decimal.Decimal `json:"max_cap,omitempty"`
	Entered string           `json:"entered,omitempty"`
}

// ChargeRequest sets a service charge or tip. An empty type removes it.
type ChargeRequest struct {
	Type  string          `json:"type" validate:"omitempty,oneof=FIXED PERCENT"`
	Value decimal.Decimal `json:"value"`
}

// TaxRequest sets the order tax. A zero rate removes it.
type TaxRequest struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name,omitempty"`
	Rate decimal.Decimal `json:"rate"`
}

// ExtraRequest is one named extra amount; negative values are allowed.
type ExtraRequest struct {
	Name  string          `json:"name" validate:"required"`
	Value decimal.Decimal `json:"value"`
}

// ExtrasRequest replaces the extras on an order.
type ExtrasRequest struct {
	Extras []ExtraRequest `json:"extras" validate:"dive"`
}

// PrintRequest is the payload for POST /orders/:id/print
type PrintRequest struct {
	PrintType string   `json:"print_type" validate:"required,oneof=bill temp_bill kitchen refund"`
	Printers  []string `json:"printers,omitempty" validate:"omitempty,dive,required"`
}

// StatusRequest moves an order along OPEN -> PAID -> CLOSED, or voids it.
type StatusRequest struct {
	From string `json:"from" validate:"required,oneof=OPEN PAID CLOSED VOID"`
	To   string `json:"to" validate:"required,oneof=PAID CLOSED VOID,nefield=From"`
}

// SuspendRequest toggles suspension of an item; omitted means suspend.
type SuspendRequest struct {
	Suspended *bool `json:"suspended,omitempty"`
}

// LockRequest is the payload for POST /tables/:id/lock
type LockRequest struct {
	LockedBy string `json:"locked_by" validate:"required"`
	OrderID  string `json:"order_id,omitempty"`
}

// CartLines converts the request into cart lines with their nesting level set.
func (r CartRequest) CartLines() []*pricing.LineItem {
	out := make([]*pricing.LineItem, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, l.toLine(0))
	}
	return out
}

func (l LineRequest) toLine(level int) *pricing.LineItem {
	line := &pricing.LineItem{
		ID:        l.ID,
		DishID:    l.DishID,
		Name:      l.Name,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		Seat:      l.Seat,
		Level:     level,
		Held:      l.Held,
	}
	for _, g := range l.ModifierGroups {
		sel := pricing.ModifierGroupSelection{
			Group: pricing.ModifierGroup{ID: g.ID, Label: g.Label, Required: g.Required},
		}
		for _, m := range g.Modifiers {
			sel.SelectedModifiers = append(sel.SelectedModifiers, m.toLine(level+1))
		}
		line.SelectedModifierGroups = append(line.SelectedModifierGroups, sel)
	}
	return line
}

// ToDiscount converts the request into a pricing discount.
func (r DiscountRequest) ToDiscount() *pricing.Discount {
	return &pricing.Discount{
		ID:      r.ID,
		Name:    r.Name,
		Type:    pricing.RateType(r.Type),
		MinRate: r.MinRate,
		MaxRate: r.MaxRate,
		MaxCap:  r.MaxCap,
	}
}

// ToCharge returns nil when the request clears the charge.
func (r ChargeRequest) ToCharge() *pricing.Charge {
	if r.Type == "" {
		return nil
	}
	return &pricing.Charge{Type: pricing.RateType(r.Type), Value: r.Value}
}

// ToTax returns nil when the rate is zero.
func (r TaxRequest) ToTax() *pricing.Tax {
	if r.Rate.IsZero() {
		return nil
	}
	return &pricing.Tax{ID: r.ID, Name: r.Name, Rate: r.Rate}
}

func (r ExtrasRequest) ToExtras() []pricing.Extra {
	out := make([]pricing.Extra, 0, len(r.Extras))
	for _, e := range r.Extras {
		out = append(out, pricing.Extra{Name: e.Name, Value: e.Value})
	}
	return out
}
