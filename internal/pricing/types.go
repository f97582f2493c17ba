package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateType tells whether a discount, service charge or tip is a flat amount or a percentage.
type RateType string

const (
	Fixed   RateType = "FIXED"
	Percent RateType = "PERCENT"
)

// ModifierGroup is the catalog definition a selection refers to.
type ModifierGroup struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Required int    `json:"required,omitempty"` // number of modifiers the group asks for
}

// LineItem is a dish or modifier in the cart, before checkout.
type LineItem struct {
	ID                     string                   `json:"id"`
	DishID                 string                   `json:"dish_id,omitempty"`
	Name                   string                   `json:"name"`
	Quantity               int                      `json:"quantity"`
	UnitPrice              decimal.Decimal          `json:"unit_price"` // snapshotted when added
	SelectedModifierGroups []ModifierGroupSelection `json:"selected_modifier_groups,omitempty"`
	Seat                   string                   `json:"seat,omitempty"`
	Level                  int                      `json:"level,omitempty"` // display indentation only

	// UI state, never persisted.
	Held     bool `json:"held,omitempty"`
	Selected bool `json:"selected,omitempty"`
}

// ModifierGroupSelection holds the modifiers chosen under one group. Modifiers are line items themselves.
type ModifierGroupSelection struct {
	Group             ModifierGroup `json:"group"`
	SelectedModifiers []*LineItem   `json:"selected_modifiers,omitempty"`
}

// OrderItem is the persisted counterpart of a LineItem.
type OrderItem struct {
	ID        string                   `json:"id"`
	DishID    string                   `json:"dish_id,omitempty"`
	Name      string                   `json:"name"`
	Quantity  int                      `json:"quantity"`
	UnitPrice decimal.Decimal          `json:"unit_price"`
	Modifiers []OrderModifierSelection `json:"modifiers,omitempty"`
	Seat      string                   `json:"seat,omitempty"`
	Level     int                      `json:"level,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	FiredAt   *time.Time               `json:"fired_at,omitempty"` // sent to the kitchen
	DeletedAt *time.Time               `json:"deleted_at,omitempty"`
	Refunded  bool                     `json:"refunded,omitempty"`
	Suspended bool                     `json:"suspended,omitempty"`
}

// OrderModifierSelection is the persisted shape of a ModifierGroupSelection.
type OrderModifierSelection struct {
	Group             ModifierGroup `json:"group"`
	SelectedModifiers []*OrderItem  `json:"selected_modifiers,omitempty"`
}

// Extra is an ad-hoc named adjustment on an order. Value may be negative.
type Extra struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Tax is the tax applied to an order; Rate is a percentage.
type Tax struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name,omitempty"`
	Rate decimal.Decimal `json:"rate"`
}

// Discount is a catalog discount. MinRate == MaxRate means the rate is not editable.
// MaxCap only applies to Percent discounts.
type Discount struct {
	ID      string           `json:"id,omitempty"`
	Name    string           `json:"name,omitempty"`
	Type    RateType         `json:"type"`
	MinRate decimal.Decimal  `json:"min_rate"`
	MaxRate decimal.Decimal  `json:"max_rate"`
	MaxCap  *decimal.Decimal `json:"max_cap,omitempty"`
}

// IsVariable reports whether the operator keys in the rate.
func (d Discount) IsVariable() bool {
	return !d.MinRate.Equal(d.MaxRate)
}

// Charge is a service charge or tip configuration.
type Charge struct {
	Type  RateType        `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Order is the aggregate the totals are computed over.
// The *Amount fields are resolved once when the adjustment is chosen and stored as positive values;
// the composition formula applies the sign.
type Order struct {
	ID                  string          `json:"id"`
	TableID             string          `json:"table_id,omitempty"`
	Items               []*OrderItem    `json:"items,omitempty"`
	Tax                 *Tax            `json:"tax,omitempty"`
	TaxAmount           decimal.Decimal `json:"tax_amount"`
	Discount            *Discount       `json:"discount,omitempty"`
	DiscountAmount      decimal.Decimal `json:"discount_amount"`
	ServiceCharge       *Charge         `json:"service_charge,omitempty"`
	ServiceChargeAmount decimal.Decimal `json:"service_charge_amount"`
	Tip                 *Charge         `json:"tip,omitempty"`
	TipAmount           decimal.Decimal `json:"tip_amount"`
	Extras              []Extra         `json:"extras,omitempty"`
}
