package orders

import (
	"time"

	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
)

// orderRecord is the shape persisted in the orders DynamoDB table. Money is stored as decimal strings.
type orderRecord struct {
	OrderID             string          `dynamodbav:"order_id"` // PK
	TableID             string          `dynamodbav:"table_id,omitempty"`
	Status              string          `dynamodbav:"status"`
	Items               []*itemRecord   `dynamodbav:"items,omitempty"`
	ItemIDs             []string        `dynamodbav:"item_ids,omitempty"`
	Tax                 *taxRecord      `dynamodbav:"tax,omitempty"`
	TaxAmount           string          `dynamodbav:"tax_amount,omitempty"`
	Discount            *discountRecord `dynamodbav:"discount,omitempty"`
	DiscountAmount      string          `dynamodbav:"discount_amount,omitempty"`
	DiscountEntered     string          `dynamodbav:"discount_entered,omitempty"`
	ServiceCharge       *chargeRecord   `dynamodbav:"service_charge,omitempty"`
	ServiceChargeAmount string          `dynamodbav:"service_charge_amount,omitempty"`
	Tip                 *chargeRecord   `dynamodbav:"tip,omitempty"`
	TipAmount           string          `dynamodbav:"tip_amount,omitempty"`
	Extras              []extraRecord   `dynamodbav:"extras,omitempty"`
	PrintCount          int             `dynamodbav:"print_count,omitempty"`
	CreatedAt           time.Time       `dynamodbav:"created_at"`
	UpdatedAt           time.Time       `dynamodbav:"updated_at"`
}

type itemRecord struct {
	ID        string           `dynamodbav:"id"`
	DishID    string           `dynamodbav:"dish_id,omitempty"`
	Name      string           `dynamodbav:"name"`
	Quantity  int              `dynamodbav:"quantity"`
	UnitPrice string           `dynamodbav:"unit_price"`
	Modifiers []modifierRecord `dynamodbav:"modifiers,omitempty"`
	Seat      string           `dynamodbav:"seat,omitempty"`
	Level     int              `dynamodbav:"level,omitempty"`
	CreatedAt time.Time        `dynamodbav:"created_at"`
	FiredAt   *time.Time       `dynamodbav:"fired_at,omitempty"`
	DeletedAt *time.Time       `dynamodbav:"deleted_at,omitempty"`
	Refunded  bool             `dynamodbav:"refunded,omitempty"`
	Suspended bool             `dynamodbav:"suspended,omitempty"`
}

type modifierRecord struct {
	GroupID       string        `dynamodbav:"group_id,omitempty"`
	GroupLabel    string        `dynamodbav:"group_label,omitempty"`
	GroupRequired int           `dynamodbav:"group_required,omitempty"`
	Selected      []*itemRecord `dynamodbav:"selected_modifiers,omitempty"`
}

type taxRecord struct {
	ID   string `dynamodbav:"id,omitempty"`
	Name string `dynamodbav:"name,omitempty"`
	Rate string `dynamodbav:"rate"`
}

type discountRecord struct {
	ID      string  `dynamodbav:"id,omitempty"`
	Name    string  `dynamodbav:"name,omitempty"`
	Type    string  `dynamodbav:"type"`
	MinRate string  `dynamodbav:"min_rate"`
	MaxRate string  `dynamodbav:"max_rate"`
	MaxCap  *string `dynamodbav:"max_cap,omitempty"`
}

type chargeRecord struct {
	Type  string `dynamodbav:"type"`
	Value string `dynamodbav:"value"`
}

type extraRecord struct {
	Name  string `dynamodbav:"name"`
	Value string `dynamodbav:"value"`
}

func toRecord(o Order) orderRecord {
	rec := orderRecord{
		OrderID:             o.ID,
		TableID:             o.TableID,
		Status:              o.Status,
		ItemIDs:             o.ItemIDs,
		TaxAmount:           o.TaxAmount.String(),
		DiscountAmount:      o.DiscountAmount.String(),
		DiscountEntered:     o.DiscountEntered.String(),
		ServiceChargeAmount: o.ServiceChargeAmount.String(),
		TipAmount:           o.TipAmount.String(),
		PrintCount:          o.PrintCount,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	for _, it := range o.Items {
		if r := itemToRecord(it); r != nil {
			rec.Items = append(rec.Items, r)
		}
	}
	if o.Tax != nil {
		rec.Tax = &taxRecord{ID: o.Tax.ID, Name: o.Tax.Name, Rate: o.Tax.Rate.String()}
	}
	if d := o.Discount; d != nil {
		rec.Discount = &discountRecord{
			ID:      d.ID,
			Name:    d.Name,
			Type:    string(d.Type),
			MinRate: d.MinRate.String(),
			MaxRate: d.MaxRate.String(),
		}
		if d.MaxCap != nil {
			c := d.MaxCap.String()
			rec.Discount.MaxCap = &c
		}
	}
	rec.ServiceCharge = chargeToRecord(o.ServiceCharge)
	rec.Tip = chargeToRecord(o.Tip)
	for _, e := range o.Extras {
		rec.Extras = append(rec.Extras, extraRecord{Name: e.Name, Value: e.Value.String()})
	}
	return rec
}

func itemToRecord(it *pricing.OrderItem) *itemRecord {
	if it == nil {
		return nil
	}
	r := &itemRecord{
		ID:        it.ID,
		DishID:    it.DishID,
		Name:      it.Name,
		Quantity:  it.Quantity,
		UnitPrice: it.UnitPrice.String(),
		Seat:      it.Seat,
		Level:     it.Level,
		CreatedAt: it.CreatedAt,
		FiredAt:   it.FiredAt,
		DeletedAt: it.DeletedAt,
		Refunded:  it.Refunded,
		Suspended: it.Suspended,
	}
	for _, m := range it.Modifiers {
		mr := modifierRecord{GroupID: m.Group.ID, GroupLabel: m.Group.Label, GroupRequired: m.Group.Required}
		for _, sel := range m.SelectedModifiers {
			if sr := itemToRecord(sel); sr != nil {
				mr.Selected = append(mr.Selected, sr)
			}
		}
		r.Modifiers = append(r.Modifiers, mr)
	}
	return r
}

func chargeToRecord(c *pricing.Charge) *chargeRecord {
	if c == nil {
		return nil
	}
	return &chargeRecord{Type: string(c.Type), Value: c.Value.String()}
}

// fromRecord rebuilds an Order. Unparseable amounts read as zero so a damaged record still prices.
func fromRecord(rec orderRecord) *Order {
	o := &Order{
		Order: pricing.Order{
			ID:                  rec.OrderID,
			TableID:             rec.TableID,
			TaxAmount:           pricing.ParseAmount(rec.TaxAmount),
			DiscountAmount:      pricing.ParseAmount(rec.DiscountAmount),
			ServiceChargeAmount: pricing.ParseAmount(rec.ServiceChargeAmount),
			TipAmount:           pricing.ParseAmount(rec.TipAmount),
		},
		Status:          rec.Status,
		DiscountEntered: pricing.ParseAmount(rec.DiscountEntered),
		ItemIDs:         rec.ItemIDs,
		PrintCount:      rec.PrintCount,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
	for _, ir := range rec.Items {
		if it := itemFromRecord(ir); it != nil {
			o.Items = append(o.Items, it)
		}
	}
	if rec.Tax != nil {
		o.Tax = &pricing.Tax{ID: rec.Tax.ID, Name: rec.Tax.Name, Rate: pricing.ParseAmount(rec.Tax.Rate)}
	}
	if d := rec.Discount; d != nil {
		o.Discount = &pricing.Discount{
			ID:      d.ID,
			Name:    d.Name,
			Type:    pricing.RateType(d.Type),
			MinRate: pricing.ParseAmount(d.MinRate),
			MaxRate: pricing.ParseAmount(d.MaxRate),
		}
		if d.MaxCap != nil {
			c := pricing.ParseAmount(*d.MaxCap)
			o.Discount.MaxCap = &c
		}
	}
	o.ServiceCharge = chargeFromRecord(rec.ServiceCharge)
	o.Tip = chargeFromRecord(rec.Tip)
	for _, e := range rec.Extras {
		o.Extras = append(o.Extras, pricing.Extra{Name: e.Name, Value: pricing.ParseAmount(e.Value)})
	}
	return o
}

func itemFromRecord(r *itemRecord) *pricing.OrderItem {
	if r == nil {
		return nil
	}
	it := &pricing.OrderItem{
		ID:        r.ID,
		DishID:    r.DishID,
		Name:      r.Name,
		Quantity:  r.Quantity,
		UnitPrice: pricing.ParseAmount(r.UnitPrice),
		Seat:      r.Seat,
		Level:     r.Level,
		CreatedAt: r.CreatedAt,
		FiredAt:   r.FiredAt,
		DeletedAt: r.DeletedAt,
		Refunded:  r.Refunded,
		Suspended: r.Suspended,
	}
	for _, mr := range r.Modifiers {
		sel := pricing.OrderModifierSelection{
			Group: pricing.ModifierGroup{ID: mr.GroupID, Label: mr.GroupLabel, Required: mr.GroupRequired},
		}
		for _, s := range mr.Selected {
			if m := itemFromRecord(s); m != nil {
				sel.SelectedModifiers = append(sel.SelectedModifiers, m)
			}
		}
		it.Modifiers = append(it.Modifiers, sel)
	}
	return it
}

func chargeFromRecord(r *chargeRecord) *pricing.Charge {
	if r == nil {
		return nil
	}
	return &pricing.Charge{Type: pricing.RateType(r.Type), Value: pricing.ParseAmount(r.Value)}
}
