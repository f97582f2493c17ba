package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MaxModifierDepth bounds modifier recursion. Modifiers nested deeper than this contribute nothing.
const MaxModifierDepth = 10

// ErrModifierDepth is returned by CheckDepth when a line nests modifiers deeper than MaxModifierDepth.
var ErrModifierDepth = errors.New("modifier nesting too deep")

// PriceOfCartLineItem returns unit price times quantity plus the price of every selected modifier, recursively.
func PriceOfCartLineItem(item *LineItem) decimal.Decimal {
	return priceOfLine(item, 0)
}

func priceOfLine(item *LineItem, depth int) decimal.Decimal {
	if item == nil || depth > MaxModifierDepth {
		return decimal.Zero
	}
	price := base(item.UnitPrice, item.Quantity)
	for _, group := range item.SelectedModifierGroups {
		for _, mod := range group.SelectedModifiers {
			price = price.Add(priceOfLine(mod, depth+1))
		}
	}
	return price
}

// CartTotal sums PriceOfCartLineItem over cart lines.
func CartTotal(lines []*LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(PriceOfCartLineItem(l))
	}
	return total
}

// PriceOfOrderItem is PriceOfCartLineItem for the persisted shape. Missing modifier lists at any level count as empty.
func PriceOfOrderItem(item *OrderItem) decimal.Decimal {
	return priceOfOrderItem(item, 0)
}

func priceOfOrderItem(item *OrderItem, depth int) decimal.Decimal {
	if item == nil || depth > MaxModifierDepth {
		return decimal.Zero
	}
	price := base(item.UnitPrice, item.Quantity)
	for _, group := range item.Modifiers {
		for _, mod := range group.SelectedModifiers {
			price = price.Add(priceOfOrderItem(mod, depth+1))
		}
	}
	return price
}

// negative quantities are clamped to zero
func base(unit decimal.Decimal, qty int) decimal.Decimal {
	if qty <= 0 {
		return decimal.Zero
	}
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

// OrderItemsTotal sums PriceOfOrderItem over FilteredItems. A nil order totals zero.
func OrderItemsTotal(order *Order) decimal.Decimal {
	return sumItems(FilteredItems(order))
}

func sumItems(items []*OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(PriceOfOrderItem(it))
	}
	return total
}

// SeatSubtotals groups the counted items of an order by seat. Items without a seat are keyed by "".
func SeatSubtotals(order *Order) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for _, it := range FilteredItems(order) {
		out[it.Seat] = out[it.Seat].Add(PriceOfOrderItem(it))
	}
	return out
}

// CheckDepth reports ErrModifierDepth when a cart line nests modifiers past MaxModifierDepth.
func CheckDepth(item *LineItem) error {
	return CheckDepthAt(item, 0)
}

// CheckDepthAt is CheckDepth for a line that will sit at the given nesting level.
func CheckDepthAt(item *LineItem, level int) error {
	if lineDepth(item, level) > MaxModifierDepth {
		return ErrModifierDepth
	}
	return nil
}

func lineDepth(item *LineItem, depth int) int {
	if item == nil {
		return depth - 1
	}
	// stop walking once past the limit, corrupted data may be arbitrarily deep
	if depth > MaxModifierDepth {
		return depth
	}
	deepest := depth
	for _, group := range item.SelectedModifierGroups {
		for _, mod := range group.SelectedModifiers {
			if d := lineDepth(mod, depth+1); d > deepest {
				deepest = d
			}
		}
	}
	return deepest
}
