package pricing

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemIDPrefix marks identifiers of items that already exist in the order store.
const ItemIDPrefix = "order_item:"

// IsPersistedItemID reports whether id refers to a stored order item.
func IsPersistedItemID(id string) bool {
	return strings.HasPrefix(id, ItemIDPrefix) && len(id) > len(ItemIDPrefix)
}

// NewItemID returns a fresh order item identifier.
func NewItemID() string {
	return ItemIDPrefix + uuid.NewString()
}

// Materialize converts a cart line into an order item, modifiers included.
// Lines carrying a persisted id keep it; others get a new one. Hold and selection flags are dropped.
func Materialize(line *LineItem, now time.Time) *OrderItem {
	return materialize(line, now, 0)
}

func materialize(line *LineItem, now time.Time, depth int) *OrderItem {
	if line == nil || depth > MaxModifierDepth {
		return nil
	}
	id := line.ID
	if !IsPersistedItemID(id) {
		id = NewItemID()
	}
	item := &OrderItem{
		ID:        id,
		DishID:    line.DishID,
		Name:      line.Name,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
		Seat:      line.Seat,
		Level:     line.Level,
		CreatedAt: now,
	}
	for _, group := range line.SelectedModifierGroups {
		sel := OrderModifierSelection{Group: group.Group}
		for _, mod := range group.SelectedModifiers {
			if m := materialize(mod, now, depth+1); m != nil {
				sel.SelectedModifiers = append(sel.SelectedModifiers, m)
			}
		}
		item.Modifiers = append(item.Modifiers, sel)
	}
	return item
}
