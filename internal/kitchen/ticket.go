package kitchen

import (
	"strings"
	"time"

	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
)

// Ticket is what the kitchen display receives for one checkout.
type Ticket struct {
	OrderID   string       `json:"order_id"`
	TableID   string       `json:"table_id,omitempty"`
	Items     []TicketItem `json:"items"`
	CreatedAt time.Time    `json:"created_at"`
}

// TicketItem is one dish. Modifiers are flattened and indented by nesting level.
type TicketItem struct {
	ItemID    string   `json:"item_id,omitempty"`
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	Seat      string   `json:"seat,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// BuildTicket lists the lines to cook. Held lines stay out until they are fired.
// items are the order items fired by this checkout, aligned with lines; a line without one was already sent
// and is skipped. When items is nil, lines carrying a persisted item id count as already sent.
func BuildTicket(orderID, tableID string, lines []*pricing.LineItem, items []*pricing.OrderItem, now time.Time) Ticket {
	t := Ticket{OrderID: orderID, TableID: tableID, Items: []TicketItem{}, CreatedAt: now.UTC()}
	for i, l := range lines {
		if l == nil || l.Held {
			continue
		}
		ti := TicketItem{Name: l.Name, Quantity: l.Quantity, Seat: l.Seat}
		switch {
		case items == nil:
			if pricing.IsPersistedItemID(l.ID) {
				continue
			}
		case i < len(items) && items[i] != nil:
			ti.ItemID = items[i].ID
		default:
			continue
		}
		for _, g := range l.SelectedModifierGroups {
			for _, m := range g.SelectedModifiers {
				ti.Modifiers = appendModifier(ti.Modifiers, m, 0)
			}
		}
		t.Items = append(t.Items, ti)
	}
	return t
}

func appendModifier(out []string, m *pricing.LineItem, depth int) []string {
	if m == nil || depth >= pricing.MaxModifierDepth {
		return out
	}
	out = append(out, strings.Repeat("  ", depth)+m.Name)
	for _, g := range m.SelectedModifierGroups {
		for _, sub := range g.SelectedModifiers {
			out = appendModifier(out, sub, depth+1)
		}
	}
	return out
}

// Empty reports whether there is nothing to cook.
func (t Ticket) Empty() bool { return len(t.Items) == 0 }

// RoutingKey is kitchen.<table>; orders without a table go to kitchen.counter.
func RoutingKey(tableID string) string {
	if tableID == "" {
		return "kitchen.counter"
	}
	return "kitchen." + strings.ReplaceAll(tableID, ".", "_")
}
