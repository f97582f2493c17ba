package pricing

// Counts reports whether an item participates in totals: not deleted, not refunded, not suspended.
func Counts(item *OrderItem) bool {
	return item != nil && item.DeletedAt == nil && !item.Refunded && !item.Suspended
}

// FilteredItems returns the items of an order that participate in totals, in their original order.
// Every total, receipt and refund-eligibility list goes through here.
func FilteredItems(order *Order) []*OrderItem {
	if order == nil {
		return nil
	}
	out := make([]*OrderItem, 0, len(order.Items))
	for _, it := range order.Items {
		if Counts(it) {
			out = append(out, it)
		}
	}
	return out
}

// RefundItems returns the refunded, non-deleted items of an order in their original order.
func RefundItems(order *Order) []*OrderItem {
	if order == nil {
		return nil
	}
	var out []*OrderItem
	for _, it := range order.Items {
		if it != nil && it.DeletedAt == nil && it.Refunded {
			out = append(out, it)
		}
	}
	return out
}
