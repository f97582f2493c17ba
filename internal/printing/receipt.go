package printing

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/orders"
	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
)

// ErrUnknownPrintType is returned for print types the renderer does not know.
var ErrUnknownPrintType = errors.New("unknown print type")

const receiptWidth = 32

// Receipt is a rendered document and the total printed on it.
type Receipt struct {
	Lines []string
	Total decimal.Decimal
}

// Text joins the receipt lines for archiving.
func (r Receipt) Text() string {
	return strings.Join(r.Lines, "\n") + "\n"
}

// RenderReceipt lays out an order as receipt text. A bill for an order whose bill was printed before is marked as a reprint.
func RenderReceipt(order *orders.Order, t PrintType) (Receipt, error) {
	if order == nil {
		return Receipt{}, errors.New("nil order")
	}
	var r Receipt
	switch t {
	case Bill:
		r = renderBill(order, "BILL", pricing.FinalBill)
	case TempBill:
		r = renderBill(order, "TEMPORARY BILL", pricing.TempBill)
	case Kitchen:
		r = renderKitchen(order)
	case Refund:
		r = renderRefund(order)
	default:
		return Receipt{}, fmt.Errorf("%w: %q", ErrUnknownPrintType, t)
	}
	if t == Bill && order.PrintCount > 0 {
		r.Lines = append([]string{"*** REPRINT ***"}, r.Lines...)
	}
	return r, nil
}

func header(order *orders.Order, title string) []string {
	lines := []string{title, "Order " + order.ID}
	if order.TableID != "" {
		lines = append(lines, "Table "+order.TableID)
	}
	return append(lines, rule())
}

func renderBill(order *orders.Order, title string, parts pricing.Parts) Receipt {
	lines := header(order, title)
	lines = append(lines, itemLines(pricing.FilteredItems(&order.Order), true)...)
	lines = append(lines, rule(), amountLine("Subtotal", pricing.OrderItemsTotal(&order.Order)))
	for _, e := range order.Extras {
		lines = append(lines, amountLine(e.Name, e.Value))
	}
	if order.Discount != nil || !order.DiscountAmount.IsZero() {
		lines = append(lines, amountLine("Discount", order.DiscountAmount.Neg()))
	}
	if parts.Tax && !order.TaxAmount.IsZero() {
		lines = append(lines, amountLine(taxLabel(order.Tax), order.TaxAmount))
	}
	if parts.ServiceCharge && !order.ServiceChargeAmount.IsZero() {
		lines = append(lines, amountLine("Service charge", order.ServiceChargeAmount))
	}
	if parts.Tip && !order.TipAmount.IsZero() {
		lines = append(lines, amountLine("Tip", order.TipAmount))
	}
	total := pricing.GrandTotal(&order.Order, parts)
	lines = append(lines, rule(), amountLine("TOTAL", total))
	return Receipt{Lines: lines, Total: total}
}

func renderRefund(order *orders.Order) Receipt {
	refund := pricing.NewRefund(&order.Order)
	lines := header(order, "REFUND")
	lines = append(lines, itemLines(refund.Items, true)...)
	lines = append(lines, rule())
	for _, e := range refund.Extras {
		lines = append(lines, amountLine(e.Name, e.Value))
	}
	lines = append(lines,
		amountLine("Discount", refund.DiscountAmount),
		amountLine(taxLabel(order.Tax), refund.TaxAmount),
		amountLine("Service charge", refund.ServiceChargeAmount),
		amountLine("Tip", refund.TipAmount),
	)
	total := pricing.RefundTotal(refund)
	lines = append(lines, rule(), amountLine("REFUND TOTAL", total))
	return Receipt{Lines: lines, Total: total}
}

// renderKitchen prints counted items grouped by seat, without prices.
func renderKitchen(order *orders.Order) Receipt {
	lines := header(order, "KITCHEN")
	bySeat := map[string][]*pricing.OrderItem{}
	for _, it := range pricing.FilteredItems(&order.Order) {
		bySeat[it.Seat] = append(bySeat[it.Seat], it)
	}
	seats := make([]string, 0, len(bySeat))
	for s := range bySeat {
		seats = append(seats, s)
	}
	sort.Strings(seats)
	for _, s := range seats {
		if s != "" {
			lines = append(lines, "Seat "+s)
		}
		lines = append(lines, itemLines(bySeat[s], false)...)
	}
	return Receipt{Lines: lines}
}

func itemLines(items []*pricing.OrderItem, priced bool) []string {
	var out []string
	for _, it := range items {
		out = append(out, itemLine(it, 0, priced)...)
	}
	return out
}

func itemLine(it *pricing.OrderItem, depth int, priced bool) []string {
	if it == nil || depth > pricing.MaxModifierDepth {
		return nil
	}
	label := fmt.Sprintf("%s%dx %s", strings.Repeat("  ", depth), it.Quantity, it.Name)
	var out []string
	if priced && depth == 0 {
		out = append(out, amountLine(label, pricing.PriceOfOrderItem(it)))
	} else {
		out = append(out, label)
	}
	for _, g := range it.Modifiers {
		for _, m := range g.SelectedModifiers {
			out = append(out, itemLine(m, depth+1, priced)...)
		}
	}
	return out
}

func taxLabel(t *pricing.Tax) string {
	if t == nil || t.Name == "" {
		return "Tax"
	}
	return t.Name
}

func amountLine(label string, amount decimal.Decimal) string {
	value := amount.StringFixed(2)
	pad := receiptWidth - len(label) - len(value)
	if pad < 1 {
		pad = 1
	}
	return label + strings.Repeat(" ", pad) + value
}

func rule() string { return strings.Repeat("-", receiptWidth) }
