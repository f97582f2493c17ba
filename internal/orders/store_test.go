package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/awstest"
	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
)

const (
	ordersTable = "orders"
	idempTable  = "idempotency"
	tablesTable = "tables"
)

func newMemory() *awstest.MemoryDynamo {
	return awstest.NewMemoryDynamo(map[string]string{
		ordersTable: "order_id",
		idempTable:  "idempotency_key",
		tablesTable: "table_id",
	})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixedClock(s *Store) time.Time {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return now }
	return now
}

func burgerWithFries() *pricing.LineItem {
	fries := &pricing.LineItem{Name: "Fries", Quantity: 1, UnitPrice: dec("5")}
	return &pricing.LineItem{
		Name:      "Burger",
		Quantity:  2,
		UnitPrice: dec("20"),
		Seat:      "1",
		SelectedModifierGroups: []pricing.ModifierGroupSelection{
			{Group: pricing.ModifierGroup{ID: "sides"}, SelectedModifiers: []*pricing.LineItem{fries}},
		},
	}
}

func checkout(t *testing.T, s *Store, mem *awstest.MemoryDynamo, key string, lines ...*pricing.LineItem) (*Order, error) {
	t.Helper()
	order, _, err := s.Checkout(context.Background(), mem, CheckoutInput{
		OrderID:          "order-1",
		TableID:          "table-7",
		Lines:            lines,
		IdempotencyTable: idempTable,
		IdempotencyItem:  map[string]interface{}{"idempotency_key": key, "status": "IN_PROGRESS", "order_id": "order-1"},
		TTLWindow:        48 * time.Hour,
	})
	return order, err
}

func TestCheckout_CreatesOrderAndIdempotencyRecord(t *testing.T) {
	mem := newMemory()
	s := NewStore(mem, ordersTable)
	fixedClock(s)

	order, err := checkout(t, s, mem, "key-1", burgerWithFries())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(order.Items) != 1 || !pricing.IsPersistedItemID(order.Items[0].ID) {
		t.Fatalf("expected one persisted item, got %+v", order.Items)
	}
	if idem := mem.Item(idempTable, "key-1"); idem == nil {
		t.Fatalf("idempotency item not stored")
	} else if _, ok := idem["expires_at"]; !ok {
		t.Fatalf("expected expires_at to be set from the TTL window")
	}

	got, err := s.Get(context.Background(), "order-1")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.TableID != "table-7" || got.Status != StatusOpen {
		t.Fatalf("unexpected order %+v", got)
	}
	if total := pricing.OrderItemsTotal(&got.Order); !total.Equal(dec("45")) {
		t.Fatalf("expected 45 after round trip, got %s", total)
	}
	if len(got.ItemIDs) != 1 || got.ItemIDs[0] != got.Items[0].ID {
		t.Fatalf("item ids not kept in sync: %v", got.ItemIDs)
	}
}

func TestCheckout_DuplicateKeyFails(t *testing.T) {
	mem := newMemory()
	s := NewStore(mem, ordersTable)

	if _, err := checkout(t, s, mem, "key-2", burgerWithFries()); err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	_, err := checkout(t, s, mem, "key-2", burgerWithFries())
	if !errors.Is(err, ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
	got, _ := s.Get(context.Background(), "order-1")
	if len(got.Items) != 1 {
		t.Fatalf("failed checkout must not write items, got %d", len(got.Items))
	}
}

func TestCheckout_MergesPersistedLines(t *testing.T) {
	mem := newMemory()
	s := NewStore(mem, ordersTable)
	created := fixedClock(s)

	first, err := checkout(t, s, mem, "k1", burgerWithFries())
	if err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	persistedID := first.Items[0].ID

	s.nowFunc = func() time.Time { return created.Add(time.Hour) }
	edited := &pricing.LineItem{ID: persistedID, Name: "Burger", Quantity: 3, UnitPrice: dec("20")}
	soda := &pricing.LineItem{Name: "Soda", Quantity: 1, UnitPrice: dec("3")}
	second, err := checkout(t, s, mem, "k2", edited, soda)
	if err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	if len(second.Items) != 2 {
		t.Fatalf("expected the edited line to replace the stored one, got %d items", len(second.Items))
	}
	if second.Items[0].ID != persistedID || second.Items[0].Quantity != 3 {
		t.Fatalf("expected updated line in place, got %+v", second.Items[0])
	}
	if !second.Items[0].CreatedAt.Equal(created) {
		t.Fatalf("replaced item should keep its creation time")
	}
	if total := pricing.OrderItemsTotal(&second.Order); !total.Equal(dec("63")) {
		t.Fatalf("expected 63, got %s", total)
	}
}

func TestItemFlags(t *testing.T) {
	mem := newMemory()
	s := NewStore(mem, ordersTable)
	ctx := context.Background()

	order := &Order{Order: pricing.Order{ID: "o2", Items: []*pricing.OrderItem{
		{ID: "order_item:a", Quantity: 1, UnitPrice: dec("10")},
		{ID: "order_item:b", Quantity: 1, UnitPrice: dec("4")},
		{ID: "order_item:c", Quantity: 1, UnitPrice: dec("6")},
	}}}
	if err := s.Put(ctx, order); err != nil {
		t.Fatalf("put: %v", err)
	}

	if _, err := s.DeleteItem(ctx, "o2", "order_item:a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.RefundItem(ctx, "o2", "order_item:a"); !errors.Is(err, ErrItemNotEligible) {
		t.Fatalf("refunding a deleted item should fail, got %v", err)
	}
	if _, err := s.RefundItem(ctx, "o2", "order_item:b"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	got, err := s.SetSuspended(ctx, "o2", "order_item:c", true)
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if total := pricing.OrderItemsTotal(&got.Order); !total.IsZero() {
		t.Fatalf("expected nothing to count, got %s", total)
	}
	if refunds := pricing.RefundItems(&got.Order); len(refunds) != 1 || refunds[0].ID != "order_item:b" {
		t.Fatalf("expected b in refunds, got %+v", refunds)
	}

	got, err = s.SetSuspended(ctx, "o2", "order_item:c", false)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if total := pricing.OrderItemsTotal(&got.Order); !total.Equal(dec("6")) {
		t.Fatalf("expected 6 after resume, got %s", total)
	}

	if _, err := s.DeleteItem(ctx, "o2", "missing"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := s.DeleteItem(ctx, "nope", "order_item:a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatus_Condition_SuccessAndFail(t *testing.T) {
	mem := newMemory()
	s := NewStore(mem, ordersTable)
	ctx := context.Background()
	if err := s.Put(ctx, &Order{Order: pricing.Order{ID: "order-10"}}); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := s.UpdateStatus(ctx, "order-10", StatusOpen, StatusPaid); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	// current is PAID now
	err := s.UpdateStatus(ctx, "order-10", StatusOpen, StatusClosed)
	if !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch, got %v", err)
	}
}

func TestIncrementPrintCount(t *testing.T) {
	mem := newMemory()
	s := NewStore(mem, ordersTable)
	ctx := context.Background()

	if err := s.IncrementPrintCount(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Put(ctx, &Order{Order: pricing.Order{ID: "o3"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.IncrementPrintCount(ctx, "o3"); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	n, ok := mem.Item(ordersTable, "o3")["print_count"].(*types.AttributeValueMemberN)
	if !ok || n.Value != "2" {
		t.Fatalf("expected print_count 2, got %+v", mem.Item(ordersTable, "o3")["print_count"])
	}
	got, _ := s.Get(ctx, "o3")
	if got.PrintCount != 2 {
		t.Fatalf("expected PrintCount 2, got %d", got.PrintCount)
	}
}

func TestTableLocks(t *testing.T) {
	mem := newMemory()
	ts := NewTableStore(mem, tablesTable)
	ctx := context.Background()

	if tbl, err := ts.Get(ctx, "t1"); err != nil || tbl != nil {
		t.Fatalf("expected no table, got %+v %v", tbl, err)
	}
	tbl, err := ts.Lock(ctx, "t1", "terminal-a", "order-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !tbl.Locked || tbl.LockedBy != "terminal-a" || tbl.LockedAt == nil || tbl.OrderID != "order-1" {
		t.Fatalf("unexpected lock state %+v", tbl)
	}

	// a second terminal takes over; locks are not arbitrated
	tbl, err = ts.Lock(ctx, "t1", "terminal-b", "")
	if err != nil || tbl.LockedBy != "terminal-b" {
		t.Fatalf("expected terminal-b to hold the lock, got %+v %v", tbl, err)
	}

	tbl, err = ts.Unlock(ctx, "t1")
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if tbl.Locked || tbl.LockedBy != "" || tbl.LockedAt != nil {
		t.Fatalf("expected unlocked table, got %+v", tbl)
	}
	if tbl.OrderID != "order-1" {
		t.Fatalf("unlock should keep the order reference")
	}
}

func TestCheckout_ReturnsItemsInLineOrder(t *testing.T) {
	mem := newMemory()
	s := NewStore(mem, ordersTable)
	soda := &pricing.LineItem{Name: "Soda", Quantity: 1, UnitPrice: dec("3")}
	_, items, err := s.Checkout(context.Background(), mem, CheckoutInput{
		OrderID:          "order-9",
		Lines:            []*pricing.LineItem{soda, nil, burgerWithFries()},
		IdempotencyTable: idempTable,
		IdempotencyItem:  map[string]string{"idempotency_key": "k9"},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(items) != 3 || items[0].Name != "Soda" || items[1] != nil || items[2].Name != "Burger" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusOpen, StatusPaid) || !CanTransition(StatusPaid, StatusClosed) || !CanTransition(StatusOpen, StatusVoid) {
		t.Fatalf("expected forward transitions to be allowed")
	}
	if CanTransition(StatusClosed, StatusOpen) || CanTransition(StatusOpen, StatusClosed) || CanTransition(StatusPaid, StatusVoid) {
		t.Fatalf("unexpected transition allowed")
	}
}

func TestMergeItems_SkipsNil(t *testing.T) {
	a := &pricing.OrderItem{ID: "x"}
	out := MergeItems([]*pricing.OrderItem{nil, a}, []*pricing.OrderItem{nil, {ID: "y"}})
	if len(out) != 2 || out[0] != a || out[1].ID != "y" {
		t.Fatalf("unexpected merge %+v", out)
	}
}

func TestClosedOrdersRejectChanges(t *testing.T) {
	mem := newMemory()
	s := NewStore(mem, ordersTable)
	ctx := context.Background()

	order, err := checkout(t, s, mem, "k1", burgerWithFries())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	itemID := order.Items[0].ID
	if err := s.UpdateStatus(ctx, "order-1", StatusOpen, StatusVoid); err != nil {
		t.Fatalf("void: %v", err)
	}

	if _, err := checkout(t, s, mem, "k2", burgerWithFries()); !errors.Is(err, ErrOrderClosed) {
		t.Fatalf("expected ErrOrderClosed on checkout, got %v", err)
	}
	if mem.Item(idempTable, "k2") != nil {
		t.Fatalf("rejected checkout must not store its idempotency key")
	}
	if _, err := s.RefundItem(ctx, "order-1", itemID); !errors.Is(err, ErrOrderClosed) {
		t.Fatalf("expected ErrOrderClosed on refund, got %v", err)
	}
	if _, err := s.ApplyAdjustments(ctx, "order-1", WithTip(&pricing.Charge{Type: pricing.Fixed, Value: dec("5")})); !errors.Is(err, ErrOrderClosed) {
		t.Fatalf("expected ErrOrderClosed on adjustment, got %v", err)
	}

	got, _ := s.Get(ctx, "order-1")
	if len(got.Items) != 1 || got.Items[0].Refunded || got.Tip != nil {
		t.Fatalf("void order changed: %+v", got)
	}
}

func TestRefundItem_PaidOrder(t *testing.T) {
	mem := newMemory()
	s := NewStore(mem, ordersTable)
	ctx := context.Background()

	order, err := checkout(t, s, mem, "k1", burgerWithFries(), &pricing.LineItem{Name: "Soda", Quantity: 1, UnitPrice: dec("3")})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if err := s.UpdateStatus(ctx, "order-1", StatusOpen, StatusPaid); err != nil {
		t.Fatalf("pay: %v", err)
	}

	refunded, err := s.RefundItem(ctx, "order-1", order.Items[1].ID)
	if err != nil {
		t.Fatalf("expected refund on paid order, got %v", err)
	}
	if !refunded.Items[1].Refunded || refunded.Status != StatusPaid {
		t.Fatalf("unexpected order after refund: %+v", refunded)
	}
	if _, err := s.DeleteItem(ctx, "order-1", order.Items[0].ID); !errors.Is(err, ErrOrderClosed) {
		t.Fatalf("expected ErrOrderClosed deleting from a paid order, got %v", err)
	}
}

func TestCheckout_FiresEachLineOnce(t *testing.T) {
	mem := newMemory()
	s := NewStore(mem, ordersTable)
	first := fixedClock(s)
	ctx := context.Background()

	cake := &pricing.LineItem{Name: "Cake", Quantity: 1, UnitPrice: dec("8"), Held: true}
	in := CheckoutInput{
		OrderID:          "order-2",
		Lines:            []*pricing.LineItem{burgerWithFries(), cake},
		IdempotencyTable: idempTable,
		IdempotencyItem:  map[string]string{"idempotency_key": "k1"},
	}
	order, fired, err := s.Checkout(ctx, mem, in)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if fired[0] == nil || fired[1] != nil {
		t.Fatalf("expected only the burger fired, got %+v", fired)
	}

	later := first.Add(10 * time.Minute)
	s.nowFunc = func() time.Time { return later }
	burger := burgerWithFries()
	burger.ID = order.Items[0].ID
	released := &pricing.LineItem{ID: order.Items[1].ID, Name: "Cake", Quantity: 1, UnitPrice: dec("8")}
	soda := &pricing.LineItem{Name: "Soda", Quantity: 1, UnitPrice: dec("3")}
	in.Lines = []*pricing.LineItem{burger, released, soda}
	in.IdempotencyItem = map[string]string{"idempotency_key": "k2"}

	_, fired, err = s.Checkout(ctx, mem, in)
	if err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	if fired[0] != nil || fired[1] == nil || fired[2] == nil {
		t.Fatalf("expected cake and soda fired, burger not refired: %+v", fired)
	}

	got, _ := s.Get(ctx, "order-2")
	if got.Items[0].FiredAt == nil || !got.Items[0].FiredAt.Equal(first) {
		t.Fatalf("burger fire time should be kept, got %v", got.Items[0].FiredAt)
	}
	if got.Items[1].FiredAt == nil || !got.Items[1].FiredAt.Equal(later) {
		t.Fatalf("cake should fire on the second checkout, got %v", got.Items[1].FiredAt)
	}
}
