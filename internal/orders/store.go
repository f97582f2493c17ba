package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-pos-orderflow/internal/aws"
	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
)

var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrItemNotFound is returned when an item id is not on the order.
	ErrItemNotFound = errors.New("order item not found")
	// ErrItemNotEligible is returned when an item no longer counts toward totals and cannot be changed.
	ErrItemNotEligible = errors.New("order item is deleted, refunded or suspended")
	// ErrStatusMismatch is returned by UpdateStatus when the current status is not the expected one.
	ErrStatusMismatch = errors.New("status mismatch/conditional failed")
	// ErrIdempotencyConflict is returned when a checkout's idempotency key already exists.
	ErrIdempotencyConflict = errors.New("idempotency key already used")
	// ErrOrderClosed is returned when an order's status no longer allows the change.
	ErrOrderClosed = errors.New("order is not open")
)

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	key := map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: orderID},
	}
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec orderRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return fromRecord(rec), nil
}

// Put writes the whole order, refreshing updated_at and the item id list.
func (s *Store) Put(ctx context.Context, order *Order) error {
	item, err := s.marshal(order)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func (s *Store) marshal(order *Order) (map[string]types.AttributeValue, error) {
	now := s.nowFunc()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.Status == "" {
		order.Status = StatusOpen
	}
	order.UpdatedAt = now
	order.ItemIDs = itemIDs(order.Items)

	m, err := attributevalue.MarshalMap(toRecord(*order))
	if err != nil {
		return nil, fmt.Errorf("marshal order item: %w", err)
	}
	return m, nil
}

// Update reads an open order, applies fn, reprices and writes it back. There is no version check: the last
// writer wins. Orders that are paid, closed or void return ErrOrderClosed.
func (s *Store) Update(ctx context.Context, orderID string, fn func(*Order) error) (*Order, error) {
	return s.update(ctx, orderID, []string{StatusOpen}, fn)
}

func (s *Store) update(ctx context.Context, orderID string, allowed []string, fn func(*Order) error) (*Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	if !hasStatus(order, allowed...) {
		return nil, fmt.Errorf("%w: %s", ErrOrderClosed, order.Status)
	}
	if err := fn(order); err != nil {
		return nil, err
	}
	order.Reprice()
	if err := s.Put(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// hasStatus treats a missing status as OPEN.
func hasStatus(o *Order, statuses ...string) bool {
	current := o.Status
	if current == "" {
		current = StatusOpen
	}
	for _, st := range statuses {
		if current == st {
			return true
		}
	}
	return false
}

// CheckoutInput is what a terminal submits when sending a cart.
type CheckoutInput struct {
	OrderID          string
	TableID          string
	Lines            []*pricing.LineItem
	IdempotencyTable string
	IdempotencyItem  interface{} // must carry idempotency_key
	TTLWindow        time.Duration
}

// Checkout materializes the cart lines onto the order and writes it together with the idempotency record
// in one TransactWriteItems call. Lines already persisted replace their stored item; the rest are appended.
// A missing order is created; an order that is no longer open returns ErrOrderClosed.
// The returned items are aligned with the lines and hold the items this checkout fires to the kitchen:
// entries are nil for nil lines, held lines and lines fired by an earlier checkout.
func (s *Store) Checkout(ctx context.Context, dynamo aws.DynamoDBAPI, in CheckoutInput) (*Order, []*pricing.OrderItem, error) {
	order, err := s.Get(ctx, in.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		order = &Order{Order: pricing.Order{ID: in.OrderID}, Status: StatusOpen}
	}
	if !hasStatus(order, StatusOpen) {
		return nil, nil, fmt.Errorf("%w: %s", ErrOrderClosed, order.Status)
	}
	if in.TableID != "" {
		order.TableID = in.TableID
	}

	now := s.nowFunc()
	incoming := make([]*pricing.OrderItem, len(in.Lines))
	for i, l := range in.Lines {
		incoming[i] = pricing.Materialize(l, now)
	}
	order.Items = MergeItems(order.Items, incoming)
	order.Reprice()

	fired := make([]*pricing.OrderItem, len(incoming))
	for i, it := range incoming {
		if it == nil || in.Lines[i].Held || it.FiredAt != nil {
			continue
		}
		it.FiredAt = &now
		fired[i] = it
	}

	if err := s.createWithIdempotencyTransaction(ctx, dynamo, in.IdempotencyTable, in.IdempotencyItem, order, in.TTLWindow); err != nil {
		return nil, nil, err
	}
	return order, fired, nil
}

// MergeItems replaces existing items that share an id with an incoming item and appends the others.
// Replaced items keep their original creation and kitchen fire times.
func MergeItems(existing, incoming []*pricing.OrderItem) []*pricing.OrderItem {
	out := make([]*pricing.OrderItem, 0, len(existing)+len(incoming))
	index := map[string]int{}
	for _, it := range existing {
		if it == nil {
			continue
		}
		index[it.ID] = len(out)
		out = append(out, it)
	}
	for _, it := range incoming {
		if it == nil {
			continue
		}
		if i, ok := index[it.ID]; ok {
			it.CreatedAt = out[i].CreatedAt
			it.FiredAt = out[i].FiredAt
			out[i] = it
			continue
		}
		index[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}

func itemIDs(items []*pricing.OrderItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it != nil {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// createWithIdempotencyTransaction atomically creates:
//   - idempotency record in idempotencyTable (with ConditionExpression attribute_not_exists(idempotency_key))
//   - order record in orders table
func (s *Store) createWithIdempotencyTransaction(ctx context.Context, dynamo aws.DynamoDBAPI, idempotencyTable string, idempotencyItem interface{}, order *Order, ttlWindow time.Duration) error {
	idempMap, err := attributevalue.MarshalMap(idempotencyItem)
	if err != nil {
		return fmt.Errorf("marshal idempotency item: %w", err)
	}
	if _, ok := idempMap["expires_at"]; !ok && ttlWindow > 0 {
		expires := s.nowFunc().Add(ttlWindow).Unix()
		idempMap["expires_at"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expires)}
	}

	orderMap, err := s.marshal(order)
	if err != nil {
		return err
	}

	transactItems := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:           &idempotencyTable,
				Item:                idempMap,
				ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
			},
		},
		{
			Put: &types.Put{
				TableName: &s.tableName,
				Item:      orderMap,
			},
		},
	}

	_, err = dynamo.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("%w: %v", ErrIdempotencyConflict, err)
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// findItem looks for a root item by id.
func findItem(order *Order, itemID string) *pricing.OrderItem {
	for _, it := range order.Items {
		if it != nil && it.ID == itemID {
			return it
		}
	}
	return nil
}

// DeleteItem soft-deletes an item. Deleting an already deleted item is a no-op.
func (s *Store) DeleteItem(ctx context.Context, orderID, itemID string) (*Order, error) {
	return s.Update(ctx, orderID, func(o *Order) error {
		it := findItem(o, itemID)
		if it == nil {
			return ErrItemNotFound
		}
		if it.DeletedAt == nil {
			now := s.nowFunc()
			it.DeletedAt = &now
		}
		return nil
	})
}

// RefundItem marks a counted item as refunded. Paid orders can still be refunded.
func (s *Store) RefundItem(ctx context.Context, orderID, itemID string) (*Order, error) {
	return s.update(ctx, orderID, []string{StatusOpen, StatusPaid}, func(o *Order) error {
		it, err := eligibleItem(o, itemID)
		if err != nil {
			return err
		}
		it.Refunded = true
		return nil
	})
}

// SetSuspended suspends or resumes an item. Only items that are neither deleted nor refunded can change.
func (s *Store) SetSuspended(ctx context.Context, orderID, itemID string, suspended bool) (*Order, error) {
	return s.Update(ctx, orderID, func(o *Order) error {
		it := findItem(o, itemID)
		if it == nil {
			return ErrItemNotFound
		}
		if it.DeletedAt != nil || it.Refunded {
			return ErrItemNotEligible
		}
		it.Suspended = suspended
		return nil
	})
}

// eligibleItem returns the item only if it is in the filtered (counted) set.
func eligibleItem(o *Order, itemID string) (*pricing.OrderItem, error) {
	if findItem(o, itemID) == nil {
		return nil, ErrItemNotFound
	}
	for _, it := range pricing.FilteredItems(&o.Order) {
		if it.ID == itemID {
			return it, nil
		}
	}
	return nil, ErrItemNotEligible
}

// UpdateStatus conditionally updates the order status from expected -> newStatus.
// Returns nil on success, ErrStatusMismatch if condition failed.
func (s *Store) UpdateStatus(ctx context.Context, orderID, expectedStatus, newStatus string) error {
	now := s.nowFunc()
	updateExpr := "SET #s = :new, updated_at = :ua"
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         &updateExpr,
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: newStatus},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":expected": &types.AttributeValueMemberS{Value: expectedStatus},
		},
		ConditionExpression: awsString("#s = :expected"),
	}

	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var sc *types.ConditionalCheckFailedException
		if errors.As(err, &sc) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// IncrementPrintCount bumps the number of times the bill was printed. Receipts after the first are reprints.
func (s *Store) IncrementPrintCount(ctx context.Context, orderID string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET print_count = if_not_exists(print_count, :zero) + :inc, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_exists(order_id)"),
		ReturnValues:        types.ReturnValueUpdatedNew,
	}
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var sc *types.ConditionalCheckFailedException
		if errors.As(err, &sc) {
			return ErrNotFound
		}
		return fmt.Errorf("increment print count: %w", err)
	}
	return nil
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	switch from {
	case StatusOpen:
		return to == StatusPaid || to == StatusVoid
	case StatusPaid:
		return to == StatusClosed
	}
	return false
}

func awsString(s string) *string { return &s }
