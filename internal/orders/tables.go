package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-pos-orderflow/internal/aws"
)

// TableStore keeps the lock state of dining tables.
type TableStore struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

func NewTableStore(client aws.DynamoDBAPI, tableName string) *TableStore {
	return &TableStore{client: client, tableName: tableName, nowFunc: time.Now}
}

func (s *TableStore) key(tableID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"table_id": &types.AttributeValueMemberS{Value: tableID},
	}
}

// Get returns the table, or (nil, nil) if it was never locked or registered.
func (s *TableStore) Get(ctx context.Context, tableID string) (*Table, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       s.key(tableID),
	})
	if err != nil {
		return nil, fmt.Errorf("get table: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var t Table
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, fmt.Errorf("unmarshal table: %w", err)
	}
	return &t, nil
}

// Lock marks the table as being edited by a terminal. It overwrites any existing lock.
func (s *TableStore) Lock(ctx context.Context, tableID, lockedBy, orderID string) (*Table, error) {
	now := s.nowFunc().UTC()
	expr := "SET locked = :t, locked_by = :by, locked_at = :at"
	values := map[string]types.AttributeValue{
		":t":  &types.AttributeValueMemberBOOL{Value: true},
		":by": &types.AttributeValueMemberS{Value: lockedBy},
		":at": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
	}
	if orderID != "" {
		expr += ", order_id = :oid"
		values[":oid"] = &types.AttributeValueMemberS{Value: orderID}
	}
	if _, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:                 &s.tableName,
		Key:                       s.key(tableID),
		UpdateExpression:          &expr,
		ExpressionAttributeValues: values,
	}); err != nil {
		return nil, fmt.Errorf("lock table: %w", err)
	}
	return s.Get(ctx, tableID)
}

// Unlock clears the lock. Unlocking an unlocked table succeeds.
func (s *TableStore) Unlock(ctx context.Context, tableID string) (*Table, error) {
	if _, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              s.key(tableID),
		UpdateExpression: awsString("SET locked = :f REMOVE locked_by, locked_at"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	}); err != nil {
		return nil, fmt.Errorf("unlock table: %w", err)
	}
	return s.Get(ctx, tableID)
}
