// Package awstest holds in-memory stand-ins for the AWS clients, for tests.
package awstest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-pos-orderflow/internal/aws"
)

var _ aws.DynamoDBAPI = (*MemoryDynamo)(nil)

// keyAttributes are tried in order when a table has no declared key.
var keyAttributes = []string{"idempotency_key", "table_id", "order_id"}

// MemoryDynamo is an in-memory DynamoDBAPI.
// It understands the condition and update expressions the stores issue, nothing more.
type MemoryDynamo struct {
	mu     sync.Mutex
	keys   map[string]string // table -> partition key attribute
	Tables map[string]map[string]map[string]types.AttributeValue
}

// NewMemoryDynamo returns an empty in-memory DynamoDB. keys maps table names to their partition key attribute.
func NewMemoryDynamo(keys map[string]string) *MemoryDynamo {
	if keys == nil {
		keys = map[string]string{}
	}
	return &MemoryDynamo{
		keys:   keys,
		Tables: map[string]map[string]map[string]types.AttributeValue{},
	}
}

func (m *MemoryDynamo) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := m.Tables[name]
	if !ok {
		t = map[string]map[string]types.AttributeValue{}
		m.Tables[name] = t
	}
	return t
}

func (m *MemoryDynamo) primaryKey(table string, item map[string]types.AttributeValue) (string, string, error) {
	candidates := keyAttributes
	if k, ok := m.keys[table]; ok {
		candidates = []string{k}
	}
	for _, k := range candidates {
		if v, ok := item[k]; ok {
			s, ok := v.(*types.AttributeValueMemberS)
			if !ok {
				return "", "", fmt.Errorf("key %s is not a string", k)
			}
			return k, s.Value, nil
		}
	}
	return "", "", fmt.Errorf("no primary key attribute for table %s", table)
}

// Item returns the stored item for a key value, for assertions in tests.
func (m *MemoryDynamo) Item(table, key string) map[string]types.AttributeValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table(table)[key]
}

func (m *MemoryDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, pk, err := m.primaryKey(*params.TableName, params.Item)
	if err != nil {
		return nil, err
	}
	t := m.table(*params.TableName)
	if !conditionHolds(params.ConditionExpression, t[pk], params.ExpressionAttributeNames, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{Message: awsString("The conditional request failed")}
	}
	t[pk] = copyItem(params.Item)
	return &dyn.PutItemOutput{}, nil
}

func (m *MemoryDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, pk, err := m.primaryKey(*params.TableName, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table(*params.TableName)[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: copyItem(item)}, nil
}

func (m *MemoryDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keyName, pk, err := m.primaryKey(*params.TableName, params.Key)
	if err != nil {
		return nil, err
	}
	t := m.table(*params.TableName)
	current := t[pk]
	if !conditionHolds(params.ConditionExpression, current, params.ExpressionAttributeNames, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{Message: awsString("The conditional request failed")}
	}
	item := copyItem(current)
	if item == nil {
		// UpdateItem creates missing items
		item = map[string]types.AttributeValue{keyName: &types.AttributeValueMemberS{Value: pk}}
	}
	if params.UpdateExpression != nil {
		if err := applyUpdate(item, *params.UpdateExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues); err != nil {
			return nil, err
		}
	}
	t[pk] = item
	return &dyn.UpdateItemOutput{Attributes: copyItem(item)}, nil
}

func (m *MemoryDynamo) TransactWriteItems(ctx context.Context, params *dyn.TransactWriteItemsInput, optFns ...func(*dyn.Options)) (*dyn.TransactWriteItemsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// check every condition before writing anything
	for _, it := range params.TransactItems {
		p := it.Put
		if p == nil {
			return nil, errors.New("only Put is supported in transactions")
		}
		_, pk, err := m.primaryKey(*p.TableName, p.Item)
		if err != nil {
			return nil, err
		}
		if !conditionHolds(p.ConditionExpression, m.table(*p.TableName)[pk], p.ExpressionAttributeNames, p.ExpressionAttributeValues) {
			return nil, &types.TransactionCanceledException{Message: awsString("Transaction cancelled, please refer cancellation reasons for specific reasons [ConditionalCheckFailed]")}
		}
	}
	for _, it := range params.TransactItems {
		_, pk, _ := m.primaryKey(*it.Put.TableName, it.Put.Item)
		m.table(*it.Put.TableName)[pk] = copyItem(it.Put.Item)
	}
	return &dyn.TransactWriteItemsOutput{}, nil
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		if n, ok := names[name]; ok {
			return n
		}
	}
	return name
}

// conditionHolds supports attribute_exists(x), attribute_not_exists(x) and "a = :v".
func conditionHolds(expr *string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) bool {
	if expr == nil || *expr == "" {
		return true
	}
	e := strings.TrimSpace(*expr)
	switch {
	case strings.HasPrefix(e, "attribute_not_exists(") && strings.HasSuffix(e, ")"):
		attr := resolveName(strings.TrimSuffix(strings.TrimPrefix(e, "attribute_not_exists("), ")"), names)
		_, ok := item[attr]
		return !ok
	case strings.HasPrefix(e, "attribute_exists(") && strings.HasSuffix(e, ")"):
		attr := resolveName(strings.TrimSuffix(strings.TrimPrefix(e, "attribute_exists("), ")"), names)
		_, ok := item[attr]
		return ok
	}
	parts := strings.SplitN(e, "=", 2)
	if len(parts) != 2 {
		return false
	}
	attr := resolveName(strings.TrimSpace(parts[0]), names)
	want, ok := values[strings.TrimSpace(parts[1])].(*types.AttributeValueMemberS)
	if !ok {
		return false
	}
	got, ok := item[attr].(*types.AttributeValueMemberS)
	return ok && got.Value == want.Value
}

// applyUpdate supports "SET a = :v, b = if_not_exists(b, :zero) + :inc REMOVE c, d".
func applyUpdate(item map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) error {
	setPart, removePart := expr, ""
	if i := strings.Index(expr, "REMOVE"); i >= 0 {
		setPart, removePart = expr[:i], expr[i+len("REMOVE"):]
	}
	setPart = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(setPart), "SET"))
	if setPart != "" {
		for _, assign := range splitTopLevel(setPart) {
			lhs, rhs, ok := strings.Cut(assign, "=")
			if !ok {
				return fmt.Errorf("unsupported update clause %q", assign)
			}
			attr := resolveName(strings.TrimSpace(lhs), names)
			rhs = strings.TrimSpace(rhs)
			if strings.HasPrefix(rhs, "if_not_exists(") {
				v, err := increment(item[attr], rhs, values)
				if err != nil {
					return err
				}
				item[attr] = v
				continue
			}
			v, ok := values[rhs]
			if !ok {
				return fmt.Errorf("missing value %s", rhs)
			}
			item[attr] = v
		}
	}
	for _, attr := range strings.Split(removePart, ",") {
		if attr = strings.TrimSpace(attr); attr != "" {
			delete(item, resolveName(attr, names))
		}
	}
	return nil
}

func increment(current types.AttributeValue, rhs string, values map[string]types.AttributeValue) (types.AttributeValue, error) {
	closeIdx := strings.Index(rhs, ")")
	if closeIdx < 0 {
		return nil, fmt.Errorf("bad if_not_exists: %q", rhs)
	}
	args := strings.Split(rhs[len("if_not_exists("):closeIdx], ",")
	if len(args) != 2 {
		return nil, fmt.Errorf("bad if_not_exists: %q", rhs)
	}
	base := values[strings.TrimSpace(args[1])]
	if current != nil {
		base = current
	}
	_, incName, ok := strings.Cut(rhs[closeIdx+1:], "+")
	if !ok {
		return nil, fmt.Errorf("bad increment: %q", rhs)
	}
	a, err := numberOf(base)
	if err != nil {
		return nil, err
	}
	b, err := numberOf(values[strings.TrimSpace(incName)])
	if err != nil {
		return nil, err
	}
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(a+b, 10)}, nil
}

func numberOf(v types.AttributeValue) (int64, error) {
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("not a number: %T", v)
	}
	return strconv.ParseInt(n.Value, 10, 64)
}

func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

// awsString helper
func awsString(s string) *string { return &s }
