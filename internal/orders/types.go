package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
)

// Order statuses
const (
	StatusOpen   = "OPEN"
	StatusPaid   = "PAID"
	StatusClosed = "CLOSED"
	StatusVoid   = "VOID"
)

// Order is a stored order: the priced aggregate plus lifecycle fields.
type Order struct {
	pricing.Order
	Status          string          `json:"status"`                     // OPEN | PAID | CLOSED | VOID
	DiscountEntered decimal.Decimal `json:"discount_entered,omitempty"` // keypad value for variable discounts
	ItemIDs         []string        `json:"item_ids,omitempty"`
	PrintCount      int             `json:"print_count,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Table is a dining table and its lock. The lock is advisory; concurrent lockers are not arbitrated.
type Table struct {
	TableID  string     `dynamodbav:"table_id" json:"table_id"` // PK
	Name     string     `dynamodbav:"name,omitempty" json:"name,omitempty"`
	Locked   bool       `dynamodbav:"locked" json:"locked"`
	LockedBy string     `dynamodbav:"locked_by,omitempty" json:"locked_by,omitempty"`
	LockedAt *time.Time `dynamodbav:"locked_at,omitempty" json:"locked_at,omitempty"`
	OrderID  string     `dynamodbav:"order_id,omitempty" json:"order_id,omitempty"`
}
