package printing

import "github.com/imrishuroy/go-pos-orderflow/internal/orders"

// PrintType selects the document the print helper produces.
type PrintType string

const (
	Bill     PrintType = "bill"
	TempBill PrintType = "temp_bill"
	Kitchen  PrintType = "kitchen"
	Refund   PrintType = "refund"
)

// Valid reports whether t is a known print type.
func (t PrintType) Valid() bool {
	switch t {
	case Bill, TempBill, Kitchen, Refund:
		return true
	}
	return false
}

// DriverConfig addresses one printer known to the print helper.
type DriverConfig struct {
	Name    string `json:"name"`
	Driver  string `json:"driver,omitempty"` // e.g. escpos
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
}

// Payload is the body of POST /print on the print helper.
type Payload struct {
	Printers []DriverConfig         `json:"printers"`
	Data     Data                   `json:"data"`
	Config   map[string]interface{} `json:"config,omitempty"`
}

// Data carries the document. Lines is the rendered receipt text.
type Data struct {
	PrintType PrintType     `json:"printType"`
	Order     *orders.Order `json:"order,omitempty"`
	Lines     []string      `json:"lines,omitempty"`
}

// PrintJob is the queue message asking the worker to print an order.
type PrintJob struct {
	OrderID   string    `json:"order_id"`
	PrintType PrintType `json:"print_type"`
	Printers  []string  `json:"printers,omitempty"` // printer names; empty means the helper's default
	Requested string    `json:"requested_at,omitempty"`
}
