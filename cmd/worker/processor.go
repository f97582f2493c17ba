package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-pos-orderflow/internal/aws"
	"github.com/imrishuroy/go-pos-orderflow/internal/orders"
	"github.com/imrishuroy/go-pos-orderflow/internal/printing"
)

// Printer sends a rendered document to the print helper.
type Printer interface {
	Print(ctx context.Context, p printing.Payload) error
}

// Processor turns queued print jobs into printed receipts.
type Processor struct {
	orderStore *orders.Store
	printer    Printer
	archive    *printing.Archive
	metrics    *aws.Metrics
}

// NewProcessor creates a worker processor with AWS clients injected. A nil archive skips receipt uploads.
func NewProcessor(clients *aws.AWSClients, ordersTable string, printer Printer, archive *printing.Archive, namespace string) *Processor {
	return &Processor{
		orderStore: orders.NewStore(clients.DynamoDB, ordersTable),
		printer:    printer,
		archive:    archive,
		metrics:    aws.NewMetrics(clients.CloudWatch, namespace),
	}
}

// Handle processes an SQS batch. Failed messages are reported individually so the rest of the batch is not reprinted.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			log.Printf("[worker] message=%s failed: %v", rec.MessageId, err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg PrintMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if !msg.PrintType.Valid() {
		return fmt.Errorf("%w: %q", printing.ErrUnknownPrintType, msg.PrintType)
	}

	log.Printf("[worker] received order=%s print_type=%s corr=%s", msg.OrderID, msg.PrintType, correlationID(rec))

	order, err := p.orderStore.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %s", msg.OrderID)
	}

	receipt, err := printing.RenderReceipt(order, msg.PrintType)
	if err != nil {
		return err
	}

	payload := printing.Payload{
		Printers: printing.Printers(msg.Printers),
		Data: printing.Data{
			PrintType: msg.PrintType,
			Order:     order,
			Lines:     receipt.Lines,
		},
	}
	if err := p.printer.Print(ctx, payload); err != nil {
		return fmt.Errorf("print order=%s: %w", msg.OrderID, err)
	}

	// the document is on paper; what follows must not trigger a redelivery
	if msg.PrintType == printing.Bill {
		if err := p.orderStore.IncrementPrintCount(ctx, msg.OrderID); err != nil && !errors.Is(err, orders.ErrNotFound) {
			log.Printf("[worker] order=%s print count: %v", msg.OrderID, err)
		}
	}
	if key, err := p.archive.Store(ctx, msg.OrderID, msg.PrintType, receipt); err != nil {
		log.Printf("[worker] order=%s archive: %v", msg.OrderID, err)
	} else if key != "" {
		log.Printf("[worker] order=%s archived %s", msg.OrderID, key)
	}
	total, _ := receipt.Total.Float64()
	if err := p.metrics.RecordBill(ctx, string(msg.PrintType), total); err != nil {
		log.Printf("[worker] order=%s metrics: %v", msg.OrderID, err)
	}

	log.Printf("[worker] printed order=%s print_type=%s", msg.OrderID, msg.PrintType)
	return nil
}
