package printing

import (
	"context"
	"fmt"
	"time"

	"github.com/imrishuroy/go-pos-orderflow/internal/aws"
)

// Enqueue sends a print job to the print queue for the worker.
func Enqueue(ctx context.Context, p *aws.Publisher, job PrintJob, correlationID string) error {
	if !job.PrintType.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPrintType, job.PrintType)
	}
	if job.Requested == "" {
		job.Requested = time.Now().UTC().Format(time.RFC3339)
	}
	return p.SendJSON(ctx, job, map[string]string{
		"order_id":       job.OrderID,
		"print_type":     string(job.PrintType),
		"correlation_id": correlationID,
	})
}
