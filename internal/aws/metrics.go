package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics publishes order metrics to CloudWatch.
type Metrics struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

// NewMetrics returns a Metrics writer for a namespace.
func NewMetrics(cw CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{CloudWatch: cw, Namespace: namespace, nowFunc: time.Now}
}

// RecordBill records the total of a printed bill, dimensioned by print type.
func (m *Metrics) RecordBill(ctx context.Context, printType string, total float64) error {
	if m == nil || m.CloudWatch == nil {
		return nil
	}
	now := m.nowFunc()
	input := &cloudwatch.PutMetricDataInput{
		Namespace: &m.Namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: awsString("BillTotal"),
				Timestamp:  &now,
				Value:      &total,
				Unit:       cwtypes.StandardUnitNone,
				Dimensions: []cwtypes.Dimension{
					{Name: awsString("PrintType"), Value: awsString(printType)},
				},
			},
			{
				MetricName: awsString("BillsPrinted"),
				Timestamp:  &now,
				Value:      floatPtr(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{Name: awsString("PrintType"), Value: awsString(printType)},
				},
			},
		},
	}
	if _, err := m.CloudWatch.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func floatPtr(f float64) *float64 { return &f }
