package main

import (
	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-pos-orderflow/internal/printing"
)

// PrintMessage is the payload sent from API -> SQS -> worker.
type PrintMessage = printing.PrintJob

// correlationID reads the correlation_id attribute the API sets on every job.
func correlationID(rec events.SQSMessage) string {
	attr, ok := rec.MessageAttributes["correlation_id"]
	if !ok || attr.StringValue == nil {
		return ""
	}
	return *attr.StringValue
}
