package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-pos-orderflow/internal/printing"
	"github.com/imrishuroy/go-pos-orderflow/internal/validation"
)

// print queues a print job for the worker. An optional Idempotency-Key keeps a double tap from printing twice.
func (s *server) print(c *gin.Context) {
	ctx := c.Request.Context()
	orderID := c.Param("id")

	var req validation.PrintRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}

	exists, err := s.orderExists(ctx, orderID)
	if err != nil {
		writeStoreError(c, "print", err)
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
		return
	}

	idempKey := c.GetHeader("Idempotency-Key")
	if idempKey != "" {
		created, err := s.idemp.CreateIfNotExists(ctx, idempKey, orderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": err.Error()})
			return
		}
		if !created {
			rec, err := s.idemp.Get(ctx, idempKey)
			if err != nil || rec == nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed"})
				return
			}
			replay(c, rec, "")
			return
		}
	}

	job := printing.PrintJob{OrderID: orderID, PrintType: printing.PrintType(req.PrintType), Printers: req.Printers}
	if err := printing.Enqueue(ctx, s.publisher, job, c.GetHeader("X-Request-Id")); err != nil {
		if idempKey != "" {
			_ = s.idemp.MarkFailed(ctx, idempKey, fmt.Sprintf("sqs_send_failed: %v", err))
		}
		log.Printf("[print] order=%s enqueue failed: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed", "detail": err.Error()})
		return
	}

	body, _ := json.Marshal(gin.H{"order_id": orderID, "print_type": req.PrintType, "status": "QUEUED"})
	if idempKey != "" {
		_ = s.idemp.MarkDone(ctx, idempKey, string(body), http.StatusAccepted)
	}
	c.Data(http.StatusAccepted, "application/json", body)
}
