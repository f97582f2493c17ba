package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-pos-orderflow/internal/aws"
	"github.com/imrishuroy/go-pos-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-pos-orderflow/internal/kitchen"
	"github.com/imrishuroy/go-pos-orderflow/internal/orders"
	"github.com/imrishuroy/go-pos-orderflow/internal/validation"
)

// HandlerConfig groups dependencies for the POS handlers.
type HandlerConfig struct {
	DynamoDBClient   aws.DynamoDBAPI
	SQSClient        aws.SQSAPI
	Kitchen          kitchen.Notifier // nil disables kitchen tickets
	IdempotencyTable string
	OrdersTable      string
	TablesTable      string
	PrintQueueURL    string
	TTLWindow        time.Duration
}

type server struct {
	cfg       HandlerConfig
	validate  *validatorv10.Validate
	orders    *orders.Store
	tables    *orders.TableStore
	idemp     *idempotency.Store
	publisher *aws.Publisher
	kitchen   kitchen.Notifier
	now       func() time.Time
}

// RegisterRoutes registers the cart, order, print and table routes.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	s := &server{
		cfg:       cfg,
		validate:  validation.New(),
		orders:    orders.NewStore(cfg.DynamoDBClient, cfg.OrdersTable),
		tables:    orders.NewTableStore(cfg.DynamoDBClient, cfg.TablesTable),
		idemp:     idempotency.NewStore(cfg.DynamoDBClient, cfg.IdempotencyTable, cfg.TTLWindow),
		publisher: aws.NewPublisher(cfg.SQSClient, cfg.PrintQueueURL),
		kitchen:   cfg.Kitchen,
		now:       time.Now,
	}
	if s.kitchen == nil {
		s.kitchen = kitchen.Nop{}
	}

	r.POST("/cart/quote", s.quoteCart)

	o := r.Group("/orders/:id")
	{
		o.GET("", s.getOrder)
		o.GET("/totals", s.getTotals)
		o.POST("/checkout", s.checkout)
		o.POST("/discount", s.applyDiscount)
		o.POST("/service-charge", s.applyServiceCharge)
		o.POST("/tip", s.applyTip)
		o.POST("/tax", s.applyTax)
		o.POST("/extras", s.applyExtras)
		o.POST("/status", s.updateStatus)
		o.POST("/items/:itemId/:action", s.itemAction)
		o.POST("/print", s.print)
	}

	t := r.Group("/tables/:id")
	{
		t.GET("", s.getTable)
		t.POST("/lock", s.lockTable)
		t.POST("/unlock", s.unlockTable)
	}
}

// writeStoreError maps store sentinels onto HTTP statuses.
func writeStoreError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
	case errors.Is(err, orders.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "item_not_found"})
	case errors.Is(err, orders.ErrItemNotEligible):
		c.JSON(http.StatusConflict, gin.H{"error": "item_not_eligible", "detail": err.Error()})
	case errors.Is(err, orders.ErrOrderClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "order_closed", "detail": err.Error()})
	case errors.Is(err, orders.ErrStatusMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": "status_mismatch"})
	default:
		log.Printf("[%s] %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": op + "_failed", "detail": err.Error()})
	}
}
