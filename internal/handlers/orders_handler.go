package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-pos-orderflow/internal/kitchen"
	"github.com/imrishuroy/go-pos-orderflow/internal/orders"
	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
	"github.com/imrishuroy/go-pos-orderflow/internal/validation"
)

type checkoutResponse struct {
	OrderID    string          `json:"order_id"`
	TableID    string          `json:"table_id,omitempty"`
	Status     string          `json:"status"`
	ItemIDs    []string        `json:"item_ids"`
	ItemsTotal decimal.Decimal `json:"items_total"`
	TempBill   decimal.Decimal `json:"temp_bill"`
}

// totalsResponse is every figure a terminal shows for an order.
type totalsResponse struct {
	OrderID       string                     `json:"order_id"`
	ItemsTotal    decimal.Decimal            `json:"items_total"`
	ExtrasTotal   decimal.Decimal            `json:"extras_total"`
	Discount      decimal.Decimal            `json:"discount"`
	Tax           decimal.Decimal            `json:"tax"`
	ServiceCharge decimal.Decimal            `json:"service_charge"`
	Tip           decimal.Decimal            `json:"tip"`
	TempBill      decimal.Decimal            `json:"temp_bill"`
	FinalBill     decimal.Decimal            `json:"final_bill"`
	RefundTotal   decimal.Decimal            `json:"refund_total"`
	Seats         map[string]decimal.Decimal `json:"seats"`
}

func totalsOf(o *orders.Order) totalsResponse {
	return totalsResponse{
		OrderID:       o.ID,
		ItemsTotal:    pricing.OrderItemsTotal(&o.Order),
		ExtrasTotal:   pricing.ExtrasTotal(&o.Order),
		Discount:      o.DiscountAmount,
		Tax:           o.TaxAmount,
		ServiceCharge: o.ServiceChargeAmount,
		Tip:           o.TipAmount,
		TempBill:      pricing.GrandTotal(&o.Order, pricing.TempBill),
		FinalBill:     pricing.GrandTotal(&o.Order, pricing.FinalBill),
		RefundTotal:   pricing.RefundTotal(pricing.NewRefund(&o.Order)),
		Seats:         pricing.SeatSubtotals(&o.Order),
	}
}

// checkout writes the cart onto the order. The Idempotency-Key header guards against double submits:
// the idempotency record and the order are written in one transaction, and duplicates get the stored response.
func (s *server) checkout(c *gin.Context) {
	ctx := c.Request.Context()
	orderID := c.Param("id")

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	var req validation.CartRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}

	idempKey := c.GetHeader("Idempotency-Key")
	if idempKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_idempotency_key"})
		return
	}
	requestHash := idempotency.HashRequest(raw)

	// answer retries without touching the order
	if rec, err := s.idemp.Get(ctx, idempKey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": err.Error()})
		return
	} else if rec != nil {
		replay(c, rec, requestHash)
		return
	}

	lines := req.CartLines()
	order, fired, err := s.orders.Checkout(ctx, s.cfg.DynamoDBClient, orders.CheckoutInput{
		OrderID:          orderID,
		TableID:          req.TableID,
		Lines:            lines,
		IdempotencyTable: s.idemp.TableName(),
		IdempotencyItem:  s.idemp.NewRecord(idempKey, orderID, req.TableID, requestHash),
		TTLWindow:        s.idemp.TTLWindow(),
	})
	if err != nil {
		if !errors.Is(err, orders.ErrIdempotencyConflict) {
			writeStoreError(c, "checkout", err)
			return
		}
		// lost a race with a concurrent submit of the same key
		rec, getErr := s.idemp.Get(ctx, idempKey)
		if getErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": getErr.Error()})
			return
		}
		if rec == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "transaction_failed_no_idempotency_record", "detail": err.Error()})
			return
		}
		replay(c, rec, requestHash)
		return
	}

	ticket := kitchen.BuildTicket(order.ID, order.TableID, lines, fired, s.now())
	if err := s.kitchen.Notify(ctx, ticket); err != nil {
		_ = s.idemp.MarkFailed(ctx, idempKey, fmt.Sprintf("kitchen_notify_failed: %v", err))
		log.Printf("[checkout] order=%s kitchen notify failed: %v", order.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "kitchen_notify_failed", "order_id": order.ID, "detail": err.Error()})
		return
	}

	resp := checkoutResponse{
		OrderID:    order.ID,
		TableID:    order.TableID,
		Status:     order.Status,
		ItemIDs:    order.ItemIDs,
		ItemsTotal: pricing.OrderItemsTotal(&order.Order),
		TempBill:   pricing.GrandTotal(&order.Order, pricing.TempBill),
	}
	body, _ := json.Marshal(resp)
	if err := s.idemp.MarkDone(ctx, idempKey, string(body), http.StatusCreated); err != nil {
		log.Printf("[checkout] order=%s mark done: %v", order.ID, err)
	}

	c.Header("Location", fmt.Sprintf("/orders/%s", order.ID))
	c.Data(http.StatusCreated, "application/json", body)
}

// replay answers a request whose idempotency key was seen before.
func replay(c *gin.Context, rec *idempotency.IdempotencyRecord, requestHash string) {
	if rec.RequestHash != "" && requestHash != "" && rec.RequestHash != requestHash {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency_key_reused", "order_id": rec.OrderID})
		return
	}
	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" {
			if json.Valid([]byte(rec.ResponseBody)) {
				c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
				return
			}
			c.JSON(rec.ResponseStatus, gin.H{"response": rec.ResponseBody})
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "order_id": rec.OrderID})
	case idempotency.StatusFailed:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed", "order_id": rec.OrderID, "detail": rec.Note})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}

func (s *server) loadOrder(c *gin.Context) (*orders.Order, bool) {
	order, err := s.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeStoreError(c, "get_order", err)
		return nil, false
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
		return nil, false
	}
	return order, true
}

func (s *server) getOrder(c *gin.Context) {
	if order, ok := s.loadOrder(c); ok {
		c.JSON(http.StatusOK, order)
	}
}

func (s *server) getTotals(c *gin.Context) {
	if order, ok := s.loadOrder(c); ok {
		c.JSON(http.StatusOK, totalsOf(order))
	}
}

func (s *server) adjust(c *gin.Context, adjustments ...orders.Adjustment) {
	order, err := s.orders.ApplyAdjustments(c.Request.Context(), c.Param("id"), adjustments...)
	if err != nil {
		writeStoreError(c, "adjust", err)
		return
	}
	c.JSON(http.StatusOK, totalsOf(order))
}

func (s *server) applyDiscount(c *gin.Context) {
	var req validation.DiscountRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	s.adjust(c, orders.WithDiscount(req.ToDiscount(), req.Entered))
}

func (s *server) applyServiceCharge(c *gin.Context) {
	var req validation.ChargeRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	s.adjust(c, orders.WithServiceCharge(req.ToCharge()))
}

func (s *server) applyTip(c *gin.Context) {
	var req validation.ChargeRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	s.adjust(c, orders.WithTip(req.ToCharge()))
}

func (s *server) applyTax(c *gin.Context) {
	var req validation.TaxRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	s.adjust(c, orders.WithTax(req.ToTax()))
}

func (s *server) applyExtras(c *gin.Context) {
	var req validation.ExtrasRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	s.adjust(c, orders.WithExtras(req.ToExtras()))
}

func (s *server) updateStatus(c *gin.Context) {
	var req validation.StatusRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	if !orders.CanTransition(req.From, req.To) {
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_transition", "from": req.From, "to": req.To})
		return
	}
	if err := s.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.From, req.To); err != nil {
		writeStoreError(c, "update_status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": c.Param("id"), "status": req.To})
}

// itemAction handles delete, refund and suspend on a single item.
func (s *server) itemAction(c *gin.Context) {
	ctx := c.Request.Context()
	orderID, itemID := c.Param("id"), c.Param("itemId")

	var (
		order *orders.Order
		err   error
	)
	switch c.Param("action") {
	case "delete":
		order, err = s.orders.DeleteItem(ctx, orderID, itemID)
	case "refund":
		order, err = s.orders.RefundItem(ctx, orderID, itemID)
	case "suspend":
		var req validation.SuspendRequest
		if c.Request.ContentLength > 0 {
			if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
				return
			}
		}
		suspended := req.Suspended == nil || *req.Suspended
		order, err = s.orders.SetSuspended(ctx, orderID, itemID, suspended)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_item_action"})
		return
	}
	if err != nil {
		writeStoreError(c, "item_"+c.Param("action"), err)
		return
	}
	c.JSON(http.StatusOK, totalsOf(order))
}

// orderExists is used by the print route to fail fast before enqueueing.
func (s *server) orderExists(ctx context.Context, id string) (bool, error) {
	o, err := s.orders.Get(ctx, id)
	return o != nil, err
}
