package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/cart"
	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
	"github.com/imrishuroy/go-pos-orderflow/internal/validation"
)

type quotedLine struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Seat  string          `json:"seat,omitempty"`
	Held  bool            `json:"held,omitempty"`
	Total decimal.Decimal `json:"total"`
}

type quoteResponse struct {
	TableID string                     `json:"table_id,omitempty"`
	Lines   []quotedLine               `json:"lines"`
	Seats   map[string]decimal.Decimal `json:"seats"`
	Total   decimal.Decimal            `json:"total"`
}

// quoteCart prices a cart without storing it.
func (s *server) quoteCart(c *gin.Context) {
	var req validation.CartRequest
	if err := validation.BindAndValidate(c, &req, s.validate); err != nil {
		return
	}
	sess, err := cart.Load(req.TableID, req.CartLines())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_cart", "detail": err.Error()})
		return
	}

	resp := quoteResponse{TableID: req.TableID, Seats: sess.SeatTotals(), Total: sess.Total()}
	for _, l := range sess.Items() {
		resp.Lines = append(resp.Lines, quotedLine{
			ID:    l.ID,
			Name:  l.Name,
			Seat:  l.Seat,
			Held:  l.Held,
			Total: pricing.PriceOfCartLineItem(l),
		})
	}
	c.JSON(http.StatusOK, resp)
}
