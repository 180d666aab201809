package remote

import (
	"context"
	"net/http"
	"time"

	"github.com/dcampos/fieldsync/internal/model"
)

// orderPayload is the wire shape for order creation.
//
// Cancelled orders (negative sales) take the reduced payload: reason is set,
// items and payment_table_id are omitted entirely so the server's relaxed
// validation path applies.
type orderPayload struct {
	ID             string            `json:"id"`
	ClientID       string            `json:"client_id"`
	SalesRepID     string            `json:"sales_rep_id,omitempty"`
	Status         string            `json:"status"`
	Items          []model.OrderItem `json:"items,omitempty"`
	PaymentTableID string            `json:"payment_table_id,omitempty"`
	Total          float64           `json:"total"`
	Reason         string            `json:"reason,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// orderResponse is the server's echo of a created order.
type orderResponse struct {
	ID   string `json:"id"`
	Code string `json:"code"` // server-assigned, sequential per company
}

func payloadFor(o *model.Order) orderPayload {
	p := orderPayload{
		ID:         o.ID,
		ClientID:   o.ClientID,
		SalesRepID: o.SalesRepID,
		Status:     string(o.Status),
		Total:      o.Total,
		Notes:      o.Notes,
		CreatedAt:  o.CreatedAt,
	}
	if o.Status == model.OrderCancelled {
		p.Reason = o.Reason
		return p
	}
	p.Items = o.Items
	p.PaymentTableID = o.PaymentTableID
	return p
}

// CreateOrder transmits one order. The returned order carries the
// server-assigned code.
//
// Orders are transmitted strictly one at a time so the server never races on
// sequential code assignment for the same device.
func (c *Client) CreateOrder(ctx context.Context, o *model.Order) (*model.Order, error) {
	var resp orderResponse
	if err := c.do(ctx, "create_order", http.MethodPost, "/api/orders", nil, payloadFor(o), &resp); err != nil {
		return nil, err
	}

	out := *o
	out.Code = resp.Code
	c.logger.Printf("Order transmitted: %s (code %s)", out.ID, out.Code)
	return &out, nil
}

// CreateOrderWithItems transmits an order with an explicit item set, for
// callers that assemble items separately from the order header.
func (c *Client) CreateOrderWithItems(ctx context.Context, o *model.Order, items []model.OrderItem) (*model.Order, error) {
	withItems := *o
	withItems.Items = items
	return c.CreateOrder(ctx, &withItems)
}
