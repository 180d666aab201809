package remote

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dcampos/fieldsync/internal/model"
)

// Filters scopes a reference-data download to an explicit ID set, used when
// the server signals that a partial update is available. Empty filters mean
// the full dataset.
type Filters struct {
	CustomerIDs []string
	ProductIDs  []string
	SalesRepID  string
}

func (f Filters) query(ids []string, repID bool) url.Values {
	q := url.Values{}
	if len(ids) > 0 {
		q.Set("ids", strings.Join(ids, ","))
	}
	if repID && f.SalesRepID != "" {
		q.Set("sales_rep_id", f.SalesRepID)
	}
	if len(q) == 0 {
		return nil
	}
	return q
}

// GetCustomers fetches the authoritative client list, optionally scoped by
// customer IDs and sales-rep.
func (c *Client) GetCustomers(ctx context.Context, f Filters) ([]model.Client, error) {
	var out []model.Client
	if err := c.do(ctx, "get_customers", http.MethodGet, "/api/customers", f.query(f.CustomerIDs, true), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProducts fetches the authoritative product list, optionally scoped by
// product IDs.
func (c *Client) GetProducts(ctx context.Context, f Filters) ([]model.Product, error) {
	var out []model.Product
	if err := c.do(ctx, "get_products", http.MethodGet, "/api/products", f.query(f.ProductIDs, false), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPaymentTables fetches the authoritative payment table list.
func (c *Client) GetPaymentTables(ctx context.Context) ([]model.PaymentTable, error) {
	var out []model.PaymentTable
	if err := c.do(ctx, "get_payment_tables", http.MethodGet, "/api/payment-tables", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSalesReps fetches the sales rep list.
func (c *Client) GetSalesReps(ctx context.Context) ([]model.SalesRep, error) {
	var out []model.SalesRep
	if err := c.do(ctx, "get_sales_reps", http.MethodGet, "/api/sales-reps", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrders fetches orders already known to the server, scoped to the current
// sales rep. Used by the download pipeline's insert-if-absent pass.
func (c *Client) GetOrders(ctx context.Context, f Filters) ([]model.Order, error) {
	var out []model.Order
	if err := c.do(ctx, "get_orders", http.MethodGet, "/api/orders", f.query(nil, true), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
