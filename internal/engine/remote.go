package engine

import (
	"context"

	"github.com/dcampos/fieldsync/internal/model"
	"github.com/dcampos/fieldsync/internal/remote"
)

// RemoteAPI is the slice of the remote client the engine depends on.
// *remote.Client satisfies it; tests substitute fakes.
type RemoteAPI interface {
	TestConnection(ctx context.Context) (bool, error)
	CreateOrder(ctx context.Context, o *model.Order) (*model.Order, error)
	GetCustomers(ctx context.Context, f remote.Filters) ([]model.Client, error)
	GetProducts(ctx context.Context, f remote.Filters) ([]model.Product, error)
	GetPaymentTables(ctx context.Context) ([]model.PaymentTable, error)
	GetSalesReps(ctx context.Context) ([]model.SalesRep, error)
	GetOrders(ctx context.Context, f remote.Filters) ([]model.Order, error)
}

var _ RemoteAPI = (*remote.Client)(nil)
