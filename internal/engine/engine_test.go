package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dcampos/fieldsync/internal/model"
	"github.com/dcampos/fieldsync/internal/remote"
	"github.com/dcampos/fieldsync/internal/store"
	"github.com/dcampos/fieldsync/internal/store/kvfile"
)

// fakeRemote is a scriptable RemoteAPI for pipeline tests.
type fakeRemote struct {
	mu sync.Mutex

	connOK  bool
	connErr error
	// connGate, when set, blocks TestConnection until closed.
	connGate chan struct{}

	createErr  map[string]error // per order ID
	nextCode   int
	created    []model.Order
	customers  []model.Client
	products   []model.Product
	payments   []model.PaymentTable
	salesReps  []model.SalesRep
	orders     []model.Order
	fetchErr   map[string]error // per endpoint name
	gotFilters remote.Filters
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		connOK:    true,
		createErr: make(map[string]error),
		fetchErr:  make(map[string]error),
		nextCode:  100,
	}
}

func (f *fakeRemote) TestConnection(ctx context.Context) (bool, error) {
	if f.connGate != nil {
		<-f.connGate
	}
	return f.connOK, f.connErr
}

func (f *fakeRemote) CreateOrder(ctx context.Context, o *model.Order) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.createErr[o.ID]; err != nil {
		return nil, err
	}
	out := *o
	f.nextCode++
	out.Code = "PED-" + time.Now().Format("20060102") + "-" + string(rune('A'+len(f.created)))
	f.created = append(f.created, out)
	return &out, nil
}

func (f *fakeRemote) GetCustomers(ctx context.Context, flt remote.Filters) ([]model.Client, error) {
	f.mu.Lock()
	f.gotFilters = flt
	f.mu.Unlock()
	if err := f.fetchErr["customers"]; err != nil {
		return nil, err
	}
	return f.customers, nil
}

func (f *fakeRemote) GetProducts(ctx context.Context, flt remote.Filters) ([]model.Product, error) {
	if err := f.fetchErr["products"]; err != nil {
		return nil, err
	}
	return f.products, nil
}

func (f *fakeRemote) GetPaymentTables(ctx context.Context) ([]model.PaymentTable, error) {
	if err := f.fetchErr["payment_tables"]; err != nil {
		return nil, err
	}
	return f.payments, nil
}

func (f *fakeRemote) GetSalesReps(ctx context.Context) ([]model.SalesRep, error) {
	if err := f.fetchErr["sales_reps"]; err != nil {
		return nil, err
	}
	return f.salesReps, nil
}

func (f *fakeRemote) GetOrders(ctx context.Context, flt remote.Filters) ([]model.Order, error) {
	if err := f.fetchErr["orders"]; err != nil {
		return nil, err
	}
	return f.orders, nil
}

func (f *fakeRemote) createdIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, len(f.created))
	for i, o := range f.created {
		ids[i] = o.ID
	}
	return ids
}

// newTestStore backs pipeline tests with the kvfile store: real persistence,
// no database file churn.
func newTestStore(t *testing.T) store.LocalStore {
	t.Helper()

	s, err := kvfile.Open(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func pendingOrder(id string, created time.Time) *model.Order {
	return &model.Order{
		SyncMeta: model.SyncMeta{ID: id, SyncStatus: model.StatusPendingSync},
		ClientID: "c1",
		Status:   model.OrderPending,
		Items: []model.OrderItem{
			{ProductID: "p1", Quantity: 2, UnitPrice: 5, Total: 10},
		},
		PaymentTableID: "pt1",
		Total:          10,
		CreatedAt:      created,
	}
}

func statusOf(t *testing.T, s store.LocalStore, id string) model.SyncStatus {
	t.Helper()
	o, err := s.OrderByID(context.Background(), id)
	require.NoError(t, err)
	return o.SyncStatus
}
