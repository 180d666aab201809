package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcampos/fieldsync/internal/model"
	"github.com/dcampos/fieldsync/internal/remote"
)

func seedRemoteReference(rc *fakeRemote) {
	rc.customers = []model.Client{
		{SyncMeta: model.SyncMeta{ID: "c1"}, Name: "Padaria Central"},
		{SyncMeta: model.SyncMeta{ID: "c2"}, Name: "Mercado Sul"},
	}
	rc.products = []model.Product{
		{SyncMeta: model.SyncMeta{ID: "p1"}, Code: "A100", Name: "Farinha 5kg", Price: 20},
	}
	rc.payments = []model.PaymentTable{
		{SyncMeta: model.SyncMeta{ID: "pt1"}, Code: "30d", Description: "30 dias", Installments: 1},
	}
}

func TestDownloadDefaultSet(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()
	seedRemoteReference(rc)

	d := NewDownloader(st, rc, nil, nil)
	res, err := d.DownloadReferenceData(context.Background(), DownloadRequest{})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Downloaded)
	assert.Equal(t, 2, res.PerType[DataCustomers])
	assert.Equal(t, 1, res.PerType[DataProducts])
	assert.Equal(t, 1, res.PerType[DataPaymentTables])
	assert.Empty(t, res.Failures)
	assert.NotContains(t, res.PerType, DataSalesReps, "sales reps only on request")
	assert.NotContains(t, res.PerType, DataOrders, "orders only on request")

	clients, err := st.Clients(context.Background())
	require.NoError(t, err)
	assert.Len(t, clients, 2)
}

func TestDownloadReplacesReferenceData(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()
	seedRemoteReference(rc)
	ctx := context.Background()

	d := NewDownloader(st, rc, nil, nil)
	_, err := d.DownloadReferenceData(ctx, DownloadRequest{})
	require.NoError(t, err)

	// Server dataset shrank; the local table must follow wholesale.
	rc.customers = rc.customers[:1]
	_, err = d.DownloadReferenceData(ctx, DownloadRequest{})
	require.NoError(t, err)

	clients, err := st.Clients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "c1", clients[0].ID)
}

func TestDownloadFiltersSeedRecords(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()
	rc.customers = []model.Client{
		{SyncMeta: model.SyncMeta{ID: "c1"}, Name: "Padaria Central"},
		{SyncMeta: model.SyncMeta{ID: "c2"}, Name: "Cliente Teste"},
	}
	rc.products = []model.Product{
		{SyncMeta: model.SyncMeta{ID: "p1"}, Code: "A100", Name: "Farinha 5kg", Price: 20},
		{SyncMeta: model.SyncMeta{ID: "p2"}, Code: "A101", Name: "Produto Premium", Price: 1},
	}

	d := NewDownloader(st, rc, nil, nil)
	res, err := d.DownloadReferenceData(context.Background(),
		DownloadRequest{Types: []DataType{DataCustomers, DataProducts}})
	require.NoError(t, err)

	assert.Equal(t, 1, res.PerType[DataCustomers])
	assert.Equal(t, 1, res.PerType[DataProducts])

	products, err := st.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Farinha 5kg", products[0].Name)
}

func TestDownloadPerTypeIsolation(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()
	seedRemoteReference(rc)
	rc.fetchErr["products"] = &remote.RemoteRejection{Op: "get_products", Status: 500, Body: "boom"}

	d := NewDownloader(st, rc, nil, nil)
	res, err := d.DownloadReferenceData(context.Background(), DownloadRequest{})
	require.NoError(t, err, "a single failing type is not a run-level error")

	assert.Contains(t, res.Failures, DataProducts)
	assert.Equal(t, 2, res.PerType[DataCustomers], "siblings unaffected")
	assert.Equal(t, 1, res.PerType[DataPaymentTables])
}

func TestDownloadAuthErrorAborts(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()
	seedRemoteReference(rc)
	rc.fetchErr["customers"] = &remote.AuthenticationError{Status: 403}

	d := NewDownloader(st, rc, nil, nil)
	_, err := d.DownloadReferenceData(context.Background(), DownloadRequest{})
	require.Error(t, err)
	assert.True(t, remote.IsAuthError(err))
}

func TestDownloadPassesFilters(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()
	seedRemoteReference(rc)

	d := NewDownloader(st, rc, nil, nil)
	_, err := d.DownloadReferenceData(context.Background(), DownloadRequest{
		Types:   []DataType{DataCustomers},
		Filters: remote.Filters{SalesRepID: "rep1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "rep1", rc.gotFilters.SalesRepID)
}

func TestMergeOrdersInsertIfAbsent(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()
	ctx := context.Background()

	rc.orders = []model.Order{
		{
			SyncMeta:  model.SyncMeta{ID: "server-1", SyncStatus: model.StatusSynced},
			Code:      "PED-0001",
			ClientID:  "c1",
			Status:    model.OrderProcessed,
			Total:     50,
			CreatedAt: time.Now().UTC(),
		},
	}

	d := NewDownloader(st, rc, nil, nil)
	res, err := d.DownloadReferenceData(ctx, DownloadRequest{Types: []DataType{DataOrders}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PerType[DataOrders])

	got, err := st.OrderByID(ctx, "server-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSynced, got.SyncStatus)
	assert.Equal(t, "PED-0001", got.Code)
}

func TestMergeOrdersNeverClobbersLocalState(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()
	ctx := context.Background()

	// Local orders in every lifecycle state.
	states := map[string]model.SyncStatus{
		"o-pending":     model.StatusPendingSync,
		"o-transmitted": model.StatusTransmitted,
		"o-error":       model.StatusError,
		"o-deleted":     model.StatusDeleted,
	}
	for id, status := range states {
		o := pendingOrder(id, time.Now().UTC())
		o.SyncStatus = status
		o.Total = 10
		require.NoError(t, st.SaveOrder(ctx, o))
	}

	// The server echoes all of them back, with a different total.
	for id := range states {
		rc.orders = append(rc.orders, model.Order{
			SyncMeta:  model.SyncMeta{ID: id, SyncStatus: model.StatusSynced},
			ClientID:  "c1",
			Status:    model.OrderProcessed,
			Total:     999,
			CreatedAt: time.Now().UTC(),
		})
	}

	d := NewDownloader(st, rc, nil, nil)
	res, err := d.DownloadReferenceData(ctx, DownloadRequest{Types: []DataType{DataOrders}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.PerType[DataOrders], "nothing inserted, all IDs known")

	// Transmitted is confirmed synced; every other state is untouched.
	assert.Equal(t, model.StatusSynced, statusOf(t, st, "o-transmitted"))
	assert.Equal(t, model.StatusPendingSync, statusOf(t, st, "o-pending"))
	assert.Equal(t, model.StatusError, statusOf(t, st, "o-error"))
	assert.Equal(t, model.StatusDeleted, statusOf(t, st, "o-deleted"), "soft-deleted orders are not resurrected")

	// Payloads of existing orders are never overwritten.
	got, err := st.OrderByID(ctx, "o-pending")
	require.NoError(t, err)
	assert.Equal(t, float64(10), got.Total)
}
