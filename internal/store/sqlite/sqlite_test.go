package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dcampos/fieldsync/internal/model"
	"github.com/dcampos/fieldsync/internal/store"
)

// setupTestStore creates a temporary database for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	return s
}

func testOrder(id string) *model.Order {
	return &model.Order{
		SyncMeta: model.SyncMeta{ID: id, SyncStatus: model.StatusPendingSync},
		ClientID: "c1",
		Status:   model.OrderPending,
		Items: []model.OrderItem{
			{ProductID: "p1", Quantity: 3, UnitPrice: 10, Total: 30},
		},
		PaymentTableID: "pt1",
		Total:          30,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestInitIdempotent(t *testing.T) {
	s := setupTestStore(t)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
}

func TestSaveAndLoadOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	o := testOrder("o1")
	o.Notes = "deliver friday"
	if err := s.SaveOrder(ctx, o); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}

	got, err := s.OrderByID(ctx, "o1")
	if err != nil {
		t.Fatalf("OrderByID: %v", err)
	}
	if got.ClientID != "c1" || got.Notes != "deliver friday" {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].ProductID != "p1" {
		t.Errorf("round trip lost items: %+v", got.Items)
	}
	if got.SyncStatus != model.StatusPendingSync {
		t.Errorf("got status %q, want pending_sync", got.SyncStatus)
	}
	if got.UpdatedAt.IsZero() {
		t.Errorf("updated_at not stamped")
	}
}

func TestSaveOrderRepairsIdentity(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	o := testOrder("")
	o.SyncStatus = ""
	if err := s.SaveOrder(ctx, o); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}
	if o.ID == "" {
		t.Fatalf("missing ID not repaired")
	}
	if o.SyncStatus != model.StatusPendingSync {
		t.Errorf("empty status not normalized: %q", o.SyncStatus)
	}
}

func TestSaveOrderUpsert(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	o := testOrder("o1")
	if err := s.SaveOrder(ctx, o); err != nil {
		t.Fatalf("first save: %v", err)
	}
	o.Total = 99
	if err := s.SaveOrder(ctx, o); err != nil {
		t.Fatalf("second save: %v", err)
	}

	all, err := s.AllOrders(ctx)
	if err != nil {
		t.Fatalf("AllOrders: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d orders, want 1", len(all))
	}
	if all[0].Total != 99 {
		t.Errorf("upsert did not update total: %v", all[0].Total)
	}
}

func TestOrderByIDNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.OrderByID(context.Background(), "missing")
	if !store.IsNotFound(err) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestPendingSyncOrders(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"o1", "o2", "o3"} {
		o := testOrder(id)
		o.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.SaveOrder(ctx, o); err != nil {
			t.Fatalf("SaveOrder(%s): %v", id, err)
		}
	}
	if err := s.UpdateSyncStatus(ctx, model.TableOrders, "o2", model.StatusSynced); err != nil {
		t.Fatalf("UpdateSyncStatus: %v", err)
	}

	pending, err := s.PendingSyncOrders(ctx)
	if err != nil {
		t.Fatalf("PendingSyncOrders: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d pending, want 2", len(pending))
	}
	if pending[0].ID != "o1" || pending[1].ID != "o3" {
		t.Errorf("wrong order or membership: %s, %s", pending[0].ID, pending[1].ID)
	}
}

func TestUpdateSyncStatus(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveOrder(ctx, testOrder("o1")); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}

	if err := s.UpdateSyncStatus(ctx, model.TableOrders, "o1", model.StatusTransmitted); err != nil {
		t.Fatalf("UpdateSyncStatus: %v", err)
	}
	got, err := s.OrderByID(ctx, "o1")
	if err != nil {
		t.Fatalf("OrderByID: %v", err)
	}
	if got.SyncStatus != model.StatusTransmitted {
		t.Errorf("got status %q, want transmitted", got.SyncStatus)
	}

	// Unknown ID is an error, not a silent no-op.
	if err := s.UpdateSyncStatus(ctx, model.TableOrders, "missing", model.StatusSynced); !store.IsNotFound(err) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}

	// Invalid inputs are rejected before touching the database.
	if err := s.UpdateSyncStatus(ctx, model.TableOrders, "o1", "bogus"); err == nil {
		t.Errorf("invalid status accepted")
	}
	if err := s.UpdateSyncStatus(ctx, "orders; DROP TABLE orders", "o1", model.StatusSynced); err == nil {
		t.Errorf("invalid table accepted")
	}
}

func TestUpdateSyncStatusIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveOrder(ctx, testOrder("o1")); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}
	if err := s.UpdateSyncStatus(ctx, model.TableOrders, "o1", model.StatusSynced); err != nil {
		t.Fatalf("first update: %v", err)
	}

	before, err := s.OrderByID(ctx, "o1")
	if err != nil {
		t.Fatalf("OrderByID: %v", err)
	}

	if err := s.UpdateSyncStatus(ctx, model.TableOrders, "o1", model.StatusSynced); err != nil {
		t.Fatalf("repeated update: %v", err)
	}
	after, err := s.OrderByID(ctx, "o1")
	if err != nil {
		t.Fatalf("OrderByID: %v", err)
	}

	if !before.UpdatedAt.Equal(after.UpdatedAt) {
		t.Errorf("idempotent update touched the row: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestDeleteOrderIsSoft(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveOrder(ctx, testOrder("o1")); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}
	if err := s.DeleteOrder(ctx, "o1"); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}

	got, err := s.OrderByID(ctx, "o1")
	if err != nil {
		t.Fatalf("deleted order should remain readable: %v", err)
	}
	if got.SyncStatus != model.StatusDeleted {
		t.Errorf("got status %q, want deleted", got.SyncStatus)
	}

	pending, err := s.PendingSyncOrders(ctx)
	if err != nil {
		t.Fatalf("PendingSyncOrders: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("deleted order still pending")
	}
}

func TestSaveClientsReplacesAndFilters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := []model.Client{
		{SyncMeta: model.SyncMeta{ID: "c1"}, Name: "Padaria Central"},
		{SyncMeta: model.SyncMeta{ID: "c2"}, Name: "Cliente Teste"},
	}
	saved, err := s.SaveClients(ctx, first)
	if err != nil {
		t.Fatalf("SaveClients: %v", err)
	}
	if saved != 1 {
		t.Fatalf("got %d saved, want 1 (seed filtered)", saved)
	}

	// Second batch wholesale-replaces the first.
	second := []model.Client{
		{SyncMeta: model.SyncMeta{ID: "c3"}, Name: "Mercado Sul"},
	}
	if _, err := s.SaveClients(ctx, second); err != nil {
		t.Fatalf("SaveClients: %v", err)
	}

	clients, err := s.Clients(ctx)
	if err != nil {
		t.Fatalf("Clients: %v", err)
	}
	if len(clients) != 1 || clients[0].ID != "c3" {
		t.Errorf("replace semantics violated: %+v", clients)
	}
	if clients[0].SyncStatus != model.StatusSynced {
		t.Errorf("downloaded client not tagged synced: %q", clients[0].SyncStatus)
	}
}

func TestSaveProductsFiltersSeeds(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	batch := []model.Product{
		{SyncMeta: model.SyncMeta{ID: "p1"}, Code: "A100", Name: "Farinha 5kg", Price: 20},
		{SyncMeta: model.SyncMeta{ID: "p2"}, Code: "A101", Name: "Produto Premium", Price: 1},
		{SyncMeta: model.SyncMeta{ID: "p3"}, Code: "000", Name: "Acucar", Price: 5},
	}
	saved, err := s.SaveProducts(ctx, batch)
	if err != nil {
		t.Fatalf("SaveProducts: %v", err)
	}
	if saved != 1 {
		t.Fatalf("got %d saved, want 1", saved)
	}

	products, err := s.Products(ctx)
	if err != nil {
		t.Fatalf("Products: %v", err)
	}
	if len(products) != 1 || products[0].Code != "A100" {
		t.Errorf("wrong survivors: %+v", products)
	}
}

func TestCountByStatus(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"o1", "o2", "o3"} {
		if err := s.SaveOrder(ctx, testOrder(id)); err != nil {
			t.Fatalf("SaveOrder: %v", err)
		}
	}
	if err := s.UpdateSyncStatus(ctx, model.TableOrders, "o3", model.StatusSynced); err != nil {
		t.Fatalf("UpdateSyncStatus: %v", err)
	}

	counts, err := s.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[model.StatusPendingSync] != 2 || counts[model.StatusSynced] != 1 {
		t.Errorf("wrong counts: %v", counts)
	}
}

func TestSyncLog(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.LogSync(ctx, "upload", "ok", "batch"); err != nil {
			t.Fatalf("LogSync: %v", err)
		}
	}

	entries, err := s.SyncLog(ctx, 2)
	if err != nil {
		t.Fatalf("SyncLog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID < entries[1].ID {
		t.Errorf("log not newest-first: %d before %d", entries[0].ID, entries[1].ID)
	}
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := s.SaveOrder(ctx, testOrder("o1")); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.OrderByID(ctx, "o1")
	if err != nil {
		t.Fatalf("OrderByID after reopen: %v", err)
	}
	if got.SyncStatus != model.StatusPendingSync {
		t.Errorf("queued order lost across restart: %q", got.SyncStatus)
	}
}
