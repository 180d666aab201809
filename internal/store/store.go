// Package store defines the local store contract consumed by the sync engine.
//
// The store is the only component that touches physical storage. Two backends
// implement the interface: an embedded SQLite database (store/sqlite) and a
// file-backed JSON key-value store (store/kvfile). Pipeline code depends only
// on this interface; the backend is chosen once at process start by Open.
//
// Writes are independently committed - callers must not assume atomicity
// across multiple Save calls.
package store

import (
	"context"
	"time"

	"github.com/dcampos/fieldsync/internal/model"
)

// LocalStore is the uniform CRUD and query facade over on-device storage.
//
// Every write path stamps updated_at and repairs missing record IDs, and the
// batch reference-data saves run the seed guard so placeholder fixtures never
// reach disk. Orders are soft-deleted; reference tables are hard-replaced.
type LocalStore interface {
	// Init creates the backing schema or files. Idempotent.
	Init(ctx context.Context) error
	Close() error

	// Reference data reads. Results exclude nothing; the seed guard runs at
	// save time, so stored rows are already clean.
	Clients(ctx context.Context) ([]model.Client, error)
	Products(ctx context.Context) ([]model.Product, error)
	PaymentTables(ctx context.Context) ([]model.PaymentTable, error)

	// Order reads.
	AllOrders(ctx context.Context) ([]model.Order, error)
	OrderByID(ctx context.Context, id string) (*model.Order, error)

	// PendingSyncOrders returns exactly the orders with sync_status
	// pending_sync, in stable (created_at, id) order. This is the only input
	// set for the upload pipeline.
	PendingSyncOrders(ctx context.Context) ([]model.Order, error)

	// UpdateSyncStatus sets the sync status of one record. Idempotent: setting
	// the same status twice is a no-op in effect. Unknown IDs are an error.
	UpdateSyncStatus(ctx context.Context, table, id string, status model.SyncStatus) error

	// SaveOrder upserts a single order by ID.
	SaveOrder(ctx context.Context, o *model.Order) error

	// SaveClients, SaveProducts and SavePaymentTables wholesale-replace their
	// table with the given batch, filtered through the seed guard. Safe
	// because reference data has no local-only mutation path.
	SaveClients(ctx context.Context, batch []model.Client) (saved int, err error)
	SaveProducts(ctx context.Context, batch []model.Product) (saved int, err error)
	SavePaymentTables(ctx context.Context, batch []model.PaymentTable) (saved int, err error)
	SaveSalesReps(ctx context.Context, batch []model.SalesRep) (saved int, err error)

	// DeleteOrder soft-deletes: the row is kept with sync_status deleted so a
	// later download pass cannot resurrect it.
	DeleteOrder(ctx context.Context, id string) error

	// LogSync appends an entry to the persistent sync log.
	LogSync(ctx context.Context, typ, status, details string) error
	SyncLog(ctx context.Context, limit int) ([]SyncLogEntry, error)

	// CountByStatus reports how many orders are in each sync status.
	CountByStatus(ctx context.Context) (map[model.SyncStatus]int, error)
}

// SyncLogEntry is one row of the persistent sync audit log.
type SyncLogEntry struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
