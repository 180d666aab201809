// Package kvfile implements the LocalStore contract on plain JSON files, one
// document per table, for targets without SQLite support.
//
// Each table lives in <dir>/<table>.json as an id-keyed object; the sync log
// is an append-only JSONL file. Every mutation rewrites the affected table
// file atomically (temp file + rename), so a crash never leaves a table
// half-written. Throughput is not a goal - the field device holds at most a
// few thousand records.
package kvfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dcampos/fieldsync/internal/model"
	"github.com/dcampos/fieldsync/internal/seedguard"
	"github.com/dcampos/fieldsync/internal/store"
)

func init() {
	store.Register(store.BackendKVFile, func(path string, guard *seedguard.Guard) (store.LocalStore, error) {
		return Open(path, guard)
	})
}

// Store is the file-backed LocalStore.
type Store struct {
	dir   string
	guard *seedguard.Guard
	mu    sync.Mutex // serializes read-modify-write cycles
}

// Open creates a store rooted at dir, creating the directory if needed.
func Open(dir string, guard *seedguard.Guard) (*Store, error) {
	if guard == nil {
		guard = seedguard.New(nil)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{dir: dir, guard: guard}, nil
}

// Init is a no-op beyond directory creation; table files are created lazily.
func (s *Store) Init(ctx context.Context) error { return nil }

// Close is a no-op; every mutation is already flushed to disk.
func (s *Store) Close() error { return nil }

func (s *Store) tablePath(table string) string {
	return filepath.Join(s.dir, table+".json")
}

// readTable unmarshals a table file into dest (a *map[string]T).
// A missing file yields an empty table.
func (s *Store) readTable(table string, dest interface{}) error {
	data, err := os.ReadFile(s.tablePath(table))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return store.NewStorageError("read", table, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return store.NewStorageError("read", table, fmt.Errorf("corrupt table file: %w", err))
	}
	return nil
}

// writeTable marshals the table and writes it atomically.
func (s *Store) writeTable(table string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return store.NewStorageError("write", table, err)
	}

	path := s.tablePath(table)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return store.NewStorageError("write", table, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return store.NewStorageError("write", table, err)
	}
	return nil
}

// ---- Orders ----

func (s *Store) loadOrders() (map[string]model.Order, error) {
	orders := make(map[string]model.Order)
	if err := s.readTable(model.TableOrders, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func sortOrders(m map[string]model.Order) []model.Order {
	out := make([]model.Order, 0, len(m))
	for _, o := range m {
		o.SyncStatus = model.NormalizeStatus(o.SyncStatus)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SaveOrder upserts an order by ID, repairing a missing ID and stamping
// updated_at.
func (s *Store) SaveOrder(ctx context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.loadOrders()
	if err != nil {
		return err
	}

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.SyncStatus = model.NormalizeStatus(o.SyncStatus)
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	o.UpdatedAt = time.Now().UTC()

	orders[o.ID] = *o
	return s.writeTable(model.TableOrders, orders)
}

// AllOrders returns every order including soft-deleted ones.
func (s *Store) AllOrders(ctx context.Context) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.loadOrders()
	if err != nil {
		return nil, err
	}
	return sortOrders(orders), nil
}

// OrderByID retrieves a single order. Returns store.ErrNotFound if absent.
func (s *Store) OrderByID(ctx context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.loadOrders()
	if err != nil {
		return nil, err
	}
	o, ok := orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o.SyncStatus = model.NormalizeStatus(o.SyncStatus)
	return &o, nil
}

// PendingSyncOrders returns exactly the orders with pending_sync status.
func (s *Store) PendingSyncOrders(ctx context.Context) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.loadOrders()
	if err != nil {
		return nil, err
	}

	var pending []model.Order
	for _, o := range sortOrders(orders) {
		if o.SyncStatus == model.StatusPendingSync {
			pending = append(pending, o)
		}
	}
	return pending, nil
}

// UpdateSyncStatus sets the sync status of one record. Idempotent.
func (s *Store) UpdateSyncStatus(ctx context.Context, table, id string, status model.SyncStatus) error {
	if !status.Valid() {
		return store.NewStorageError("update_sync_status", table, fmt.Errorf("invalid sync status %q", status))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch table {
	case model.TableOrders:
		orders, err := s.loadOrders()
		if err != nil {
			return err
		}
		o, ok := orders[id]
		if !ok {
			return store.ErrNotFound
		}
		if model.NormalizeStatus(o.SyncStatus) == status {
			return nil
		}
		o.SyncStatus = status
		o.UpdatedAt = time.Now().UTC()
		orders[id] = o
		return s.writeTable(model.TableOrders, orders)

	case model.TableClients:
		return updateStatus(s, table, id, status, func(c *model.Client) *model.SyncMeta { return &c.SyncMeta })
	case model.TableProducts:
		return updateStatus(s, table, id, status, func(p *model.Product) *model.SyncMeta { return &p.SyncMeta })
	case model.TablePaymentTables:
		return updateStatus(s, table, id, status, func(pt *model.PaymentTable) *model.SyncMeta { return &pt.SyncMeta })
	case model.TableSalesReps:
		return updateStatus(s, table, id, status, func(r *model.SalesRep) *model.SyncMeta { return &r.SyncMeta })
	}
	return store.NewStorageError("update_sync_status", table, fmt.Errorf("unknown table %q", table))
}

// updateStatus is the generic read-modify-write for reference tables.
// Caller holds s.mu.
func updateStatus[T any](s *Store, table, id string, status model.SyncStatus, meta func(*T) *model.SyncMeta) error {
	records := make(map[string]T)
	if err := s.readTable(table, &records); err != nil {
		return err
	}
	rec, ok := records[id]
	if !ok {
		return store.ErrNotFound
	}
	m := meta(&rec)
	if model.NormalizeStatus(m.SyncStatus) == status {
		return nil
	}
	m.SyncStatus = status
	m.UpdatedAt = time.Now().UTC()
	records[id] = rec
	return s.writeTable(table, records)
}

// DeleteOrder soft-deletes by flipping the status to deleted.
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	return s.UpdateSyncStatus(ctx, model.TableOrders, id, model.StatusDeleted)
}

// CountByStatus reports how many orders are in each sync status.
func (s *Store) CountByStatus(ctx context.Context) (map[model.SyncStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.loadOrders()
	if err != nil {
		return nil, err
	}
	counts := make(map[model.SyncStatus]int)
	for _, o := range orders {
		counts[model.NormalizeStatus(o.SyncStatus)]++
	}
	return counts, nil
}
