package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dcampos/fieldsync/internal/model"
	"github.com/dcampos/fieldsync/internal/store"
)

const orderColumns = `id, code, client_id, sales_rep_id, status, items,
	payment_table_id, total, reason, notes, created_at, sync_status, updated_at`

// SaveOrder upserts an order by ID.
//
// A missing ID is repaired with a fresh UUID, a missing sync status becomes
// pending_sync, and updated_at is stamped. Duplicate saves are upserts, never
// errors.
func (s *Store) SaveOrder(ctx context.Context, o *model.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.SyncStatus = model.NormalizeStatus(o.SyncStatus)
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	o.UpdatedAt = time.Now().UTC()

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return store.NewStorageError("save_order", model.TableOrders, fmt.Errorf("failed to marshal items: %w", err))
	}

	query := `
	INSERT INTO orders (` + orderColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		code = excluded.code,
		client_id = excluded.client_id,
		sales_rep_id = excluded.sales_rep_id,
		status = excluded.status,
		items = excluded.items,
		payment_table_id = excluded.payment_table_id,
		total = excluded.total,
		reason = excluded.reason,
		notes = excluded.notes,
		sync_status = excluded.sync_status,
		updated_at = excluded.updated_at
	`

	_, err = s.conn.ExecContext(ctx, query,
		o.ID,
		o.Code,
		o.ClientID,
		o.SalesRepID,
		string(o.Status),
		string(itemsJSON),
		o.PaymentTableID,
		o.Total,
		o.Reason,
		o.Notes,
		o.CreatedAt.UTC().Format(time.RFC3339),
		string(o.SyncStatus),
		o.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return store.NewStorageError("save_order", model.TableOrders, err)
	}
	return nil
}

// AllOrders returns every order, including soft-deleted ones, ordered by
// creation time. Callers filter deleted rows for display.
func (s *Store) AllOrders(ctx context.Context) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at ASC, id ASC`
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, store.NewStorageError("all_orders", model.TableOrders, err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// OrderByID retrieves a single order. Returns store.ErrNotFound if absent.
func (s *Store) OrderByID(ctx context.Context, id string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	row := s.conn.QueryRowContext(ctx, query, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.NewStorageError("order_by_id", model.TableOrders, err)
	}
	return o, nil
}

// PendingSyncOrders returns exactly the orders awaiting transmission, in
// stable snapshot order. Legacy rows with an empty status count as pending.
func (s *Store) PendingSyncOrders(ctx context.Context) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE sync_status = ? OR sync_status = ''
		ORDER BY created_at ASC, id ASC`
	rows, err := s.conn.QueryContext(ctx, query, string(model.StatusPendingSync))
	if err != nil {
		return nil, store.NewStorageError("pending_sync", model.TableOrders, err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// UpdateSyncStatus sets the sync status of one record. Idempotent: when the
// record already carries the target status nothing is written, so repeated
// calls leave the row byte-identical.
func (s *Store) UpdateSyncStatus(ctx context.Context, table, id string, status model.SyncStatus) error {
	if !status.Valid() {
		return store.NewStorageError("update_sync_status", table, fmt.Errorf("invalid sync status %q", status))
	}
	if !validTable(table) {
		return store.NewStorageError("update_sync_status", table, fmt.Errorf("unknown table %q", table))
	}

	var current string
	err := s.conn.QueryRowContext(ctx,
		fmt.Sprintf("SELECT sync_status FROM %s WHERE id = ?", table), id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return store.NewStorageError("update_sync_status", table, err)
	}
	if model.SyncStatus(current) == status {
		return nil
	}

	_, err = s.conn.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET sync_status = ?, updated_at = ? WHERE id = ?", table),
		string(status), now(), id)
	if err != nil {
		return store.NewStorageError("update_sync_status", table, err)
	}
	return nil
}

// DeleteOrder soft-deletes: the row is kept with sync_status deleted so the
// audit trail survives and a later download pass cannot resurrect it.
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	return s.UpdateSyncStatus(ctx, model.TableOrders, id, model.StatusDeleted)
}

// CountByStatus reports how many orders are in each sync status.
func (s *Store) CountByStatus(ctx context.Context) (map[model.SyncStatus]int, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT sync_status, COUNT(*) FROM orders GROUP BY sync_status")
	if err != nil {
		return nil, store.NewStorageError("count_by_status", model.TableOrders, err)
	}
	defer rows.Close()

	counts := make(map[model.SyncStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, store.NewStorageError("count_by_status", model.TableOrders, err)
		}
		counts[model.NormalizeStatus(model.SyncStatus(status))] += n
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError("count_by_status", model.TableOrders, err)
	}
	return counts, nil
}

// validTable guards against interpolating arbitrary strings into queries.
func validTable(table string) bool {
	switch table {
	case model.TableClients, model.TableProducts, model.TablePaymentTables,
		model.TableOrders, model.TableSalesReps:
		return true
	}
	return false
}

// rowScanner abstracts *sql.Row and *sql.Rows for the order scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	var itemsJSON sql.NullString
	var code, salesRepID, paymentTableID, reason, notes sql.NullString
	var status, syncStatus, createdAt, updatedAt string

	err := row.Scan(
		&o.ID,
		&code,
		&o.ClientID,
		&salesRepID,
		&status,
		&itemsJSON,
		&paymentTableID,
		&o.Total,
		&reason,
		&notes,
		&createdAt,
		&syncStatus,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Code = code.String
	o.SalesRepID = salesRepID.String
	o.PaymentTableID = paymentTableID.String
	o.Reason = reason.String
	o.Notes = notes.String
	o.Status = model.OrderStatus(status)
	o.SyncStatus = model.NormalizeStatus(model.SyncStatus(syncStatus))
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)

	if itemsJSON.Valid && itemsJSON.String != "" && itemsJSON.String != "null" {
		if err := json.Unmarshal([]byte(itemsJSON.String), &o.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
	}
	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}
