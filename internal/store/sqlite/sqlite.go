// Package sqlite implements the LocalStore contract on an embedded SQLite
// database.
//
// The database runs in embedded mode with WAL for concurrent reads. Each
// statement commits independently; only the wholesale reference-table
// replacements run inside a transaction so a half-written download cannot
// leave a table empty.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/dcampos/fieldsync/internal/seedguard"
	"github.com/dcampos/fieldsync/internal/store"
)

func init() {
	store.Register(store.BackendSQLite, func(path string, guard *seedguard.Guard) (store.LocalStore, error) {
		return Open(path, guard)
	})
}

// Store is the SQLite-backed LocalStore.
type Store struct {
	conn  *sql.DB
	path  string
	guard *seedguard.Guard
}

// Open creates a database connection at the specified path.
//
// If the database doesn't exist it is created; call Init to create the
// schema. The caller MUST call Close when done.
//
// Example:
//
//	st, err := sqlite.Open(filepath.Join(dir, "fieldsync.db"), nil)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
func Open(path string, guard *seedguard.Guard) (*Store, error) {
	if guard == nil {
		guard = seedguard.New(nil)
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path, guard: guard}

	// WAL mode for concurrent reads during sync runs
	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return s, nil
}

// RawDB returns the underlying sql.DB connection.
// Useful for integrating with other libraries that expect *sql.DB.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close closes the database connection.
// Performs a WAL checkpoint to ensure all changes are persisted.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// Init creates the schema if it doesn't exist. Idempotent - safe to call
// multiple times.
func (s *Store) Init(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		company TEXT,
		document TEXT,
		email TEXT,
		phone TEXT,
		address TEXT,
		city TEXT,
		state TEXT,
		sales_rep_id TEXT,
		sync_status TEXT NOT NULL DEFAULT 'synced',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		price REAL NOT NULL DEFAULT 0,
		unit TEXT,
		category TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		sync_status TEXT NOT NULL DEFAULT 'synced',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payment_tables (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		description TEXT NOT NULL,
		installments INTEGER NOT NULL DEFAULT 1,
		discount REAL NOT NULL DEFAULT 0,
		sync_status TEXT NOT NULL DEFAULT 'synced',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sales_reps (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		code TEXT,
		sync_status TEXT NOT NULL DEFAULT 'synced',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		code TEXT,
		client_id TEXT NOT NULL,
		sales_rep_id TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		items TEXT,  -- JSON array of line items
		payment_table_id TEXT,
		total REAL NOT NULL DEFAULT 0,
		reason TEXT,
		notes TEXT,
		created_at TEXT NOT NULL,
		sync_status TEXT NOT NULL DEFAULT 'pending_sync',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sync_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		details TEXT,
		created_at TEXT NOT NULL
	);

	-- Indexes for sync queries
	CREATE INDEX IF NOT EXISTS idx_orders_sync_status ON orders(sync_status);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_orders_client ON orders(client_id);
	CREATE INDEX IF NOT EXISTS idx_sync_log_created ON sync_log(created_at);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return store.NewStorageError("init_schema", "", err)
	}
	return nil
}

// now returns the current time formatted for storage.
func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// parseTime parses a stored RFC3339 timestamp, returning the zero time on
// malformed legacy values rather than failing the whole scan.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
