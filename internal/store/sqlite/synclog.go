package sqlite

import (
	"context"
	"database/sql"

	"github.com/dcampos/fieldsync/internal/store"
)

// LogSync appends an entry to the persistent sync log.
func (s *Store) LogSync(ctx context.Context, typ, status, details string) error {
	_, err := s.conn.ExecContext(ctx,
		"INSERT INTO sync_log (type, status, details, created_at) VALUES (?, ?, ?, ?)",
		typ, status, details, now())
	if err != nil {
		return store.NewStorageError("log_sync", "sync_log", err)
	}
	return nil
}

// SyncLog returns the most recent log entries, newest first.
// limit <= 0 returns everything.
func (s *Store) SyncLog(ctx context.Context, limit int) ([]store.SyncLogEntry, error) {
	query := "SELECT id, type, status, details, created_at FROM sync_log ORDER BY id DESC"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.NewStorageError("sync_log", "sync_log", err)
	}
	defer rows.Close()

	var entries []store.SyncLogEntry
	for rows.Next() {
		var e store.SyncLogEntry
		var details sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Type, &e.Status, &details, &createdAt); err != nil {
			return nil, store.NewStorageError("sync_log", "sync_log", err)
		}
		e.Details = details.String
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError("sync_log", "sync_log", err)
	}
	return entries, nil
}
