package kvfile

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/dcampos/fieldsync/internal/store"
)

const syncLogFile = "sync_log.jsonl"

// LogSync appends one JSONL entry to the sync log file.
func (s *Store) LogSync(ctx context.Context, typ, status, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, syncLogFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return store.NewStorageError("log_sync", "sync_log", err)
	}
	defer f.Close()

	entry := store.SyncLogEntry{
		Type:      typ,
		Status:    status,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return store.NewStorageError("log_sync", "sync_log", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return store.NewStorageError("log_sync", "sync_log", err)
	}
	return nil
}

// SyncLog returns the most recent entries, newest first.
func (s *Store) SyncLog(ctx context.Context, limit int) ([]store.SyncLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, syncLogFile)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, store.NewStorageError("sync_log", "sync_log", err)
	}
	defer f.Close()

	var entries []store.SyncLogEntry
	scanner := bufio.NewScanner(f)
	var id int64
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e store.SyncLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			// Skip corrupt lines rather than losing the whole log.
			continue
		}
		id++
		e.ID = id
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, store.NewStorageError("sync_log", "sync_log", err)
	}

	// Newest first, matching the SQLite backend.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
