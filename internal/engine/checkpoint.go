package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Checkpoint persists the last_sync timestamp as an ISO-8601 string in a
// small standalone file, outside the main store, so it survives a store
// reset.
//
// The checkpoint tracks orchestration attempts, not record-level
// completeness: it advances after any run that completed without a run-level
// error, even when individual records failed, and is never moved backwards.
type Checkpoint struct {
	path string
	mu   sync.Mutex
	last time.Time
}

// OpenCheckpoint loads the checkpoint file at path, tolerating a missing
// file (zero last sync) but not a corrupt one.
func OpenCheckpoint(path string) (*Checkpoint, error) {
	c := &Checkpoint{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("corrupt checkpoint %q: %w", path, err)
	}
	c.last = t
	return c, nil
}

// LastSync returns the recorded completion time of the last successful run,
// or the zero time if no run has completed.
func (c *Checkpoint) LastSync() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Update advances the checkpoint to t and persists it. Timestamps earlier
// than the current value are ignored, keeping the checkpoint monotonic.
func (c *Checkpoint) Update(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !t.After(c.last) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	// Temp file + rename so a crash never truncates the checkpoint.
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(t.UTC().Format(time.RFC3339)+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}

	c.last = t
	return nil
}
