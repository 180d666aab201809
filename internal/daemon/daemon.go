// Package daemon runs automatic background syncs.
//
// The daemon:
// 1. Performs an initial sync attempt on startup
// 2. Re-syncs on a configurable interval while auto-sync is enabled
// 3. Watches the data directory so order writes from another process
//    schedule an extra attempt (debounced)
// 4. Handles graceful shutdown
//
// The orchestrator's single-flight guard makes overlapping triggers
// harmless: a trigger that lands mid-run is simply turned away. The engine's
// own store writes are absorbed, so a completed run never schedules the next
// one by itself.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dcampos/fieldsync/internal/engine"
)

// Config holds daemon configuration.
type Config struct {
	// DebounceInterval is how long to wait after a file change before
	// triggering, batching rapid writes together.
	DebounceInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 2 * time.Second,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon triggers orchestration runs from timers and file events.
type Daemon struct {
	orchestrator *engine.Orchestrator
	watchDir     string
	config       *Config

	watcher    *fsnotify.Watcher
	pending    time.Time // zero when no change is queued
	quietUntil time.Time // events before this are a finished run's own writes
	pendingMu  sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon watching watchDir (the store's data directory).
func New(orch *engine.Orchestrator, watchDir string, config *Config) (*Daemon, error) {
	if orch == nil {
		return nil, fmt.Errorf("orchestrator cannot be nil")
	}
	if watchDir == "" {
		return nil, fmt.Errorf("watchDir cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	defaults := DefaultConfig()
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = defaults.DebounceInterval
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		orchestrator: orch,
		watchDir:     watchDir,
		config:       config,
		watcher:      watcher,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start begins the daemon's operation. Blocks until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting sync daemon")

	if err := d.watcher.Add(d.watchDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", d.watchDir, err)
	}
	d.config.Logger.Printf("Watching: %s", d.watchDir)

	// Initial attempt so a device that was offline overnight catches up
	// immediately rather than waiting a full interval.
	d.trigger("startup")

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.scheduleLoop()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon. An in-flight sync run finishes; only
// future triggers are suppressed.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping sync daemon")
	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}
	d.wg.Wait()
	d.config.Logger.Println("Sync daemon stopped")
	return nil
}

// watchFileEvents queues a debounced trigger for relevant store writes.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			// Only store files; rotating logs and checkpoints also live
			// under the data dir.
			switch filepath.Ext(event.Name) {
			case ".db", ".json", ".jsonl":
			default:
				continue
			}
			d.queueChange()

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

func (d *Daemon) queueChange() {
	// Every run writes the store itself (status flips, sync log, reference
	// replacements); those events must not schedule the next run or the
	// daemon loops forever with no external writes.
	if d.orchestrator.InProgress() {
		return
	}

	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	if time.Now().Before(d.quietUntil) {
		return
	}
	d.pending = time.Now()
}

// absorbRunWrites clears anything queued during the run and opens a short
// quiet window for events fsnotify delivers after the run already ended.
func (d *Daemon) absorbRunWrites() {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	d.pending = time.Time{}
	d.quietUntil = time.Now().Add(d.config.DebounceInterval)
}

// scheduleLoop fires interval syncs and flushes debounced change triggers.
// The interval is re-read on every debounce tick so a settings change takes
// effect without a daemon restart.
func (d *Daemon) scheduleLoop() {
	defer d.wg.Done()

	interval := d.syncInterval()
	intervalTicker := time.NewTicker(interval)
	defer intervalTicker.Stop()
	debounceTicker := time.NewTicker(d.config.DebounceInterval)
	defer debounceTicker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-intervalTicker.C:
			d.trigger("interval")

		case <-debounceTicker.C:
			if cur := d.syncInterval(); cur != interval {
				d.config.Logger.Printf("Sync interval changed: %v -> %v", interval, cur)
				interval = cur
				intervalTicker.Reset(interval)
			}

			d.pendingMu.Lock()
			fire := !d.pending.IsZero() && time.Since(d.pending) >= d.config.DebounceInterval
			if fire {
				d.pending = time.Time{}
			}
			d.pendingMu.Unlock()

			if fire {
				d.trigger("local change")
			}
		}
	}
}

func (d *Daemon) syncInterval() time.Duration {
	interval := d.orchestrator.GetSyncSettings().Interval
	if interval <= 0 {
		return engine.DefaultSyncSettings().Interval
	}
	return interval
}

// trigger runs one sync attempt unless auto-sync is disabled.
func (d *Daemon) trigger(reason string) {
	if !d.orchestrator.GetSyncSettings().AutoSync {
		return
	}
	d.config.Logger.Printf("Sync triggered (%s)", reason)
	if !d.orchestrator.Sync(d.ctx) {
		d.config.Logger.Println("Sync already in progress, skipping")
		return
	}
	d.absorbRunWrites()
}
