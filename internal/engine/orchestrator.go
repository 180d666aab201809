package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dcampos/fieldsync/internal/remote"
)

// SyncResult summarizes one orchestration run.
type SyncResult struct {
	Started    time.Time           `json:"started"`
	Finished   time.Time           `json:"finished"`
	Uploaded   int                 `json:"uploaded"`
	Failed     int                 `json:"failed"`
	Downloaded int                 `json:"downloaded"`
	PerType    map[DataType]int    `json:"per_type,omitempty"`
	Failures   map[DataType]string `json:"failures,omitempty"`
	NoNetwork  bool                `json:"no_network,omitempty"`
	Err        string              `json:"error,omitempty"`
}

// Orchestrator sequences upload before download, reports progress, persists
// the last-sync checkpoint and enforces the single-flight guarantee.
//
// Upload runs first so locally-pending work reaches the server before the
// authoritative dataset is re-pulled; orders are additionally exempt from
// replacement, so the ordering only narrows the shadow window further.
type Orchestrator struct {
	uploader   *Uploader
	downloader *Downloader
	checkpoint *Checkpoint
	notifier   *Notifier
	settings   SettingsStore
	remote     RemoteAPI
	logger     *log.Logger

	inProgress atomic.Bool

	mu   sync.Mutex
	last *SyncResult

	// DownloadTypes overrides the collections pulled each run; nil means
	// DefaultDataTypes.
	DownloadTypes []DataType

	// Filters scope every download pass, e.g. to the logged-in sales rep.
	Filters remote.Filters
}

// Config wires an Orchestrator.
type Config struct {
	Uploader   *Uploader
	Downloader *Downloader
	Checkpoint *Checkpoint
	Notifier   *Notifier
	Settings   SettingsStore
	Remote     RemoteAPI
	Logger     *log.Logger
}

// NewOrchestrator builds the engine facade.
func NewOrchestrator(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NewNotifier()
	}
	return &Orchestrator{
		uploader:   cfg.Uploader,
		downloader: cfg.Downloader,
		checkpoint: cfg.Checkpoint,
		notifier:   notifier,
		settings:   cfg.Settings,
		remote:     cfg.Remote,
		logger:     logger,
	}
}

// Notifier exposes the engine's event fan-out for UI surfaces.
func (o *Orchestrator) Notifier() *Notifier { return o.notifier }

// InProgress reports whether a run is currently executing.
func (o *Orchestrator) InProgress() bool { return o.inProgress.Load() }

// LastSync returns the persisted checkpoint value.
func (o *Orchestrator) LastSync() time.Time { return o.checkpoint.LastSync() }

// LastResult returns the outcome of the most recent run, or nil.
func (o *Orchestrator) LastResult() *SyncResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// GetSyncSettings returns the current settings.
func (o *Orchestrator) GetSyncSettings() SyncSettings {
	if o.settings == nil {
		return DefaultSyncSettings()
	}
	return o.settings.GetSyncSettings()
}

// UpdateSyncSettings persists new settings.
func (o *Orchestrator) UpdateSyncSettings(s SyncSettings) error {
	if o.settings == nil {
		return fmt.Errorf("no settings store configured")
	}
	return o.settings.UpdateSyncSettings(s)
}

// Sync performs one orchestration run: connectivity check, upload, download,
// checkpoint.
//
// Returns false immediately, touching neither store nor network, when a run
// is already in progress - concurrent callers are turned away, not queued.
// Returns true when a run was performed, even if it failed; inspect
// LastResult for the outcome. Cancellation via ctx takes effect between
// records only.
func (o *Orchestrator) Sync(ctx context.Context) bool {
	if !o.inProgress.CompareAndSwap(false, true) {
		return false
	}
	defer o.inProgress.Store(false)

	res := o.run(ctx)

	o.mu.Lock()
	o.last = res
	o.mu.Unlock()

	o.notifier.notifyStatus(StageIdle)
	o.report(res)
	return true
}

func (o *Orchestrator) run(ctx context.Context) *SyncResult {
	res := &SyncResult{Started: time.Now()}
	defer func() {
		if res.Finished.IsZero() {
			res.Finished = time.Now()
		}
	}()

	o.notifier.notifyStatus(StageCheckingConnection)
	ok, err := o.remote.TestConnection(ctx)
	if err != nil {
		res.Err = fmt.Sprintf("connection check: %v", err)
		return res
	}
	if !ok {
		o.logger.Println("No connection, skipping sync")
		res.NoNetwork = true
		return res
	}

	o.notifier.notifyStatus(StageUploading)
	up, err := o.uploader.UploadPending(ctx)
	res.Uploaded = up.Uploaded
	res.Failed = up.Failed
	if err != nil {
		// Run-level failure: abort before download, no checkpoint advance.
		// Per-record transitions committed so far stay committed.
		res.Err = fmt.Sprintf("upload: %v", err)
		return res
	}

	o.notifier.notifyStatus(StageDownloading)
	down, err := o.downloader.DownloadReferenceData(ctx, DownloadRequest{Types: o.DownloadTypes, Filters: o.Filters})
	res.Downloaded = down.Downloaded
	res.PerType = down.PerType
	res.Failures = down.Failures
	if err != nil {
		res.Err = fmt.Sprintf("download: %v", err)
		return res
	}

	// The run completed without throwing. Partial record failures still
	// advance the checkpoint: it tracks attempts, not completeness.
	res.Finished = time.Now()
	if err := o.checkpoint.Update(res.Finished.UTC()); err != nil {
		o.logger.Printf("Warning: failed to persist checkpoint: %v", err)
	}
	return res
}

// report emits the single summary notification for the run.
func (o *Orchestrator) report(res *SyncResult) {
	switch {
	case res.NoNetwork:
		o.logger.Println("Sync skipped: no connection")
	case res.Err != "":
		o.logger.Printf("Sync failed: %s (uploaded %d, failed %d, downloaded %d)",
			res.Err, res.Uploaded, res.Failed, res.Downloaded)
	default:
		o.logger.Printf("Sync complete: uploaded %d, failed %d, downloaded %d",
			res.Uploaded, res.Failed, res.Downloaded)
	}
}
