package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcampos/fieldsync/internal/model"
	"github.com/dcampos/fieldsync/internal/remote"
	"github.com/dcampos/fieldsync/internal/store"
)

func newTestOrchestrator(t *testing.T, st store.LocalStore, rc *fakeRemote) *Orchestrator {
	t.Helper()

	checkpoint, err := OpenCheckpoint(filepath.Join(t.TempDir(), "last_sync"))
	require.NoError(t, err)

	notifier := NewNotifier()
	return NewOrchestrator(Config{
		Uploader:   NewUploader(st, rc, notifier, nil),
		Downloader: NewDownloader(st, rc, notifier, nil),
		Checkpoint: checkpoint,
		Notifier:   notifier,
		Remote:     rc,
	})
}

func TestSyncFullCycle(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()
	seedRemoteReference(rc)
	ctx := context.Background()

	require.NoError(t, st.SaveOrder(ctx, pendingOrder("o1", time.Now().UTC())))

	o := newTestOrchestrator(t, st, rc)

	var stages []Stage
	o.Notifier().OnStatusChange(func(s Stage) { stages = append(stages, s) })

	require.True(t, o.Sync(ctx))

	res := o.LastResult()
	require.NotNil(t, res)
	assert.Empty(t, res.Err)
	assert.Equal(t, 1, res.Uploaded)
	assert.Equal(t, 4, res.Downloaded)
	assert.False(t, res.NoNetwork)

	assert.Equal(t, model.StatusTransmitted, statusOf(t, st, "o1"))
	assert.False(t, o.LastSync().IsZero(), "checkpoint advanced")
	assert.False(t, o.InProgress())

	// Upload strictly precedes download; the run ends idle.
	assert.Equal(t, []Stage{StageCheckingConnection, StageUploading, StageDownloading, StageIdle}, stages)
}

func TestSyncNoNetworkSkips(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()
	rc.connOK = false
	ctx := context.Background()

	require.NoError(t, st.SaveOrder(ctx, pendingOrder("o1", time.Now().UTC())))

	o := newTestOrchestrator(t, st, rc)
	require.True(t, o.Sync(ctx), "a skipped run is still a run")

	res := o.LastResult()
	require.NotNil(t, res)
	assert.True(t, res.NoNetwork)
	assert.Empty(t, res.Err)
	assert.Empty(t, rc.createdIDs(), "no upload attempted")

	assert.Equal(t, model.StatusPendingSync, statusOf(t, st, "o1"), "order stays queued")
	assert.True(t, o.LastSync().IsZero(), "no-connectivity run does not advance the checkpoint")
}

func TestSyncSingleFlight(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()
	seedRemoteReference(rc)
	rc.connGate = make(chan struct{})

	o := newTestOrchestrator(t, st, rc)

	started := make(chan bool)
	go func() {
		started <- o.Sync(context.Background())
	}()

	// Wait for the first run to be in flight (blocked on the connectivity
	// check), then try to start a second one.
	require.Eventually(t, o.InProgress, time.Second, time.Millisecond)
	assert.False(t, o.Sync(context.Background()), "concurrent run turned away")

	close(rc.connGate)
	assert.True(t, <-started)
	assert.False(t, o.InProgress())

	// With the first run finished, a new run is accepted again.
	assert.True(t, o.Sync(context.Background()))
}

func TestSyncUploadAuthFailureSkipsDownload(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()
	seedRemoteReference(rc)
	ctx := context.Background()

	require.NoError(t, st.SaveOrder(ctx, pendingOrder("o1", time.Now().UTC())))
	rc.createErr["o1"] = &remote.AuthenticationError{Status: 401}

	o := newTestOrchestrator(t, st, rc)
	require.True(t, o.Sync(ctx))

	res := o.LastResult()
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Err)
	assert.Equal(t, 0, res.Downloaded, "download never ran")

	clients, err := st.Clients(ctx)
	require.NoError(t, err)
	assert.Empty(t, clients)
	assert.True(t, o.LastSync().IsZero(), "failed run does not advance the checkpoint")
}

func TestSyncPartialDownloadFailureStillAdvancesCheckpoint(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()
	seedRemoteReference(rc)
	rc.fetchErr["products"] = &remote.RemoteRejection{Op: "get_products", Status: 500, Body: "boom"}

	o := newTestOrchestrator(t, st, rc)
	require.True(t, o.Sync(context.Background()))

	res := o.LastResult()
	require.NotNil(t, res)
	assert.Empty(t, res.Err)
	assert.Contains(t, res.Failures, DataProducts)

	// The checkpoint tracks attempts, not completeness.
	assert.False(t, o.LastSync().IsZero())
}

func TestSyncSettingsFallback(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()

	o := newTestOrchestrator(t, st, rc)
	s := o.GetSyncSettings()
	assert.Equal(t, DefaultSyncSettings(), s)

	assert.Error(t, o.UpdateSyncSettings(s), "no settings store configured")
}

type memSettings struct{ s SyncSettings }

func (m *memSettings) GetSyncSettings() SyncSettings { return m.s }

func (m *memSettings) UpdateSyncSettings(s SyncSettings) error { m.s = s; return nil }

func TestSyncSettingsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	rc := newFakeRemote()

	checkpoint, err := OpenCheckpoint(filepath.Join(t.TempDir(), "last_sync"))
	require.NoError(t, err)

	settings := &memSettings{s: DefaultSyncSettings()}
	o := NewOrchestrator(Config{
		Uploader:   NewUploader(st, rc, nil, nil),
		Downloader: NewDownloader(st, rc, nil, nil),
		Checkpoint: checkpoint,
		Settings:   settings,
		Remote:     rc,
	})

	s := o.GetSyncSettings()
	s.Interval = 30 * time.Minute
	require.NoError(t, o.UpdateSyncSettings(s))
	assert.Equal(t, 30*time.Minute, o.GetSyncSettings().Interval)
}
