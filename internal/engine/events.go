// Package engine implements the sync engine: the upload and download
// pipelines and the orchestrator that sequences them.
//
// One engine exists per process. It is constructed explicitly at startup and
// injected into its consumers (CLI commands, daemon, dashboard); there is no
// package-level singleton.
package engine

import "sync"

// Stage is the orchestrator's externally visible state.
type Stage string

const (
	StageIdle               Stage = "idle"
	StageCheckingConnection Stage = "checking_connection"
	StageUploading          Stage = "uploading"
	StageDownloading        Stage = "downloading"
)

// Progress is a push-style progress report. Advisory only: nothing blocks
// waiting for a subscriber.
type Progress struct {
	Stage      Stage   `json:"stage"`
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ProgressFunc receives progress reports.
type ProgressFunc func(Progress)

// StatusFunc receives stage transitions.
type StatusFunc func(Stage)

// Notifier fans sync events out to any number of subscribers, so multiple UI
// surfaces can observe the engine without fighting over a single callback
// slot. Subscribers run inline on the sync goroutine and must return quickly.
type Notifier struct {
	mu       sync.Mutex
	nextID   int
	progress map[int]ProgressFunc
	status   map[int]StatusFunc
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		progress: make(map[int]ProgressFunc),
		status:   make(map[int]StatusFunc),
	}
}

// OnProgress registers a progress subscriber and returns its cancel func.
func (n *Notifier) OnProgress(fn ProgressFunc) (cancel func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.progress[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.progress, id)
	}
}

// OnStatusChange registers a stage subscriber and returns its cancel func.
func (n *Notifier) OnStatusChange(fn StatusFunc) (cancel func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.status[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.status, id)
	}
}

func (n *Notifier) notifyProgress(p Progress) {
	if p.Total > 0 {
		p.Percentage = float64(p.Current) / float64(p.Total) * 100
	}
	n.mu.Lock()
	subs := make([]ProgressFunc, 0, len(n.progress))
	for _, fn := range n.progress {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(p)
	}
}

func (n *Notifier) notifyStatus(s Stage) {
	n.mu.Lock()
	subs := make([]StatusFunc, 0, len(n.status))
	for _, fn := range n.status {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
