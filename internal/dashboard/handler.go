package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/dcampos/fieldsync/internal/engine"
	"github.com/dcampos/fieldsync/internal/store"
)

// Handler subscribes to an orchestrator's notifier and forwards its events as
// dashboard messages, enriched with order statistics after each run.
type Handler struct {
	server *Server
	orch   *engine.Orchestrator
	store  store.LocalStore
	logger *log.Logger

	cancels []func()
}

// NewHandler creates a handler connected to a dashboard server.
func NewHandler(server *Server, orch *engine.Orchestrator, st store.LocalStore, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, orch: orch, store: st, logger: logger}
}

// Attach subscribes to the orchestrator's events. Call Detach to undo.
func (h *Handler) Attach() {
	h.cancels = append(h.cancels,
		h.orch.Notifier().OnStatusChange(h.onStage),
		h.orch.Notifier().OnProgress(h.onProgress),
	)
}

// Detach unsubscribes from the orchestrator.
func (h *Handler) Detach() {
	for _, cancel := range h.cancels {
		cancel()
	}
	h.cancels = nil
}

func (h *Handler) onStage(stage engine.Stage) {
	data, err := json.Marshal(map[string]string{"stage": string(stage)})
	if err != nil {
		h.logger.Printf("Failed to marshal stage: %v", err)
		return
	}
	h.server.Broadcast(Message{Type: MessageTypeStage, Timestamp: time.Now(), Data: data})

	// A return to idle means a run just finished: publish result and stats.
	if stage == engine.StageIdle {
		h.broadcastResult()
		h.broadcastStats()
	}
}

func (h *Handler) onProgress(p engine.Progress) {
	data, err := json.Marshal(p)
	if err != nil {
		h.logger.Printf("Failed to marshal progress: %v", err)
		return
	}
	h.server.Broadcast(Message{Type: MessageTypeProgress, Timestamp: time.Now(), Data: data})
}

func (h *Handler) broadcastResult() {
	res := h.orch.LastResult()
	if res == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		h.logger.Printf("Failed to marshal sync result: %v", err)
		return
	}
	h.server.Broadcast(Message{Type: MessageTypeSyncResult, Timestamp: time.Now(), Data: data})
}

func (h *Handler) broadcastStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := h.store.CountByStatus(ctx)
	if err != nil {
		h.logger.Printf("Failed to read order stats: %v", err)
		return
	}

	stats := StatsData{ByStatus: make(map[string]int)}
	for status, n := range counts {
		stats.ByStatus[string(status)] = n
		stats.Total += n
	}
	if last := h.orch.LastSync(); !last.IsZero() {
		stats.LastSync = last.UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(stats)
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}
	h.server.Broadcast(Message{Type: MessageTypeStats, Timestamp: time.Now(), Data: data})
}
