package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwbudde/curvefit/internal/session"
)

// pingInterval keeps idle SSE connections open through proxies.
const pingInterval = 30 * time.Second

// handleSessionStream handles GET /api/v1/sessions/{id}/events. The current
// state is sent first, then every later change until the client leaves or
// the session ends.
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Subscribe before the snapshot so no change between the two is lost.
	broadcaster := s.sessions.Broadcaster()
	events := broadcaster.Subscribe(id)
	defer broadcaster.Unsubscribe(id, events)
	subscribed := time.Now()

	view, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	initial := session.Event{SessionID: id, Revision: view.Revision, Session: view, Timestamp: time.Now()}
	if err := writeSSEEvent(w, initial); err != nil {
		slog.Error("Failed to write initial SSE event", "error", err)
		return
	}
	flusher.Flush()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("SSE client disconnected", "session_id", id)
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Timestamp.Before(subscribed) {
				continue // replayed, already covered by the snapshot
			}
			if err := writeSSEEvent(w, event); err != nil {
				slog.Error("Failed to write SSE event", "error", err)
				return
			}
			flusher.Flush()

		case <-ping.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes an event in SSE format
func writeSSEEvent(w http.ResponseWriter, event session.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %d\ndata: %s\n\n", event.Revision, data)
	return err
}
