package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// Watch filters accepted by GET /sessions/{id}/events.
const (
	WatchHistory  = "history"
	WatchProject  = "project"
	WatchProgress = "progress"
)

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// Every event is sent as "event: <type>" with the JSON event as data.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "id")
	if _, err := s.Studio.Document(r.Context(), sessionID); err != nil {
		s.writeError(w, err)
		return
	}

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		for _, field := range strings.Split(watch, ",") {
			watchList = append(watchList, strings.TrimSpace(field))
		}
	}

	events, cancel := s.Studio.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to session updates", "session_id", sessionID, "watch", watchList)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "session_id", sessionID)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !matches(ev, watchList) {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("SSE: Failed to encode event", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}

func matches(ev domain.Event, watchList []string) bool {
	if len(watchList) == 0 {
		return true
	}
	for _, field := range watchList {
		switch field {
		case WatchHistory:
			if ev.Diff != nil && ev.Diff.History != nil {
				return true
			}
		case WatchProject:
			if d := ev.Diff; d != nil && (d.ProjectName != nil || d.Tool != nil || d.AIParams != nil || d.ImageParams != nil || d.ExportOptions != nil) {
				return true
			}
		case WatchProgress:
			if ev.Progress != nil {
				return true
			}
		}
	}
	return false
}
