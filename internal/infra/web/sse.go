package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ai-search-stream/internal/domain"
	"ai-search-stream/internal/infra/logging"
	"ai-search-stream/internal/infra/metrics"
)

// handleStream serves the job's event channel as server-sent events. The full
// history is replayed first, then live events follow; the response ends after
// the terminal event. Closing the connection detaches this reader only, the
// job itself keeps running.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := logging.WithJobID(r.Context(), id)
	l := logging.With(ctx, s.log)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, err := s.jobs.Subscribe(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to subscribe", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.StreamOpened()
	defer metrics.StreamClosed()
	l.Debug().Msg("sse stream opened")

	for {
		select {
		case <-ctx.Done():
			l.Debug().Msg("sse client disconnected")
			return
		case ev, open := <-events:
			if !open {
				l.Debug().Msg("sse stream complete")
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, ev.Data); err != nil {
				return
			}
			flusher.Flush()
			metrics.IncSSEFrame(string(ev.Kind))
		}
	}
}
