package web

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ai-search-stream/internal/domain"
	"ai-search-stream/internal/domain/model"
	"ai-search-stream/internal/infra/logging"
	rds "ai-search-stream/internal/infra/redis"
)

type submitRequest struct {
	Query string `json:"query"`
}

type submitResponse struct {
	ID     string          `json:"id"`
	Status model.JobStatus `json:"status"`
}

type statusResponse struct {
	ID        string          `json:"id"`
	Query     string          `json:"query"`
	Status    model.JobStatus `json:"status"`
	Progress  int             `json:"progress"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	DoneAt    *time.Time      `json:"done_at,omitempty"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.limiter != nil {
		addr, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			addr = r.RemoteAddr
		}
		ok, err := s.limiter.Allow(ctx, rds.SubmitKey(addr), s.cfg.Redis.SubmitLimit, s.cfg.Redis.SubmitWindow)
		if err != nil {
			// A broken limiter must not take submissions down with it.
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable, allowing request")
		} else if !ok {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := s.jobs.Submit(ctx, req.Query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "query must not be empty", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to submit query", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(submitResponse{ID: job.ID, Status: job.Status})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get job", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusResponse{
		ID:        job.ID,
		Query:     job.Query,
		Status:    job.Status,
		Progress:  job.Progress,
		LastError: job.LastError,
		CreatedAt: job.CreatedAt,
		DoneAt:    timePtr(job.DoneAt),
	})
}

// handleDocument streams an upstream document through the server so browser
// clients can fetch cited sources that do not send CORS headers themselves.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	locator := r.URL.Query().Get("url")
	if locator == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}

	doc, err := s.docs.Fetch(r.Context(), locator)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "invalid url", http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "document not found", http.StatusNotFound)
		default:
			http.Error(w, "Failed to fetch document", http.StatusBadGateway)
		}
		return
	}
	defer doc.Body.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	if doc.Length >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.Length, 10))
	}
	if _, err := io.Copy(w, doc.Body); err != nil {
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("document copy aborted")
	}
}
