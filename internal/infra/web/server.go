package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"ai-search-stream/internal/config"
	"ai-search-stream/internal/domain/ports/adapter"
	"ai-search-stream/internal/usecase"
)

// SubmitLimiter throttles query submission per client key.
type SubmitLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Server is the HTTP surface of the pipeline: query submission, status
// polling, the SSE event stream and the document proxy.
type Server struct {
	jobs    *usecase.JobService
	docs    adapter.DocumentFetcher
	limiter SubmitLimiter // nil disables submit throttling
	cfg     *config.Config
	log     *zerolog.Logger
	server  *http.Server
}

func NewServer(cfg *config.Config, jobs *usecase.JobService, docs adapter.DocumentFetcher, limiter SubmitLimiter, logger *zerolog.Logger) *Server {
	return &Server{
		jobs:    jobs,
		docs:    docs,
		limiter: limiter,
		cfg:     cfg,
		log:     logger,
	}
}

// Handler builds the full route tree. Exposed separately from Start so tests
// can drive it through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/queries", s.handleSubmit)
		r.Get("/queries/{id}", s.handleStatus)
		r.Get("/queries/{id}/stream", s.handleStream)
		r.Get("/documents", s.handleDocument)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	return Chain(c.Handler(r),
		Recover(s.log),
		TraceID(),
		RequestLog(s.log),
	)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", s.cfg.Server.Port).Msg("http server listening")
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
