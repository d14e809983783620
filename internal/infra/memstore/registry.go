package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-search-stream/internal/domain"
	"ai-search-stream/internal/domain/model"
	"ai-search-stream/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*Registry)(nil)

// Registry is the in-memory job table and event channel registry. It is an
// explicitly owned, injectable store: tests instantiate isolated copies
// instead of sharing process-wide state.
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*entry
	retention time.Duration
	log       *zerolog.Logger
}

type entry struct {
	job model.Job
	log *EventLog
}

func NewRegistry(retention time.Duration, logger *zerolog.Logger) *Registry {
	return &Registry{
		jobs:      make(map[string]*entry),
		retention: retention,
		log:       logger,
	}
}

func (r *Registry) Create(ctx context.Context, job *model.Job) (repository.EventLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return nil, domain.ErrAlreadyExists
	}
	e := &entry{job: *job, log: NewEventLog()}
	r.jobs[job.ID] = e
	return e.log, nil
}

func (r *Registry) Find(ctx context.Context, id string) (*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := e.job
	return &cp, nil
}

func (r *Registry) Log(ctx context.Context, id string) (repository.EventLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e.log, nil
}

func (r *Registry) SetStatus(ctx context.Context, id string, status model.JobStatus, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.job.Status = status
	if lastError != "" {
		e.job.LastError = lastError
	}
	if status.Terminal() {
		e.job.DoneAt = time.Now().UTC()
		// A failed job keeps its last progress estimate; only success
		// means the work actually finished.
		if status == model.JobStatusCompleted {
			e.job.Progress = 100
		}
	}
	return nil
}

func (r *Registry) SetProgress(ctx context.Context, id string, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	// Progress never moves backwards; terminal jobs are immutable.
	if !e.job.Status.Terminal() && progress > e.job.Progress {
		e.job.Progress = progress
	}
	return nil
}

// Sweep evicts terminal jobs whose grace period has elapsed and returns the
// number evicted. Non-terminal jobs are never evicted: a stream transport may
// still need to attach to them.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, e := range r.jobs {
		if e.job.Status.Terminal() && now.Sub(e.job.DoneAt) > r.retention {
			delete(r.jobs, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps on a fixed interval until ctx is done.
// This should be run in a goroutine.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(time.Now().UTC()); n > 0 {
				r.log.Debug().Int("evicted", n).Msg("retention sweep")
			}
		}
	}
}
