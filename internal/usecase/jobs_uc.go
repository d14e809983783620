package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ai-search-stream/internal/domain"
	"ai-search-stream/internal/domain/model"
	"ai-search-stream/internal/domain/ports/repository"
	"ai-search-stream/internal/infra/logging"
	"ai-search-stream/internal/infra/metrics"
	"ai-search-stream/internal/infra/worker"
)

// JobService is the submission/status/stream surface of the pipeline.
// Submit never blocks on processing; Status never blocks at all.
type JobService struct {
	jobs  repository.JobRepository
	queue *worker.Queue
	log   *zerolog.Logger
}

func NewJobService(jobs repository.JobRepository, queue *worker.Queue, logger *zerolog.Logger) *JobService {
	return &JobService{jobs: jobs, queue: queue, log: logger}
}

// Submit validates the query, registers a queued job with a fresh event log
// and enqueues it. The returned job is already safe to poll and stream.
func (s *JobService) Submit(ctx context.Context, query string) (*model.Job, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidArgument
	}

	job := &model.Job{
		ID:        ulid.Make().String(),
		Query:     query,
		Status:    model.JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	s.queue.Enqueue(job.ID)
	metrics.SetQueueDepth(s.queue.Len())

	logging.With(ctx, s.log).Info().
		Str("job_id", job.ID).
		Int("queue_depth", s.queue.Len()).
		Msg("job submitted")
	return job, nil
}

// Status returns a snapshot of the job. Unknown ids fail with domain.ErrNotFound.
func (s *JobService) Status(ctx context.Context, id string) (*model.Job, error) {
	return s.jobs.Find(ctx, id)
}

// Subscribe attaches a replay-then-follow reader to the job's event channel.
// The channel closes after the terminal event or when ctx is done.
func (s *JobService) Subscribe(ctx context.Context, id string) (<-chan model.Event, error) {
	eventLog, err := s.jobs.Log(ctx, id)
	if err != nil {
		return nil, err
	}
	return eventLog.Subscribe(ctx), nil
}
