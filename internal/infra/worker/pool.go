package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-search-stream/internal/domain"
	"ai-search-stream/internal/domain/model"
	"ai-search-stream/internal/domain/ports/adapter"
	"ai-search-stream/internal/domain/ports/repository"
	"ai-search-stream/internal/infra/metrics"
)

// Pool is a fixed set of long-lived workers draining the admission queue.
// Each worker runs exactly one job at a time, so N workers bound global
// in-flight producer calls to N. A job runs under the pool's lifecycle
// context, never a request context: client disconnects do not cancel it.
type Pool struct {
	queue    *Queue
	jobs     repository.JobRepository
	producer adapter.Producer
	n        int
	log      *zerolog.Logger
	wg       sync.WaitGroup
}

func NewPool(workers int, queue *Queue, jobs repository.JobRepository, producer adapter.Producer, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		queue:    queue,
		jobs:     jobs,
		producer: producer,
		n:        workers,
		log:      logger,
	}
}

func (p *Pool) Size() int { return p.n }

// Start launches the workers. They exit when ctx is done.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				jobID, err := p.queue.Dequeue(ctx)
				if err != nil {
					return
				}
				metrics.SetQueueDepth(p.queue.Len())
				p.process(ctx, id, jobID)
			}
		}(i)
	}
	p.log.Info().Int("workers", p.n).Msg("worker pool started")
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() { p.wg.Wait() }

// process runs one job to its terminal event. Producer failures and panics
// become error events; they never kill the worker.
func (p *Pool) process(ctx context.Context, workerID int, jobID string) {
	job, err := p.jobs.Find(ctx, jobID)
	if err != nil {
		// Swept between enqueue and claim, nothing left to do.
		p.log.Warn().Err(err).Str("job_id", jobID).Msg("claimed job missing")
		return
	}
	eventLog, err := p.jobs.Log(ctx, jobID)
	if err != nil {
		p.log.Warn().Err(err).Str("job_id", jobID).Msg("claimed job has no event log")
		return
	}

	_ = p.jobs.SetStatus(ctx, jobID, model.JobStatusProcessing, "")
	_ = p.jobs.SetProgress(ctx, jobID, 5)
	p.log.Info().Int("worker", workerID).Str("job_id", jobID).Msg("processing job")
	start := time.Now()

	runErr := p.run(ctx, jobID, job.Query, eventLog)

	// Final updates use a background context so shutdown cannot leave a job
	// without its terminal event.
	finStatus := model.JobStatusCompleted
	lastError := ""
	if runErr != nil {
		finStatus = model.JobStatusFailed
		lastError = runErr.Error()
		_ = eventLog.Append(model.NewErrorEvent(runErr.Error(), domain.IsRetryable(runErr)))
		p.log.Error().Err(runErr).Str("job_id", jobID).Msg("job failed")
	} else {
		_ = eventLog.Append(model.NewDoneEvent(model.JobStatusCompleted))
	}
	_ = p.jobs.SetStatus(context.Background(), jobID, finStatus, lastError)

	latency := time.Since(start)
	metrics.IncJob(string(finStatus))
	metrics.ObserveProducerLatency(int(latency / time.Millisecond))
	p.log.Info().
		Int("worker", workerID).
		Str("job_id", jobID).
		Str("status", string(finStatus)).
		Dur("duration", latency).
		Msg("job finished")
}

// run invokes the producer, translating each fragment 1:1 into an appended
// event. Panics are converted into an error return.
func (p *Pool) run(ctx context.Context, jobID, query string, eventLog repository.EventLog) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("producer panic: %v", r)
		}
	}()

	emitted := 0
	return p.producer.Run(ctx, query, func(ev model.Event) error {
		if ev.Kind.Terminal() {
			return fmt.Errorf("producer emitted terminal kind %q", ev.Kind)
		}
		if !ev.Kind.Valid() {
			return fmt.Errorf("producer emitted unknown kind %q", ev.Kind)
		}
		if appendErr := eventLog.Append(ev); appendErr != nil {
			return appendErr
		}
		emitted++
		_ = p.jobs.SetProgress(ctx, jobID, progressEstimate(emitted))
		return nil
	})
}

// progressEstimate maps fragment count onto a coarse 0..95 curve; the
// terminal transition sets 100.
func progressEstimate(emitted int) int {
	p := 5 + emitted*2
	if p > 95 {
		p = 95
	}
	return p
}
