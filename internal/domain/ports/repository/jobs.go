package repository

import (
	"context"

	"ai-search-stream/internal/domain/model"
)

// EventLog is the ordered, replayable, multi-reader log of events for one
// job. Exactly one writer (the owning worker) appends; any number of readers
// may subscribe concurrently, and readers never block the writer.
type EventLog interface {
	// Append adds ev to the log. Appending after a terminal event fails with
	// domain.ErrLogClosed.
	Append(ev model.Event) error

	// Subscribe replays every event appended so far, in order, then follows
	// new appends. The returned channel is closed after delivering a terminal
	// event, or when ctx is done.
	Subscribe(ctx context.Context) <-chan model.Event

	// Len reports the number of events appended so far.
	Len() int
}

// JobRepository is the injectable registry of jobs and their event logs.
// Implementations are process-local; job state does not survive restarts.
type JobRepository interface {
	// Create registers job and allocates its event log.
	Create(ctx context.Context, job *model.Job) (EventLog, error)

	// Find returns a copy of the job. Unknown ids fail with domain.ErrNotFound.
	Find(ctx context.Context, id string) (*model.Job, error)

	// Log returns the job's event log. Unknown ids fail with domain.ErrNotFound.
	Log(ctx context.Context, id string) (EventLog, error)

	// SetStatus transitions the job; terminal statuses also stamp DoneAt.
	SetStatus(ctx context.Context, id string, status model.JobStatus, lastError string) error

	// SetProgress updates the 0..100 progress estimate.
	SetProgress(ctx context.Context, id string, progress int) error
}
