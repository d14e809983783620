package model

import (
	"time"

	"ai-search-stream/pkg/event"
)

// JobStatus is shared with pkg/event so DonePayload and external consumers
// name the same type.
type JobStatus = event.JobStatus

const (
	JobStatusQueued     = event.StatusQueued
	JobStatusProcessing = event.StatusProcessing
	JobStatusCompleted  = event.StatusCompleted
	JobStatusFailed     = event.StatusFailed
)

// Job is one submitted query and its execution lifecycle. A job is owned by
// the admission queue until a worker claims it, then by that worker until the
// terminal event is appended; after that it is read-only.
type Job struct {
	ID        string
	Query     string
	Status    JobStatus
	Progress  int // 0..100, coarse estimate
	LastError string
	CreatedAt time.Time
	DoneAt    time.Time // zero until Status is terminal
}
