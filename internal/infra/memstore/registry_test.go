package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ai-search-stream/internal/domain"
	"ai-search-stream/internal/domain/model"
)

func newTestRegistry(retention time.Duration) *Registry {
	logger := zerolog.Nop()
	return NewRegistry(retention, &logger)
}

func TestRegistryCreateAndFind(t *testing.T) {
	r := newTestRegistry(time.Minute)
	ctx := context.Background()

	job := &model.Job{ID: "j1", Query: "q", Status: model.JobStatusQueued, CreatedAt: time.Now().UTC()}
	if _, err := r.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.Create(ctx, job); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("duplicate Create: got %v, want ErrAlreadyExists", err)
	}

	got, err := r.Find(ctx, "j1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	// Find returns a copy; mutating it must not leak into the store.
	got.Status = model.JobStatusFailed
	again, _ := r.Find(ctx, "j1")
	if again.Status != model.JobStatusQueued {
		t.Fatal("Find returned a shared reference")
	}

	if _, err := r.Find(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Find missing: got %v, want ErrNotFound", err)
	}
	if _, err := r.Log(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Log missing: got %v, want ErrNotFound", err)
	}
}

func TestRegistryStatusTransitions(t *testing.T) {
	r := newTestRegistry(time.Minute)
	ctx := context.Background()
	if _, err := r.Create(ctx, &model.Job{ID: "j1", Status: model.JobStatusQueued}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := r.SetProgress(ctx, "j1", 40); err != nil {
		t.Fatalf("SetProgress: %v", err)
	}
	// Progress is monotonic.
	_ = r.SetProgress(ctx, "j1", 10)
	job, _ := r.Find(ctx, "j1")
	if job.Progress != 40 {
		t.Fatalf("Progress = %d, want 40", job.Progress)
	}

	// Failure freezes the last estimate instead of pretending the work
	// finished.
	if err := r.SetStatus(ctx, "j1", model.JobStatusFailed, "boom"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	job, _ = r.Find(ctx, "j1")
	if job.Progress != 40 || job.DoneAt.IsZero() || job.LastError != "boom" {
		t.Fatalf("failed job not stamped: %+v", job)
	}

	// Terminal jobs are immutable to progress updates.
	_ = r.SetProgress(ctx, "j1", 50)
	job, _ = r.Find(ctx, "j1")
	if job.Progress != 40 {
		t.Fatalf("terminal progress mutated to %d", job.Progress)
	}
}

func TestRegistryCompletedJobReportsFullProgress(t *testing.T) {
	r := newTestRegistry(time.Minute)
	ctx := context.Background()
	if _, err := r.Create(ctx, &model.Job{ID: "j1", Status: model.JobStatusQueued}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = r.SetProgress(ctx, "j1", 70)

	if err := r.SetStatus(ctx, "j1", model.JobStatusCompleted, ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	job, _ := r.Find(ctx, "j1")
	if job.Progress != 100 || job.DoneAt.IsZero() {
		t.Fatalf("completed job not stamped: %+v", job)
	}
}

func TestRegistrySweepEvictsOnlyExpiredTerminalJobs(t *testing.T) {
	r := newTestRegistry(10 * time.Minute)
	ctx := context.Background()

	for _, id := range []string{"done-old", "done-fresh", "running"} {
		if _, err := r.Create(ctx, &model.Job{ID: id, Status: model.JobStatusQueued}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	now := time.Now().UTC()
	_ = r.SetStatus(ctx, "done-old", model.JobStatusCompleted, "")
	_ = r.SetStatus(ctx, "done-fresh", model.JobStatusCompleted, "")
	_ = r.SetStatus(ctx, "running", model.JobStatusProcessing, "")

	// Inside the grace period nothing goes.
	if n := r.Sweep(now.Add(5 * time.Minute)); n != 0 {
		t.Fatalf("early Sweep evicted %d, want 0", n)
	}

	// Past retention both terminal jobs go, the running one stays.
	if n := r.Sweep(now.Add(11 * time.Minute)); n != 2 {
		t.Fatalf("Sweep evicted %d, want 2", n)
	}
	if _, err := r.Find(ctx, "done-old"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("expired terminal job survived sweep")
	}
	if _, err := r.Find(ctx, "running"); err != nil {
		t.Fatal("non-terminal job was evicted")
	}
}
