package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ai-search-stream/internal/domain"
	"ai-search-stream/internal/domain/model"
	"ai-search-stream/internal/domain/ports/adapter"
	"ai-search-stream/internal/infra/memstore"
	"ai-search-stream/internal/infra/worker"
)

// ---- Fixtures ----

type echoProducer struct{}

func (echoProducer) Run(ctx context.Context, query string, emit adapter.EmitFunc) error {
	if err := emit(model.NewToolCallEvent("synthesize_answer", "Generating answer...", nil)); err != nil {
		return err
	}
	return emit(model.NewTextEvent("answer to " + query))
}

func serviceFixture(t *testing.T) (*JobService, *worker.Pool) {
	t.Helper()
	logger := zerolog.Nop()
	registry := memstore.NewRegistry(time.Minute, &logger)
	queue := worker.NewQueue()
	svc := NewJobService(registry, queue, &logger)
	pool := worker.NewPool(2, queue, registry, echoProducer{}, &logger)
	return svc, pool
}

// ---- Tests ----

func TestSubmitRejectsEmptyQuery(t *testing.T) {
	svc, _ := serviceFixture(t)
	for _, q := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Submit(context.Background(), q); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("Submit(%q): got %v, want ErrInvalidArgument", q, err)
		}
	}
}

func TestStatusUnknownJob(t *testing.T) {
	svc, _ := serviceFixture(t)
	if _, err := svc.Status(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if _, err := svc.Subscribe(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Subscribe: got %v, want ErrNotFound", err)
	}
}

func TestSubmitStreamScenario(t *testing.T) {
	svc, pool := serviceFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	job, err := svc.Submit(ctx, "  why is the sky blue  ")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.ID == "" || job.Status != model.JobStatusQueued {
		t.Fatalf("unexpected job: %+v", job)
	}

	// Subscription works immediately, before the worker picks the job up,
	// and delivers the full sequence through the terminal event.
	subCtx, subCancel := context.WithTimeout(ctx, 3*time.Second)
	defer subCancel()
	events, err := svc.Subscribe(subCtx, job.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	var kinds []model.EventKind
	for ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	want := []model.EventKind{model.EventToolCall, model.EventText, model.EventDone}
	if len(kinds) != len(want) {
		t.Fatalf("got kinds %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, kinds[i], want[i])
		}
	}

	got, err := svc.Status(ctx, job.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("final status = %s, want completed", got.Status)
	}
	if got.Query != "why is the sky blue" {
		t.Fatalf("query not trimmed: %q", got.Query)
	}

	// A second subscriber, after completion, replays the identical history.
	replay, err := svc.Subscribe(ctx, job.ID)
	if err != nil {
		t.Fatalf("replay Subscribe: %v", err)
	}
	var replayKinds []model.EventKind
	for ev := range replay {
		replayKinds = append(replayKinds, ev.Kind)
	}
	if len(replayKinds) != len(kinds) {
		t.Fatalf("replay kinds %v, want %v", replayKinds, kinds)
	}
}
