package memstore

import (
	"context"
	"testing"
	"time"

	"ai-search-stream/internal/domain"
	"ai-search-stream/internal/domain/model"
)

func collect(t *testing.T, ch <-chan model.Event, n int) []model.Event {
	t.Helper()
	var out []model.Event
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed after %d events, want %d", len(out), n)
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d events, want %d", len(out), n)
		}
	}
	return out
}

func assertClosed(t *testing.T, ch <-chan model.Event) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel, got event %q", ev.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestEventLogReplaysHistoryToLateSubscriber(t *testing.T) {
	l := NewEventLog()
	events := []model.Event{
		model.NewToolCallEvent("web_search", "Searching...", nil),
		model.NewTextEvent("hello "),
		model.NewTextEvent("world"),
		model.NewDoneEvent(model.JobStatusCompleted),
	}
	for _, ev := range events {
		if err := l.Append(ev); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	// Subscriber attaches after everything happened.
	ch := l.Subscribe(context.Background())
	got := collect(t, ch, len(events))
	for i := range events {
		if got[i].Kind != events[i].Kind {
			t.Errorf("event %d: got kind %q, want %q", i, got[i].Kind, events[i].Kind)
		}
		if string(got[i].Data) != string(events[i].Data) {
			t.Errorf("event %d: payload mismatch", i)
		}
	}
	assertClosed(t, ch)
}

func TestEventLogTwoSubscribersSeeIdenticalOrder(t *testing.T) {
	l := NewEventLog()

	// First subscriber attaches before any events.
	early := l.Subscribe(context.Background())

	if err := l.Append(model.NewTextEvent("a")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append(model.NewTextEvent("b")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Second subscriber attaches mid-stream.
	late := l.Subscribe(context.Background())

	if err := l.Append(model.NewDoneEvent(model.JobStatusCompleted)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	gotEarly := collect(t, early, 3)
	gotLate := collect(t, late, 3)
	for i := range gotEarly {
		if gotEarly[i].Kind != gotLate[i].Kind || string(gotEarly[i].Data) != string(gotLate[i].Data) {
			t.Fatalf("subscribers diverged at event %d", i)
		}
	}
	assertClosed(t, early)
	assertClosed(t, late)
}

func TestEventLogRejectsAppendAfterTerminal(t *testing.T) {
	l := NewEventLog()
	if err := l.Append(model.NewDoneEvent(model.JobStatusCompleted)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !l.Closed() {
		t.Fatal("log not closed after terminal event")
	}
	err := l.Append(model.NewTextEvent("too late"))
	if err != domain.ErrLogClosed {
		t.Fatalf("got %v, want ErrLogClosed", err)
	}
	if l.Len() != 1 {
		t.Fatalf("Len = %d, want 1", l.Len())
	}
}

func TestEventLogSubscribeCancellation(t *testing.T) {
	l := NewEventLog()
	if err := l.Append(model.NewTextEvent("a")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := l.Subscribe(ctx)
	collect(t, ch, 1)

	// No terminal event yet: the reader is following. Cancelling must
	// close the channel rather than leak the goroutine.
	cancel()
	assertClosed(t, ch)
}
