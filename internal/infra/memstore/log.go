package memstore

import (
	"context"
	"sync"

	"ai-search-stream/internal/domain"
	"ai-search-stream/internal/domain/model"
)

// EventLog is an append-only, multi-subscriber log of events for one job.
// It is a replay log, not a queue: every subscriber sees the full ordered
// history from the first event, regardless of when it attaches.
//
// Concurrency contract: exactly one writer (the owning worker) calls Append;
// any number of readers subscribe. Readers hold a cursor into the shared
// slice and never block the writer.
type EventLog struct {
	mu     sync.RWMutex
	events []model.Event
	closed bool          // set when a terminal event is appended
	wake   chan struct{} // closed and replaced on every append
}

func NewEventLog() *EventLog {
	return &EventLog{wake: make(chan struct{})}
}

// Append adds ev to the log and wakes all followers. The log closes itself
// after a terminal event; further appends fail with domain.ErrLogClosed.
func (l *EventLog) Append(ev model.Event) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return domain.ErrLogClosed
	}
	l.events = append(l.events, ev)
	if ev.Kind.Terminal() {
		l.closed = true
	}
	wake := l.wake
	l.wake = make(chan struct{})
	l.mu.Unlock()

	close(wake)
	return nil
}

// Len reports the number of events appended so far.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Closed reports whether a terminal event has been appended.
func (l *EventLog) Closed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// Subscribe replays all events appended so far in order, then follows new
// appends. The returned channel is closed after delivering a terminal event
// or when ctx is done. Each subscriber advances independently.
func (l *EventLog) Subscribe(ctx context.Context) <-chan model.Event {
	out := make(chan model.Event)
	go func() {
		defer close(out)
		cursor := 0
		for {
			l.mu.RLock()
			n := len(l.events)
			wake := l.wake
			l.mu.RUnlock()

			for ; cursor < n; cursor++ {
				l.mu.RLock()
				ev := l.events[cursor]
				l.mu.RUnlock()
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
				if ev.Kind.Terminal() {
					return
				}
			}

			select {
			case <-wake:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
