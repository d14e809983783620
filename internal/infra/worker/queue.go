package worker

import (
	"context"
	"sync"
)

// Queue is the unbounded FIFO admission queue. Enqueue never blocks, so
// submission always returns immediately; the effective processing rate is
// bounded by the pool draining it, which is the rate-limiting mechanism for
// the external producer.
type Queue struct {
	mu    sync.Mutex
	items []string // job IDs, first submitted first claimed
	wake  chan struct{}
}

func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Enqueue appends id and wakes one waiting worker.
func (q *Queue) Enqueue(id string) {
	q.mu.Lock()
	q.items = append(q.items, id)
	q.mu.Unlock()
	q.signal()
}

// Dequeue pops the oldest id, blocking until one is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (string, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			id := q.items[0]
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()
			if remaining > 0 {
				// Keep the wake token alive for the next waiter.
				q.signal()
			}
			return id, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-q.wake:
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
