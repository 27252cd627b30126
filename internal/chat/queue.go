package chat

import (
	"context"
	"sync"
	"time"
)

// Queue is a user's outbound FIFO of pending events. Any number of
// goroutines may Push; exactly one stream reader should Pop.
type Queue struct {
	mu     sync.Mutex
	items  []Event
	closed bool
	ready  chan struct{}
	done   chan struct{}
}

// NewQueue returns an empty, open queue.
func NewQueue() *Queue {
	return &Queue{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Push appends ev without blocking. It returns ErrQueueClosed once the
// queue has been closed.
func (q *Queue) Push(ev Event) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// Pop returns the oldest pending event, waiting up to timeout for one to
// arrive. It returns ErrPopTimeout when the wait expires, ErrQueueClosed
// when the queue is closed, or the context error if ctx is done first.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if ev, ok, err := q.tryPop(); ok {
			return ev, err
		}

		select {
		case <-q.ready:
		case <-q.done:
		case <-timer.C:
			return nil, ErrPopTimeout
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (q *Queue) tryPop() (Event, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, true, ErrQueueClosed
	}
	if len(q.items) == 0 {
		return nil, false, nil
	}
	ev := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return ev, true, nil
}

// Close drops any pending events and wakes a blocked Pop. It is safe to
// call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.items = nil
	close(q.done)
}

// Len reports the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
