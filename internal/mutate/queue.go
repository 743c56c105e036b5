package mutate

import (
	"context"
	"sync"

	"github.com/sadopc/asap/internal/schedule"
)

// keyedQueue serializes work per item key. Each key has a one-slot channel;
// blocked senders are served in arrival order.
type keyedQueue struct {
	mu    sync.Mutex
	slots map[schedule.Key]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func newKeyedQueue() *keyedQueue {
	return &keyedQueue{slots: make(map[schedule.Key]*slot)}
}

// acquire blocks until key is free or ctx is done. The returned func
// releases the key.
func (q *keyedQueue) acquire(ctx context.Context, key schedule.Key) (func(), error) {
	q.mu.Lock()
	s, ok := q.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		q.slots[key] = s
	}
	s.refs++
	q.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return func() {
			<-s.ch
			q.drop(key, s)
		}, nil
	case <-ctx.Done():
		q.drop(key, s)
		return nil, ctx.Err()
	}
}

func (q *keyedQueue) drop(key schedule.Key, s *slot) {
	q.mu.Lock()
	defer q.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(q.slots, key)
	}
}

