package matching

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu     sync.RWMutex
	queues map[string]Queue
	now    func() time.Time
}

// NewMemoryRepository builds an in-memory queue store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{queues: make(map[string]Queue), now: time.Now}
}

func (r *memoryRepository) Get(_ context.Context, requestID string) (Queue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queues[requestID]
	if !ok {
		return Queue{}, ErrNoQueue
	}
	return clone(q), nil
}

func (r *memoryRepository) Upsert(_ context.Context, q Queue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[q.RequestID] = clone(q)
	return nil
}

func (r *memoryRepository) Update(_ context.Context, requestID string, fn func(*Queue) error) (Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[requestID]
	if !ok {
		return Queue{}, ErrNoQueue
	}
	q = clone(q)
	if err := fn(&q); err != nil {
		return Queue{}, err
	}
	q.UpdatedAt = r.now().UTC()
	r.queues[requestID] = q
	return clone(q), nil
}

func (r *memoryRepository) ListExpired(_ context.Context, now time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var expired []Queue
	for _, q := range r.queues {
		if q.Expired(now) {
			expired = append(expired, q)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].Deadline.Before(*expired[j].Deadline) })
	out := make([]string, len(expired))
	for i, q := range expired {
		out[i] = q.RequestID
	}
	return out, nil
}

func clone(q Queue) Queue {
	q.CVs = append([]string(nil), q.CVs...)
	return q
}
