package flags

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	flags  map[int64]Flag
}

// NewMemoryRepository builds an in-memory flag store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{flags: make(map[int64]Flag)}
}

func (r *memoryRepository) Create(_ context.Context, f Flag) (Flag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	f.ID = r.nextID
	r.flags[f.ID] = f
	return f, nil
}

func (r *memoryRepository) Get(_ context.Context, id int64) (Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.flags[id]
	if !ok {
		return Flag{}, ErrNotFound
	}
	return f, nil
}

func (r *memoryRepository) Save(_ context.Context, f Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flags[f.ID]; !ok {
		return ErrNotFound
	}
	r.flags[f.ID] = f
	return nil
}

func (r *memoryRepository) List(_ context.Context, filter Filter) ([]Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Flag, 0)
	for _, f := range r.flags {
		if filter.Resolved != nil && f.Resolved != *filter.Resolved {
			continue
		}
		if filter.Type != "" && f.Type != filter.Type {
			continue
		}
		if !filter.From.IsZero() && f.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !f.CreatedAt.Before(filter.To) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *memoryRepository) Counts(_ context.Context) (int, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var open, resolved int
	for _, f := range r.flags {
		if f.Resolved {
			resolved++
		} else {
			open++
		}
	}
	return open, resolved, nil
}
