package csr

import (
	"context"
	"sort"
	"sync"
)

type memoryShortlistRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[[2]string]Shortlist
}

// NewMemoryShortlistRepository builds an in-memory shortlist store for development and tests.
func NewMemoryShortlistRepository() ShortlistRepository {
	return &memoryShortlistRepository{rows: make(map[[2]string]Shortlist)}
}

func (r *memoryShortlistRepository) Add(_ context.Context, s Shortlist) (Shortlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{s.CSRID, s.RequestID}
	if existing, ok := r.rows[key]; ok {
		return existing, nil
	}
	r.nextID++
	s.ID = r.nextID
	r.rows[key] = s
	return s, nil
}

func (r *memoryShortlistRepository) Remove(_ context.Context, csrID, requestID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{csrID, requestID}
	if _, ok := r.rows[key]; !ok {
		return false, nil
	}
	delete(r.rows, key)
	return true, nil
}

func (r *memoryShortlistRepository) ListForCSR(_ context.Context, csrID string) ([]Shortlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Shortlist, 0)
	for _, s := range r.rows {
		if s.CSRID == csrID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *memoryShortlistRepository) CountByRequest(_ context.Context, requestIDs []string) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := make(map[string]bool, len(requestIDs))
	for _, id := range requestIDs {
		want[id] = true
	}
	out := make(map[string]int, len(requestIDs))
	for _, s := range r.rows {
		if want[s.RequestID] {
			out[s.RequestID]++
		}
	}
	return out, nil
}
