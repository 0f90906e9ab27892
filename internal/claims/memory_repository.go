package claims

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	claims   map[string]Claim
	disputes []Dispute
}

// NewMemoryRepository builds an in-memory claim store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{claims: make(map[string]Claim)}
}

func (r *memoryRepository) Create(_ context.Context, c Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims[c.ID] = c
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.claims[id]
	if !ok {
		return Claim{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryRepository) SetStatus(_ context.Context, id string, status Status, at time.Time) (Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[id]
	if !ok {
		return Claim{}, ErrNotFound
	}
	c.Status, c.UpdatedAt = status, at
	r.claims[id] = c
	return c, nil
}

func (r *memoryRepository) ListForRequests(_ context.Context, requestIDs []string) ([]Claim, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := make(map[string]bool, len(requestIDs))
	for _, id := range requestIDs {
		want[id] = true
	}
	out := make([]Claim, 0)
	for _, c := range r.claims {
		if want[c.RequestID] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryRepository) AddDispute(_ context.Context, d Dispute) (Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[d.ClaimID]
	if !ok {
		return Dispute{}, ErrNotFound
	}
	c.Status, c.UpdatedAt = StatusDisputed, d.CreatedAt
	r.claims[c.ID] = c
	d.ID = int64(len(r.disputes) + 1)
	r.disputes = append(r.disputes, d)
	return d, nil
}

func (r *memoryRepository) ListDisputes(_ context.Context, claimIDs []string) ([]Dispute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := make(map[string]bool, len(claimIDs))
	for _, id := range claimIDs {
		want[id] = true
	}
	out := make([]Dispute, 0)
	for _, d := range r.disputes {
		if want[d.ClaimID] {
			out = append(out, d)
		}
	}
	return out, nil
}
