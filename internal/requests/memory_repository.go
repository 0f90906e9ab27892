package requests

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	requests map[string]Request
	now      func() time.Time
}

// NewMemoryRepository builds an in-memory request store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{requests: make(map[string]Request), now: time.Now}
}

func (r *memoryRepository) Create(_ context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.settle(req.CreatedAt)
	r.requests[req.ID] = req
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (r *memoryRepository) List(_ context.Context, f Filter) ([]Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids map[string]bool
	if f.IDs != nil {
		ids = make(map[string]bool, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = true
		}
	}
	out := make([]Request, 0)
	for _, req := range r.requests {
		if matches(req, f, ids) {
			out = append(out, req)
		}
	}
	sortRequests(out, f.Order)
	return out, nil
}

func matches(req Request, f Filter, ids map[string]bool) bool {
	switch {
	case f.PINID != "" && req.PINID != f.PINID:
		return false
	case f.CVID != "" && req.CVID != f.CVID:
		return false
	case f.CommittedBy != "" && req.CommittedBy != f.CommittedBy:
		return false
	case ids != nil && !ids[req.ID]:
		return false
	case f.ServiceType != "" && string(req.ServiceType) != f.ServiceType:
		return false
	case !f.CreatedFrom.IsZero() && req.CreatedAt.Before(f.CreatedFrom):
		return false
	case !f.CreatedTo.IsZero() && !req.CreatedAt.Before(f.CreatedTo):
		return false
	case !f.AppointmentFrom.IsZero() && req.AppointmentDate.Before(f.AppointmentFrom):
		return false
	case !f.AppointmentTo.IsZero() && req.AppointmentDate.After(f.AppointmentTo):
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if req.Status == s {
			return true
		}
	}
	return false
}

func sortRequests(out []Request, order Order) {
	switch order {
	case OrderAppointment:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].Appointment(), out[j].Appointment()
			if !a.Equal(b) {
				return a.Before(b)
			}
			return out[i].ID < out[j].ID
		})
	case OrderCompleted:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].CompletedAt, out[j].CompletedAt
			switch {
			case a == nil && b == nil:
				return out[i].CreatedAt.After(out[j].CreatedAt)
			case a == nil:
				return false
			case b == nil:
				return true
			}
			return a.After(*b)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID < out[j].ID
		})
	}
}

func (r *memoryRepository) Update(_ context.Context, id string, fn func(*Request) error) (Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	if err := fn(&req); err != nil {
		return Request{}, err
	}
	req.settle(r.now().UTC())
	r.requests[id] = req
	return req, nil
}

func (r *memoryRepository) CountByStatus(_ context.Context) (map[Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Status]int)
	for _, req := range r.requests {
		out[req.Status]++
	}
	return out, nil
}

func (r *memoryRepository) EarliestCreated(_ context.Context) (time.Time, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		earliest time.Time
		found    bool
	)
	for _, req := range r.requests {
		if !found || req.CreatedAt.Before(earliest) {
			earliest, found = req.CreatedAt, true
		}
	}
	return earliest, found, nil
}
