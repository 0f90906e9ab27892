package profiles

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu        sync.RWMutex
	companies map[string]Company
	pins      map[string]PIN
	cvs       map[string]CV
	csrs      map[string]CSR
	pas       map[string]PA
}

// NewMemoryRepository builds an in-memory profile store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		companies: make(map[string]Company),
		pins:      make(map[string]PIN),
		cvs:       make(map[string]CV),
		csrs:      make(map[string]CSR),
		pas:       make(map[string]PA),
	}
}

func (r *memoryRepository) CreateCompany(_ context.Context, c Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.companies[c.ID]; ok {
		return ErrCompanyExists
	}
	r.companies[c.ID] = c
	return nil
}

func (r *memoryRepository) GetCompany(_ context.Context, id string) (Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.companies[id]
	if !ok {
		return Company{}, ErrCompanyNotFound
	}
	return c, nil
}

func (r *memoryRepository) ListCompanies(_ context.Context) ([]Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Company, 0, len(r.companies))
	for _, c := range r.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// bases lists the base part of every profile of kind. Callers hold the lock.
func (r *memoryRepository) bases(kind Kind) []Base {
	var out []Base
	switch kind {
	case KindPIN:
		for _, p := range r.pins {
			out = append(out, p.Base)
		}
	case KindCV:
		for _, p := range r.cvs {
			out = append(out, p.Base)
		}
	case KindCSR:
		for _, p := range r.csrs {
			out = append(out, p.Base)
		}
	case KindPA:
		for _, p := range r.pas {
			out = append(out, p.Base)
		}
	}
	return out
}

func (r *memoryRepository) userTaken(kind Kind, userID string) bool {
	for _, b := range r.bases(kind) {
		if b.UserID == userID {
			return true
		}
	}
	return false
}

func (r *memoryRepository) CreatePIN(_ context.Context, p PIN) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pins[p.ID]; ok || r.userTaken(KindPIN, p.UserID) {
		return ErrProfileExists
	}
	r.pins[p.ID] = p
	return nil
}

func (r *memoryRepository) CreateCV(_ context.Context, p CV) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cvs[p.ID]; ok || r.userTaken(KindCV, p.UserID) {
		return ErrProfileExists
	}
	r.cvs[p.ID] = p
	return nil
}

func (r *memoryRepository) CreateCSR(_ context.Context, p CSR) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.csrs[p.ID]; ok || r.userTaken(KindCSR, p.UserID) {
		return ErrProfileExists
	}
	r.csrs[p.ID] = p
	return nil
}

func (r *memoryRepository) CreatePA(_ context.Context, p PA) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pas[p.ID]; ok || r.userTaken(KindPA, p.UserID) {
		return ErrProfileExists
	}
	r.pas[p.ID] = p
	return nil
}

func (r *memoryRepository) GetPIN(_ context.Context, id string) (PIN, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pins[id]
	if !ok {
		return PIN{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepository) GetCV(_ context.Context, id string) (CV, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.cvs[id]
	if !ok {
		return CV{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepository) GetCSR(_ context.Context, id string) (CSR, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.csrs[id]
	if !ok {
		return CSR{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepository) ProfileIDByUser(_ context.Context, kind Kind, userID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bases(kind) {
		if b.UserID == userID {
			return b.ID, nil
		}
	}
	return "", ErrNotFound
}

func (r *memoryRepository) ListCVs(_ context.Context) ([]CV, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CV, 0, len(r.cvs))
	for _, p := range r.cvs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepository) UpdatePIN(_ context.Context, p PIN) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pins[p.ID]; !ok {
		return ErrNotFound
	}
	r.pins[p.ID] = p
	return nil
}

func (r *memoryRepository) Count(_ context.Context, kind Kind) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bases(kind)), nil
}

func (r *memoryRepository) CreatedBetween(_ context.Context, kind Kind, from, to time.Time) ([]time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []time.Time
	for _, b := range r.bases(kind) {
		if !b.CreatedAt.Before(from) && b.CreatedAt.Before(to) {
			out = append(out, b.CreatedAt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (r *memoryRepository) Names(_ context.Context, kind Kind, ids []string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[string]string, len(ids))
	for _, b := range r.bases(kind) {
		if want[b.ID] {
			out[b.ID] = b.Name
		}
	}
	return out, nil
}
