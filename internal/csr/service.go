package csr

import (
	"context"
	"time"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/notification"
	"github.com/helpinghands/helpinghands/internal/requests"
)

const (
	dashboardNotifications = 30
	comingSoonDays         = 7
)

// ErrNotPending is returned when committing a request outside the pool.
var ErrNotPending = apperr.Conflict("Only PENDING requests can be committed.")

// Service implements the CSR workspace.
type Service struct {
	shortlist ShortlistRepository
	requests  *requests.Service
	notes     *notification.Service
	now       func() time.Time
}

// NewService wires the CSR service.
func NewService(shortlist ShortlistRepository, reqs *requests.Service, notes *notification.Service) *Service {
	return &Service{shortlist: shortlist, requests: reqs, notes: notes, now: time.Now}
}

func (s *Service) today() requests.Day {
	return requests.NewDay(s.now().UTC())
}

func (s *Service) list(ctx context.Context, f requests.Filter) ([]requests.Summary, error) {
	list, err := s.requests.Repository().List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.requests.Summaries(ctx, list)
}

// Dashboard gathers every active request due today, all requests the CSR has
// committed to whatever their status, and the user's latest notifications.
func (s *Service) Dashboard(ctx context.Context, csrID, userID string) (Dashboard, error) {
	today := s.today()
	active, err := s.list(ctx, requests.Filter{
		Statuses:        []requests.Status{requests.StatusActive},
		AppointmentFrom: today.Time,
		AppointmentTo:   today.Time,
		Order:           requests.OrderAppointment,
	})
	if err != nil {
		return Dashboard{}, err
	}
	committed, err := s.list(ctx, requests.Filter{CommittedBy: csrID})
	if err != nil {
		return Dashboard{}, err
	}
	notes, err := s.notes.List(ctx, userID, dashboardNotifications)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{TodayActive: active, Committed: committed, Notifications: notes}, nil
}

// Pool lists every pending request by appointment, and the ones due within a week.
func (s *Service) Pool(ctx context.Context) (Pool, error) {
	all, err := s.list(ctx, requests.Filter{
		Statuses: []requests.Status{requests.StatusPending},
		Order:    requests.OrderAppointment,
	})
	if err != nil {
		return Pool{}, err
	}
	from := s.today()
	to := from.AddDate(0, 0, comingSoonDays)
	soon := make([]requests.Summary, 0)
	for _, r := range all {
		if !r.AppointmentDate.Before(from.Time) && !r.AppointmentDate.After(to) {
			soon = append(soon, r)
		}
	}
	return Pool{ComingSoon: soon, AllRequests: all}, nil
}

// AddShortlist shortlists a request for the CSR. Adding twice returns the
// existing row.
func (s *Service) AddShortlist(ctx context.Context, csrID, requestID string) (ShortlistItem, error) {
	r, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return ShortlistItem{}, err
	}
	row, err := s.shortlist.Add(ctx, Shortlist{CSRID: csrID, RequestID: requestID, CreatedAt: s.now().UTC()})
	if err != nil {
		return ShortlistItem{}, err
	}
	return newShortlistItem(row, r), nil
}

// RemoveShortlist drops the CSR's shortlist row and reports whether one existed.
func (s *Service) RemoveShortlist(ctx context.Context, csrID, requestID string) (bool, error) {
	return s.shortlist.Remove(ctx, csrID, requestID)
}

// Shortlist lists the CSR's shortlisted requests that are still pending, newest first.
func (s *Service) Shortlist(ctx context.Context, csrID string) ([]ShortlistItem, error) {
	rows, err := s.shortlist.ListForCSR(ctx, csrID)
	if err != nil {
		return nil, err
	}
	out := make([]ShortlistItem, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	reqIDs := make([]string, len(rows))
	for i, row := range rows {
		reqIDs[i] = row.RequestID
	}
	reqs, err := s.requests.Repository().List(ctx, requests.Filter{
		IDs:      reqIDs,
		Statuses: []requests.Status{requests.StatusPending},
	})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]requests.Request, len(reqs))
	for _, r := range reqs {
		byID[r.ID] = r
	}
	for _, row := range rows {
		if r, ok := byID[row.RequestID]; ok {
			out = append(out, newShortlistItem(row, r))
		}
	}
	return out, nil
}

// Commit takes a pending request out of the pool for the CSR.
func (s *Service) Commit(ctx context.Context, csrID, requestID string) (requests.Request, error) {
	return s.requests.Repository().Update(ctx, requestID, func(r *requests.Request) error {
		if r.Status != requests.StatusPending {
			return ErrNotPending
		}
		now := s.now().UTC()
		r.Status = requests.StatusCommitted
		r.CommittedBy = csrID
		r.CommittedAt = &now
		return nil
	})
}

// Committed lists the CSR's requests awaiting a match.
func (s *Service) Committed(ctx context.Context, csrID string) ([]requests.Summary, error) {
	return s.list(ctx, requests.Filter{
		CommittedBy: csrID,
		Statuses:    []requests.Status{requests.StatusCommitted},
	})
}

// Notifications lists every notification of the CSR user, newest first.
func (s *Service) Notifications(ctx context.Context, userID string) ([]notification.Notification, error) {
	return s.notes.List(ctx, userID, 0)
}
