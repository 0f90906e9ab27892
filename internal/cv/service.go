// Package cv implements the volunteer's view of their assigned requests.
package cv

import (
	"context"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/requests"
)

// ErrInvalidStatus is returned for list filters other than active and complete.
var ErrInvalidStatus = apperr.Invalid("Invalid status for CV list.")

// Service lists the requests assigned to a CV.
type Service struct {
	requests *requests.Service
}

// NewService wires the CV service.
func NewService(reqs *requests.Service) *Service {
	return &Service{requests: reqs}
}

// ListRequests returns the CV's active requests by appointment, or its
// completed ones by completion time.
func (s *Service) ListRequests(ctx context.Context, cvID, status string) ([]requests.Summary, error) {
	f := requests.Filter{CVID: cvID}
	switch requests.Status(status) {
	case "", requests.StatusActive:
		f.Statuses = []requests.Status{requests.StatusActive}
		f.Order = requests.OrderAppointment
	case requests.StatusComplete:
		f.Statuses = []requests.Status{requests.StatusComplete}
		f.Order = requests.OrderCompleted
	default:
		return nil, ErrInvalidStatus
	}
	if cvID == "" {
		return []requests.Summary{}, nil
	}
	list, err := s.requests.Repository().List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.requests.Summaries(ctx, list)
}
