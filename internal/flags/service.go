package flags

import (
	"context"
	"strings"
	"time"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/infra"
	"github.com/helpinghands/helpinghands/internal/requests"
)

// ErrNotPA is returned when a resolver has no PA profile.
var ErrNotPA = apperr.Forbidden("Current user is not a Platform Admin (PA profile missing).")

// CSRNames maps CSR ids to display names.
type CSRNames interface {
	CSRNames(ctx context.Context, csrIDs []string) (map[string]string, error)
}

// Service raises and resolves flags, keeping the flagged request's status in step.
type Service struct {
	repo     Repository
	requests requests.Repository
	names    CSRNames
	tx       infra.Transactor
	now      func() time.Time
}

// NewService wires the flag service. names may be nil.
func NewService(repo Repository, reqs requests.Repository, names CSRNames) *Service {
	return &Service{repo: repo, requests: reqs, names: names, tx: infra.NoTx{}, now: time.Now}
}

// WithTransactor makes flag writes and the matching request status change
// commit together.
func (s *Service) WithTransactor(tx infra.Transactor) *Service {
	s.tx = tx
	return s
}

// AutoFlag raises a moderation flag on requestID.
func (s *Service) AutoFlag(ctx context.Context, requestID, reason string) error {
	_, err := s.raise(ctx, requestID, TypeAuto, "", reason, defaultAutoReason)
	return err
}

// ManualFlag records a CSR's flag on requestID.
func (s *Service) ManualFlag(ctx context.Context, requestID, csrID, reason string) (Flag, error) {
	return s.raise(ctx, requestID, TypeManual, csrID, reason, defaultManualReason)
}

func (s *Service) raise(ctx context.Context, requestID string, t Type, csrID, reason, fallback string) (Flag, error) {
	if _, err := s.requests.Get(ctx, requestID); err != nil {
		return Flag{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = fallback
	}
	var f Flag
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		created, err := s.repo.Create(ctx, Flag{
			RequestID: requestID,
			Type:      t,
			CSRID:     csrID,
			Reason:    reason,
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return err
		}
		f = created
		_, err = s.requests.Update(ctx, requestID, func(r *requests.Request) error {
			r.Status = requests.StatusReview
			return nil
		})
		return err
	})
	if err != nil {
		return Flag{}, err
	}
	return f, nil
}

// Accept clears the flag and returns the request to the pool.
func (s *Service) Accept(ctx context.Context, id int64, paID, notes string) (Flag, error) {
	return s.resolve(ctx, id, paID, OutcomeAccepted, strings.TrimSpace(notes), requests.StatusPending)
}

// Reject upholds the flag and rejects the request.
func (s *Service) Reject(ctx context.Context, id int64, paID, notes string) (Flag, error) {
	note := "Rejected by PA."
	if notes = strings.TrimSpace(notes); notes != "" {
		note = "Rejected by PA: " + notes
	}
	return s.resolve(ctx, id, paID, OutcomeRejected, note, requests.StatusRejected)
}

func (s *Service) resolve(ctx context.Context, id int64, paID string, outcome Outcome, note string, next requests.Status) (Flag, error) {
	if paID == "" {
		return Flag{}, ErrNotPA
	}
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return Flag{}, err
	}
	now := s.now().UTC()
	f.Resolved = true
	f.ResolvedAt = &now
	f.ResolvedBy = paID
	f.ResolutionOutcome = outcome
	f.ResolutionNotes = appendNote(f.ResolutionNotes, note)
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Save(ctx, f); err != nil {
			return err
		}
		_, err := s.requests.Update(ctx, f.RequestID, func(r *requests.Request) error {
			r.Status = next
			return nil
		})
		return err
	})
	if err != nil {
		return Flag{}, err
	}
	return f, nil
}

// List returns flags matching filter, newest first, with request details.
func (s *Service) List(ctx context.Context, filter Filter) ([]View, error) {
	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, list)
}

// View decorates a single flag.
func (s *Service) View(ctx context.Context, f Flag) (View, error) {
	views, err := s.views(ctx, []Flag{f})
	if err != nil {
		return View{}, err
	}
	return views[0], nil
}

// Counts returns the number of open and resolved flags.
func (s *Service) Counts(ctx context.Context) (open, resolved int, err error) {
	return s.repo.Counts(ctx)
}

func (s *Service) views(ctx context.Context, list []Flag) ([]View, error) {
	reqIDs := make([]string, 0, len(list))
	var csrIDs []string
	for _, f := range list {
		reqIDs = append(reqIDs, f.RequestID)
		if f.CSRID != "" {
			csrIDs = append(csrIDs, f.CSRID)
		}
	}
	reqs, err := s.requests.List(ctx, requests.Filter{IDs: reqIDs})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]requests.Request, len(reqs))
	for _, r := range reqs {
		byID[r.ID] = r
	}
	names := map[string]string{}
	if s.names != nil && len(csrIDs) > 0 {
		if names, err = s.names.CSRNames(ctx, csrIDs); err != nil {
			return nil, err
		}
	}

	out := make([]View, len(list))
	for i, f := range list {
		v := View{Flag: f}
		if r, ok := byID[f.RequestID]; ok {
			v.RequestStatus, v.ServiceType = string(r.Status), string(r.ServiceType)
		}
		if name, ok := names[f.CSRID]; ok {
			v.CSRName = &name
		}
		out[i] = v
	}
	return out, nil
}

// ParseFilter builds a filter from query values. resolved is matched against
// "true" case-insensitively; dates are YYYY-MM-DD and ignored when unparsable.
func ParseFilter(resolved, flagType, from, to string) Filter {
	var f Filter
	if resolved != "" {
		v := strings.EqualFold(resolved, "true")
		f.Resolved = &v
	}
	f.Type = Type(strings.ToLower(strings.TrimSpace(flagType)))
	if d, err := time.Parse(requests.DateLayout, from); err == nil {
		f.From = d
	}
	if d, err := time.Parse(requests.DateLayout, to); err == nil {
		f.To = d.AddDate(0, 0, 1)
	}
	return f
}
