package safety

import (
	"context"
	"log/slog"
	"time"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/profiles"
	"github.com/helpinghands/helpinghands/internal/requests"
)

// ErrNotYourRequest is returned when a CV asks about someone else's request.
var ErrNotYourRequest = apperr.Forbidden("Not your request.")

// PINs loads the person a request is for.
type PINs interface {
	GetPIN(ctx context.Context, id string) (profiles.PIN, error)
}

// Result is the tip list for one request.
type Result struct {
	RequestID string   `json:"request_id"`
	Tips      []string `json:"tips"`
	Source    string   `json:"source"`
}

// Service assembles safety tips for the CV assigned to a request.
type Service struct {
	requests requests.Repository
	pins     PINs
	advisor  Advisor
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the safety service. advisor may be nil.
func NewService(reqs requests.Repository, pins PINs, advisor Advisor, logger *slog.Logger) *Service {
	return &Service{requests: reqs, pins: pins, advisor: advisor, logger: logger, now: time.Now}
}

// Tips returns the rule tips for the request, extended by the advisor when
// one is configured. Advisor failures fall back to the rules.
func (s *Service) Tips(ctx context.Context, cvID, requestID string) (Result, error) {
	r, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return Result{}, err
	}
	if r.CVID == "" || r.CVID != cvID {
		return Result{}, ErrNotYourRequest
	}
	pin, err := s.pins.GetPIN(ctx, r.PINID)
	if err != nil {
		return Result{}, err
	}
	b := Brief{
		ServiceType:     string(r.ServiceType),
		ServiceLocation: r.ServiceLocation,
		PreferredGender: pin.PreferredGender,
	}
	if !pin.DOB.IsZero() {
		b.PINAge = pin.AgeOn(s.now())
	}

	out := Result{RequestID: r.ID, Tips: RuleTips(b), Source: SourceRules}
	if s.advisor == nil {
		return out, nil
	}
	extra, err := s.advisor.Tips(ctx, b)
	if err != nil {
		s.logger.Warn("safety advisor failed", slog.String("request_id", r.ID), slog.Any("error", err))
		return out, nil
	}
	if len(extra) > 0 {
		out.Tips = append(out.Tips, extra...)
		out.Source = SourceLLM
	}
	return out, nil
}
