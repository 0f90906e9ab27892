package requests

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/catalog"
	"github.com/helpinghands/helpinghands/internal/ids"
	"github.com/helpinghands/helpinghands/internal/infra"
)

const maxDescription = 700

// Flagger raises an automatic moderation flag on a request.
type Flagger interface {
	AutoFlag(ctx context.Context, requestID, reason string) error
}

// ShortlistCounter reports how many CSRs shortlisted each request.
type ShortlistCounter interface {
	CountByRequest(ctx context.Context, requestIDs []string) (map[string]int, error)
}

// SubmitInput is the payload of a new request.
type SubmitInput struct {
	ServiceType     string `json:"service_type" form:"service_type"`
	AppointmentDate string `json:"appointment_date" form:"appointment_date"`
	AppointmentTime string `json:"appointment_time" form:"appointment_time"`
	PickupLocation  string `json:"pickup_location" form:"pickup_location"`
	ServiceLocation string `json:"service_location" form:"service_location"`
	Description     string `json:"description" form:"description"`
}

// Service implements the PIN side of the request lifecycle.
type Service struct {
	repo      Repository
	flagger   Flagger
	shortlist ShortlistCounter
	tx        infra.Transactor
	now       func() time.Time
}

// NewService wires the request service. flagger and shortlist may be nil.
func NewService(repo Repository, flagger Flagger, shortlist ShortlistCounter) *Service {
	return &Service{repo: repo, flagger: flagger, shortlist: shortlist, tx: infra.NoTx{}, now: time.Now}
}

// WithTransactor makes Submit store the request and its flag atomically.
func (s *Service) WithTransactor(tx infra.Transactor) *Service {
	s.tx = tx
	return s
}

// Repository exposes the store to collaborating services.
func (s *Service) Repository() Repository {
	return s.repo
}

// Submit validates and stores a new request for pinID. Text hitting the
// moderation keywords lands in review with an automatic flag.
func (s *Service) Submit(ctx context.Context, pinID string, in SubmitInput) (Request, error) {
	req, err := s.validate(pinID, in)
	if err != nil {
		return Request{}, err
	}
	flagged, reason := Moderate(req.Description)
	if flagged {
		req.Status = StatusReview
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, req); err != nil {
			return err
		}
		if flagged && s.flagger != nil {
			return s.flagger.AutoFlag(ctx, req.ID, reason)
		}
		return nil
	})
	if err != nil {
		return Request{}, err
	}
	return s.repo.Get(ctx, req.ID)
}

func (s *Service) validate(pinID string, in SubmitInput) (Request, error) {
	if !catalog.ValidCategory(in.ServiceType) {
		return Request{}, apperr.Invalid("invalid service_type")
	}
	date, err := ParseDay(strings.TrimSpace(in.AppointmentDate))
	if err != nil {
		return Request{}, apperr.Invalid("appointment_date must be YYYY-MM-DD")
	}
	at, err := parseClock(strings.TrimSpace(in.AppointmentTime))
	if err != nil {
		return Request{}, apperr.Invalid("appointment_time must be HH:MM")
	}
	pickup, service := strings.TrimSpace(in.PickupLocation), strings.TrimSpace(in.ServiceLocation)
	if pickup == "" || service == "" {
		return Request{}, apperr.Invalid("pickup_location and service_location are required")
	}
	desc := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(desc) > maxDescription {
		return Request{}, apperr.Invalid("description must be at most 700 characters")
	}
	now := s.now().UTC()
	return Request{
		ID:              ids.New(ids.Request),
		PINID:           pinID,
		ServiceType:     catalog.Category(in.ServiceType),
		AppointmentDate: date,
		AppointmentTime: at,
		PickupLocation:  pickup,
		ServiceLocation: service,
		Description:     desc,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// parseClock accepts HH:MM or HH:MM:SS and normalises to HH:MM.
func parseClock(v string) (string, error) {
	t, err := time.Parse(TimeLayout, v)
	if err != nil {
		if t, err = time.Parse("15:04:05", v); err != nil {
			return "", err
		}
	}
	return t.Format(TimeLayout), nil
}

// Get returns the request with id.
func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	return s.repo.Get(ctx, id)
}

// ListForPIN lists the PIN's requests, newest first, optionally by status.
func (s *Service) ListForPIN(ctx context.Context, pinID, status string) ([]Summary, error) {
	f := Filter{PINID: pinID}
	if status != "" {
		if !ValidStatus(status) {
			return nil, apperr.Invalid("invalid status")
		}
		f.Statuses = []Status{Status(status)}
	}
	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.Summaries(ctx, list)
}

// Summaries attaches shortlist counts to list.
func (s *Service) Summaries(ctx context.Context, list []Request) ([]Summary, error) {
	counts := map[string]int{}
	if s.shortlist != nil && len(list) > 0 {
		reqIDs := make([]string, len(list))
		for i, r := range list {
			reqIDs[i] = r.ID
		}
		var err error
		if counts, err = s.shortlist.CountByRequest(ctx, reqIDs); err != nil {
			return nil, err
		}
	}
	out := make([]Summary, len(list))
	for i, r := range list {
		out[i] = NewSummary(r, counts[r.ID])
	}
	return out, nil
}
