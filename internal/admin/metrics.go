// Package admin implements the platform admin dashboard metrics and the
// request report export.
package admin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/profiles"
	"github.com/helpinghands/helpinghands/internal/requests"
)

// Granularity of the dashboard charts.
const (
	GranularityDay   = "day"
	GranularityWeek  = "week"
	GranularityMonth = "month"
	GranularityYear  = "year"
)

// Flags counts moderation flags.
type Flags interface {
	Counts(ctx context.Context) (open, resolved int, err error)
}

// Cards are the headline totals.
type Cards struct {
	TotalPINs int            `json:"total_pins"`
	TotalCVs  int            `json:"total_cvs"`
	TotalCSRs int            `json:"total_csrs"`
	Requests  map[string]int `json:"requests"`
	Flags     map[string]int `json:"flags"`
}

// RequestBucket counts requests created in one period by status.
type RequestBucket struct {
	Date     string `json:"date"`
	Review   int    `json:"review"`
	Pending  int    `json:"pending"`
	Active   int    `json:"active"`
	Complete int    `json:"complete"`
}

// UserBucket counts profiles created in one period.
type UserBucket struct {
	Date string `json:"date"`
	PINs int    `json:"pins"`
	CVs  int    `json:"cvs"`
	CSRs int    `json:"csrs"`
}

// Range is the inclusive date range of the charts.
type Range struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Charts are the bucketed time series.
type Charts struct {
	Granularity      string          `json:"granularity"`
	Range            Range           `json:"range"`
	RequestsByStatus []RequestBucket `json:"requests_by_status"`
	NewUsers         []UserBucket    `json:"new_users"`
}

// Metrics is the admin dashboard payload.
type Metrics struct {
	Cards  Cards  `json:"cards"`
	Charts Charts `json:"charts"`
}

// Service computes admin metrics and reports.
type Service struct {
	requests requests.Repository
	profiles *profiles.Service
	flags    Flags
	now      func() time.Time
}

// NewService wires the admin service.
func NewService(reqs requests.Repository, profs *profiles.Service, flags Flags) *Service {
	return &Service{requests: reqs, profiles: profs, flags: flags, now: time.Now}
}

// normaliseGranularity maps anything unknown to day.
func normaliseGranularity(g string) string {
	switch g = strings.ToLower(strings.TrimSpace(g)); g {
	case GranularityWeek, GranularityMonth, GranularityYear:
		return g
	default:
		return GranularityDay
	}
}

// bucketKey labels the period containing t.
func bucketKey(granularity string, t time.Time) string {
	t = t.UTC()
	switch granularity {
	case GranularityYear:
		return t.Format("2006")
	case GranularityMonth:
		return t.Format("2006-01")
	case GranularityWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return t.Format(requests.DateLayout)
	}
}

func parseOptionalDay(name, v string) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, nil
	}
	d, err := requests.ParseDay(v)
	if err != nil {
		return time.Time{}, false, apperr.Invalid(fmt.Sprintf("invalid %s date, expected YYYY-MM-DD", name))
	}
	return d.Time, true, nil
}

// dateRange resolves the chart range. to defaults to today and from to the
// day of the earliest request.
func (s *Service) dateRange(ctx context.Context, from, to string) (time.Time, time.Time, error) {
	end, ok, err := parseOptionalDay("to", to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !ok {
		end = requests.NewDay(s.now().UTC()).Time
	}
	start, ok, err := parseOptionalDay("from", from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !ok {
		start = end
		earliest, found, err := s.requests.EarliestCreated(ctx)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if found {
			start = requests.NewDay(earliest.UTC()).Time
		}
	}
	return start, end, nil
}

// Metrics builds the dashboard cards and charts.
func (s *Service) Metrics(ctx context.Context, granularity, from, to string) (Metrics, error) {
	granularity = normaliseGranularity(granularity)
	start, end, err := s.dateRange(ctx, from, to)
	if err != nil {
		return Metrics{}, err
	}
	cards, err := s.cards(ctx)
	if err != nil {
		return Metrics{}, err
	}
	upper := end.AddDate(0, 0, 1)

	list, err := s.requests.List(ctx, requests.Filter{CreatedFrom: start, CreatedTo: upper})
	if err != nil {
		return Metrics{}, err
	}
	reqBuckets := map[string]*RequestBucket{}
	for _, r := range list {
		key := bucketKey(granularity, r.CreatedAt)
		b, ok := reqBuckets[key]
		if !ok {
			b = &RequestBucket{Date: key}
			reqBuckets[key] = b
		}
		switch r.Status {
		case requests.StatusReview:
			b.Review++
		case requests.StatusPending:
			b.Pending++
		case requests.StatusActive:
			b.Active++
		case requests.StatusComplete:
			b.Complete++
		}
	}

	userBuckets := map[string]*UserBucket{}
	for _, kind := range []profiles.Kind{profiles.KindPIN, profiles.KindCV, profiles.KindCSR} {
		times, err := s.profiles.CreatedBetween(ctx, kind, start, upper)
		if err != nil {
			return Metrics{}, err
		}
		for _, t := range times {
			key := bucketKey(granularity, t)
			b, ok := userBuckets[key]
			if !ok {
				b = &UserBucket{Date: key}
				userBuckets[key] = b
			}
			switch kind {
			case profiles.KindPIN:
				b.PINs++
			case profiles.KindCV:
				b.CVs++
			case profiles.KindCSR:
				b.CSRs++
			}
		}
	}

	return Metrics{
		Cards: cards,
		Charts: Charts{
			Granularity:      granularity,
			Range:            Range{From: start.Format(requests.DateLayout), To: end.Format(requests.DateLayout)},
			RequestsByStatus: ordered(reqBuckets),
			NewUsers:         ordered(userBuckets),
		},
	}, nil
}

func ordered[T any](m map[string]*T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, *m[k])
	}
	return out
}

func (s *Service) cards(ctx context.Context) (Cards, error) {
	var (
		c   Cards
		err error
	)
	if c.TotalPINs, err = s.profiles.Count(ctx, profiles.KindPIN); err != nil {
		return Cards{}, err
	}
	if c.TotalCVs, err = s.profiles.Count(ctx, profiles.KindCV); err != nil {
		return Cards{}, err
	}
	if c.TotalCSRs, err = s.profiles.Count(ctx, profiles.KindCSR); err != nil {
		return Cards{}, err
	}
	byStatus, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return Cards{}, err
	}
	c.Requests = map[string]int{}
	for _, st := range []requests.Status{requests.StatusReview, requests.StatusPending, requests.StatusActive, requests.StatusComplete, requests.StatusRejected} {
		c.Requests[string(st)] = byStatus[st]
	}
	open, resolved, err := s.flags.Counts(ctx)
	if err != nil {
		return Cards{}, err
	}
	c.Flags = map[string]int{"open": open, "resolved": resolved}
	return c, nil
}
