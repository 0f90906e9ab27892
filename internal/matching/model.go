package matching

import (
	"time"

	"github.com/helpinghands/helpinghands/internal/catalog"
)

// Status is the state of an offer queue.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusFilled    Status = "filled"
	StatusExhausted Status = "exhausted"
)

const (
	// MaxCandidates is the length of an offer queue.
	MaxCandidates = 3
	// SuggestLimit caps the suggestion list.
	SuggestLimit = 7
	// DefaultOfferTimeout is how long a CV has to answer an offer.
	DefaultOfferTimeout = 30 * time.Minute
)

// Queue is the ordered list of CVs a request is offered to, one at a time.
type Queue struct {
	RequestID    string     `json:"request_id"`
	CVs          []string   `json:"cv_ids"`
	CurrentIndex int        `json:"current_index"`
	Status       Status     `json:"status"`
	SentAt       *time.Time `json:"sent_at"`
	Deadline     *time.Time `json:"deadline"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Current returns the CV holding the offer, or "" past the end of the queue.
func (q Queue) Current() string {
	return q.at(q.CurrentIndex)
}

func (q Queue) at(rank int) string {
	if rank < 1 || rank > len(q.CVs) {
		return ""
	}
	return q.CVs[rank-1]
}

// Expired reports whether the active offer ran past its deadline.
func (q Queue) Expired(now time.Time) bool {
	return q.Status == StatusActive && q.Deadline != nil && q.Deadline.Before(now)
}

func (q *Queue) offer(rank int, now time.Time, timeout time.Duration) {
	deadline := now.Add(timeout)
	q.CurrentIndex = rank
	q.Status = StatusActive
	q.SentAt = &now
	q.Deadline = &deadline
}

// Suggestion is a scored CV for a request. Reason holds the criteria that matched.
type Suggestion struct {
	CVID   string          `json:"cv_id"`
	Score  float64         `json:"score"`
	Reason map[string]bool `json:"reason"`
}

// Candidate is a queued CV as shown to the CSR.
type Candidate struct {
	Rank               int              `json:"rank"`
	CVID               string           `json:"cv_id"`
	Name               string           `json:"name"`
	Gender             catalog.Gender   `json:"gender"`
	MainLanguage       catalog.Language `json:"main_language"`
	SecondLanguage     catalog.Language `json:"second_language,omitempty"`
	CategoryPreference catalog.Category `json:"service_category_preference"`
	CompanyID          string           `json:"company_id"`
}

// Pool is a queue with its candidates.
type Pool struct {
	Queue
	Candidates []Candidate `json:"candidates"`
}
