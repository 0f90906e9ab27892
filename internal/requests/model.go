package requests

import (
	"encoding/json"
	"time"

	"github.com/helpinghands/helpinghands/internal/catalog"
)

// Status is the lifecycle state of a request.
type Status string

const (
	StatusReview    Status = "review"
	StatusRejected  Status = "rejected"
	StatusPending   Status = "pending"
	StatusCommitted Status = "committed"
	StatusActive    Status = "active"
	StatusComplete  Status = "complete"
)

// Statuses lists every status.
var Statuses = []Status{StatusReview, StatusRejected, StatusPending, StatusCommitted, StatusActive, StatusComplete}

// ValidStatus reports whether v names a status.
func ValidStatus(v string) bool {
	for _, s := range Statuses {
		if string(s) == v {
			return true
		}
	}
	return false
}

// DateLayout is the wire format of appointment dates.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format of appointment times.
const TimeLayout = "15:04"

// Day is a calendar date rendered as YYYY-MM-DD.
type Day struct{ time.Time }

// NewDay truncates t to its UTC date.
func NewDay(t time.Time) Day {
	y, m, d := t.Date()
	return Day{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(v string) (Day, error) {
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return Day{}, err
	}
	return Day{t}, nil
}

func (d Day) String() string { return d.Format(DateLayout) }

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Request is an assistance request raised by a PIN.
type Request struct {
	ID              string           `json:"id"`
	PINID           string           `json:"pin_id"`
	CVID            string           `json:"cv_id,omitempty"`
	ServiceType     catalog.Category `json:"service_type"`
	AppointmentDate Day              `json:"appointment_date"`
	AppointmentTime string           `json:"appointment_time"`
	PickupLocation  string           `json:"pickup_location"`
	ServiceLocation string           `json:"service_location"`
	Description     string           `json:"description"`
	Status          Status           `json:"status"`
	CommittedBy     string           `json:"committed_by_csr,omitempty"`
	CommittedAt     *time.Time       `json:"committed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
}

// Appointment returns the appointment start as a UTC timestamp.
func (r Request) Appointment() time.Time {
	t, err := time.Parse(TimeLayout, r.AppointmentTime)
	if err != nil {
		return r.AppointmentDate.Time
	}
	y, m, d := r.AppointmentDate.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// settle enforces the invariants every stored request satisfies.
func (r *Request) settle(now time.Time) {
	if r.Status == StatusComplete && r.CompletedAt == nil {
		at := now
		r.CompletedAt = &at
	}
	if r.Status == StatusPending {
		r.CommittedBy = ""
		r.CommittedAt = nil
	}
	r.UpdatedAt = now
}

// Order selects the sort order of a listing.
type Order int

const (
	// OrderNewest sorts by creation time, newest first.
	OrderNewest Order = iota
	// OrderAppointment sorts by appointment date and time, soonest first.
	OrderAppointment
	// OrderCompleted sorts by completion time, newest first.
	OrderCompleted
)

// Filter narrows a listing. Zero fields do not filter.
type Filter struct {
	PINID           string
	CVID            string
	CommittedBy     string
	Statuses        []Status
	IDs             []string
	ServiceType     string
	CreatedFrom     time.Time
	CreatedTo       time.Time
	AppointmentFrom time.Time
	AppointmentTo   time.Time
	Order           Order
}

// Summary is a request with its shortlist count.
type Summary struct {
	Request
	ShortlistCount int `json:"shortlist_count"`
}

// NewSummary wraps r for listing.
func NewSummary(r Request, shortlisted int) Summary {
	return Summary{Request: r, ShortlistCount: shortlisted}
}
