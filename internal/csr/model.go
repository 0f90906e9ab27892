package csr

import (
	"time"

	"github.com/helpinghands/helpinghands/internal/notification"
	"github.com/helpinghands/helpinghands/internal/requests"
)

// Shortlist records that a CSR is interested in a request.
type Shortlist struct {
	ID        int64     `json:"id"`
	CSRID     string    `json:"csr_id"`
	RequestID string    `json:"request_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ShortlistItem is a shortlist row joined with its request.
type ShortlistItem struct {
	ShortlistID     int64  `json:"shortlist_id"`
	RequestID       string `json:"request_id"`
	PIN             string `json:"pin"`
	Category        string `json:"category"`
	ServiceType     string `json:"service_type"`
	AppointmentDate string `json:"appointment_date"`
	Location        string `json:"location"`
	ServiceLocation string `json:"service_location"`
}

func newShortlistItem(s Shortlist, r requests.Request) ShortlistItem {
	return ShortlistItem{
		ShortlistID:     s.ID,
		RequestID:       r.ID,
		PIN:             r.PINID,
		Category:        string(r.ServiceType),
		ServiceType:     string(r.ServiceType),
		AppointmentDate: r.AppointmentDate.String(),
		Location:        r.ServiceLocation,
		ServiceLocation: r.ServiceLocation,
	}
}

// Dashboard is the CSR landing page.
type Dashboard struct {
	TodayActive   []requests.Summary          `json:"today_active"`
	Committed     []requests.Summary          `json:"committed"`
	Notifications []notification.Notification `json:"notifications"`
}

// Pool is the set of requests open for commitment.
type Pool struct {
	ComingSoon  []requests.Summary `json:"coming_soon"`
	AllRequests []requests.Summary `json:"all_requests"`
}
