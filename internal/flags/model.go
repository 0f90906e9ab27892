package flags

import "time"

// Type tells how a flag was raised.
type Type string

const (
	TypeAuto   Type = "auto"
	TypeManual Type = "manual"
)

// Outcome records how a PA resolved a flag.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

const (
	defaultAutoReason   = "Auto moderation flagged this request."
	defaultManualReason = "CSR manually flagged this request."
)

// Flag marks a request for PA review.
type Flag struct {
	ID                int64      `json:"id"`
	RequestID         string     `json:"request_id"`
	Type              Type       `json:"flag_type"`
	CSRID             string     `json:"csr_id,omitempty"`
	Reason            string     `json:"reason"`
	Resolved          bool       `json:"resolved"`
	ResolvedAt        *time.Time `json:"resolved_at"`
	ResolvedBy        string     `json:"resolved_by"`
	ResolutionNotes   string     `json:"resolution_notes"`
	ResolutionOutcome Outcome    `json:"resolution_outcome"`
	CreatedAt         time.Time  `json:"created_at"`
}

// View is a flag with the request and CSR details shown to admins.
type View struct {
	Flag
	RequestStatus string  `json:"request_status"`
	ServiceType   string  `json:"service_type"`
	CSRName       *string `json:"csr_name"`
}

// Filter narrows a flag listing. Nil or zero fields do not filter.
type Filter struct {
	Resolved *bool
	Type     Type
	From     time.Time
	To       time.Time
}

func appendNote(existing, note string) string {
	if note == "" {
		return existing
	}
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
