package chat

import "time"

// MaxBody is the longest message accepted, in characters.
const MaxBody = 5000

// ExpiryAfterCompletion is how long a chat stays open once its request completes.
const ExpiryAfterCompletion = 24 * time.Hour

// Room is the conversation between the PIN and CV of one request.
type Room struct {
	ID        string     `json:"id"`
	RequestID string     `json:"request_id"`
	OpensAt   time.Time  `json:"opens_at"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsOpen reports whether messages may be sent at now.
func (r Room) IsOpen(now time.Time) bool {
	if now.Before(r.OpensAt) {
		return false
	}
	return r.ExpiresAt == nil || !now.After(*r.ExpiresAt)
}

// RoomView is a room as listed to its participants.
type RoomView struct {
	Room
	ServiceType string `json:"service_type"`
	IsOpen      bool   `json:"is_open"`
}

// Message is one chat line.
type Message struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"room"`
	SenderID  string    `json:"sender_id"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusFilter narrows a chat listing.
type StatusFilter string

const (
	FilterAll    StatusFilter = "all"
	FilterOpen   StatusFilter = "open"
	FilterClosed StatusFilter = "closed"
)
