package otp

import "time"

// Purpose scopes a code to one flow.
type Purpose string

const (
	PurposeProfileUpdate  Purpose = "profile_update"
	PurposePasswordChange Purpose = "password_change"
)

// Code is a one-time code emailed to a user.
type Code struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	Purpose   Purpose   `json:"purpose"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Consumed  bool      `json:"consumed"`
}

// ValidAt reports whether the code can still be redeemed at now.
func (c Code) ValidAt(now time.Time) bool {
	return !c.Consumed && now.Before(c.ExpiresAt)
}

// Ticket tells the caller a code is on its way.
type Ticket struct {
	Sent      bool      `json:"sent"`
	ExpiresAt time.Time `json:"expires_at"`
}

type flow struct {
	ttl     time.Duration
	subject string
}

var flows = map[Purpose]flow{
	PurposeProfileUpdate:  {ttl: 5 * time.Minute, subject: "Your Helping Hands OTP Code"},
	PurposePasswordChange: {ttl: 10 * time.Minute, subject: "Your Helping Hands Password OTP"},
}
