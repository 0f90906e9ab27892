package accounts

import "time"

// Role is the workspace a user belongs to. It is derived from the profile
// attached to the account.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCSR     Role = "CSR"
	RoleCV      Role = "CV"
	RolePIN     Role = "PIN"
	RoleUnknown Role = "UNKNOWN"
)

// HomePath is where a freshly logged in user of the role lands.
func (r Role) HomePath() string {
	switch r {
	case RoleAdmin:
		return "/pa_dashboard/"
	case RoleCSR:
		return "/csr/home/"
	case RoleCV:
		return "/cv/home/"
	case RolePIN:
		return "/pin/home/"
	default:
		return "/"
	}
}

// User is a login account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	Role         Role
	TokenVersion int
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// NewUser captures what is needed to open an account.
type NewUser struct {
	Username string
	Email    string
	Password string
	Role     Role
}
