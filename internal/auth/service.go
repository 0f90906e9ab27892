package auth

import (
	"context"
	"errors"
	"time"

	"github.com/helpinghands/helpinghands/internal/accounts"
	"github.com/helpinghands/helpinghands/internal/apperr"
)

var (
	ErrInvalidSession = apperr.Unauthorized("invalid session")
	ErrSessionRevoked = apperr.Unauthorized("session invalidated")
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    string
	Role      accounts.Role
	ProfileID string
}

// ProfileResolver maps a user to the id of the profile backing its role.
type ProfileResolver interface {
	ProfileID(ctx context.Context, userID string, role accounts.Role) (string, error)
}

// Session is the outcome of a successful login.
type Session struct {
	User      accounts.User
	Token     string
	ExpiresAt time.Time
}

// Service issues and verifies login sessions.
type Service struct {
	users    *accounts.Service
	tokens   *TokenIssuer
	profiles ProfileResolver
}

// NewService wires the session service. profiles may be nil, in which case
// principals carry no profile id.
func NewService(users *accounts.Service, tokens *TokenIssuer, profiles ProfileResolver) *Service {
	return &Service{users: users, tokens: tokens, profiles: profiles}
}

// Login validates credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return Session{}, err
	}
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token, ExpiresAt: exp}, nil
}

// Verify resolves a session token into a principal. Tokens issued before the
// last logout or password change are rejected.
func (s *Service) Verify(ctx context.Context, token string) (Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Principal{}, ErrInvalidSession
	}
	user, err := s.users.Get(ctx, claims.Subject)
	if errors.Is(err, accounts.ErrNotFound) {
		return Principal{}, ErrInvalidSession
	}
	if err != nil {
		return Principal{}, err
	}
	if user.TokenVersion != claims.Version {
		return Principal{}, ErrSessionRevoked
	}

	p := Principal{UserID: user.ID, Role: user.Role}
	if s.profiles != nil && user.Role != accounts.RoleUnknown {
		id, err := s.profiles.ProfileID(ctx, user.ID, user.Role)
		if err != nil {
			return Principal{}, err
		}
		p.ProfileID = id
	}
	return p, nil
}

// Logout bumps the token version so every issued token becomes invalid.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.users.BumpTokenVersion(ctx, userID)
}

// Me returns the account behind userID.
func (s *Service) Me(ctx context.Context, userID string) (accounts.User, error) {
	return s.users.Get(ctx, userID)
}
