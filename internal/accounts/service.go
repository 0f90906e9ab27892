package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/helpinghands/helpinghands/internal/apperr"
)

// ErrInvalidCredentials is returned for any unknown username or wrong password.
var ErrInvalidCredentials = apperr.Unauthorized("Invalid credentials")

// Service manages the account lifecycle.
type Service struct {
	repo Repository
	cost int
}

// NewService creates a new account service hashing with bcrypt's default cost.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// NewServiceWithCost is NewService with an explicit bcrypt cost, used by the
// seeder and tests to keep hashing fast.
func NewServiceWithCost(repo Repository, cost int) *Service {
	return &Service{repo: repo, cost: cost}
}

// Repository exposes the underlying store to collaborating services.
func (s *Service) Repository() Repository {
	return s.repo
}

// Register creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, in NewUser) (User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return User{}, apperr.Invalid("username is required")
	}
	if len(in.Password) < 8 {
		return User{}, apperr.Invalid("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, err
	}
	role := in.Role
	if role == "" {
		role = RoleUnknown
	}

	user := User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate verifies a username and password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(strings.TrimSpace(password))); err != nil {
		return User{}, ErrInvalidCredentials
	}
	now := time.Now().UTC()
	if err := s.repo.TouchLogin(ctx, user.ID, now); err != nil {
		return User{}, err
	}
	user.LastLogin = &now
	return user, nil
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// AssignRole records the role derived from a newly attached profile.
func (s *Service) AssignRole(ctx context.Context, id string, role Role) error {
	return s.repo.SetRole(ctx, id, role)
}

// ChangePassword replaces the password hash and invalidates issued sessions.
func (s *Service) ChangePassword(ctx context.Context, id, password string) error {
	if len(password) < 8 {
		return apperr.Invalid("password must be at least 8 characters")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	return s.repo.UpdateTokenVersion(ctx, id, user.TokenVersion+1)
}

// BumpTokenVersion invalidates every session issued for the user.
func (s *Service) BumpTokenVersion(ctx context.Context, id string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.UpdateTokenVersion(ctx, id, user.TokenVersion+1)
}
