// Package pin implements the PIN's account security flows: emailed one-time
// codes guard profile edits and password changes.
package pin

import (
	"context"

	"github.com/helpinghands/helpinghands/internal/accounts"
	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/otp"
	"github.com/helpinghands/helpinghands/internal/profiles"
)

// ErrNothingToUpdate is returned when a confirmed profile edit changes no field.
var ErrNothingToUpdate = apperr.Invalid("No profile fields to update.")

// Service runs the OTP-guarded PIN account flows.
type Service struct {
	users    *accounts.Service
	profiles *profiles.Service
	codes    *otp.Service
}

// NewService wires the PIN account service.
func NewService(users *accounts.Service, profiles *profiles.Service, codes *otp.Service) *Service {
	return &Service{users: users, profiles: profiles, codes: codes}
}

// Profile returns the PIN profile.
func (s *Service) Profile(ctx context.Context, pinID string) (profiles.PIN, error) {
	return s.profiles.GetPIN(ctx, pinID)
}

func (s *Service) email(ctx context.Context, userID string) (string, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

// StartProfileUpdate mails a profile update code to the user.
func (s *Service) StartProfileUpdate(ctx context.Context, userID string) (otp.Ticket, error) {
	email, err := s.email(ctx, userID)
	if err != nil {
		return otp.Ticket{}, err
	}
	return s.codes.Start(ctx, email, otp.PurposeProfileUpdate)
}

// ConfirmProfileUpdate applies u once code checks out. The code stays valid
// if the update itself is rejected.
func (s *Service) ConfirmProfileUpdate(ctx context.Context, userID, pinID, code string, u profiles.PINUpdate) (profiles.PIN, error) {
	if u.Empty() {
		return profiles.PIN{}, ErrNothingToUpdate
	}
	email, err := s.email(ctx, userID)
	if err != nil {
		return profiles.PIN{}, err
	}
	c, err := s.codes.Check(ctx, email, code, otp.PurposeProfileUpdate)
	if err != nil {
		return profiles.PIN{}, err
	}
	p, err := s.profiles.UpdatePIN(ctx, pinID, u)
	if err != nil {
		return profiles.PIN{}, err
	}
	if err := s.codes.Consume(ctx, c); err != nil {
		return profiles.PIN{}, err
	}
	return p, nil
}

// StartPasswordChange mails a password change code to the user.
func (s *Service) StartPasswordChange(ctx context.Context, userID string) (otp.Ticket, error) {
	email, err := s.email(ctx, userID)
	if err != nil {
		return otp.Ticket{}, err
	}
	return s.codes.Start(ctx, email, otp.PurposePasswordChange)
}

// ConfirmPasswordChange sets a new password once code checks out. Existing
// sessions are revoked.
func (s *Service) ConfirmPasswordChange(ctx context.Context, userID, code, password string) error {
	if len(password) < 8 {
		return apperr.Invalid("password must be at least 8 characters")
	}
	email, err := s.email(ctx, userID)
	if err != nil {
		return err
	}
	c, err := s.codes.Check(ctx, email, code, otp.PurposePasswordChange)
	if err != nil {
		return err
	}
	if err := s.codes.Consume(ctx, c); err != nil {
		return err
	}
	return s.users.ChangePassword(ctx, userID, password)
}
