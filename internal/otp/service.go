package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/mailer"
)

var (
	ErrInvalidCode = apperr.Invalid("Invalid or expired OTP.")
	ErrNoEmail     = apperr.Invalid("No email address on file.")
	ErrPurpose     = apperr.Invalid("unknown OTP purpose")
)

// Service issues and redeems emailed one-time codes.
type Service struct {
	repo   Repository
	mailer mailer.Mailer
	now    func() time.Time
	code   func() (string, error)
}

// NewService wires the OTP service.
func NewService(repo Repository, m mailer.Mailer) *Service {
	return &Service{repo: repo, mailer: m, now: time.Now, code: sixDigits}
}

func sixDigits() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Start stores a fresh code for email and mails it.
func (s *Service) Start(ctx context.Context, email string, purpose Purpose) (Ticket, error) {
	f, ok := flows[purpose]
	if !ok {
		return Ticket{}, ErrPurpose
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return Ticket{}, ErrNoEmail
	}
	code, err := s.code()
	if err != nil {
		return Ticket{}, fmt.Errorf("generate otp: %w", err)
	}
	now := s.now().UTC()
	c, err := s.repo.Create(ctx, Code{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(f.ttl),
	})
	if err != nil {
		return Ticket{}, fmt.Errorf("store otp: %w", err)
	}
	err = s.mailer.Send(ctx, mailer.Message{
		To:      []string{email},
		Subject: f.subject,
		Body:    fmt.Sprintf("Your OTP is %s. It will expire in %d minutes.", code, int(f.ttl.Minutes())),
	})
	if err != nil {
		return Ticket{}, fmt.Errorf("send otp: %w", err)
	}
	return Ticket{Sent: true, ExpiresAt: c.ExpiresAt}, nil
}

// Check finds the live code matching email, code and purpose without using it up.
func (s *Service) Check(ctx context.Context, email, code string, purpose Purpose) (Code, error) {
	c, err := s.repo.FindValid(ctx, strings.TrimSpace(email), strings.TrimSpace(code), purpose, s.now().UTC())
	if errors.Is(err, errNoCode) {
		return Code{}, ErrInvalidCode
	}
	return c, err
}

// Consume marks c used. A code can be consumed once.
func (s *Service) Consume(ctx context.Context, c Code) error {
	ok, err := s.repo.Consume(ctx, c.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}
