package notification

import (
	"context"
	"log/slog"
	"time"
)

// Type classifies a notification.
type Type string

const (
	TypeOfferSent      Type = "OFFER_SENT"
	TypeOfferDeclined  Type = "OFFER_DECLINED"
	TypeOfferExpired   Type = "OFFER_EXPIRED"
	TypeQueueAdvanced  Type = "QUEUE_ADVANCED"
	TypeMatchAccepted  Type = "MATCH_ACCEPTED"
	TypeNoMatchFound   Type = "NO_MATCH_FOUND"
	TypeClaimSubmitted Type = "CLAIM_SUBMITTED"
)

// Notification is a message addressed to a user.
type Notification struct {
	ID          int64          `json:"id"`
	RecipientID string         `json:"recipient_id"`
	Type        Type           `json:"type"`
	Message     string         `json:"message"`
	RequestID   string         `json:"request_id,omitempty"`
	CVID        string         `json:"cv_id,omitempty"`
	Meta        map[string]any `json:"meta"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Notifier delivers notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Service stores notifications and mirrors them to the structured log.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds the notification service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Send records n. Notifications without a recipient are only logged.
func (s *Service) Send(ctx context.Context, n Notification) error {
	if n.Meta == nil {
		n.Meta = map[string]any{}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	if s.logger != nil {
		s.logger.Info("notification",
			slog.String("type", string(n.Type)),
			slog.String("recipient", n.RecipientID),
			slog.String("request_id", n.RequestID),
			slog.String("message", n.Message))
	}
	if n.RecipientID == "" {
		return nil
	}
	_, err := s.repo.Create(ctx, n)
	return err
}

// List returns the recipient's notifications, newest first. limit <= 0 means all.
func (s *Service) List(ctx context.Context, recipientID string, limit int) ([]Notification, error) {
	return s.repo.ListForRecipient(ctx, recipientID, limit)
}
