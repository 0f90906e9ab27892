// Package mailer delivers plain-text email through SMTP, or to the log when
// no server is configured.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/helpinghands/helpinghands/internal/config"
)

// Message is a plain-text email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// New returns an SMTP mailer when cfg names a host and a log mailer otherwise.
func New(cfg config.EmailConfig, logger *slog.Logger) Mailer {
	if cfg.Host == "" {
		return &LogMailer{From: cfg.From, Logger: logger}
	}
	return &SMTPMailer{cfg: cfg}
}

// LogMailer writes messages to the structured log instead of sending them.
type LogMailer struct {
	From   string
	Logger *slog.Logger
}

func (l *LogMailer) Send(_ context.Context, m Message) error {
	l.Logger.Info("email",
		slog.String("from", l.From),
		slog.String("to", strings.Join(m.To, ",")),
		slog.String("subject", m.Subject),
		slog.String("body", m.Body))
	return nil
}

// SMTPMailer delivers through an SMTP relay, upgrading with STARTTLS when
// configured.
type SMTPMailer struct {
	cfg config.EmailConfig
}

const dialTimeout = 10 * time.Second

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	if len(m.To) == 0 {
		return fmt.Errorf("mailer: no recipients")
	}
	msg, err := compose(s.cfg.From, m)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(s.cfg.Host, s.options()...)
	if err != nil {
		return fmt.Errorf("mailer: client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send via %s: %w", s.cfg.Host, err)
	}
	return nil
}

func (s *SMTPMailer) options() []mail.Option {
	policy := mail.NoTLS
	if s.cfg.UseTLS {
		policy = mail.TLSMandatory
	}
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(dialTimeout),
		mail.WithTLSPolicy(policy),
	}
	if s.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Password))
	}
	return opts
}

func compose(from string, m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("mailer: from %q: %w", from, err)
	}
	if err := msg.To(m.To...); err != nil {
		return nil, fmt.Errorf("mailer: to: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Body)
	return msg, nil
}
