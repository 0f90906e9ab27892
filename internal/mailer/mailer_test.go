package mailer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/helpinghands/helpinghands/internal/config"
	"github.com/helpinghands/helpinghands/internal/logging"
)

func TestNewFallsBackToLog(t *testing.T) {
	var buf bytes.Buffer
	m := New(config.EmailConfig{From: "no-reply@helpinghands.local"}, logging.NewWithWriter(&buf, "info"))
	require.IsType(t, &LogMailer{}, m)

	err := m.Send(context.Background(), Message{To: []string{"pin1@example.com"}, Subject: "Hi", Body: "code 123456"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"to":"pin1@example.com"`)
	assert.Contains(t, buf.String(), "code 123456")

	assert.IsType(t, &SMTPMailer{}, New(config.EmailConfig{Host: "smtp.example.com", Port: 587}, logging.Discard()))
}

func TestCompose(t *testing.T) {
	msg, err := compose("a@example.com", Message{To: []string{"b@example.com", "c@example.com"}, Subject: "OTP", Body: "line1\nline2"})
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "a@example.com")
	assert.Contains(t, raw, "b@example.com")
	assert.Contains(t, raw, "c@example.com")
	assert.Contains(t, raw, "Subject: OTP")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "line1")
}

func TestComposeRejectsBadAddresses(t *testing.T) {
	_, err := compose("not an address", Message{To: []string{"b@example.com"}})
	assert.Error(t, err)
	_, err = compose("a@example.com", Message{To: []string{"@@"}})
	assert.Error(t, err)
}

func TestSMTPOptionsFollowConfig(t *testing.T) {
	plain := &SMTPMailer{cfg: config.EmailConfig{Host: "smtp.example.com", Port: 25}}
	assert.Len(t, plain.options(), 3)

	secured := &SMTPMailer{cfg: config.EmailConfig{Host: "smtp.example.com", Port: 587, UseTLS: true, User: "u", Password: "p"}}
	assert.Len(t, secured.options(), 6)

	_, err := mail.NewClient(secured.cfg.Host, secured.options()...)
	assert.NoError(t, err)
}

func TestSMTPRequiresRecipients(t *testing.T) {
	m := &SMTPMailer{cfg: config.EmailConfig{Host: "127.0.0.1", Port: 1, From: "a@example.com"}}
	assert.Error(t, m.Send(context.Background(), Message{Subject: "x"}))
}

func TestSMTPReportsUnreachableServer(t *testing.T) {
	m := &SMTPMailer{cfg: config.EmailConfig{Host: "127.0.0.1", Port: 1, From: "a@example.com"}}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, m.Send(ctx, Message{To: []string{"b@example.com"}, Subject: "x", Body: "y"}))
}
