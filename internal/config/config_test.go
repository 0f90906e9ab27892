package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("DJANGO_SECRET_KEY", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, devSecretKey, cfg.SecretKey)
	assert.True(t, cfg.Debug)
	assert.Equal(t, ":8000", cfg.Address())
	assert.Equal(t, defaultSessionTTL, cfg.SessionTTL)
	assert.Equal(t, "local", cfg.Receipts.Backend)
	assert.False(t, cfg.LLM.Enabled())
}

func TestLoadLegacyVariableNames(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("DJANGO_SECRET_KEY", "legacy-secret")
	t.Setenv("DJANGO_DEBUG", "false")
	t.Setenv("DJANGO_ALLOWED_HOSTS", "127.0.0.1, localhost,")
	t.Setenv("DATABASE_URL", "postgres://localhost/hh")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-secret", cfg.SecretKey)
	assert.False(t, cfg.Debug)
	assert.Equal(t, []string{"127.0.0.1", "localhost"}, cfg.AllowedHosts)
}

func TestLoadRequiresSecretOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("DJANGO_SECRET_KEY", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/hh")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDurations(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("EMAIL_PORT", "2525")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.ShutdownPeriod)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 2525, cfg.Email.Port)

	t.Setenv("EMAIL_PORT", "smtp")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownReceiptStore(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("RECEIPT_STORE", "ftp")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("RECEIPT_STORE", "s3")
	t.Setenv("S3_BUCKET", "")
	_, err = Load()
	require.Error(t, err)
}
