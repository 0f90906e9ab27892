package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName        = "HelpingHands"
	defaultAppEnv         = "development"
	defaultPort           = "8000"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultSessionTTL     = 12 * time.Hour
	defaultSweepInterval  = time.Minute
	defaultEmailPort      = 587
	defaultFromEmail      = "no-reply@helpinghands.local"
	defaultReceiptDir     = "media/receipts"
	devSecretKey          = "dev-insecure-secret-key"

	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	Debug          bool
	AllowedHosts   []string
	DatabaseURL    string
	RedisURL       string
	SecretKey      string
	SessionTTL     time.Duration
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	SweepInterval  time.Duration
	Email          EmailConfig
	LLM            LLMConfig
	Receipts       ReceiptConfig
}

// EmailConfig describes the outgoing SMTP server. An empty Host means mail is
// only written to the log.
type EmailConfig struct {
	Host     string
	Port     int
	UseTLS   bool
	User     string
	Password string
	From     string
}

// LLMConfig points at the optional chat-completions endpoint used for safety tips.
type LLMConfig struct {
	APIKey   string
	Endpoint string
	Model    string
}

// Enabled reports whether enough settings are present to call the endpoint.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && c.Endpoint != ""
}

// ReceiptConfig selects where claim receipts are stored.
type ReceiptConfig struct {
	Backend   string
	Dir       string
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// Load reads configuration values from the environment and populates a Config
// instance. A .env file in the working directory is applied first; variables
// already set in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		AllowedHosts:   splitList(firstEnv("ALLOWED_HOSTS", "DJANGO_ALLOWED_HOSTS")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		SecretKey:      firstEnv("SECRET_KEY", "DJANGO_SECRET_KEY"),
		SessionTTL:     defaultSessionTTL,
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		SweepInterval:  defaultSweepInterval,
		Email: EmailConfig{
			Host:     os.Getenv("EMAIL_HOST"),
			Port:     defaultEmailPort,
			User:     os.Getenv("EMAIL_HOST_USER"),
			Password: os.Getenv("EMAIL_HOST_PASSWORD"),
			From:     getEnv("DEFAULT_FROM_EMAIL", defaultFromEmail),
		},
		LLM: LLMConfig{
			APIKey:   os.Getenv("SEA_LION_LLAMA_API_KEY"),
			Endpoint: os.Getenv("SEA_LION_LLAMA_ENDPOINT"),
			Model:    getEnv("SEA_LION_LLAMA_MODEL", "aisingapore/Llama-SEA-LION-v3-70B-IT"),
		},
		Receipts: ReceiptConfig{
			Backend:   strings.ToLower(getEnv("RECEIPT_STORE", "local")),
			Dir:       getEnv("RECEIPT_DIR", defaultReceiptDir),
			Bucket:    os.Getenv("S3_BUCKET"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    getEnv("S3_REGION", "auto"),
			AccessKey: os.Getenv("S3_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
	}

	var err error
	if cfg.Debug, err = boolEnv(firstEnvName("DEBUG", "DJANGO_DEBUG"), cfg.IsDev()); err != nil {
		return Config{}, err
	}
	if cfg.Email.UseTLS, err = boolEnv("EMAIL_USE_TLS", true); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("EMAIL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid EMAIL_PORT: %w", err)
		}
		cfg.Email.Port = port
	}

	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL_SECONDS", "SESSION_TTL", cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.SweepInterval, err = durationEnv("SWEEP_INTERVAL_SECONDS", "SWEEP_INTERVAL", cfg.SweepInterval); err != nil {
		return Config{}, err
	}

	if cfg.SecretKey == "" {
		if !cfg.IsDev() {
			return Config{}, fmt.Errorf("SECRET_KEY must be set when APP_ENV=%s", cfg.AppEnv)
		}
		cfg.SecretKey = devSecretKey
	}
	if cfg.DatabaseURL == "" && !cfg.IsDev() {
		return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
	}
	switch cfg.Receipts.Backend {
	case "local":
	case "s3":
		if cfg.Receipts.Bucket == "" {
			return Config{}, fmt.Errorf("S3_BUCKET must be set when RECEIPT_STORE=s3")
		}
	default:
		return Config{}, fmt.Errorf("invalid RECEIPT_STORE %q", cfg.Receipts.Backend)
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the service runs in a local development mode where
// in-memory stores are acceptable.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func firstEnvName(keys ...string) string {
	for _, k := range keys {
		if os.Getenv(k) != "" {
			return k
		}
	}
	return keys[0]
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// durationEnv reads either an integer seconds variable or a Go duration
// variable, preferring the seconds form.
func durationEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
