package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr string

	AdminUser     string
	AdminPassword string

	OTLPEndpoint string

	Provider ProviderConfig
	Budget   BudgetConfig
	Store    StoreConfig
	SMTP     SMTPConfig
}

// SMTPConfig configures the ready-notification sender. Leaving Host empty
// disables sending.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	PublicURL string
}

// ProviderConfig configures the text-generation provider.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// BudgetConfig bounds the generation pipeline. CallTimeout applies to a
// single provider call; OverallDeadline wraps the whole pipeline run and
// must exceed (MaxRetries+1)*CallTimeout plus backoff.
type BudgetConfig struct {
	CallTimeout     time.Duration
	OverallDeadline time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
}

// StoreConfig configures the ephemeral stores.
type StoreConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	DocumentTTL   time.Duration
	StatusTTL     time.Duration
	SweepInterval time.Duration
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:       getenv("APP_SERVICE", "papermint"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		Environment:   getenv("ENVIRONMENT", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		AdminUser:     getenv("ADMIN_USER", "admin"),
		AdminPassword: strings.TrimSpace(getenv("ADMIN_PASSWORD", "")),
		OTLPEndpoint:  getenv("OTLP_ENDPOINT", "localhost:4317"),
		Provider: ProviderConfig{
			APIKey:  strings.TrimSpace(getenv("LLM_API_KEY", "")),
			Model:   getenv("LLM_MODEL", "gpt-4o-mini"),
			BaseURL: getenv("LLM_BASE_URL", "https://api.openai.com/v1"),
		},
		Budget: BudgetConfig{
			CallTimeout:     getenvDuration("GENERATION_CALL_TIMEOUT", 10*time.Second),
			OverallDeadline: getenvDuration("PIPELINE_DEADLINE", 45*time.Second),
			MaxRetries:      getenvInt("GENERATION_MAX_RETRIES", 2),
			RetryBackoff:    getenvDuration("GENERATION_RETRY_BACKOFF", 300*time.Millisecond),
		},
		Store: StoreConfig{
			Backend:       normalizeBackend(getenv("STORE_BACKEND", BackendMemory)),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			DocumentTTL:   getenvDuration("DOCUMENT_TTL", time.Hour),
			StatusTTL:     getenvDuration("STATUS_TTL", 2*time.Hour),
			SweepInterval: getenvDuration("STORE_SWEEP_INTERVAL", 5*time.Minute),
		},
		SMTP: SMTPConfig{
			Host:      getenv("SMTP_HOST", ""),
			Port:      getenvInt("SMTP_PORT", 587),
			Username:  getenv("SMTP_USERNAME", ""),
			Password:  getenv("SMTP_PASSWORD", ""),
			From:      getenv("SMTP_FROM", "no-reply@papermint.dev"),
			PublicURL: strings.TrimRight(getenv("PUBLIC_URL", "http://localhost:8080"), "/"),
		},
	}

	return cfg.withCoherentBudget()
}

// withCoherentBudget keeps the overall deadline strictly above the worst
// case sum of per-call timeouts and backoff delays.
func (c Config) withCoherentBudget() Config {
	calls := time.Duration(c.Budget.MaxRetries+1) * c.Budget.CallTimeout
	backoff := time.Duration(c.Budget.MaxRetries) * c.Budget.RetryBackoff * 2
	if c.Budget.OverallDeadline <= calls+backoff {
		c.Budget.OverallDeadline = calls + backoff + 5*time.Second
	}
	return c
}

func normalizeBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case BackendRedis:
		return BackendRedis
	default:
		return BackendMemory
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

var Module = fx.Module("config",
	fx.Provide(Load),
)
