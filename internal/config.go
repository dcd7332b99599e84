package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	LogLevel    string
	API         APIConfig
	Storage     StorageConfig
	Delivery    DeliveryConfig
	Poll        PollConfig
	Sentry      SentryConfig
	MetricsAddr string // empty disables the /metrics listener
}

// APIConfig points the client at the store backend.
type APIConfig struct {
	BaseURL string
	// Timeout of zero leaves the http.Client default (no client-side timeout).
	Timeout time.Duration
}

// StorageConfig selects where the cart and user identity are persisted.
type StorageConfig struct {
	Provider  string // "local", "redis" or "memory"
	LocalPath string
	RedisURL  string
	KeyPrefix string
	// EncryptionKey is a base64 AES-256 key; empty stores values in clear text.
	EncryptionKey string
}

// DeliveryConfig drives the flat delivery charge.
type DeliveryConfig struct {
	Charge                int64
	FreeDeliveryThreshold int64 // 0 disables free delivery
	Currency              string
}

// PollConfig holds the payment confirmation polling parameters.
type PollConfig struct {
	Interval      time.Duration
	MaxAttempts   int
	NoticeAttempt int
	RedirectDelay time.Duration
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN              string
	Enabled          bool
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Debug(".env file not found, using environment variables and defaults")
		}
	}

	home, _ := os.UserHomeDir()

	cfg := &Config{
		Env:      getEnv("ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		API: APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:5000/api"),
			Timeout: getEnvDuration("API_TIMEOUT", 0),
		},
		Storage: StorageConfig{
			Provider:  getEnv("STORAGE_PROVIDER", "local"),
			LocalPath: getEnv("STORAGE_PATH", filepath.Join(home, ".wicket")),
			RedisURL:  getEnv("REDIS_URL", "redis://localhost:6379/0"),
			KeyPrefix: getEnv("STORAGE_KEY_PREFIX", "wicket"),

			EncryptionKey: os.Getenv("STORAGE_ENCRYPTION_KEY"),
		},
		Delivery: DeliveryConfig{
			Charge:                getEnvInt64("DELIVERY_CHARGE", 99),
			FreeDeliveryThreshold: getEnvInt64("FREE_DELIVERY_THRESHOLD", 999),
			Currency:              getEnv("CURRENCY", "INR"),
		},
		Poll: PollConfig{
			Interval:      getEnvDuration("PAYMENT_POLL_INTERVAL", 2*time.Second),
			MaxAttempts:   getEnvInt("PAYMENT_POLL_MAX_ATTEMPTS", 30),
			NoticeAttempt: getEnvInt("PAYMENT_POLL_NOTICE_ATTEMPT", 15),
			RedirectDelay: getEnvDuration("PAYMENT_REDIRECT_DELAY", 1500*time.Millisecond),
		},
		Sentry: SentryConfig{
			DSN:              getEnv("SENTRY_DSN", ""),
			Enabled:          getEnvBool("SENTRY_ENABLED", false),
			Environment:      getEnv("SENTRY_ENVIRONMENT", "development"),
			Release:          getEnv("SENTRY_RELEASE", ""),
			SampleRate:       getEnvFloat("SENTRY_SAMPLE_RATE", 1.0),
			TracesSampleRate: getEnvFloat("SENTRY_TRACES_SAMPLE_RATE", 0.0),
			Debug:            getEnvBool("SENTRY_DEBUG", false),
		},
		MetricsAddr: getEnv("METRICS_ADDR", ""),
	}

	// Validate env
	if cfg.Env != "dev" && cfg.Env != "prod" {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL must not be empty")
	}

	switch cfg.Storage.Provider {
	case "local", "redis", "memory":
	default:
		return nil, fmt.Errorf("STORAGE_PROVIDER must be local, redis or memory, got %q", cfg.Storage.Provider)
	}

	if cfg.Delivery.Charge < 0 || cfg.Delivery.FreeDeliveryThreshold < 0 {
		return nil, fmt.Errorf("delivery charge and free delivery threshold must not be negative")
	}

	if cfg.Poll.Interval <= 0 || cfg.Poll.MaxAttempts <= 0 {
		return nil, fmt.Errorf("payment poll interval and max attempts must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
