package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer         string // Issuer claim for session tokens and TOTP otpauth URLs
	TokenSecret    string // Required: HS256 signing secret for session tokens
	BootstrapToken string // Optional: token required to perform bootstrap

	DatabaseFile         string        // Path to SQLite database file (default: ./idp.db)
	SessionTTL           time.Duration // Session lifetime (default: 8h)
	ChallengeTTL         time.Duration // Challenge lifetime (default: 5m)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8081)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:               getEnvOrDefault("IDP_ISSUER", "zusplus-idp"),
		TokenSecret:          os.Getenv("IDP_TOKEN_SECRET"),
		BootstrapToken:       os.Getenv("BOOTSTRAP_TOKEN"),
		DatabaseFile:         getEnvOrDefault("IDP_DATABASE_FILE", "idp.db"),
		SessionTTL:           getEnvDurationOrDefault("IDP_SESSION_TTL", 8*time.Hour),
		ChallengeTTL:         getEnvDurationOrDefault("IDP_CHALLENGE_TTL", 5*time.Minute),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8081),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer minutes also accepted
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
