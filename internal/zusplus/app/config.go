package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	IDPBaseURL string // Identity provider base URL (default: http://localhost:8081)

	PrognozaBaseURL string // Actuarial backend base URL (default: http://localhost:8090)

	AdvisorBaseURL string // AI gateway base URL (default: https://ai.gateway.lovable.dev)
	AdvisorAPIKey  string // Optional: gateway key; advisor endpoints answer 503 without it

	FlowTTL             time.Duration // Idle lifetime of a browser flow (default: 12h)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		IDPBaseURL:          getEnvOrDefault("IDP_URL", "http://localhost:8081"),
		PrognozaBaseURL:     getEnvOrDefault("PROGNOZA_URL", "http://localhost:8090"),
		AdvisorBaseURL:      getEnvOrDefault("ADVISOR_URL", "https://ai.gateway.lovable.dev"),
		AdvisorAPIKey:       os.Getenv("ADVISOR_API_KEY"),
		FlowTTL:             getEnvDurationOrDefault("FLOW_TTL", 12*time.Hour),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
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
