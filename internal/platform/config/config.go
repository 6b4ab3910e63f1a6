package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	SessionWindow     time.Duration
	SessionCookieName string
	SessionCookieTTL  time.Duration
	BcryptCost        int
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "scrawl"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	cookieName := strings.TrimSpace(os.Getenv("SESSION_COOKIE_NAME"))
	if cookieName == "" {
		cookieName = "scrawl_session"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		SessionWindow:     time.Duration(envInt("SESSION_WINDOW_SECONDS", 600)) * time.Second,
		SessionCookieName: cookieName,
		SessionCookieTTL:  time.Duration(envInt("SESSION_COOKIE_TTL_SECONDS", 86400)) * time.Second,
		BcryptCost:        envInt("BCRYPT_COST", 0),
	}, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
