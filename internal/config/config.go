// Package config loads server configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/notifydo/internal/auth"
)

// Config holds everything cmd/server needs to build the server.
type Config struct {
	Port        int
	DBPath      string // SQLite file, used when DatabaseURL is empty
	DatabaseURL string // Postgres DSN; selects the Postgres store when set

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	CORSOrigins []string
	LogLevel    slog.Level

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// GitHubEnabled reports whether "sign in with GitHub" is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Load reads the environment, applies defaults and validates the result.
//
// JWT_SECRET is the only required variable.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("config: invalid PORT %q", os.Getenv("PORT"))
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "720h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("config: invalid TOKEN_TTL %q", os.Getenv("TOKEN_TTL"))
	}

	cost, err := strconv.Atoi(getEnv("BCRYPT_COST", strconv.Itoa(auth.DefaultCost)))
	if err != nil {
		return nil, fmt.Errorf("config: invalid BCRYPT_COST %q", os.Getenv("BCRYPT_COST"))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("config: invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Port:               port,
		DBPath:             getEnv("DB_PATH", "data/notifydo.db"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenTTL:           ttl,
		BcryptCost:         cost,
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")),
		LogLevel:           level,
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  getEnv("GITHUB_CALLBACK_URL", fmt.Sprintf("http://localhost:%d/api/users/github/callback", port)),
	}

	if len(cfg.JWTSecret) < 16 {
		return nil, errors.New("config: JWT_SECRET must be set to at least 16 characters (try: openssl rand -hex 32)")
	}

	return cfg, nil
}

// getEnv returns the variable's value, or fallback when it is unset or empty.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
