// Package config loads service configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Environment       string
	DatabaseURL       string
	ServerPort        string
	BaseURL           string
	FrontendURL       string
	OpenAIKey         string
	AIProvider        string
	AIModel           string
	AIBaseURL         string
	AIMaxTokens       int
	AIMemoryTurns     int
	EnableHSTS        bool
	OIDCIssuer        string
	OIDCJWKSURL       string
	OIDCClientID      string
	OIDCClientSecret  string
	OIDCRedirectURI   string
	RedisURL          string
	RabbitMQURL       string
	RabbitMQExchange  string
	RateLimit         string
	RequestTimeout    time.Duration
	MaxRequestBytes   int64
	ChatTurnTimeout   time.Duration
	ChatSessionTTL    time.Duration
	ChatSweepInterval time.Duration
	ServerDebugMode   bool
	OTELEnabled       bool
	OTELEndpoint      string
}

// DotEnvFile is the file read before the process environment
const DotEnvFile = ".env"

// Load loads configuration from environment variables. Values in a .env file in the
// working directory are used for keys the process environment leaves unset.
func Load() (*Config, error) {
	file, err := readDotEnv(DotEnvFile)
	if err != nil {
		return nil, err
	}
	return load(func(key string) string {
		if value := os.Getenv(key); value != "" {
			return value
		}
		return file[key]
	})
}

func readDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return values, nil
}

type lookupFunc func(string) string

func load(env lookupFunc) (*Config, error) {
	cfg := &Config{
		Environment:       env.getEnv("ENVIRONMENT", "production"),
		DatabaseURL:       env.getEnv("DATABASE_URL", ""),
		ServerPort:        env.getEnv("SERVER_PORT", "8080"),
		BaseURL:           env.getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:       env.getEnv("FRONTEND_URL", "http://localhost:3000"),
		OpenAIKey:         env.getEnv("OPENAI_API_KEY", ""),
		AIProvider:        env.getEnv("AI_PROVIDER", "openai"),
		AIModel:           env.getEnv("AI_MODEL", ""),
		AIBaseURL:         env.getEnv("AI_BASE_URL", ""),
		AIMaxTokens:       env.getEnvInt("AI_MAX_TOKENS", 1000),
		AIMemoryTurns:     env.getEnvInt("AI_MEMORY_TURNS", 10),
		EnableHSTS:        env.getEnvBool("ENABLE_HSTS", false),
		OIDCIssuer:        env.getEnv("OIDC_ISSUER", ""),
		OIDCJWKSURL:       env.getEnv("OIDC_JWKS_URL", ""),
		OIDCClientID:      env.getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:  env.getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURI:   env.getEnv("OIDC_REDIRECT_URI", ""),
		RedisURL:          env.getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:       env.getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange:  env.getEnv("RABBITMQ_EXCHANGE", "project_assistant.refresh"),
		RateLimit:         env.getEnv("RATE_LIMIT", "100-M"),
		RequestTimeout:    env.getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBytes:   int64(env.getEnvInt("MAX_REQUEST_BYTES", 1<<20)),
		ChatTurnTimeout:   env.getEnvDuration("CHAT_TURN_TIMEOUT", 25*time.Second),
		ChatSessionTTL:    env.getEnvDuration("CHAT_SESSION_TTL", 2*time.Hour),
		ChatSweepInterval: env.getEnvDuration("CHAT_SWEEP_INTERVAL", 5*time.Minute),
		ServerDebugMode:   env.getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:       env.getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:      env.getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RequestTimeout <= cfg.ChatTurnTimeout {
		return nil, fmt.Errorf("REQUEST_TIMEOUT (%s) must exceed CHAT_TURN_TIMEOUT (%s)", cfg.RequestTimeout, cfg.ChatTurnTimeout)
	}

	return cfg, nil
}

// CORSOrigins splits FrontendURL into trimmed, de-duplicated origins
func (c *Config) CORSOrigins() []string {
	var origins []string
	seen := make(map[string]bool)
	for _, origin := range strings.Split(c.FrontendURL, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		origins = append(origins, trimmed)
	}
	return origins
}

// OIDCEnabled reports whether token verification is configured
func (c *Config) OIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCJWKSURL != ""
}

func (env lookupFunc) getEnv(key, defaultValue string) string {
	if value := env(key); value != "" {
		return value
	}
	return defaultValue
}

func (env lookupFunc) getEnvBool(key string, defaultValue bool) bool {
	if value := env(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func (env lookupFunc) getEnvInt(key string, defaultValue int) int {
	if value := env(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("30s") or a bare number of seconds
func (env lookupFunc) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := env(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
