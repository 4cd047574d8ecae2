package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	DatabaseURL    string
	UseMemoryStore bool
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool

	// Lead webhook security
	AllowedOrigins     []string
	APIKeys            []string
	WebhookSecret      string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	TimestampTolerance time.Duration
	StoreTimeout       time.Duration
	MaxBodyBytes       int64
}

// ConfigError lists every required setting that was missing or unparseable at startup.
type ConfigError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing required settings: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("invalid settings: %s", strings.Join(e.Invalid, ", ")))
	}
	return "config: " + strings.Join(parts, "; ")
}

// Load reads configuration from environment variables and fails when a required
// setting is absent or a set value cannot be parsed.
func Load() (*Config, error) {
	var invalid []string
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        strings.TrimSpace(getEnv("DATABASE_URL", "")),
		UseMemoryStore:     getEnvAsBool("USE_MEMORY_STORE", false, &invalid),
		RedisAddr:          strings.TrimSpace(getEnv("REDIS_ADDR", "")),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false, &invalid),
		AllowedOrigins:     getEnvAsList("LEAD_ALLOWED_ORIGINS"),
		APIKeys:            getEnvAsList("LEAD_API_KEYS"),
		WebhookSecret:      getEnv("LEAD_WEBHOOK_SECRET", ""),
		RateLimitRequests:  getEnvAsInt("LEAD_RATE_LIMIT", 20, &invalid),
		RateLimitWindow:    getEnvAsDuration("LEAD_RATE_WINDOW", time.Minute, &invalid),
		TimestampTolerance: getEnvAsDuration("LEAD_TIMESTAMP_TOLERANCE", 5*time.Minute, &invalid),
		StoreTimeout:       getEnvAsDuration("LEAD_STORE_TIMEOUT", 5*time.Second, &invalid),
		MaxBodyBytes:       int64(getEnvAsInt("LEAD_MAX_BODY_BYTES", 1<<20, &invalid)),
	}
	if err := cfg.Validate(); err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Invalid = append(invalid, cfgErr.Invalid...)
		}
		return nil, err
	}
	if len(invalid) > 0 {
		return nil, &ConfigError{Invalid: invalid}
	}
	return cfg, nil
}

// Validate reports every missing required setting and every non-positive limit in
// a single ConfigError.
func (c *Config) Validate() error {
	var missing []string
	if len(c.AllowedOrigins) == 0 {
		missing = append(missing, "LEAD_ALLOWED_ORIGINS")
	}
	if len(c.APIKeys) == 0 {
		missing = append(missing, "LEAD_API_KEYS")
	}
	if c.WebhookSecret == "" {
		missing = append(missing, "LEAD_WEBHOOK_SECRET")
	}
	if c.DatabaseURL == "" && !c.UseMemoryStore {
		missing = append(missing, "DATABASE_URL")
	}
	var invalid []string
	if c.RateLimitRequests <= 0 {
		invalid = append(invalid, "LEAD_RATE_LIMIT")
	}
	if c.RateLimitWindow <= 0 {
		invalid = append(invalid, "LEAD_RATE_WINDOW")
	}
	if c.TimestampTolerance <= 0 {
		invalid = append(invalid, "LEAD_TIMESTAMP_TOLERANCE")
	}
	if c.StoreTimeout <= 0 {
		invalid = append(invalid, "LEAD_STORE_TIMEOUT")
	}
	if c.MaxBodyBytes <= 0 {
		invalid = append(invalid, "LEAD_MAX_BODY_BYTES")
	}
	if len(missing) > 0 || len(invalid) > 0 {
		return &ConfigError{Missing: missing, Invalid: invalid}
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default
// value when unset. An unparseable value is recorded in invalid.
func getEnvAsInt(key string, defaultValue int, invalid *[]string) int {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		*invalid = append(*invalid, key)
		return defaultValue
	}
	return value
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default
// value when unset. An unparseable value is recorded in invalid.
func getEnvAsBool(key string, defaultValue bool, invalid *[]string) bool {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		*invalid = append(*invalid, key)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration, invalid *[]string) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		*invalid = append(*invalid, key)
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
