package config

import (
	"errors"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("LEAD_ALLOWED_ORIGINS", "example.com")
	t.Setenv("LEAD_API_KEYS", "key-1")
	t.Setenv("LEAD_WEBHOOK_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LEAD_RATE_LIMIT", "")
	t.Setenv("LEAD_RATE_WINDOW", "")
	t.Setenv("LEAD_TIMESTAMP_TOLERANCE", "")
	t.Setenv("LEAD_STORE_TIMEOUT", "")
	t.Setenv("LEAD_MAX_BODY_BYTES", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.RateLimitRequests != 20 || cfg.RateLimitWindow != time.Minute {
		t.Fatalf("expected 20/min rate limit, got %d/%s", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	if cfg.TimestampTolerance != 5*time.Minute {
		t.Fatalf("expected 5m tolerance, got %s", cfg.TimestampTolerance)
	}
	if cfg.StoreTimeout != 5*time.Second {
		t.Fatalf("expected 5s store timeout, got %s", cfg.StoreTimeout)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("expected 1MiB body cap, got %d", cfg.MaxBodyBytes)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected redis disabled by default, got %q", cfg.RedisAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LEAD_ALLOWED_ORIGINS", " example.com, ,partner.io ")
	t.Setenv("LEAD_API_KEYS", "a,b")
	t.Setenv("LEAD_RATE_LIMIT", "50")
	t.Setenv("LEAD_RATE_WINDOW", "30s")
	t.Setenv("LEAD_STORE_TIMEOUT", "2s")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_TLS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "example.com" || cfg.AllowedOrigins[1] != "partner.io" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if len(cfg.APIKeys) != 2 {
		t.Fatalf("unexpected keys %v", cfg.APIKeys)
	}
	if cfg.RateLimitRequests != 50 || cfg.RateLimitWindow != 30*time.Second {
		t.Fatalf("unexpected rate limit %d/%s", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	if cfg.StoreTimeout != 2*time.Second {
		t.Fatalf("unexpected store timeout %s", cfg.StoreTimeout)
	}
	if cfg.RedisAddr != "redis:6379" || !cfg.RedisTLS {
		t.Fatalf("unexpected redis settings %q tls=%v", cfg.RedisAddr, cfg.RedisTLS)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("LEAD_ALLOWED_ORIGINS", "")
	t.Setenv("LEAD_API_KEYS", "")
	t.Setenv("LEAD_WEBHOOK_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("USE_MEMORY_STORE", "")

	cfg, err := Load()
	if cfg != nil {
		t.Fatalf("expected nil config on error")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	want := []string{"LEAD_ALLOWED_ORIGINS", "LEAD_API_KEYS", "LEAD_WEBHOOK_SECRET", "DATABASE_URL"}
	if len(cfgErr.Missing) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfgErr.Missing)
	}
	for i := range want {
		if cfgErr.Missing[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, cfgErr.Missing)
		}
	}
}

func TestLoadMemoryStoreSkipsDatabaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("USE_MEMORY_STORE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.UseMemoryStore {
		t.Fatalf("expected memory store enabled")
	}
}

func TestLoadRejectsUnparseableSettings(t *testing.T) {
	setRequired(t)
	t.Setenv("LEAD_RATE_LIMIT", "abc")
	t.Setenv("LEAD_RATE_WINDOW", "1 minute")
	t.Setenv("REDIS_TLS", "maybe")
	t.Setenv("LEAD_STORE_TIMEOUT", "")

	cfg, err := Load()
	if cfg != nil {
		t.Fatalf("expected nil config on error")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	want := []string{"REDIS_TLS", "LEAD_RATE_LIMIT", "LEAD_RATE_WINDOW"}
	if len(cfgErr.Invalid) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfgErr.Invalid)
	}
	for i := range want {
		if cfgErr.Invalid[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, cfgErr.Invalid)
		}
	}
	if len(cfgErr.Missing) != 0 {
		t.Fatalf("expected no missing settings, got %v", cfgErr.Missing)
	}
}

func TestLoadRejectsNonPositiveLimits(t *testing.T) {
	setRequired(t)
	t.Setenv("LEAD_RATE_LIMIT", "0")
	t.Setenv("LEAD_TIMESTAMP_TOLERANCE", "-5m")

	_, err := Load()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if len(cfgErr.Invalid) != 2 || cfgErr.Invalid[0] != "LEAD_RATE_LIMIT" || cfgErr.Invalid[1] != "LEAD_TIMESTAMP_TOLERANCE" {
		t.Fatalf("unexpected invalid settings %v", cfgErr.Invalid)
	}
}

func TestLoadReportsMissingAndInvalidTogether(t *testing.T) {
	setRequired(t)
	t.Setenv("LEAD_WEBHOOK_SECRET", "")
	t.Setenv("LEAD_MAX_BODY_BYTES", "lots")

	_, err := Load()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if len(cfgErr.Missing) != 1 || cfgErr.Missing[0] != "LEAD_WEBHOOK_SECRET" {
		t.Fatalf("unexpected missing settings %v", cfgErr.Missing)
	}
	if len(cfgErr.Invalid) != 1 || cfgErr.Invalid[0] != "LEAD_MAX_BODY_BYTES" {
		t.Fatalf("unexpected invalid settings %v", cfgErr.Invalid)
	}
	want := "config: missing required settings: LEAD_WEBHOOK_SECRET; invalid settings: LEAD_MAX_BODY_BYTES"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}
