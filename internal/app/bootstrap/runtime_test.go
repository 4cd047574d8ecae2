package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/wolfman30/lead-intake/internal/config"
	"github.com/wolfman30/lead-intake/internal/leads"
	"github.com/wolfman30/lead-intake/internal/ratelimit"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, nil, true); client != nil {
		t.Fatalf("expected nil client without REDIS_ADDR")
	}
}

func TestBuildRedisClientUnreachableReturnsNil(t *testing.T) {
	cfg := &appconfig.Config{RedisAddr: "127.0.0.1:1"}
	if client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true); client != nil {
		t.Fatalf("expected nil client when redis is unreachable")
	}
}

func TestBuildLimiterUsesRedisWhenAvailable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr(), RateLimitRequests: 2, RateLimitWindow: time.Minute}
	logger := logging.New("error")

	client := BuildRedisClient(context.Background(), cfg, logger, true)
	if client == nil {
		t.Fatalf("expected redis client")
	}
	t.Cleanup(func() { _ = client.Close() })

	limiter := BuildLimiter(client, cfg, logger)
	if _, ok := limiter.(*ratelimit.RedisLimiter); !ok {
		t.Fatalf("expected redis limiter, got %T", limiter)
	}
	for i := 0; i < 2; i++ {
		if !limiter.Allow(context.Background(), "203.0.113.7").Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if limiter.Allow(context.Background(), "203.0.113.7").Allowed {
		t.Fatalf("third request should be denied")
	}
}

func TestBuildLimiterFallsBackToMemory(t *testing.T) {
	limiter := BuildLimiter(nil, &appconfig.Config{RateLimitRequests: 1, RateLimitWindow: time.Minute}, nil)
	if _, ok := limiter.(*ratelimit.MemoryLimiter); !ok {
		t.Fatalf("expected memory limiter, got %T", limiter)
	}
	if !limiter.Allow(context.Background(), "a").Allowed || limiter.Allow(context.Background(), "a").Allowed {
		t.Fatalf("expected configured limit of 1")
	}
}

func TestBuildStoreMemory(t *testing.T) {
	store, closeFn, err := BuildStore(context.Background(), &appconfig.Config{UseMemoryStore: true}, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()
	if _, ok := store.(*leads.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestBuildStoreInvalidURL(t *testing.T) {
	cfg := &appconfig.Config{DatabaseURL: "postgres://%zz"}
	if _, _, err := BuildStore(context.Background(), cfg, logging.New("error")); err == nil {
		t.Fatalf("expected error for invalid database url")
	}
}

func TestBuildStoreRequiresConfig(t *testing.T) {
	if _, _, err := BuildStore(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
