package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/lead-intake/internal/config"
	"github.com/wolfman30/lead-intake/internal/leads"
	"github.com/wolfman30/lead-intake/internal/ratelimit"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, using in-process rate limiter", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildLimiter picks the shared Redis limiter when a client is available and the
// in-process limiter otherwise.
func BuildLimiter(client *redis.Client, cfg *appconfig.Config, logger *logging.Logger) ratelimit.Limiter {
	policy := ratelimit.DefaultPolicy()
	if cfg != nil {
		policy = ratelimit.Policy{Limit: cfg.RateLimitRequests, Window: cfg.RateLimitWindow}
	}
	if client == nil {
		return ratelimit.NewMemory(policy)
	}
	return ratelimit.NewRedis(client, policy, logger)
}

// BuildStore returns the lead store selected by cfg together with a close func.
func BuildStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (leads.Store, func(), error) {
	if cfg == nil {
		return nil, nil, errors.New("bootstrap: config required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.UseMemoryStore || strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Warn("using in-memory lead store; leads are lost on restart")
		return leads.NewMemoryStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	logger.Info("connected to postgres lead store")
	return leads.NewPostgresStore(pool), pool.Close, nil
}
