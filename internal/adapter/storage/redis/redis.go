package redis

import (
	"context"
	"fmt"

	"gig-escrow/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ClientOptions maps the Redis section of the config onto go-redis options.
// Zero pool size and dial timeout keep the go-redis defaults.
func ClientOptions(cfg config.RedisConfig) *goredis.Options {
	return &goredis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
		ClientName:  "gig-escrow",
	}
}

// NewClient creates a Redis client and verifies connectivity. The client
// backs idempotency claims, the replay cache and rate limiting.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(ClientOptions(cfg))

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr(), err)
	}

	log.Info().
		Str("addr", cfg.Addr()).
		Int("db", cfg.DB).
		Int("pool_size", cfg.PoolSize).
		Msg("Redis connection established")

	return client, nil
}
