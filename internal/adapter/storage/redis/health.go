package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const healthProbeKey = "health:probe"

// HealthCheck implements ports.HealthChecker for Redis. It writes a short
// lived probe key since claims and the replay cache both need writes.
type HealthCheck struct {
	client *goredis.Client
}

// NewHealthCheck creates a Redis health checker.
func NewHealthCheck(client *goredis.Client) *HealthCheck {
	return &HealthCheck{client: client}
}

// Ping checks that Redis accepts writes.
func (h *HealthCheck) Ping(ctx context.Context) error {
	if err := h.client.Set(ctx, healthProbeKey, time.Now().Unix(), 10*time.Second).Err(); err != nil {
		return fmt.Errorf("redis probe write: %w", err)
	}
	return nil
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "redis"
}
