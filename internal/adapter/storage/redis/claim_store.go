package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ClaimStore implements ports.ClaimStore using Redis SET NX.
type ClaimStore struct {
	client *goredis.Client
	prefix string
}

// NewClaimStore creates a new Redis-backed claim store.
func NewClaimStore(client *goredis.Client) *ClaimStore {
	return &ClaimStore{
		client: client,
		prefix: "claim:",
	}
}

// Claim atomically takes scope:key if free. Returns true when the caller now
// holds the claim, false if another request already holds it.
func (s *ClaimStore) Claim(ctx context.Context, scope string, key string, ttl time.Duration) (bool, error) {
	result, err := s.client.SetArgs(ctx, s.key(scope, key), 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("redis claim: %w", err)
	}
	return result == "OK", nil
}

// Release frees scope:key so the next request may claim it.
func (s *ClaimStore) Release(ctx context.Context, scope string, key string) error {
	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("redis release: %w", err)
	}
	return nil
}

func (s *ClaimStore) key(scope, key string) string {
	return s.prefix + scope + ":" + key
}
