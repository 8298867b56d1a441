package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyCache and ports.ClaimStore on
// PostgreSQL. It backs the idempotency middleware when Redis is disabled.
type IdempotencyRepo struct {
	pool Querier
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Querier) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Get returns the stored response for key, or nil when absent or expired.
func (r *IdempotencyRepo) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT response_json FROM idempotency_keys WHERE key = $1 AND expires_at > now()`

	var body []byte
	err := r.pool.QueryRow(ctx, query, key).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	return body, nil
}

// Set stores the response for key until ttl elapses. A live response is
// kept; only an expired one is replaced.
func (r *IdempotencyRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `INSERT INTO idempotency_keys (key, response_json, expires_at)
		VALUES ($1, $2, now() + $3 * interval '1 millisecond')
		ON CONFLICT (key) DO UPDATE SET response_json = EXCLUDED.response_json, expires_at = EXCLUDED.expires_at
		WHERE idempotency_keys.expires_at <= now()`

	if _, err := r.pool.Exec(ctx, query, key, value, ttl.Milliseconds()); err != nil {
		return fmt.Errorf("set idempotency key: %w", err)
	}
	return nil
}

// Claim takes (scope, key) for ttl. An expired claim may be taken over.
func (r *IdempotencyRepo) Claim(ctx context.Context, scope string, key string, ttl time.Duration) (bool, error) {
	query := `INSERT INTO idempotency_claims (scope, key, expires_at)
		VALUES ($1, $2, now() + $3 * interval '1 millisecond')
		ON CONFLICT (scope, key) DO UPDATE SET expires_at = EXCLUDED.expires_at
		WHERE idempotency_claims.expires_at <= now()`

	tag, err := r.pool.Exec(ctx, query, scope, key, ttl.Milliseconds())
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", scope, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release drops a claim.
func (r *IdempotencyRepo) Release(ctx context.Context, scope string, key string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM idempotency_claims WHERE scope = $1 AND key = $2`, scope, key); err != nil {
		return fmt.Errorf("release %s: %w", scope, err)
	}
	return nil
}
