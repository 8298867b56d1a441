package postgres

import (
	"context"
	"errors"
	"fmt"

	"gig-escrow/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const credentialColumns = `id, holder, total_jobs, successful_jobs, rating_sum, rating_count, total_earned::text, created_at`

// CredentialRepo implements ports.CredentialRepository.
type CredentialRepo struct {
	q Querier
}

// NewCredentialRepo creates a new CredentialRepo.
func NewCredentialRepo(q Querier) *CredentialRepo {
	return &CredentialRepo{q: q}
}

// Create inserts a credential. The unique index on holder enforces one per identity.
func (r *CredentialRepo) Create(ctx context.Context, c *domain.Credential) error {
	query := `INSERT INTO credentials (id, holder, total_jobs, successful_jobs, rating_sum, rating_count, total_earned, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8)`

	_, err := r.q.Exec(ctx, query,
		c.ID, c.Holder, c.TotalJobs, c.SuccessfulJobs,
		c.RatingSum, c.RatingCount, numericArg(c.TotalEarned), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// GetByID fetches a credential by id.
func (r *CredentialRepo) GetByID(ctx context.Context, id uint64) (*domain.Credential, error) {
	return r.scanCredential(r.q.QueryRow(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE id = $1`, id))
}

// GetByHolder fetches the credential bound to holder.
func (r *CredentialRepo) GetByHolder(ctx context.Context, holder domain.Address) (*domain.Credential, error) {
	return r.scanCredential(r.q.QueryRow(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE holder = $1`, holder))
}

// Update writes the counters. The holder is part of the WHERE clause, never the SET.
func (r *CredentialRepo) Update(ctx context.Context, c *domain.Credential) error {
	query := `UPDATE credentials
		SET total_jobs = $1, successful_jobs = $2, rating_sum = $3, rating_count = $4, total_earned = $5::numeric
		WHERE id = $6 AND holder = $7`

	tag, err := r.q.Exec(ctx, query,
		c.TotalJobs, c.SuccessfulJobs, c.RatingSum, c.RatingCount,
		numericArg(c.TotalEarned), c.ID, c.Holder,
	)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("credential %d not found for holder %s", c.ID, c.Holder)
	}
	return nil
}

func (r *CredentialRepo) scanCredential(row pgx.Row) (*domain.Credential, error) {
	c := &domain.Credential{}
	var earned string
	err := row.Scan(
		&c.ID, &c.Holder, &c.TotalJobs, &c.SuccessfulJobs,
		&c.RatingSum, &c.RatingCount, &earned, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	if c.TotalEarned, err = parseNumeric(earned); err != nil {
		return nil, err
	}
	return c, nil
}
