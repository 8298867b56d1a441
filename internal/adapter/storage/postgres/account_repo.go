package postgres

import (
	"context"
	"errors"
	"fmt"

	"gig-escrow/internal/core/domain"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository. Zero amounts are stored
// as absent rows.
type AccountRepo struct {
	q Querier
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

// Balance returns owner's balance, zero when no row exists.
func (r *AccountRepo) Balance(ctx context.Context, owner domain.Address) (*uint256.Int, error) {
	var amount string
	err := r.q.QueryRow(ctx, `SELECT amount::text FROM balances WHERE owner = $1`, owner).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Zero(), nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return parseNumeric(amount)
}

// SetBalance upserts owner's balance.
func (r *AccountRepo) SetBalance(ctx context.Context, owner domain.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		if _, err := r.q.Exec(ctx, `DELETE FROM balances WHERE owner = $1`, owner); err != nil {
			return fmt.Errorf("delete balance: %w", err)
		}
		return nil
	}

	query := `INSERT INTO balances (owner, amount) VALUES ($1, $2::numeric)
		ON CONFLICT (owner) DO UPDATE SET amount = EXCLUDED.amount`
	if _, err := r.q.Exec(ctx, query, owner, numericArg(amount)); err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

// Allowance returns what spender may move from owner, zero when no row exists.
func (r *AccountRepo) Allowance(ctx context.Context, owner, spender domain.Address) (*uint256.Int, error) {
	var amount string
	err := r.q.QueryRow(ctx,
		`SELECT amount::text FROM allowances WHERE owner = $1 AND spender = $2`,
		owner, spender,
	).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Zero(), nil
		}
		return nil, fmt.Errorf("get allowance: %w", err)
	}
	return parseNumeric(amount)
}

// SetAllowance upserts the (owner, spender) allowance.
func (r *AccountRepo) SetAllowance(ctx context.Context, owner, spender domain.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		if _, err := r.q.Exec(ctx, `DELETE FROM allowances WHERE owner = $1 AND spender = $2`, owner, spender); err != nil {
			return fmt.Errorf("delete allowance: %w", err)
		}
		return nil
	}

	query := `INSERT INTO allowances (owner, spender, amount) VALUES ($1, $2, $3::numeric)
		ON CONFLICT (owner, spender) DO UPDATE SET amount = EXCLUDED.amount`
	if _, err := r.q.Exec(ctx, query, owner, spender, numericArg(amount)); err != nil {
		return fmt.Errorf("upsert allowance: %w", err)
	}
	return nil
}
