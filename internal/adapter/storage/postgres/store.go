package postgres

import (
	"context"
	"fmt"

	"gig-escrow/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ledgerLockKey is the pg_advisory_xact_lock key every writer takes first.
const ledgerLockKey int64 = 0x6769_6731 // "gig1"

// Querier runs statements. *pgxpool.Pool, pgx.Tx and pgxmock all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is the subset of *pgxpool.Pool the adapter uses.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Store implements ports.Store on PostgreSQL.
type Store struct {
	pool Pool
}

// NewStore creates a new Store wrapping the connection pool.
func NewStore(pool Pool) *Store {
	return &Store{pool: pool}
}

// WithinTx runs fn in one transaction. Writers are serialized by a
// transaction-scoped advisory lock, so fn sees every earlier commit.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.StoreTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", ledgerLockKey); err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}

	if err := fn(ctx, newStoreTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// View runs fn in a read-only snapshot.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx ports.StoreTx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	return fn(ctx, newStoreTx(tx))
}

type storeTx struct {
	accounts    *AccountRepo
	credentials *CredentialRepo
	gigs        *GigRepo
	orders      *OrderRepo
	settings    *SettingsRepo
	events      *EventRepo
}

func newStoreTx(q Querier) *storeTx {
	return &storeTx{
		accounts:    NewAccountRepo(q),
		credentials: NewCredentialRepo(q),
		gigs:        NewGigRepo(q),
		orders:      NewOrderRepo(q),
		settings:    NewSettingsRepo(q),
		events:      NewEventRepo(q),
	}
}

func (t *storeTx) Accounts() ports.AccountRepository       { return t.accounts }
func (t *storeTx) Credentials() ports.CredentialRepository { return t.credentials }
func (t *storeTx) Gigs() ports.GigRepository               { return t.gigs }
func (t *storeTx) Orders() ports.OrderRepository           { return t.orders }
func (t *storeTx) Settings() ports.SettingsRepository      { return t.settings }
func (t *storeTx) Events() ports.EventRepository           { return t.events }
