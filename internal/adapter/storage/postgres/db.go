package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gig-escrow/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const applicationName = "gig-escrow"

// connectBackoff is the wait after the first failed ping; it doubles per attempt.
var connectBackoff = 500 * time.Millisecond

// PoolConfig builds the pgxpool configuration for the ledger store.
// Every session is tagged with the application name and, when set, a
// statement timeout that also bounds waits on the writer advisory lock.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	if poolCfg.MinConns > poolCfg.MaxConns {
		poolCfg.MinConns = poolCfg.MaxConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	params := poolCfg.ConnConfig.RuntimeParams
	params["application_name"] = applicationName
	if cfg.StatementTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}
	return poolCfg, nil
}

// NewPool opens the pool and pings until the database answers or
// cfg.ConnectAttempts is exhausted.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	attempts := max(cfg.ConnectAttempts, 1)
	wait := connectBackoff
	for attempt := 1; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt == attempts {
			pool.Close()
			return nil, fmt.Errorf("pinging database after %d attempts: %w", attempts, err)
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("PostgreSQL not ready")
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("pinging database: %w", ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("dbname", cfg.DBName).
		Int32("max_conns", poolCfg.MaxConns).
		Dur("statement_timeout", cfg.StatementTimeout).
		Msg("PostgreSQL connection pool established")

	return pool, nil
}
