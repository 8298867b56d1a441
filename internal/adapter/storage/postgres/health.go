package postgres

import (
	"context"
	"fmt"
)

// HealthCheck implements ports.HealthChecker for PostgreSQL. A reachable
// database without the seeded ledger_settings row reports unhealthy.
type HealthCheck struct {
	pool Querier
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Querier) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping confirms the ledger schema is applied and readable.
func (h *HealthCheck) Ping(ctx context.Context) error {
	var n int
	if err := h.pool.QueryRow(ctx, `SELECT count(*) FROM ledger_settings WHERE id = 1`).Scan(&n); err != nil {
		return fmt.Errorf("ledger settings: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("ledger settings row missing")
	}
	return nil
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "postgresql"
}
