package postgres

import (
	"context"
	"fmt"

	"gig-escrow/internal/core/domain"
)

// SettingsRepo implements ports.SettingsRepository over the single ledger_settings row.
type SettingsRepo struct {
	q Querier
}

// NewSettingsRepo creates a new SettingsRepo.
func NewSettingsRepo(q Querier) *SettingsRepo {
	return &SettingsRepo{q: q}
}

// Load reads the settings row seeded by the initial migration.
func (r *SettingsRepo) Load(ctx context.Context) (*domain.LedgerSettings, error) {
	query := `SELECT fee_bps, total_supply::text, gig_seq, order_seq, credential_seq
		FROM ledger_settings WHERE id = 1`

	st := &domain.LedgerSettings{}
	var supply string
	err := r.q.QueryRow(ctx, query).Scan(&st.FeeBps, &supply, &st.GigSeq, &st.OrderSeq, &st.CredentialSeq)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if st.TotalSupply, err = parseNumeric(supply); err != nil {
		return nil, err
	}
	return st, nil
}

// Save overwrites the settings row.
func (r *SettingsRepo) Save(ctx context.Context, st *domain.LedgerSettings) error {
	query := `UPDATE ledger_settings
		SET fee_bps = $1, total_supply = $2::numeric, gig_seq = $3, order_seq = $4, credential_seq = $5
		WHERE id = 1`

	tag, err := r.q.Exec(ctx, query,
		st.FeeBps, numericArg(st.TotalSupply), st.GigSeq, st.OrderSeq, st.CredentialSeq)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("settings row missing")
	}
	return nil
}
