package postgres

import (
	"context"
	"testing"

	"gig-escrow/internal/core/domain"

	"github.com/holiman/uint256"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepo_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT fee_bps, total_supply::text").
		WillReturnRows(pgxmock.NewRows([]string{"fee_bps", "total_supply", "gig_seq", "order_seq", "credential_seq"}).
			AddRow(uint32(300), "1000000000000000000000000", uint64(4), uint64(9), uint64(2)))

	st, err := NewSettingsRepo(mock).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(300), st.FeeBps)
	assert.Equal(t, "1000000000000000000000000", st.TotalSupply.Dec())
	assert.Equal(t, uint64(4), st.GigSeq)
	assert.Equal(t, uint64(9), st.OrderSeq)
	assert.Equal(t, uint64(2), st.CredentialSeq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepo_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := &domain.LedgerSettings{FeeBps: 250, TotalSupply: uint256.NewInt(10), GigSeq: 1, OrderSeq: 2, CredentialSeq: 3}

	mock.ExpectExec("UPDATE ledger_settings").
		WithArgs(uint32(250), "10", uint64(1), uint64(2), uint64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE ledger_settings").
		WithArgs(uint32(250), "10", uint64(1), uint64(2), uint64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewSettingsRepo(mock)
	assert.NoError(t, repo.Save(context.Background(), st))
	assert.ErrorContains(t, repo.Save(context.Background(), st), "settings row missing")
	assert.NoError(t, mock.ExpectationsWereMet())
}
