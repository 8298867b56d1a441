package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepo_SetAndGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	key := "0x00000000000000000000000000000000000000c1:POST:/api/v1/orders:abc"
	body := []byte(`{"status":201}`)

	mock.ExpectExec("INSERT INTO idempotency_keys").
		WithArgs(key, body, int64(86_400_000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT response_json FROM idempotency_keys").
		WithArgs(key).
		WillReturnRows(pgxmock.NewRows([]string{"response_json"}).AddRow(body))

	require.NoError(t, repo.Set(context.Background(), key, body, 24*time.Hour))
	got, err := repo.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get_Miss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT response_json FROM idempotency_keys").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := NewIdempotencyRepo(mock).Get(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestIdempotencyRepo_Claim(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)

	mock.ExpectExec("INSERT INTO idempotency_claims").
		WithArgs("idem", "k1", int64(30_000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO idempotency_claims").
		WithArgs("idem", "k1", int64(30_000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectExec("DELETE FROM idempotency_claims").
		WithArgs("idem", "k1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	ok, err := repo.Claim(context.Background(), "idem", "k1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Claim(context.Background(), "idem", "k1", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "live claim must not be taken twice")

	assert.NoError(t, repo.Release(context.Background(), "idem", "k1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
