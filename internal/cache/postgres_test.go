package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgresStore(t *testing.T, opts ...Option) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock, opts: buildOptions(opts)}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS enrichment_cache`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT payload, stored_at FROM enrichment_cache WHERE key = \$1`).
		WithArgs("acme:acme.dev").
		WillReturnError(pgx.ErrNoRows)

	got, ok, err := s.Get(context.Background(), "acme:acme.dev")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_Fresh(t *testing.T) {
	clock := &testClock{now: baseTime}
	s, mock := newMockPostgresStore(t, WithClock(clock.Now))

	payload, err := json.Marshal(sampleResult())
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload, stored_at FROM enrichment_cache`).
		WithArgs("k").
		WillReturnRows(pgxmock.NewRows([]string{"payload", "stored_at"}).
			AddRow(payload, baseTime.Add(-30*time.Minute)))

	got, ok, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleResult(), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_StaleEvicts(t *testing.T) {
	clock := &testClock{now: baseTime}
	s, mock := newMockPostgresStore(t, WithClock(clock.Now))

	mock.ExpectQuery(`SELECT payload, stored_at FROM enrichment_cache`).
		WithArgs("k").
		WillReturnRows(pgxmock.NewRows([]string{"payload", "stored_at"}).
			AddRow([]byte(`{}`), baseTime.Add(-2*time.Hour)))
	mock.ExpectExec(`DELETE FROM enrichment_cache WHERE key = \$1`).
		WithArgs("k").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	_, ok, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Put(t *testing.T) {
	clock := &testClock{now: baseTime}
	s, mock := newMockPostgresStore(t, WithClock(clock.Now))

	mock.ExpectExec(`ON CONFLICT \(key\) DO UPDATE`).
		WithArgs("k", pgxmock.AnyArg(), baseTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Put(context.Background(), "k", sampleResult()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PurgeExpired(t *testing.T) {
	clock := &testClock{now: baseTime}
	s, mock := newMockPostgresStore(t, WithClock(clock.Now))

	mock.ExpectExec(`DELETE FROM enrichment_cache WHERE stored_at < \$1`).
		WithArgs(baseTime.Add(-time.Hour)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO enrichment_cache`).
		WillReturnError(assert.AnError)

	err := s.Put(context.Background(), "k", sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres put")
}
