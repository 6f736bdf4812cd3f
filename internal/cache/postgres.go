package cache

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/vc-enrich/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore persists entries in a shared Postgres table.
type PostgresStore struct {
	pool Pool
	opts options
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS enrichment_cache (
	key       TEXT PRIMARY KEY,
	payload   JSONB NOT NULL,
	stored_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_enrichment_cache_stored_at ON enrichment_cache (stored_at);
`

// NewPostgres opens a connection pool and creates the cache table.
func NewPostgres(ctx context.Context, connString string, opts ...Option) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "cache: postgres parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "cache: postgres connect")
	}

	s := &PostgresStore{pool: pool, opts: buildOptions(opts)}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the cache table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "cache: postgres migrate")
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*model.EnrichmentResult, bool, error) {
	var (
		payload  []byte
		storedAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT payload, stored_at FROM enrichment_cache WHERE key = $1`, key,
	).Scan(&payload, &storedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: postgres get")
	}

	entry := model.CacheEntry{Key: key, StoredAt: storedAt}
	if entry.Expired(s.opts.now(), s.opts.ttl) {
		return nil, false, s.Evict(ctx, key)
	}

	result, err := decodePayload(payload)
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, result *model.EnrichmentResult) error {
	data, err := encodePayload(result)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO enrichment_cache (key, payload, stored_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, stored_at = EXCLUDED.stored_at`,
		key, data, s.opts.now().UTC(),
	)
	return eris.Wrap(err, "cache: postgres put")
}

func (s *PostgresStore) Evict(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM enrichment_cache WHERE key = $1`, key)
	return eris.Wrap(err, "cache: postgres evict")
}

// PurgeExpired deletes every entry older than the TTL.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.opts.now().Add(-s.opts.ttl).UTC()
	tag, err := s.pool.Exec(ctx, `DELETE FROM enrichment_cache WHERE stored_at < $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "cache: postgres purge")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
