package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/vc-enrich/internal/model"
)

// SQLiteStore persists entries in a local SQLite file via modernc.org/sqlite.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS enrichment_cache (
	key       TEXT PRIMARY KEY,
	payload   TEXT NOT NULL,
	stored_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_enrichment_cache_stored_at ON enrichment_cache(stored_at);
`

// NewSQLite opens the database at dsn in WAL mode and creates the cache table.
func NewSQLite(ctx context.Context, dsn string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: sqlite exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "cache: sqlite migrate")
	}
	return &SQLiteStore{db: db, opts: buildOptions(opts)}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*model.EnrichmentResult, bool, error) {
	var (
		payload  string
		storedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, stored_at FROM enrichment_cache WHERE key = ?`, key,
	).Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: sqlite get")
	}

	entry := model.CacheEntry{Key: key, StoredAt: time.UnixMilli(storedAt)}
	if entry.Expired(s.opts.now(), s.opts.ttl) {
		return nil, false, s.Evict(ctx, key)
	}

	result, err := decodePayload([]byte(payload))
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, result *model.EnrichmentResult) error {
	data, err := encodePayload(result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO enrichment_cache (key, payload, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`,
		key, string(data), s.opts.now().UnixMilli(),
	)
	return eris.Wrap(err, "cache: sqlite put")
}

func (s *SQLiteStore) Evict(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM enrichment_cache WHERE key = ?`, key)
	return eris.Wrap(err, "cache: sqlite evict")
}

// PurgeExpired deletes every entry older than the TTL.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.opts.now().Add(-s.opts.ttl).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM enrichment_cache WHERE stored_at < ?`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "cache: sqlite purge")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "cache: sqlite purge rows")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
