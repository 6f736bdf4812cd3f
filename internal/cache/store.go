// Package cache stores enrichment results for a fixed time window.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vc-enrich/internal/config"
	"github.com/sells-group/vc-enrich/internal/model"
)

// DefaultTTL is how long a stored result stays fresh.
const DefaultTTL = time.Hour

// Store holds enrichment results keyed by Key. Get reports a miss for
// entries older than the TTL and evicts them.
type Store interface {
	Get(ctx context.Context, key string) (*model.EnrichmentResult, bool, error)
	Put(ctx context.Context, key string, result *model.EnrichmentResult) error
	Evict(ctx context.Context, key string) error
	Close() error
}

// Purger is implemented by backends that can delete expired entries in bulk.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Key builds the cache key for a company: lower("{companyName}:{website}").
func Key(companyName, website string) string {
	return strings.ToLower(companyName + ":" + website)
}

// Option configures a Store.
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock overrides time.Now for freshness checks and write stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Open creates the Store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.CacheConfig, opts ...Option) (Store, error) {
	if cfg.TTLSecs > 0 {
		opts = append([]Option{WithTTL(cfg.TTL())}, opts...)
	}

	switch strings.ToLower(cfg.Driver) {
	case "", config.CacheMemory:
		return NewMemory(opts...), nil
	case config.CacheRedis:
		return NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, opts...)
	case config.CacheSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "vc-enrich-cache.db"
		}
		return NewSQLite(ctx, dsn, opts...)
	case config.CachePostgres:
		if cfg.DSN == "" {
			return nil, eris.New("cache: postgres driver requires cache.dsn")
		}
		return NewPostgres(ctx, cfg.DSN, opts...)
	default:
		return nil, eris.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}

// clone copies r so callers cannot mutate stored state.
func clone(r *model.EnrichmentResult) *model.EnrichmentResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Keywords = append([]string(nil), r.Keywords...)
	out.Signals = append([]model.Signal(nil), r.Signals...)
	out.Sources = append([]model.Source(nil), r.Sources...)
	if r.ThesisMatch != nil {
		tm := *r.ThesisMatch
		tm.Reasons = append([]string(nil), r.ThesisMatch.Reasons...)
		out.ThesisMatch = &tm
	}
	out.EnsureSlices()
	return &out
}

func encodePayload(r *model.EnrichmentResult) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, eris.Wrap(err, "cache: marshal payload")
	}
	return data, nil
}

func decodePayload(data []byte) (*model.EnrichmentResult, error) {
	var r model.EnrichmentResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "cache: unmarshal payload")
	}
	r.EnsureSlices()
	return &r, nil
}
