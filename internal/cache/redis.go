package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/vc-enrich/internal/model"
)

const redisKeyPrefix = "vcenrich:cache:"

// RedisOptions holds connection settings for the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps entries in Redis as JSON. Keys carry an EX expiry as a
// backstop; freshness is still decided from the stored write time.
type RedisStore struct {
	client *redis.Client
	opts   options
}

// NewRedis connects to Redis and verifies the connection with PING.
func NewRedis(ctx context.Context, ro RedisOptions, opts ...Option) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         ro.Addr,
		Password:     ro.Password,
		DB:           ro.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, eris.Wrapf(err, "cache: redis ping %s", ro.Addr)
	}
	return &RedisStore{client: rdb, opts: buildOptions(opts)}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (*model.EnrichmentResult, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: redis get")
	}

	var entry model.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, eris.Wrap(err, "cache: redis decode entry")
	}
	if entry.Payload == nil || entry.Expired(r.opts.now(), r.opts.ttl) {
		if err := r.Evict(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	entry.Payload.EnsureSlices()
	return entry.Payload, true, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, result *model.EnrichmentResult) error {
	entry := model.CacheEntry{Key: key, Payload: clone(result), StoredAt: r.opts.now()}
	data, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "cache: redis encode entry")
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, r.opts.ttl).Err(); err != nil {
		return eris.Wrap(err, "cache: redis set")
	}
	return nil
}

func (r *RedisStore) Evict(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return eris.Wrap(err, "cache: redis del")
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
