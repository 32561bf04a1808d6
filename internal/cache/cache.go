// Package cache wraps repositories with a Redis read-through cache.
//
// Only point lookups and per-shop product lists are cached. Writes go to the
// database first and then drop every key they may have made stale. A Redis
// failure never fails a read; the decorator logs it and asks the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shop-data/internal/logging"
	"shop-data/internal/metrics"
	"shop-data/internal/repository"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL     = 5 * time.Minute
	notFoundTTL    = 1 * time.Minute
	notFoundMarker = "notfound"

	// versionTTL outlives any database load, so a generation read before a
	// load is still present when the load finishes.
	versionTTL = 24 * time.Hour
)

type Options struct {
	TTL     time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

type cacheBase struct {
	redis   *redis.Client
	ttl     time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics
}

func newCacheBase(rdb *redis.Client, opts Options) cacheBase {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return cacheBase{redis: rdb, ttl: ttl, log: log, metrics: opts.Metrics}
}

func productKey(id int64) string      { return fmt.Sprintf("product:%d", id) }
func shopKey(id int64) string         { return fmt.Sprintf("shop:%d", id) }
func shopProductsKey(id int64) string { return fmt.Sprintf("products:shop:%d", id) }

func versionKey(key string) string { return "ver:" + key }

// setIfUnchanged stores ARGV[2] under KEYS[1] for ARGV[3] milliseconds only
// while the generation in KEYS[2] still equals ARGV[1] ("" when absent).
var setIfUnchanged = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or ''
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// readThrough serves key from Redis or, on a miss, from load, storing the
// result. repository.ErrNotFound from load is remembered briefly.
//
// The key's generation is read together with the value. A write that
// commits while load runs bumps the generation, and the loaded value is
// then dropped instead of overwriting the invalidation.
func readThrough[T any](ctx context.Context, c *cacheBase, family, key string, load func() (T, error)) (T, error) {
	var zero T

	vals, err := c.redis.MGet(ctx, key, versionKey(key)).Result()
	if err != nil {
		c.metrics.Cache(family, metrics.CacheError)
		c.log.Warn("redis error (continuing with DB)", "key", key, "err", err)
		return load()
	}

	generation, _ := vals[1].(string)

	if data, ok := vals[0].(string); ok {
		if data == notFoundMarker {
			c.metrics.Cache(family, metrics.CacheNotFound)
			return zero, repository.ErrNotFound
		}

		var value T
		err := json.Unmarshal([]byte(data), &value)
		if err == nil {
			c.metrics.Cache(family, metrics.CacheHit)
			return value, nil
		}
		c.log.Warn("failed to unmarshal cached value (continuing with DB)", "key", key, "err", err)
	} else {
		c.metrics.Cache(family, metrics.CacheMiss)
	}

	value, err := load()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.store(ctx, key, generation, notFoundMarker, notFoundTTL)
		}
		return zero, err
	}

	jsonData, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("failed to marshal value", "key", key, "err", err)
		return value, nil
	}

	c.store(ctx, key, generation, string(jsonData), c.ttl)
	return value, nil
}

func (c *cacheBase) store(ctx context.Context, key, generation, data string, ttl time.Duration) {
	stored, err := setIfUnchanged.Run(ctx, c.redis,
		[]string{key, versionKey(key)},
		generation, data, ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.log.Warn("failed to cache value", "key", key, "err", err)
		return
	}
	if stored == 0 {
		c.log.Debug("skipped caching value invalidated during load", "key", key)
	}
}

// invalidate drops keys and bumps their generations so that reads already
// in flight cannot store what they loaded before the write.
func (c *cacheBase) invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, versionKey(key))
			pipe.Expire(ctx, versionKey(key), versionTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		c.log.Warn("failed to invalidate cache keys", "keys", keys, "err", err)
	}
}

// Wrap returns a copy of store whose shop, product and order repositories
// go through the cache. Users and sellers are not cached.
func Wrap(store *repository.Store, rdb *redis.Client, opts Options) *repository.Store {
	return &repository.Store{
		Users:    store.Users,
		Sellers:  store.Sellers,
		Shops:    NewCachedShopRepository(store.Shops, rdb, opts),
		Products: NewCachedProductRepository(store.Products, rdb, opts),
		Orders:   NewCachedOrderRepository(store.Orders, rdb, opts),
	}
}
