package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shop-data/internal/database"

	"github.com/redis/go-redis/v9"
)

// RedisOptions builds client options from cfg. RedisURL may be a bare
// host:port or a redis:// / rediss:// URL; explicit password and db
// settings override what the URL carries.
func RedisOptions(cfg *database.Config) (*redis.Options, error) {
	opts := &redis.Options{Addr: cfg.RedisURL}
	if strings.Contains(cfg.RedisURL, "://") {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisDB != 0 {
		opts.DB = cfg.RedisDB
	}

	opts.PoolSize = 20
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	return opts, nil
}

// ConnectRedis opens a client and pings it. The caller must Close it.
func ConnectRedis(ctx context.Context, cfg *database.Config, log *slog.Logger) (*redis.Client, error) {
	opts, err := RedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	log.Info("connecting to redis", "addr", opts.Addr, "db", opts.DB)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}
