package cache

import (
	"context"
	"testing"

	"shop-data/internal/database"
	"shop-data/internal/logging"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOptions(t *testing.T) {
	t.Run("bare address", func(t *testing.T) {
		opts, err := RedisOptions(&database.Config{RedisURL: "cache:6379", RedisDB: 2, RedisPassword: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "cache:6379", opts.Addr)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, "pw", opts.Password)
	})

	t.Run("url", func(t *testing.T) {
		opts, err := RedisOptions(&database.Config{RedisURL: "redis://:secret@cache:6380/3"})
		require.NoError(t, err)
		assert.Equal(t, "cache:6380", opts.Addr)
		assert.Equal(t, 3, opts.DB)
		assert.Equal(t, "secret", opts.Password)
		assert.Equal(t, 20, opts.PoolSize)
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := RedisOptions(&database.Config{RedisURL: "redis://cache:6379/notadb"})
		assert.Error(t, err)
	})
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	rdb, err := ConnectRedis(context.Background(), &database.Config{RedisURL: addr}, logging.Nop())
	require.NoError(t, err)
	defer rdb.Close()

	mr.Close()
	_, err = ConnectRedis(context.Background(), &database.Config{RedisURL: addr}, logging.Nop())
	assert.ErrorContains(t, err, "redis ping failed")
}
