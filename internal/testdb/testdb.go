// Package testdb gives integration tests a migrated PostgreSQL schema of
// their own. Tests are skipped unless SHOPDB_TEST_DATABASE_URL is set.
package testdb

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"shop-data/internal/database"
	"shop-data/internal/logging"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const URLEnv = "SHOPDB_TEST_DATABASE_URL"

// Open creates a throwaway schema, applies every migration to it and
// returns a pool whose search_path points at it. The schema is dropped when
// the test finishes.
func Open(t testing.TB) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv(URLEnv)
	if url == "" {
		t.Skipf("%s not set", URLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := pgxpool.New(ctx, url)
	require.NoError(t, err)

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize())
	require.NoError(t, err)

	cfg, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	cfg.MaxConns = 8
	cfg.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer dropCancel()
		if _, err := admin.Exec(dropCtx, "DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		admin.Close()
	})

	_, err = database.Migrate(ctx, pool, logging.Nop())
	require.NoError(t, err)

	return pool
}
