package repository

import (
	"regexp"
	"testing"
	"time"

	"shop-data/internal/metrics"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func testOptions() (Options, *metrics.Metrics) {
	m := metrics.New(nil)
	return Options{Metrics: m, LockTimeout: 250 * time.Millisecond}, m
}

func sqlLike(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

var lockTimeoutSQL = sqlLike(setLockTimeoutSQL)
