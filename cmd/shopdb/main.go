package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"shop-data/internal/cache"
	"shop-data/internal/database"
	"shop-data/internal/logging"
	"shop-data/internal/metrics"
	"shop-data/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "shopdb",
	Short:         "Operate the shop data-access layer",
	Long:          "shopdb checks connectivity, applies migrations and runs read queries against the shop database.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(smokeCmd)
	rootCmd.AddCommand(metricsCmd)

	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(shopsCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(ordersCmd)
}

// app holds everything a command needs once config is loaded.
type app struct {
	cfg      *database.Config
	log      *slog.Logger
	registry *prometheus.Registry
	pool     *pgxpool.Pool
	rdb      *redis.Client
	store    *repository.Store
}

// boot loads config, connects to PostgreSQL and, when REDIS_URL is set, to
// Redis. The caller must call close.
func boot(ctx context.Context) (*app, error) {
	cfg, err := database.LoadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logging.New(logging.Options{Level: level, Format: cfg.LogFormat})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	pool, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, registry: registry, pool: pool}
	a.store = repository.NewStore(pool, repository.Options{
		Logger:      log,
		Metrics:     m,
		LockTimeout: cfg.LockTimeout,
	})

	if cfg.RedisURL != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg, log)
		if err != nil {
			pool.Close()
			return nil, err
		}
		a.rdb = rdb
		a.store = cache.Wrap(a.store, rdb, cache.Options{TTL: cfg.CacheTTL, Logger: log, Metrics: m})
	}

	return a, nil
}

func (a *app) close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn("closing redis", "err", err)
		}
	}
	a.pool.Close()
}

// withApp boots the app around fn.
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, args, a)
	}
}
