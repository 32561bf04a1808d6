package main

import (
	"fmt"
	"time"

	"shop-data/internal/database"

	"github.com/spf13/cobra"
)

// shopdb ping
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the database connection",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
		var now time.Time
		if err := a.pool.QueryRow(cmd.Context(), "SELECT NOW()").Scan(&now); err != nil {
			return fmt.Errorf("query failed: %w", err)
		}

		stat := a.pool.Stat()
		fmt.Fprintf(cmd.OutOrStdout(), "database time: %s\n", now.Format(time.RFC3339))
		fmt.Fprintf(cmd.OutOrStdout(), "pool: %d/%d connections\n", stat.TotalConns(), stat.MaxConns())
		if a.rdb != nil {
			if err := a.rdb.Ping(cmd.Context()).Err(); err != nil {
				return fmt.Errorf("redis ping failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "redis: ok")
		}
		return nil
	}),
}

// shopdb migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
		applied, err := database.Migrate(cmd.Context(), a.pool, a.log)
		if err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
		return nil
	}),
}
