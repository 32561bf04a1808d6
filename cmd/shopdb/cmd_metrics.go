package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var metricsAddr string

// shopdb metrics
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Serve Prometheus metrics for the connection pool and repositories",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
		registerPoolGauges(a)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))

		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.log.Info("serving metrics", "addr", metricsAddr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("metrics server: %w", err)
		case <-cmd.Context().Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}),
}

func init() {
	metricsCmd.Flags().StringVar(&metricsAddr, "addr", ":9090", "listen address")
}

func registerPoolGauges(a *app) {
	gauge := func(name, help string, value func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "shopdata",
			Subsystem: "pool",
			Name:      name,
			Help:      help,
		}, value)
	}

	a.registry.MustRegister(
		gauge("total_conns", "Connections currently open.", func() float64 { return float64(a.pool.Stat().TotalConns()) }),
		gauge("idle_conns", "Idle connections.", func() float64 { return float64(a.pool.Stat().IdleConns()) }),
		gauge("acquired_conns", "Connections checked out.", func() float64 { return float64(a.pool.Stat().AcquiredConns()) }),
		gauge("max_conns", "Configured pool size.", func() float64 { return float64(a.pool.Stat().MaxConns()) }),
	)
}
