// Package metrics holds the Prometheus collectors for the data-access layer.
//
// A nil *Metrics is valid and records nothing, so repositories can be built
// without a registry in tests and small tools.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shopdata"

// Transaction outcomes.
const (
	OutcomeCommit   = "commit"
	OutcomeRollback = "rollback"
)

// Cache lookup results.
const (
	CacheHit      = "hit"
	CacheMiss     = "miss"
	CacheNotFound = "notfound"
	CacheError    = "error"
)

type Metrics struct {
	QueryDuration *prometheus.HistogramVec
	TxTotal       *prometheus.CounterVec
	CacheLookups  *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "operation_duration_seconds",
				Help:      "Duration of repository operations in seconds.",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .5, 1, 5},
			},
			[]string{"op"},
		),
		TxTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "transactions_total",
				Help:      "Write transactions by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Cache lookups by key family and result.",
			},
			[]string{"family", "result"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.QueryDuration, m.TxTotal, m.CacheLookups)
	}
	return m
}

// ObserveOp records how long op took since start.
func (m *Metrics) ObserveOp(op string, start time.Time) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Tx(op, outcome string) {
	if m == nil {
		return
	}
	m.TxTotal.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) Cache(family, result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(family, result).Inc()
}
