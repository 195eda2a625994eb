// Package metrics holds the Prometheus instruments shared by the datasource,
// the ConceptNet client and the count estimator.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "conceptnet_ldf"

// Count estimate outcomes, used as the "result" label.
const (
	CountHit       = "hit"
	CountPersisted = "persisted"
	CountPending   = "pending"
	CountExact     = "exact"
	CountTimeout   = "timeout"
	CountError     = "error"
)

// Metrics contains all datasource metrics
type Metrics struct {
	QueriesTotal   *prometheus.CounterVec
	QuadsEmitted   prometheus.Counter
	EdgesFiltered  prometheus.Counter
	FetchDuration  *prometheus.HistogramVec
	CountEstimates *prometheus.CounterVec

	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter
	CacheSize      prometheus.Gauge
}

// New creates a new Metrics instance
func New() *Metrics {
	return &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "queries",
				Name:      "total",
				Help:      "Total number of pattern queries by outcome",
			},
			[]string{"status"},
		),
		QuadsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queries",
			Name:      "quads_emitted_total",
			Help:      "Total number of quads pushed to result streams",
		}),
		EdgesFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queries",
			Name:      "edges_filtered_total",
			Help:      "Total number of edges dropped by the language filter",
		}),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "endpoint",
				Name:      "fetch_duration_seconds",
				Help:      "Duration of requests against the ConceptNet endpoint",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		CountEstimates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "count",
				Name:      "estimates_total",
				Help:      "Total number of count estimates by result",
			},
			[]string{"result"},
		),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "count_cache",
			Name:      "hits_total",
			Help:      "Total number of count cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "count_cache",
			Name:      "misses_total",
			Help:      "Total number of count cache misses",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "count_cache",
			Name:      "evictions_total",
			Help:      "Total number of count cache evictions",
		}),
		CacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "count_cache",
			Name:      "entries",
			Help:      "Current number of cached counts",
		}),
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.QueriesTotal,
		m.QuadsEmitted,
		m.EdgesFiltered,
		m.FetchDuration,
		m.CountEstimates,
		m.CacheHits,
		m.CacheMisses,
		m.CacheEvictions,
		m.CacheSize,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return nil
}
