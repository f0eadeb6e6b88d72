// Package metrics holds the prometheus collectors of the production engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal counts operation transitions by action and outcome
	// (ok, conflict, invalid, forbidden, not_found, error).
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prodflow_operation_transitions_total",
		Help: "Operation state transitions by action and result",
	}, []string{"action", "result"})

	// MaterializedOrdersTotal counts production orders created from approvals.
	MaterializedOrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prodflow_materialized_orders_total",
		Help: "Production orders materialized from approved sales orders",
	}, []string{"result"})

	// EventsTotal counts lifecycle events emitted on the bus.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prodflow_events_total",
		Help: "Lifecycle events emitted by kind",
	}, []string{"kind"})

	// StreamSubscribers is the number of connected dashboard streams.
	StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "prodflow_stream_subscribers",
		Help: "Connected event stream subscribers",
	})

	// PrunedSubscribersTotal counts subscribers dropped after a failed delivery.
	PrunedSubscribersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prodflow_stream_subscribers_pruned_total",
		Help: "Event stream subscribers removed after a failed delivery",
	})

	// CatalogRefreshTotal counts path catalog loads by result (ok, error, mirror).
	CatalogRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prodflow_catalog_refresh_total",
		Help: "Path catalog refreshes by result",
	}, []string{"result"})

	// CatalogRefreshDuration is the time spent loading the path catalog.
	CatalogRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "prodflow_catalog_refresh_duration_seconds",
		Help:    "Time spent loading the path catalog",
		Buckets: prometheus.DefBuckets,
	})

	// OutboxPublishedTotal counts outbox rows by publish result.
	OutboxPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prodflow_outbox_published_total",
		Help: "Outbox messages by publish result",
	}, []string{"result"})

	// JobRunsTotal counts scheduled job runs by job and result.
	JobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prodflow_job_runs_total",
		Help: "Scheduled job runs by job and result",
	}, []string{"job", "result"})
)

// ObserveTransition records one operation manager outcome. Materialization
// is reported through the same hook under the "materialize" action.
func ObserveTransition(action, result string) {
	if action == "materialize" {
		MaterializedOrdersTotal.WithLabelValues(result).Inc()
		return
	}
	TransitionsTotal.WithLabelValues(action, result).Inc()
}

// ObserveCatalogRefresh records one catalog load.
func ObserveCatalogRefresh(result string, elapsed time.Duration) {
	CatalogRefreshTotal.WithLabelValues(result).Inc()
	if result != "mirror" {
		CatalogRefreshDuration.Observe(elapsed.Seconds())
	}
}
