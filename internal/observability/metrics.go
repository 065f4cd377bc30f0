// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the agent.
type Metrics struct {
	// Engine metrics
	CyclesTotal      *prometheus.CounterVec
	CycleDuration    prometheus.Histogram
	ActionsTotal     *prometheus.CounterVec
	BattlesObserved  *prometheus.GaugeVec
	AnalysisFailures prometheus.Counter

	// Chain metrics
	ContractCallLatency *prometheus.HistogramVec
	StorageReadLatency  prometheus.Histogram
	TxSubmitted         prometheus.Counter
	TxFailed            prometheus.Counter

	// Routing metrics
	RouteRequests *prometheus.CounterVec
	QuoteLatency  prometheus.Histogram

	// Health metrics
	EngineRunning prometheus.Gauge
	LastCycleTime prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "lp_arena_agent"
	}

	return &Metrics{
		// Engine metrics
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Total number of strategy cycles by outcome",
		}, []string{"outcome"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Strategy cycle duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		ActionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "actions_total",
			Help:      "Total number of executed actions by kind and status",
		}, []string{"kind", "status"}),
		BattlesObserved: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "battles_observed",
			Help:      "Number of battles seen in the last cycle by status",
		}, []string{"status"}),
		AnalysisFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "analysis_failures_total",
			Help:      "Total number of per-battle analysis failures",
		}),

		// Chain metrics
		ContractCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "contract_call_latency_seconds",
			Help:      "Registry contract call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		StorageReadLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "storage_read_latency_seconds",
			Help:      "Raw storage slot read latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TxSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "tx_submitted_total",
			Help:      "Total number of transactions submitted",
		}),
		TxFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "tx_failed_total",
			Help:      "Total number of transactions that reverted or failed to land",
		}),

		// Routing metrics
		RouteRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "route_requests_total",
			Help:      "Total number of route requests by provider and status",
		}, []string{"provider", "status"}),
		QuoteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "quote_latency_seconds",
			Help:      "Aggregator quote latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Health metrics
		EngineRunning: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "engine_running",
			Help:      "1 while the strategy engine loop is running",
		}),
		LastCycleTime: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_cycle_timestamp",
			Help:      "Unix timestamp of the last completed cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCycle records one completed cycle.
func RecordCycle(outcome string, durationSeconds float64) {
	DefaultMetrics.CyclesTotal.WithLabelValues(outcome).Inc()
	DefaultMetrics.CycleDuration.Observe(durationSeconds)
}

// RecordAction increments the action counter for one executed action.
func RecordAction(kind, status string) {
	DefaultMetrics.ActionsTotal.WithLabelValues(kind, status).Inc()
}

// UpdateBattleCounts updates the per-status battle gauges.
func UpdateBattleCounts(active, pending, expired int) {
	DefaultMetrics.BattlesObserved.WithLabelValues("active").Set(float64(active))
	DefaultMetrics.BattlesObserved.WithLabelValues("pending").Set(float64(pending))
	DefaultMetrics.BattlesObserved.WithLabelValues("expired").Set(float64(expired))
}

// RecordAnalysisFailure increments the analysis failure counter.
func RecordAnalysisFailure() {
	DefaultMetrics.AnalysisFailures.Inc()
}

// RecordContractCall records registry call latency.
func RecordContractCall(method string, seconds float64) {
	DefaultMetrics.ContractCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordTx records a transaction submission and its outcome.
func RecordTx(err error) {
	DefaultMetrics.TxSubmitted.Inc()
	if err != nil {
		DefaultMetrics.TxFailed.Inc()
	}
}

// RecordRouteRequest records one route family attempt.
func RecordRouteRequest(provider, status string) {
	DefaultMetrics.RouteRequests.WithLabelValues(provider, status).Inc()
}
