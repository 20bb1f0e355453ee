package graph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics provides Prometheus-compatible metrics collection for
// workflow execution monitoring in production environments.
//
// Metrics exposed (all namespaced with "dayroom_"):
//
// 1. inflight_items (gauge): Item invocations currently executing inside
// per-item fan-out. Use: verify the concurrency cap holds under load.
//
// 2. node_latency_ms (histogram): Node execution duration in milliseconds.
// Labels: run_id, node_id, status (success/error).
// Buckets: [1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000].
// Use: P50/P95/P99 latency analysis per node.
//
// 3. item_failures_total (counter): Item invocations that failed or timed
// out and were recorded as the sentinel. Labels: reason (error/timeout).
//
// 4. suspensions_total (counter): Runs that halted awaiting caller input.
// Labels: node_id.
//
// 5. routing_failures_total (counter): Nodes whose outgoing edges produced
// no route. Labels: node_id.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := NewPrometheusMetrics(registry)
//	engine := New(reduce, st, emitter, WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Thread-safe: all methods use atomic operations or mutex protection.
type PrometheusMetrics struct {
	inflightItems prometheus.Gauge

	nodeLatency *prometheus.HistogramVec

	itemFailures    *prometheus.CounterVec
	suspensions     *prometheus.CounterVec
	routingFailures *prometheus.CounterVec

	registry prometheus.Registerer

	mu sync.RWMutex

	// enabled controls whether metrics are recorded.
	enabled bool
}

// NewPrometheusMetrics creates and registers all workflow execution metrics
// with the provided Prometheus registry. A nil registry falls back to
// prometheus.DefaultRegisterer; a dedicated registry is recommended for
// isolation.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{
		registry: registry,
		enabled:  true,
	}

	pm.inflightItems = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "dayroom",
		Name:      "inflight_items",
		Help:      "Item invocations currently executing inside per-item fan-out",
	})

	pm.nodeLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dayroom",
		Name:      "node_latency_ms",
		Help:      "Node execution duration in milliseconds (fan-out included)",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000},
	}, []string{"run_id", "node_id", "status"}) // status: success, error

	pm.itemFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dayroom",
		Name:      "item_failures_total",
		Help:      "Item invocations recorded as the sentinel after failure or timeout",
	}, []string{"reason"}) // reason: error, timeout

	pm.suspensions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dayroom",
		Name:      "suspensions_total",
		Help:      "Runs halted awaiting caller-supplied input",
	}, []string{"node_id"})

	pm.routingFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dayroom",
		Name:      "routing_failures_total",
		Help:      "Nodes whose outgoing edges matched no route for the current state",
	}, []string{"node_id"})

	return pm
}

// RecordNodeLatency records the execution duration of a node in
// milliseconds, labeled by run, node, and outcome.
func (pm *PrometheusMetrics) RecordNodeLatency(runID, nodeID string, latency time.Duration, status string) {
	if !pm.enabled {
		return
	}

	pm.nodeLatency.WithLabelValues(runID, nodeID, status).Observe(float64(latency.Milliseconds()))
}

// UpdateInflightItems adjusts the in-flight item gauge by delta. The
// fan-out executor calls it with +1 when an item enters the limit and -1
// when it leaves.
func (pm *PrometheusMetrics) UpdateInflightItems(delta int) {
	if !pm.enabled {
		return
	}

	pm.inflightItems.Add(float64(delta))
}

// IncrementItemFailures increments the item failure counter for the given
// reason ("error" or "timeout").
func (pm *PrometheusMetrics) IncrementItemFailures(reason string) {
	if !pm.enabled {
		return
	}

	pm.itemFailures.WithLabelValues(reason).Inc()
}

// IncrementSuspensions increments the suspension counter for the node that
// halted the run.
func (pm *PrometheusMetrics) IncrementSuspensions(nodeID string) {
	if !pm.enabled {
		return
	}

	pm.suspensions.WithLabelValues(nodeID).Inc()
}

// IncrementRoutingFailures increments the routing failure counter for the
// node whose edges produced no next step.
func (pm *PrometheusMetrics) IncrementRoutingFailures(nodeID string) {
	if !pm.enabled {
		return
	}

	pm.routingFailures.WithLabelValues(nodeID).Inc()
}

// Disable temporarily disables metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable().
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}

// Reset clears gauge values (useful for testing). Counters and histograms
// are cumulative by design and cannot be reset.
func (pm *PrometheusMetrics) Reset() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.inflightItems.Set(0)
}
