package graph

import "time"

// Options contains execution configuration for the Engine.
type Options struct {
	// MaxSteps caps the number of node executions per run. Zero or
	// negative disables the cap.
	MaxSteps int

	// FanOutLimit caps concurrent item invocations inside a per-item
	// node. Zero means DefaultFanOutLimit.
	FanOutLimit int

	// ItemTimeout bounds each individual item invocation. Zero means
	// DefaultItemTimeout.
	ItemTimeout time.Duration

	// DefaultNodeTimeout bounds a single-invocation node's Run. Zero
	// means no timeout.
	DefaultNodeTimeout time.Duration

	// Sentinel is recorded for failed or timed-out items. Empty means
	// DefaultSentinel.
	Sentinel string

	// Metrics, when set, records Prometheus metrics for node latency,
	// fan-out, suspensions, and routing failures.
	Metrics *PrometheusMetrics

	// Cost, when set, accumulates model token usage and spend. The
	// engine never records into it itself; nodes share it through state
	// or closure.
	Cost *CostTracker
}

func defaultOptions() Options {
	return Options{
		MaxSteps:    100,
		FanOutLimit: DefaultFanOutLimit,
		ItemTimeout: DefaultItemTimeout,
		Sentinel:    DefaultSentinel,
	}
}

type engineConfig struct {
	opts Options
}

// Option configures an Engine at construction time.
type Option func(*engineConfig)

// WithMaxSteps caps the number of node executions per run.
func WithMaxSteps(n int) Option {
	return func(c *engineConfig) { c.opts.MaxSteps = n }
}

// WithFanOutLimit caps concurrent item invocations in per-item nodes.
func WithFanOutLimit(n int) Option {
	return func(c *engineConfig) { c.opts.FanOutLimit = n }
}

// WithItemTimeout bounds each individual item invocation.
func WithItemTimeout(d time.Duration) Option {
	return func(c *engineConfig) { c.opts.ItemTimeout = d }
}

// WithDefaultNodeTimeout bounds every single-invocation node's Run.
func WithDefaultNodeTimeout(d time.Duration) Option {
	return func(c *engineConfig) { c.opts.DefaultNodeTimeout = d }
}

// WithSentinel overrides the value recorded for failed or timed-out items.
func WithSentinel(s string) Option {
	return func(c *engineConfig) { c.opts.Sentinel = s }
}

// WithMetrics attaches Prometheus metrics collection.
func WithMetrics(m *PrometheusMetrics) Option {
	return func(c *engineConfig) { c.opts.Metrics = m }
}

// WithCostTracker attaches a shared cost tracker.
func WithCostTracker(t *CostTracker) Option {
	return func(c *engineConfig) { c.opts.Cost = t }
}
