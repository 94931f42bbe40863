// Package metrics exposes Prometheus metrics for the dev pipeline.
//
// A nil *Metrics is valid and records nothing, so components take one
// without checking whether metrics are enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the pipeline metrics.
type Config struct {
	// Namespace is the metrics namespace (default: "kosmo").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: a fresh registry
	Registry prometheus.Registerer
}

// Option configures the pipeline metrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Metrics holds the pipeline collectors.
type Metrics struct {
	registry prometheus.Gatherer

	resolvesTotal     *prometheus.CounterVec
	resolveDuration   *prometheus.HistogramVec
	cacheResults      *prometheus.CounterVec
	generatorRuns     *prometheus.CounterVec
	generatorDuration *prometheus.HistogramVec
	eventsTotal       *prometheus.CounterVec
	workerMessages    *prometheus.CounterVec
	workerExits       prometheus.Counter
	routes            *prometheus.GaugeVec
}

// New registers the pipeline collectors.
func New(opts ...Option) *Metrics {
	config := Config{
		Namespace: "kosmo",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&config)
	}

	m := &Metrics{}
	if config.Registry == nil {
		reg := prometheus.NewRegistry()
		config.Registry = reg
		m.registry = reg
	} else if g, ok := config.Registry.(prometheus.Gatherer); ok {
		m.registry = g
	}

	factory := promauto.With(config.Registry)

	m.resolvesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "route_resolves_total",
		Help:        "Total number of route resolutions by kind and status",
		ConstLabels: config.ConstLabels,
	}, []string{"kind", "status"})

	m.resolveDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   config.Namespace,
		Name:        "route_resolve_duration_seconds",
		Help:        "Route resolution duration in seconds",
		ConstLabels: config.ConstLabels,
		Buckets:     config.Buckets,
	}, []string{"kind"})

	m.cacheResults = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "cache_lookups_total",
		Help:        "Total number of route cache lookups by result",
		ConstLabels: config.ConstLabels,
	}, []string{"result"})

	m.generatorRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "generator_runs_total",
		Help:        "Total number of generator watch handler runs",
		ConstLabels: config.ConstLabels,
	}, []string{"generator", "status"})

	m.generatorDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   config.Namespace,
		Name:        "generator_duration_seconds",
		Help:        "Generator watch handler duration in seconds",
		ConstLabels: config.ConstLabels,
		Buckets:     config.Buckets,
	}, []string{"generator"})

	m.eventsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "watch_events_total",
		Help:        "Total number of file events by kind and outcome",
		ConstLabels: config.ConstLabels,
	}, []string{"kind", "outcome"})

	m.workerMessages = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "worker_messages_total",
		Help:        "Total number of messages received from the worker",
		ConstLabels: config.ConstLabels,
	}, []string{"type"})

	m.workerExits = factory.NewCounter(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "worker_exits_total",
		Help:        "Total number of worker exits",
		ConstLabels: config.ConstLabels,
	})

	m.routes = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   config.Namespace,
		Name:        "routes",
		Help:        "Number of resolved routes by kind",
		ConstLabels: config.ConstLabels,
	}, []string{"kind"})

	return m
}

// Gatherer returns the registry the collectors live in, or nil when it
// cannot be gathered from.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveResolve records one route resolution.
func (m *Metrics) ObserveResolve(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.resolvesTotal.WithLabelValues(kind, status(err)).Inc()
	m.resolveDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheResults.WithLabelValues(result).Inc()
}

// ObserveGenerator records one generator run.
func (m *Metrics) ObserveGenerator(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.generatorRuns.WithLabelValues(name, status(err)).Inc()
	m.generatorDuration.WithLabelValues(name).Observe(d.Seconds())
}

// Event records a file event and whether it was handled or ignored.
func (m *Metrics) Event(kind string, handled bool) {
	if m == nil {
		return
	}
	outcome := "ignored"
	if handled {
		outcome = "handled"
	}
	m.eventsTotal.WithLabelValues(kind, outcome).Inc()
}

// WorkerMessage records a message received from the worker.
func (m *Metrics) WorkerMessage(kind string) {
	if m == nil {
		return
	}
	m.workerMessages.WithLabelValues(kind).Inc()
}

// WorkerExit records a worker exit.
func (m *Metrics) WorkerExit() {
	if m == nil {
		return
	}
	m.workerExits.Inc()
}

// SetRoutes sets the number of resolved routes of a kind.
func (m *Metrics) SetRoutes(kind string, n int) {
	if m == nil {
		return
	}
	m.routes.WithLabelValues(kind).Set(float64(n))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
