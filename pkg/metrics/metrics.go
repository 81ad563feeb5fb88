// Package metrics holds the Prometheus collectors for folio's engines and
// dev server.
//
// A nil *Metrics is valid and records nothing, so components can take an
// optional metrics handle without branching:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(metrics.WithRegistry(reg))
//	toggle := optimistic.New(false, client, optimistic.WithMetrics(m))
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request results recorded by ToggleRequest.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultMismatch = "mismatch"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "folio").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for HTTP request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
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

func defaultConfig() Config {
	return Config{
		Namespace: "folio",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors.
type Metrics struct {
	toggleClicks    prometheus.Counter
	toggleRequests  *prometheus.CounterVec
	toggleCoalesced prometheus.Counter
	toggleBeacons   prometheus.Counter

	registrySize     prometheus.Gauge
	attachmentEvents *prometheus.CounterVec

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	activeSessions prometheus.Gauge
	wsErrors       *prometheus.CounterVec
}

// New registers the collectors with the configured registry.
// Registering twice with the same registry panics, as with promauto.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Metrics{
		toggleClicks:    counter("toggle_clicks_total", "Total number of toggle clicks"),
		toggleRequests:  counterVec("toggle_requests_total", "Toggle requests sent, by result", "result"),
		toggleCoalesced: counter("toggle_coalesced_total", "Debounce fires that sent nothing because the displayed value matched the confirmed value"),
		toggleBeacons:   counter("toggle_beacons_total", "Teardown beacons sent"),

		registrySize:     gauge("attachments_registry_size", "Entries in the most recently updated attachment registry"),
		attachmentEvents: counterVec("attachments_events_total", "Attachment events applied, by kind", "kind"),

		httpRequests: counterVec("http_requests_total", "HTTP requests handled, by method and status", "method", "status"),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"method", "route"}),
		activeSessions: gauge("editor_sessions", "Open editor sessions"),
		wsErrors:       counterVec("websocket_errors_total", "WebSocket errors by type", "type"),
	}
}

// ToggleClick records a user click.
func (m *Metrics) ToggleClick() {
	if m == nil {
		return
	}
	m.toggleClicks.Inc()
}

// ToggleRequest records a completed toggle request.
func (m *Metrics) ToggleRequest(result string) {
	if m == nil {
		return
	}
	m.toggleRequests.WithLabelValues(result).Inc()
}

// ToggleCoalesced records a debounce fire that needed no request.
func (m *Metrics) ToggleCoalesced() {
	if m == nil {
		return
	}
	m.toggleCoalesced.Inc()
}

// ToggleBeacon records a teardown beacon.
func (m *Metrics) ToggleBeacon() {
	if m == nil {
		return
	}
	m.toggleBeacons.Inc()
}

// AttachmentRegistrySize sets the registry size gauge.
func (m *Metrics) AttachmentRegistrySize(n int) {
	if m == nil {
		return
	}
	m.registrySize.Set(float64(n))
}

// AttachmentEvent records an applied attachment event ("inserted", "removed",
// "committed").
func (m *Metrics) AttachmentEvent(kind string) {
	if m == nil {
		return
	}
	m.attachmentEvents.WithLabelValues(kind).Inc()
}

// ObserveHTTP records a handled HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// SessionOpened records a new editor session.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionClosed records the end of an editor session.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// WebSocketError records a WebSocket error.
func (m *Metrics) WebSocketError(errorType string) {
	if m == nil {
		return
	}
	m.wsErrors.WithLabelValues(errorType).Inc()
}
