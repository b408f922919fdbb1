// Package metrics provides Prometheus metrics for the match service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for the match service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Connection metrics
	connectionsActive prometheus.Gauge
	messagesReceived  *prometheus.CounterVec
	messageLatency    *prometheus.HistogramVec
	framesDropped     prometheus.Counter

	// Match lifecycle metrics
	matchesActive    prometheus.Gauge
	matchesCompleted prometheus.Counter
	matchesAbandoned prometheus.Counter

	// Answer metrics
	answersScored     prometheus.Counter
	answersDuplicate  prometheus.Counter
	rateLimitDenials  prometheus.Counter
	persistenceErrors *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "geoelevate",
		subsystem:        "match",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.connectionsActive = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "connections_active",
		Help:      "Number of live websocket connections.",
	})
	m.messagesReceived = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "messages_received_total",
		Help:      "Inbound websocket messages by type.",
	}, []string{"type"})
	m.messageLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "message_handling_latency_ms",
		Help:      "Message handling latency in milliseconds by type.",
		Buckets:   m.histogramBuckets,
	}, []string{"type"})

	m.framesDropped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_dropped_total",
		Help:      "Outbound frames dropped because a peer could not keep up.",
	})

	m.matchesActive = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_active",
		Help:      "Number of matches currently held in memory.",
	})
	m.matchesCompleted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_completed_total",
		Help:      "Matches that ran to finalization.",
	})
	m.matchesAbandoned = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_abandoned_total",
		Help:      "Matches ended early by a leave or disconnect.",
	})

	m.answersScored = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "answers_scored_total",
		Help:      "Answer submissions accepted and scored.",
	})
	m.answersDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "answers_duplicate_total",
		Help:      "Answer submissions ignored as duplicates.",
	})
	m.rateLimitDenials = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rate_limit_denials_total",
		Help:      "Answer submissions denied by the rate limiter.",
	})
	m.persistenceErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_errors_total",
		Help:      "Gateway write failures by operation.",
	}, []string{"op"})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// Handler exposes the custom registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// Package-level helpers on the global manager.

func RecordConnectionOpened() { globalManager.connectionsActive.Inc() }
func RecordConnectionClosed() { globalManager.connectionsActive.Dec() }

func RecordMessage(msgType string) {
	globalManager.messagesReceived.WithLabelValues(msgType).Inc()
}

func RecordMessageLatency(msgType string, ms float64) {
	globalManager.messageLatency.WithLabelValues(msgType).Observe(ms)
}

func RecordFrameDropped() { globalManager.framesDropped.Inc() }

func UpdateActiveMatches(n int) { globalManager.matchesActive.Set(float64(n)) }
func RecordMatchCompleted()     { globalManager.matchesCompleted.Inc() }
func RecordMatchAbandoned()     { globalManager.matchesAbandoned.Inc() }

func RecordAnswerScored()    { globalManager.answersScored.Inc() }
func RecordDuplicateAnswer() { globalManager.answersDuplicate.Inc() }
func RecordRateLimitDenial() { globalManager.rateLimitDenials.Inc() }

func RecordPersistenceError(op string) {
	globalManager.persistenceErrors.WithLabelValues(op).Inc()
}

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}
