package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and
// disables collection, which keeps unit tests free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// PTY session metrics
	SessionsActive  prometheus.Gauge
	SessionsSpawned prometheus.Counter
	SessionsKilled  prometheus.Counter
	OutputBytes     prometheus.Counter
	DataEvents      prometheus.Counter
	LossyFlushes    prometheus.Counter
	WriteBytes      prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSEvents      *prometheus.CounterVec
	WSDropped     prometheus.Counter

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector on its own registry, so
// multiple instances can coexist in one process.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// PTY session metrics
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_pty_sessions_active",
				Help: "Number of live PTY sessions",
			},
		),
		SessionsSpawned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_pty_sessions_spawned_total",
				Help: "Total number of PTY sessions spawned",
			},
		),
		SessionsKilled: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_pty_sessions_killed_total",
				Help: "Total number of PTY sessions killed explicitly",
			},
		),
		OutputBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_pty_output_bytes_total",
				Help: "Total bytes read from PTY sessions",
			},
		),
		DataEvents: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_pty_data_events_total",
				Help: "Total number of PTY data events emitted",
			},
		),
		LossyFlushes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_pty_lossy_flushes_total",
				Help: "Total number of lossy leftover-buffer flushes",
			},
		),
		WriteBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_pty_write_bytes_total",
				Help: "Total bytes written to PTY sessions",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_ws_events_total",
				Help: "Total number of WebSocket events published",
			},
			[]string{"type"},
		),
		WSDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "backend_ws_dropped_total",
				Help: "Total number of WebSocket events dropped on full client buffers",
			},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "backend_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// Handler serves this collector's registry in the Prometheus text
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetSessionsActive sets the number of live PTY sessions
func (m *Metrics) SetSessionsActive(count int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(count))
}

// IncSessionsSpawned increments the spawned sessions counter
func (m *Metrics) IncSessionsSpawned() {
	if m == nil {
		return
	}
	m.SessionsSpawned.Inc()
}

// IncSessionsKilled increments the killed sessions counter
func (m *Metrics) IncSessionsKilled() {
	if m == nil {
		return
	}
	m.SessionsKilled.Inc()
}

// AddOutputBytes records bytes read from a session's PTY
func (m *Metrics) AddOutputBytes(n int) {
	if m == nil {
		return
	}
	m.OutputBytes.Add(float64(n))
}

// IncDataEvents increments the data events counter
func (m *Metrics) IncDataEvents() {
	if m == nil {
		return
	}
	m.DataEvents.Inc()
}

// IncLossyFlushes increments the lossy flush counter
func (m *Metrics) IncLossyFlushes() {
	if m == nil {
		return
	}
	m.LossyFlushes.Inc()
}

// AddWriteBytes records bytes written to a session's PTY
func (m *Metrics) AddWriteBytes(n int) {
	if m == nil {
		return
	}
	m.WriteBytes.Add(float64(n))
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// RecordWSEvent records a published WebSocket event
func (m *Metrics) RecordWSEvent(eventType string) {
	if m == nil {
		return
	}
	m.WSEvents.WithLabelValues(eventType).Inc()
}

// IncWSDropped increments the dropped events counter
func (m *Metrics) IncWSDropped() {
	if m == nil {
		return
	}
	m.WSDropped.Inc()
}
