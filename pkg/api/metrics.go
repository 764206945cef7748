package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API. Each instance owns its
// registry so several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Packet metrics
	packetOperationsTotal *prometheus.CounterVec
	decodeFailuresTotal   *prometheus.CounterVec
	compressionRatio      prometheus.Histogram

	// Archive metrics
	archiveOperationsTotal *prometheus.CounterVec

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec

	// Health check metrics
	healthChecksTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "packetwire_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "packetwire_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "packetwire_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		packetOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "packetwire_packet_operations_total",
				Help: "Total number of packet encode, decode and verify operations",
			},
			[]string{"operation", "status"},
		),

		decodeFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "packetwire_decode_failures_total",
				Help: "Decode failures by class",
			},
			[]string{"class"},
		),

		compressionRatio: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "packetwire_compression_ratio",
				Help:    "Compressed payload size divided by raw payload size",
				Buckets: []float64{0.1, 0.25, 0.5, 0.75, 1, 1.5, 2, 5},
			},
		),

		archiveOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "packetwire_archive_operations_total",
				Help: "Total number of archive operations",
			},
			[]string{"operation", "status"},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "packetwire_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "packetwire_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}

	return m
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the metrics are registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordPacketOperation records an encode, decode or verify
func (m *Metrics) RecordPacketOperation(operation string, success bool) {
	m.packetOperationsTotal.WithLabelValues(operation, statusLabel(success)).Inc()
}

// RecordDecodeFailure records a failed decode by class (malformed, checksum, payload)
func (m *Metrics) RecordDecodeFailure(class string) {
	m.decodeFailuresTotal.WithLabelValues(class).Inc()
}

// ObserveCompression records the compression ratio of an encoded payload
func (m *Metrics) ObserveCompression(rawSize, compressedSize int) {
	if rawSize == 0 {
		return
	}
	m.compressionRatio.Observe(float64(compressedSize) / float64(rawSize))
}

// RecordArchiveOperation records an archive operation
func (m *Metrics) RecordArchiveOperation(operation string, success bool) {
	m.archiveOperationsTotal.WithLabelValues(operation, statusLabel(success)).Inc()
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	m.authRequestsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	m.healthChecksTotal.WithLabelValues(statusLabel(success)).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

func statusLabel(success bool) string {
	if success {
		return statusSuccess
	}
	return statusError
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
