// Package metrics provides Prometheus metrics collection for the explorer.
package metrics

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors exposed by the explorer.
type Metrics struct {
	// HTTP surface (C6)
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	ErrorsTotal      *prometheus.CounterVec

	// Ingest supervisor (C4)
	IngestBlocksAppliedTotal  prometheus.Counter
	IngestReconnectsTotal     prometheus.Counter
	IngestReducerErrorsTotal  *prometheus.CounterVec
	IngestLastAppliedHeight   prometheus.Gauge
	IngestState               *prometheus.GaugeVec

	// Telemetry aggregator (C5)
	TelemetryPollFailuresTotal *prometheus.CounterVec
	TelemetryPollDuration      *prometheus.HistogramVec

	// Repository (C2)
	StoreQueriesTotal    *prometheus.CounterVec
	StoreQueryDuration   *prometheus.HistogramVec
	StoreConnectionsOpen prometheus.Gauge

	// Service health
	ServiceUptime prometheus.Gauge
	ServiceInfo   *prometheus.GaugeVec
}

// New creates a Metrics instance registered on the default registry.
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Metrics instance registered on a custom registry,
// so tests can use their own registerer instead of the global one.
func NewWithRegistry(serviceName string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Total number of HTTP requests"},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "http_requests_in_flight", Help: "Current number of HTTP requests being processed"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "errors_total", Help: "Total number of errors"},
			[]string{"component", "kind"},
		),

		IngestBlocksAppliedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "ingest_blocks_applied_total", Help: "Total number of blocks applied to the store"},
		),
		IngestReconnectsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "ingest_reconnects_total", Help: "Total number of chain client reconnect attempts"},
		),
		IngestReducerErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "ingest_reducer_errors_total", Help: "Total number of block reduction errors"},
			[]string{"reason"},
		),
		IngestLastAppliedHeight: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "ingest_last_applied_height", Help: "Height of the last block applied to the store"},
		),
		IngestState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "ingest_state", Help: "1 for the current supervisor state, 0 otherwise"},
			[]string{"state"},
		),

		TelemetryPollFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "telemetry_poll_failures_total", Help: "Total number of failed peer telemetry polls"},
			[]string{"peer"},
		),
		TelemetryPollDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telemetry_poll_duration_seconds",
				Help:    "Peer telemetry poll duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"peer"},
		),

		StoreQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "store_queries_total", Help: "Total number of store queries"},
			[]string{"operation", "status"},
		),
		StoreQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_query_duration_seconds",
				Help:    "Store query duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),
		StoreConnectionsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "store_connections_open", Help: "Current number of open store connections"},
		),

		ServiceUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "service_uptime_seconds", Help: "Service uptime in seconds"},
		),
		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "service_info", Help: "Service build information"},
			[]string{"service", "version"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.RequestsTotal, m.RequestDuration, m.RequestsInFlight, m.ErrorsTotal,
			m.IngestBlocksAppliedTotal, m.IngestReconnectsTotal, m.IngestReducerErrorsTotal,
			m.IngestLastAppliedHeight, m.IngestState,
			m.TelemetryPollFailuresTotal, m.TelemetryPollDuration,
			m.StoreQueriesTotal, m.StoreQueryDuration, m.StoreConnectionsOpen,
			m.ServiceUptime, m.ServiceInfo,
		)
	}

	m.ServiceInfo.WithLabelValues(serviceName, "0.1.0").Set(1)

	return m
}

// RecordHTTPRequest records an HTTP request/response pair.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError records a component-scoped error.
func (m *Metrics) RecordError(component, kind string) {
	m.ErrorsTotal.WithLabelValues(component, kind).Inc()
}

// SetIngestState marks state as the single active supervisor state.
func (m *Metrics) SetIngestState(states []string, active string) {
	for _, s := range states {
		if s == active {
			m.IngestState.WithLabelValues(s).Set(1)
		} else {
			m.IngestState.WithLabelValues(s).Set(0)
		}
	}
}

// RecordStoreQuery records a repository query.
func (m *Metrics) RecordStoreQuery(operation, status string, duration time.Duration) {
	m.StoreQueriesTotal.WithLabelValues(operation, status).Inc()
	m.StoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateUptime refreshes the uptime gauge from a process start time.
func (m *Metrics) UpdateUptime(startTime time.Time) {
	m.ServiceUptime.Set(time.Since(startTime).Seconds())
}

// Enabled returns whether Prometheus metrics should be exposed, controlled by
// the METRICS_ENABLED environment variable (default: enabled).
func Enabled() bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_ENABLED")))
	if raw == "" {
		return true
	}
	switch raw {
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

var (
	global   *Metrics
	globalMu sync.Mutex
)

// Init initializes (once) and returns the process-wide Metrics instance.
func Init(serviceName string) *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = New(serviceName)
	}
	return global
}

// Global returns the process-wide Metrics instance, initializing it if needed.
func Global() *Metrics {
	return Init("iroha-explorer")
}
