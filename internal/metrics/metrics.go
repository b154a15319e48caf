// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AccessDenialsTotal *prometheus.CounterVec
	RateLimitedTotal   prometheus.Counter
	UnpersistedWrites  *prometheus.CounterVec
	DataSourceLive     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moviereviews_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moviereviews_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AccessDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moviereviews_access_denials_total",
				Help: "Requests rejected by the access policy",
			},
			[]string{"operation", "reason"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "moviereviews_rate_limited_total",
				Help: "Write requests rejected by the rate limiter",
			},
		),
		UnpersistedWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moviereviews_unpersisted_writes_total",
				Help: "Writes acknowledged by the fixture without being stored",
			},
			[]string{"resource"},
		),
		DataSourceLive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "moviereviews_data_source_live",
				Help: "1 when the live store serves requests, 0 for the fixture",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AccessDenialsTotal,
		m.RateLimitedTotal,
		m.UnpersistedWrites,
		m.DataSourceLive,
	)
	return m
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordDenial records a request the access policy refused.
func (m *Metrics) RecordDenial(operation, reason string) {
	m.AccessDenialsTotal.WithLabelValues(operation, reason).Inc()
}

// RecordUnpersistedWrite records a write the fixture acknowledged and dropped.
func (m *Metrics) RecordUnpersistedWrite(resource string) {
	m.UnpersistedWrites.WithLabelValues(resource).Inc()
}

// SetDataSource reports the selected data source.
func (m *Metrics) SetDataSource(live bool) {
	if live {
		m.DataSourceLive.Set(1)
		return
	}
	m.DataSourceLive.Set(0)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
