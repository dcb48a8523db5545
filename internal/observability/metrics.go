package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	activityExpiry  prometheus.Counter
}

// NewMetrics registers the service collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postal_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "postal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postal_errors_total",
			Help: "Errors returned to clients by code",
		}, []string{"method", "route", "code"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postal_mail_transitions_total",
			Help: "Committed mail workflow transitions",
		}, []string{"activity", "state"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "postal_mail_notifications_total",
			Help: "Mail event publications by outcome",
		}, []string{"outcome"}),
		activityExpiry: factory.NewCounter(prometheus.CounterOpts{
			Name: "postal_activity_expiry_runs_total",
			Help: "Completed activity retention runs",
		}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, route, code).Inc()
}

// RecordTransition counts a committed workflow transition.
func (m *Metrics) RecordTransition(activity, state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(activity, state).Inc()
}

// RecordNotification counts an event publication attempt.
func (m *Metrics) RecordNotification(ok bool) {
	if m == nil {
		return
	}
	outcome := "published"
	if !ok {
		outcome = "failed"
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

// RecordActivityExpiry counts a retention run.
func (m *Metrics) RecordActivityExpiry() {
	if m == nil {
		return
	}
	m.activityExpiry.Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
