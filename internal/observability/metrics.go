package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry             *prometheus.Registry
	requests             *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
	errors               *prometheus.CounterVec
	transitions          *prometheus.CounterVec
	notificationsFailed  *prometheus.CounterVec
	notificationsCreated prometheus.Counter
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Rendered error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shift_transitions_total",
			Help: "Shift lifecycle transitions by name and result.",
		}, []string{"transition", "result"}),
		notificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Notification deliveries that failed, by stage.",
		}, []string{"stage"}),
		notificationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Notifications persisted.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.errors,
		m.transitions,
		m.notificationsFailed,
		m.notificationsCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordTransition counts a lifecycle transition attempt.
func (m *Metrics) RecordTransition(transition string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.transitions.WithLabelValues(transition, result).Inc()
}

// RecordNotificationFailure counts a failed notification stage ("resolve", "persist", "publish").
func (m *Metrics) RecordNotificationFailure(stage string) {
	if m == nil {
		return
	}
	m.notificationsFailed.WithLabelValues(stage).Inc()
}

// RecordNotificationsCreated counts persisted notifications.
func (m *Metrics) RecordNotificationsCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.notificationsCreated.Add(float64(n))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
