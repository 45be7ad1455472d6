package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleetctl/internal/config"
)

const metricsNamespace = "fleetctl"

// Metrics bundles the Prometheus instruments for the HTTP surface and the
// domain cores. It implements health.Recorder and lifecycle.Recorder, so a
// single instance is shared between the monitor, the controller and the
// server. Each instance carries its own registry.
type Metrics struct {
	registry *prometheus.Registry

	healthChecks  *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	actions       *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewMetrics builds and registers all instruments.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		healthChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "health_checks_total",
			Help:      "Health checks by service and resulting status.",
		}, []string{"service", "status"}),
		checkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "health_check_duration_seconds",
			Help:      "Duration of individual health checks.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lifecycle_actions_total",
			Help:      "Lifecycle actions by service, action and outcome.",
		}, []string{"service", "action", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.healthChecks,
		m.checkDuration,
		m.actions,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// ObserveCheck implements health.Recorder.
func (m *Metrics) ObserveCheck(service string, status config.ServiceStatus, elapsed time.Duration) {
	m.healthChecks.WithLabelValues(service, string(status)).Inc()
	m.checkDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

// ObserveAction implements lifecycle.Recorder.
func (m *Metrics) ObserveAction(service, action, outcome string) {
	m.actions.WithLabelValues(service, action, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// requestMiddleware counts and times every request by matched route, so
// /api/v1/services/:id stays one series regardless of the id.
func (m *Metrics) requestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
