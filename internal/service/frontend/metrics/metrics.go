// Package metrics exposes prometheus collectors for the HTTP server.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute labels requests that did not match any route, keeping the
// label set bounded.
const unmatchedRoute = "unmatched"

// Metrics holds the prometheus collectors for HTTP traffic.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uptime          uptimeTracker
}

// New creates and registers HTTP metrics with the given registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skribble_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skribble_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	uptime := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "skribble_uptime_seconds",
		Help: "Seconds since the server started",
	}, func() float64 {
		return float64(m.Uptime())
	})

	registry.MustRegister(m.requestsTotal, m.requestDuration, uptime)

	return m
}

// Middleware records the outcome of every request passing through it.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snoop := httpsnoop.CaptureMetrics(next, w, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(snoop.Code)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(snoop.Duration.Seconds())
	})
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
