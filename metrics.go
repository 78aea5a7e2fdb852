package relay

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records request counts and latencies for a chain.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the relay collectors on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "relay"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Requests that left the middleware chain, by method and status.",
			},
			[]string{"method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Time spent in the middleware chain and router.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	m.registry.MustRegister(m.requests, m.duration)
	return m
}

// Middleware returns the middleware that feeds m.
func (m *Metrics) Middleware() Middleware {
	return MiddlewareFunc(func(r *http.Request, ext *Extensions, next *Next) *Response {
		start := time.Now()
		res := next.Run(r, ext)
		m.requests.WithLabelValues(r.Method, strconv.Itoa(res.StatusCode)).Inc()
		m.duration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		return res
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry so applications can add their own
// collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
