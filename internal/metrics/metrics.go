// Package metrics provides Prometheus instrumentation for the bridge.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the bridge collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram

	BackendErrors            *prometheus.CounterVec
	BackendActiveConnections prometheus.Gauge
	Framing                  *prometheus.CounterVec
}

// New creates a Metrics instance. Each call gets its own registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "http2amcp"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of AMCP commands forwarded, by HTTP status",
			},
			[]string{"status"},
		),
		RequestDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of the command/reply cycle in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		BackendErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_errors_total",
				Help:      "Total number of AMCP transport errors",
			},
			[]string{"error_type"},
		),
		BackendActiveConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "backend_active_connections",
				Help:      "Number of open AMCP connections",
			},
		),
		Framing: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "framing_total",
				Help:      "Total number of framed replies, by final framer state",
			},
			[]string{"state"},
		),
	}
}

func (m *Metrics) ConnOpened() { m.BackendActiveConnections.Inc() }
func (m *Metrics) ConnClosed() { m.BackendActiveConnections.Dec() }

func (m *Metrics) BackendError(kind string) {
	m.BackendErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) Framed(state string) {
	m.Framing.WithLabelValues(state).Inc()
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(status int, d time.Duration) {
	m.RequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	m.RequestDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
