package daemon

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the daemon's Prometheus instrumentation on a private
// registry so tests never collide on the global one.
type Metrics struct {
	registry    *prometheus.Registry
	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepdoc_runs_total",
			Help: "Completed analysis runs by final status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deepdoc_run_duration_seconds",
			Help:    "Wall time of completed analysis runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	registry.MustRegister(m.runsTotal, m.runDuration)
	return m
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(status string, duration time.Duration) {
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(duration.Seconds())
}

// Handler serves the registry in OpenMetrics-capable text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
