package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusSuccess = "success"
	statusInvalid = "invalid"
	statusError   = "error"
)

// Metrics holds the render service's Prometheus collectors
type Metrics struct {
	registry       *prometheus.Registry
	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	samplesTotal   prometheus.Counter
	activeRenders  prometheus.Gauge
}

// NewMetrics creates the collectors in a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathtracer",
			Name:      "renders_total",
			Help:      "Number of render requests by scene and outcome.",
		}, []string{"scene", "status"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pathtracer",
			Name:      "render_duration_seconds",
			Help:      "Wall time of successful renders.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"scene"}),
		samplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pathtracer",
			Name:      "samples_total",
			Help:      "Camera ray samples traced by successful renders.",
		}),
		activeRenders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pathtracer",
			Name:      "active_renders",
			Help:      "Renders currently in progress.",
		}),
	}

	m.registry.MustRegister(
		m.rendersTotal,
		m.renderDuration,
		m.samplesTotal,
		m.activeRenders,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// renderStarted marks a render in progress; call the returned func when it ends
func (m *Metrics) renderStarted() func() {
	m.activeRenders.Inc()
	return m.activeRenders.Dec
}

// observeRender records the outcome of one render request
func (m *Metrics) observeRender(sceneName, status string, duration time.Duration, samples int) {
	m.rendersTotal.WithLabelValues(sceneName, status).Inc()
	if status == statusSuccess {
		m.renderDuration.WithLabelValues(sceneName).Observe(duration.Seconds())
		m.samplesTotal.Add(float64(samples))
	}
}
