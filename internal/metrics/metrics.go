// Package metrics holds the Prometheus collectors for the slip pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradeslip"

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	extractions        *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	candidates         *prometheus.CounterVec
	queueDepth         prometheus.Gauge
	queueRejected      prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		extractions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Text extractions by method and outcome.",
		}, []string{"method", "outcome"}),
		extractionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Wall time of successful text extractions.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"method"}),
		candidates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Parsed candidates by detector and confidence.",
		}, []string{"detector", "confidence"}),
		queueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Documents waiting in the work queue.",
		}),
		queueRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_rejected_total",
			Help:      "Documents refused because the queue was full or closed.",
		}),
	}
}

// ObserveExtraction records one extraction. method is empty when it failed before a method was chosen.
func (m *Metrics) ObserveExtraction(method string, d time.Duration, err error) {
	if m == nil {
		return
	}
	if method == "" {
		method = "none"
	}
	if err != nil {
		m.extractions.WithLabelValues(method, "error").Inc()
		return
	}
	m.extractions.WithLabelValues(method, "ok").Inc()
	m.extractionDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) ObserveCandidate(detector, confidence string) {
	if m == nil {
		return
	}
	m.candidates.WithLabelValues(detector, confidence).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) QueueRejected() {
	if m == nil {
		return
	}
	m.queueRejected.Inc()
}

// Gatherer exposes the registry to other exporters and tests.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
