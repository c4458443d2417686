package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes.
const (
	OutcomeDetected    = "detected"
	OutcomeNothing     = "nothing_detected"
	OutcomeUserError   = "user_error"
	OutcomeDecodeError = "decode_error"
	OutcomeUnavailable = "model_unavailable"
	OutcomeFailed      = "failed"
)

// Metrics holds the application's Prometheus collectors on a private
// registry.
type Metrics struct {
	analyses   *prometheus.CounterVec
	detections *prometheus.CounterVec
	inference  prometheus.Histogram
	archived   prometheus.Counter

	registry *prometheus.Registry
}

// New creates the collectors. sessions, when non-nil, is sampled for the
// active session gauge.
func New(sessions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assettracker_analyses_total",
			Help: "Image analyses by outcome",
		}, []string{"outcome"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assettracker_detections_total",
			Help: "Detected objects by label",
		}, []string{"label"}),
		inference: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assettracker_inference_duration_seconds",
			Help:    "Time spent in detection and annotation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		archived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assettracker_archived_total",
			Help: "Analyses written to the archive",
		}),
	}

	m.registry.MustRegister(m.analyses, m.detections, m.inference, m.archived)

	if sessions != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "assettracker_active_sessions",
				Help: "Number of live browser sessions",
			},
			func() float64 { return float64(sessions()) },
		))
	}

	return m
}

// ObserveAnalysis records one submit attempt.
func (m *Metrics) ObserveAnalysis(outcome string, d time.Duration) {
	m.analyses.WithLabelValues(outcome).Inc()
	if outcome == OutcomeDetected || outcome == OutcomeNothing {
		m.inference.Observe(d.Seconds())
	}
}

// ObserveDetections adds per-label counts.
func (m *Metrics) ObserveDetections(counts map[string]int) {
	for label, n := range counts {
		m.detections.WithLabelValues(label).Add(float64(n))
	}
}

// ObserveArchived counts analyses flushed to storage.
func (m *Metrics) ObserveArchived(n int) {
	m.archived.Add(float64(n))
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
