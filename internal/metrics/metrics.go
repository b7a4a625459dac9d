// Package metrics records engine activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Analysis outcomes.
const (
	OutcomeComputed = "computed"
	OutcomeNeutral  = "neutral"
	OutcomeFailed   = "failed"
)

// Recorder owns a private registry so that several engines never collide on
// the global one. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	analyses  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	inFlight  prometheus.Gauge
	decisions *prometheus.CounterVec
}

// NewRecorder creates a recorder with its metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quant",
				Subsystem: "engine",
				Name:      "analyses_total",
				Help:      "Ticker analyses by outcome",
			},
			[]string{"outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "quant",
				Subsystem: "engine",
				Name:      "analysis_duration_seconds",
				Help:      "Duration of a single ticker analysis",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"outcome"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "quant",
				Subsystem: "engine",
				Name:      "analyses_in_flight",
				Help:      "Ticker analyses currently running",
			},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quant",
				Subsystem: "engine",
				Name:      "decisions_total",
				Help:      "Synthesized decisions by signal",
			},
			[]string{"signal"},
		),
	}

	r.registry.MustRegister(r.analyses, r.latency, r.inFlight, r.decisions)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Start marks an analysis as running and returns a function that records its
// outcome and duration.
func (r *Recorder) Start() func(outcome string) {
	if r == nil {
		return func(string) {}
	}

	r.inFlight.Inc()
	begin := time.Now()
	return func(outcome string) {
		r.inFlight.Dec()
		r.analyses.WithLabelValues(outcome).Inc()
		r.latency.WithLabelValues(outcome).Observe(time.Since(begin).Seconds())
	}
}

// ObserveDecision counts a decision by its signal.
func (r *Recorder) ObserveDecision(signal string) {
	if r == nil {
		return
	}
	r.decisions.WithLabelValues(signal).Inc()
}

// WriteTextfile writes all metrics in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
