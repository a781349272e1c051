// Package metrics exposes Prometheus collectors for content generation runs.
// Collectors live on a private registry so a run can be dumped to a node
// exporter textfile once it finishes.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record outcomes.
const (
	OutcomeLoaded  = "loaded"
	OutcomeSkipped = "skipped"
)

// Recorder groups the generator collectors.
type Recorder struct {
	registry *prometheus.Registry

	recordsTotal     *prometheus.CounterVec
	artifactsTotal   *prometheus.CounterVec
	artifactBytes    *prometheus.CounterVec
	stepDuration     *prometheus.HistogramVec
	stepFailures     *prometheus.CounterVec
	lastSuccessEpoch *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		recordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentgen_records_total",
				Help: "Source records read, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		artifactsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentgen_artifacts_total",
				Help: "Artifacts written, labeled by step and status.",
			},
			[]string{"step", "status"},
		),
		artifactBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentgen_artifact_bytes_total",
				Help: "Bytes of artifact content written, labeled by step.",
			},
			[]string{"step"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contentgen_step_duration_seconds",
				Help:    "Wall time spent per generation step.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"step"},
		),
		stepFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentgen_step_failures_total",
				Help: "Generation steps that finished with an error.",
			},
			[]string{"step"},
		),
		lastSuccessEpoch: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "contentgen_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run of each step.",
			},
			[]string{"step"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveSnapshot counts the records read from the source directory.
func (r *Recorder) ObserveSnapshot(loaded, skipped int) {
	r.recordsTotal.WithLabelValues(OutcomeLoaded).Add(float64(loaded))
	r.recordsTotal.WithLabelValues(OutcomeSkipped).Add(float64(skipped))
}

// StepObservation summarises one finished step.
type StepObservation struct {
	Step     string
	Written  int
	Failed   int
	Bytes    int64
	Duration time.Duration
	Err      error
	At       time.Time
}

// ObserveStep records a finished step.
func (r *Recorder) ObserveStep(obs StepObservation) {
	r.artifactsTotal.WithLabelValues(obs.Step, "written").Add(float64(obs.Written))
	r.artifactsTotal.WithLabelValues(obs.Step, "failed").Add(float64(obs.Failed))
	r.artifactBytes.WithLabelValues(obs.Step).Add(float64(obs.Bytes))
	r.stepDuration.WithLabelValues(obs.Step).Observe(obs.Duration.Seconds())
	if obs.Err != nil {
		r.stepFailures.WithLabelValues(obs.Step).Inc()
		return
	}
	r.lastSuccessEpoch.WithLabelValues(obs.Step).Set(float64(obs.At.Unix()))
}

// WriteTextfile dumps the registry in the text exposition format, replacing
// path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
