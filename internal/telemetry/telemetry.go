// Package telemetry wires structured logging and Prometheus metrics
// for a solver run. Metrics are registered against a caller-supplied
// prometheus.Registry rather than the package-global default registry
// (unlike promauto's usual shortcut), so two concurrent runs in the
// same process don't collide on metric names.
package telemetry

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the solver's Prometheus instrumentation (§6).
type Metrics struct {
	StepDuration  prometheus.Histogram
	ParticleCount prometheus.Gauge
	StepRetries   prometheus.Counter
	StepsTotal    prometheus.Counter
	AbortsTotal   prometheus.Counter
}

// NewMetrics registers a fresh set of solver metrics against reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sphcore_step_duration_seconds",
			Help:    "Wall-clock duration of one accepted sub-step.",
			Buckets: prometheus.DefBuckets,
		}),
		ParticleCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sphcore_particle_count",
			Help: "Number of particles currently in storage.",
		}),
		StepRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sphcore_step_retries_total",
			Help: "Number of sub-step attempts discarded for an invariant violation.",
		}),
		StepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sphcore_steps_total",
			Help: "Number of sub-steps accepted.",
		}),
		AbortsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sphcore_aborts_total",
			Help: "Number of runs that exhausted their retry budget.",
		}),
	}
	reg.MustRegister(m.StepDuration, m.ParticleCount, m.StepRetries, m.StepsTotal, m.AbortsTotal)
	return m
}

// ObserveStep records one accepted sub-step's duration and updates the
// particle-count gauge.
func (m *Metrics) ObserveStep(d time.Duration, particleCount int) {
	m.StepDuration.Observe(d.Seconds())
	m.ParticleCount.Set(float64(particleCount))
	m.StepsTotal.Inc()
}

// ObserveRetry records one discarded sub-step attempt.
func (m *Metrics) ObserveRetry() {
	m.StepRetries.Inc()
}

// ObserveAbort records a run that exhausted its retry budget.
func (m *Metrics) ObserveAbort() {
	m.AbortsTotal.Inc()
}

// Logger wraps an *slog.Logger with the run-scoped fields a caller
// typically wants attached to every line (run id, run type).
type Logger struct {
	*slog.Logger
}

// NewLogger builds a Logger writing structured records to base,
// tagged with the given run id.
func NewLogger(base *slog.Logger, runID string) Logger {
	return Logger{base.With("run_id", runID)}
}

// StepEvent logs one accepted sub-step at debug level.
func (l Logger) StepEvent(step int, t, dt float64) {
	l.Debug("step", "step", step, "t", t, "dt", dt)
}

// RetryEvent logs a discarded sub-step attempt at warn level.
func (l Logger) RetryEvent(step int, t, dt float64, err error) {
	l.Warn("retry", "step", step, "t", t, "dt", dt, "err", err)
}

// AbortEvent logs a run aborting after exhausting its retry budget.
func (l Logger) AbortEvent(step int, t float64, err error) {
	l.Error("abort", "step", step, "t", t, "err", err)
}
