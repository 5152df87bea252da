// Package metrics exposes Prometheus instruments for planning runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeCanceled = "canceled"
)

// Recorder records planning-run metrics. A nil *Recorder records nothing.
type Recorder struct {
	runs      *prometheus.CounterVec
	actions   *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations prometheus.Histogram
}

// NewRecorder creates the instruments and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extplan_plan_runs_total",
				Help: "Number of planning runs by outcome.",
			},
			[]string{"outcome"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extplan_plan_actions_total",
				Help: "Number of planned actions by type.",
			},
			[]string{"action"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "extplan_plan_failures_total",
				Help: "Number of failed planning runs by reason.",
			},
			[]string{"reason"},
		),
		durations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "extplan_plan_duration_seconds",
				Help:    "Time taken to compute an installation plan.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(r.runs, r.actions, r.failures, r.durations)
	return r
}

// ObserveRun records one finished run.
func (r *Recorder) ObserveRun(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(outcome).Inc()
	r.durations.Observe(d.Seconds())
}

// AddActions records n planned actions of the given type.
func (r *Recorder) AddActions(action string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.actions.WithLabelValues(action).Add(float64(n))
}

// ObserveFailure records the reason of a failed run.
func (r *Recorder) ObserveFailure(reason string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(reason).Inc()
}
