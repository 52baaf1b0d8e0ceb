// Package metrics exposes Prometheus counters for complaint filings, lifecycle transitions,
// escalations and overdue sweeps.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "grievance"

// Recorder wraps the service's Prometheus metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	ComplaintsFiled   prometheus.Counter
	Transitions       *prometheus.CounterVec
	Escalations       *prometheus.CounterVec
	EscalationSkips   prometheus.Counter
	SweepRuns         *prometheus.CounterVec
	SweepItemFailures prometheus.Counter
	SweepCandidates   prometheus.Gauge
	SweepDuration     prometheus.Histogram
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		ComplaintsFiled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "complaints_filed_total",
			Help:      "Total number of complaints filed",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_transitions_total",
			Help:      "Lifecycle transitions by operation and outcome",
		}, []string{"operation", "outcome"}),
		Escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Complaints escalated, by trigger",
		}, []string{"trigger"}),
		EscalationSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalation_skips_total",
			Help:      "Escalation requests for complaints that were already escalated",
		}),
		SweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Overdue sweeps by result",
		}, []string{"result"}),
		SweepItemFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_item_failures_total",
			Help:      "Complaints a sweep failed to escalate",
		}),
		SweepCandidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_last_candidates",
			Help:      "Overdue complaints found by the most recent sweep",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of overdue sweeps in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		r.ComplaintsFiled,
		r.Transitions,
		r.Escalations,
		r.EscalationSkips,
		r.SweepRuns,
		r.SweepItemFailures,
		r.SweepCandidates,
		r.SweepDuration,
	)
	return r
}

// Registry returns the underlying registry, for tests and custom exporters.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) ComplaintFiled() {
	if r == nil {
		return
	}
	r.ComplaintsFiled.Inc()
}

// Transition counts a lifecycle operation. outcome is "ok" or an error kind.
func (r *Recorder) Transition(operation, outcome string) {
	if r == nil {
		return
	}
	r.Transitions.WithLabelValues(operation, outcome).Inc()
}

// Escalated counts one escalation. trigger is "manual" or "sweep".
func (r *Recorder) Escalated(trigger string) {
	if r == nil {
		return
	}
	r.Escalations.WithLabelValues(trigger).Inc()
}

func (r *Recorder) EscalationSkipped() {
	if r == nil {
		return
	}
	r.EscalationSkips.Inc()
}

// SweepFinished records a completed sweep.
func (r *Recorder) SweepFinished(candidates, failures int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.SweepRuns.WithLabelValues("ok").Inc()
	r.SweepCandidates.Set(float64(candidates))
	r.SweepItemFailures.Add(float64(failures))
	r.SweepDuration.Observe(elapsed.Seconds())
}

// SweepAborted records a sweep that could not select candidates.
func (r *Recorder) SweepAborted() {
	if r == nil {
		return
	}
	r.SweepRuns.WithLabelValues("error").Inc()
}
