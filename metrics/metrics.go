// Package metrics exposes Prometheus collectors for the leave core.
// A nil *Metrics is valid and records nothing, so the core runs without a registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "leave"

// Submission outcomes.
const (
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeSplit    = "split"
	OutcomeDeclined = "declined"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Restoration outcomes.
const (
	RestoreRestored = "restored"
	RestorePlain    = "plain"
	RestoreFallback = "fallback"
	RestoreFailed   = "failed"
)

type Metrics struct {
	submissions     *prometheus.CounterVec
	splits          prometheus.Counter
	segments        prometheus.Counter
	restorations    *prometheus.CounterVec
	inconsistencies prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Leave submissions and modifications by outcome.",
		}, []string{"outcome"}),
		splits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_total",
			Help:      "Committed split-and-replace transactions.",
		}),
		segments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_created_total",
			Help:      "Annual remainder segments created by splits.",
		}),
		restorations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restorations_total",
			Help:      "Leave deletions by restoration outcome.",
		}, []string{"outcome"}),
		inconsistencies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_inconsistencies",
			Help:      "Annual leaves whose stored day count differs from the calendar, as of the last audit.",
		}),
	}
	reg.MustRegister(m.submissions, m.splits, m.segments, m.restorations, m.inconsistencies)
	return m
}

func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Split(segments int) {
	if m == nil {
		return
	}
	m.splits.Inc()
	m.segments.Add(float64(segments))
}

func (m *Metrics) Restoration(outcome string) {
	if m == nil {
		return
	}
	m.restorations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AuditInconsistencies(n int) {
	if m == nil {
		return
	}
	m.inconsistencies.Set(float64(n))
}

// Submissions returns the submission counter of one outcome.
func (m *Metrics) Submissions(outcome string) prometheus.Counter {
	return m.submissions.WithLabelValues(outcome)
}

// Restorations returns the restoration counter of one outcome.
func (m *Metrics) Restorations(outcome string) prometheus.Counter {
	return m.restorations.WithLabelValues(outcome)
}
