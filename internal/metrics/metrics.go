// Package metrics records seating run instrumentation.  The Prometheus
// collector is the production implementation; Nop discards everything and
// is used in tests and when metrics are disabled.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeFull     = "full"
	OutcomePartial  = "partial"
	OutcomeNoTables = "no_tables"
	OutcomeBusy     = "busy"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Recorder receives the result of every automatic seating run.
type Recorder interface {
	RecordRun(outcome string, assigned, unassigned int, duration time.Duration)
}

// Nop implements Recorder by discarding all observations.
type Nop struct{}

// RecordRun discards the observation.
func (Nop) RecordRun(string, int, int, time.Duration) {}

// Prometheus implements Recorder with collectors registered lazily on first
// use.
type Prometheus struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	runs       *prometheus.CounterVec
	assigned   prometheus.Counter
	unassigned prometheus.Counter
	duration   prometheus.Histogram
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates a collector.  A nil reg uses
// prometheus.DefaultRegisterer and an empty namespace becomes "seating".
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "seating"
	}
	return &Prometheus{reg: reg, namespace: namespace}
}

func (p *Prometheus) ensureRegistered() {
	p.once.Do(func() {
		p.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "runs_total",
			Help:      "Automatic seating runs by outcome (full, partial, no_tables, busy, conflict, error).",
		}, []string{"outcome"})
		p.assigned = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "guests_assigned_total",
			Help:      "Guests placed by committed automatic runs.",
		})
		p.unassigned = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "guests_unassigned_total",
			Help:      "Eligible guests left without a table by committed automatic runs.",
		})
		p.duration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of automatic seating runs in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~10s
		})
		p.reg.MustRegister(p.runs, p.assigned, p.unassigned, p.duration)
	})
}

// RecordRun counts a run.  Guest counters only move for runs that
// committed, which are the full and partial outcomes.
func (p *Prometheus) RecordRun(outcome string, assigned, unassigned int, duration time.Duration) {
	p.ensureRegistered()
	p.runs.WithLabelValues(outcome).Inc()
	p.duration.Observe(duration.Seconds())
	if outcome == OutcomeFull || outcome == OutcomePartial {
		p.assigned.Add(float64(assigned))
		p.unassigned.Add(float64(unassigned))
	}
}
