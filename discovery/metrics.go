package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "discovery"

// Result label values
const (
	resultSuccess     = "success"
	resultEmpty       = "empty"
	resultError       = "error"
	resultInvalidated = "invalidated"
	resultStale       = "stale"
)

// Drop reason label values
const (
	reasonBusy        = "busy"
	reasonNoCandidate = "no_candidate"
	reasonClosed      = "closed"
	reasonInvalidated = "invalidated"
)

// Metrics are the prometheus collectors updated by a Session.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Refills   *prometheus.CounterVec
	Decisions *prometheus.CounterVec
	Matches   prometheus.Counter
	BatchSize prometheus.Histogram
	Dropped   *prometheus.CounterVec
}

// NewMetrics creates the session collectors and registers them with reg when
// reg is not nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Refills: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sportmatch",
				Subsystem: subsystem,
				Name:      "refills_total",
				Help:      "Count of completed candidate batch fetches by result.",
			},
			[]string{"result"},
		),
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sportmatch",
				Subsystem: subsystem,
				Name:      "decisions_total",
				Help:      "Count of completed like/dislike calls by decision and result.",
			},
			[]string{"decision", "result"},
		),
		Matches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sportmatch",
				Subsystem: subsystem,
				Name:      "matches_total",
				Help:      "Count of mutual matches reported by the backend.",
			},
		),
		BatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "sportmatch",
				Subsystem: subsystem,
				Name:      "batch_size",
				Help:      "Number of candidates per fetched batch.",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
			},
		),
		Dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sportmatch",
				Subsystem: subsystem,
				Name:      "dropped_calls_total",
				Help:      "Count of entry point calls ignored by the busy guard or a failed precondition.",
			},
			[]string{"operation", "reason"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Refills, m.Decisions, m.Matches, m.BatchSize, m.Dropped)
	}
	return m
}

func (m *Metrics) refill(result string, size int) {
	if m == nil {
		return
	}
	m.Refills.WithLabelValues(result).Inc()
	if result == resultSuccess || result == resultEmpty {
		m.BatchSize.Observe(float64(size))
	}
}

func (m *Metrics) decision(decision, result string, match bool) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(decision, result).Inc()
	if match {
		m.Matches.Inc()
	}
}

func (m *Metrics) dropped(operation, reason string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(operation, reason).Inc()
}
