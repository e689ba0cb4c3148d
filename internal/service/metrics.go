package service

import (
	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Operations   *prometheus.CounterVec
	Answers      *prometheus.CounterVec
	Matches      *prometheus.CounterVec
	Finalized    prometheus.Counter
	Leaderboards prometheus.Gauge
}

// NewMetrics builds the service collectors and registers them on reg when
// it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "operations_total",
			Help:      "Operator operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "answers_total",
			Help:      "Scored answers by result.",
		}, []string{"result"}),
		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "matches_resolved_total",
			Help:      "Resolved matches by round.",
		}, []string{"round"}),
		Finalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "tournaments_finalized_total",
			Help:      "Tournaments that produced a leaderboard entry.",
		}),
		Leaderboards: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quiz",
			Name:      "leaderboard_entries",
			Help:      "Entries in the leaderboard history.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.Answers, m.Matches, m.Finalized, m.Leaderboards)
	}
	return m
}

func (m *Metrics) observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
}
