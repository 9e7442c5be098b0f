package observability

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/dealreg/pkg/domain"
)

// Metrics holds the wizard collectors.
type Metrics struct {
	StepVisits      *prometheus.CounterVec
	DuplicateChecks *prometheus.CounterVec
	DuplicateHits   prometheus.Histogram
	LookupDuration  prometheus.Histogram
	Submissions     *prometheus.CounterVec
	SubmitDuration  prometheus.Histogram
	AutoSaves       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dealreg_step_visits_total",
			Help: "Total number of wizard step entries.",
		}, []string{"step_id"}),
		DuplicateChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dealreg_duplicate_checks_total",
			Help: "Duplicate lookups applied, by outcome.",
		}, []string{"outcome"}),
		DuplicateHits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dealreg_duplicate_candidates",
			Help:    "Candidates returned per duplicate lookup.",
			Buckets: []float64{0, 1, 2, 5, 10},
		}),
		LookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dealreg_duplicate_lookup_duration_seconds",
			Help:    "Duration of duplicate lookups.",
			Buckets: prometheus.DefBuckets,
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dealreg_submissions_total",
			Help: "Submission attempts, by outcome.",
		}, []string{"outcome"}),
		SubmitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dealreg_submit_duration_seconds",
			Help:    "Duration of submission calls.",
			Buckets: prometheus.DefBuckets,
		}),
		AutoSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dealreg_autosaves_total",
			Help: "Draft saves, by success.",
		}, []string{"ok"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.StepVisits, m.DuplicateChecks, m.DuplicateHits, m.LookupDuration,
			m.Submissions, m.SubmitDuration, m.AutoSaves,
		)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepVisits.WithLabelValues(e.StepID).Inc()
		},
		OnDuplicateCheck: func(_ context.Context, e *domain.DuplicateEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "degraded"
			}
			m.DuplicateChecks.WithLabelValues(outcome).Inc()
			m.DuplicateHits.Observe(float64(e.Candidates))
			m.LookupDuration.Observe(e.Duration.Seconds())
		},
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			m.Submissions.WithLabelValues(submitOutcome(e)).Inc()
			if !e.Invalid {
				m.SubmitDuration.Observe(e.Duration.Seconds())
			}
		},
		OnAutoSave: func(_ context.Context, e *domain.SaveEvent) {
			m.AutoSaves.WithLabelValues(strconv.FormatBool(e.Err == nil)).Inc()
		},
	}
}

func submitOutcome(e *domain.SubmitEvent) string {
	switch {
	case e.Invalid:
		return "invalid"
	case e.Err != nil:
		return "failed"
	default:
		return "accepted"
	}
}
