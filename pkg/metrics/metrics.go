// Package metrics exposes studio activity as Prometheus collectors.
// Collectors are fed through domain.LifecycleHooks, so the studio core stays
// unaware of Prometheus.
package metrics

import (
	"context"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "atelier"

// Collectors groups the studio metrics.
type Collectors struct {
	HistoryOps  *prometheus.CounterVec
	JobsStarted *prometheus.CounterVec
	JobsDone    *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec
	JobProgress *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		HistoryOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "history_operations_total",
				Help:      "Total number of applied record, undo and redo operations",
			},
			[]string{"op", "kind"},
		),
		JobsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_started_total",
				Help:      "Total number of started generation and export jobs",
			},
			[]string{"job"},
		),
		JobsDone: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_finished_total",
				Help:      "Total number of jobs that completed or were cancelled",
			},
			[]string{"job", "status"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Time from job start to completion or cancellation",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
			},
			[]string{"job", "status"},
		),
		JobProgress: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "job_progress",
				Help:      "Last reported progress of a job, 0 to 100",
			},
			[]string{"job"},
		),
	}
	reg.MustRegister(c.HistoryOps, c.JobsStarted, c.JobsDone, c.JobDuration, c.JobProgress)
	return c
}

// Hooks returns lifecycle hooks feeding the collectors.
func (c *Collectors) Hooks() domain.LifecycleHooks {
	history := func(op string) func(context.Context, *domain.HistoryEvent) {
		return func(_ context.Context, e *domain.HistoryEvent) {
			c.HistoryOps.WithLabelValues(op, string(e.Action.Kind)).Inc()
		}
	}

	return domain.LifecycleHooks{
		OnRecord: history("record"),
		OnUndo:   history("undo"),
		OnRedo:   history("redo"),
		OnJobStart: func(_ context.Context, e *domain.JobEvent) {
			c.JobsStarted.WithLabelValues(string(e.Progress.Kind)).Inc()
			c.JobProgress.WithLabelValues(string(e.Progress.Kind)).Set(0)
		},
		OnJobProgress: func(_ context.Context, e *domain.JobEvent) {
			c.JobProgress.WithLabelValues(string(e.Progress.Kind)).Set(float64(e.Progress.Value))
		},
		OnJobDone: func(_ context.Context, e *domain.JobEvent) {
			job, status := string(e.Progress.Kind), string(e.Progress.Status)
			c.JobsDone.WithLabelValues(job, status).Inc()
			c.JobDuration.WithLabelValues(job, status).Observe(e.Elapsed.Seconds())
			c.JobProgress.WithLabelValues(job).Set(float64(e.Progress.Value))
		},
	}
}
