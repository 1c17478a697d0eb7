package metrics_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_HistoryOps(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.New(reg)
	hooks := c.Hooks()
	ctx := context.Background()

	ev := &domain.HistoryEvent{Action: domain.Smooth()}
	hooks.OnRecord(ctx, ev)
	hooks.OnRecord(ctx, ev)
	hooks.OnUndo(ctx, ev)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.HistoryOps.WithLabelValues("record", "smooth")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HistoryOps.WithLabelValues("undo", "smooth")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.HistoryOps.WithLabelValues("redo", "smooth")))
}

func TestHooks_Jobs(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.New(reg)
	hooks := c.Hooks()
	ctx := context.Background()

	start := &domain.JobEvent{Progress: domain.Progress{Kind: domain.JobExport, Status: domain.JobRunning}}
	hooks.OnJobStart(ctx, start)
	hooks.OnJobProgress(ctx, &domain.JobEvent{Progress: domain.Progress{Kind: domain.JobExport, Status: domain.JobRunning, Value: 42}})
	assert.Equal(t, 42.0, testutil.ToFloat64(c.JobProgress.WithLabelValues("export")))

	hooks.OnJobDone(ctx, &domain.JobEvent{
		Progress: domain.Progress{Kind: domain.JobExport, Status: domain.JobCompleted, Value: 100},
		Elapsed:  2 * time.Second,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.JobsStarted.WithLabelValues("export")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.JobsDone.WithLabelValues("export", "completed")))
	assert.Equal(t, 100.0, testutil.ToFloat64(c.JobProgress.WithLabelValues("export")))

	expected := `
# HELP atelier_jobs_started_total Total number of started generation and export jobs
# TYPE atelier_jobs_started_total counter
atelier_jobs_started_total{job="export"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "atelier_jobs_started_total"))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	assert.Panics(t, func() { metrics.New(reg) })
}
