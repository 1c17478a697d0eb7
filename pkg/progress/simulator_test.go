package progress_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	updates []domain.Progress
}

func (r *recorder) observe(p domain.Progress, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, p)
}

func (r *recorder) all() []domain.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Progress(nil), r.updates...)
}

func seeded() progress.Option {
	return progress.WithRand(rand.New(rand.NewPCG(1, 2)))
}

func waitDone(t *testing.T, s *progress.Simulator) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("job did not settle")
	}
}

func TestSimulator_RunsToCompletionThenIdles(t *testing.T) {
	rec := &recorder{}
	s := progress.New(domain.JobGeneration, progress.Config{
		Interval: time.Millisecond,
		MaxStep:  20,
		Hold:     5 * time.Millisecond,
	}, seeded(), progress.WithObserver(rec.observe))

	var completions atomic.Int32
	s.Start(context.Background(), func(context.Context) { completions.Add(1) })
	waitDone(t, s)

	assert.Equal(t, int32(1), completions.Load())
	assert.Equal(t, domain.Progress{Kind: domain.JobGeneration, Status: domain.JobIdle}, s.Snapshot())

	updates := rec.all()
	require.GreaterOrEqual(t, len(updates), 3)
	assert.Equal(t, domain.JobRunning, updates[0].Status)
	assert.Zero(t, updates[0].Value)

	prev := -1
	sawComplete := false
	for _, u := range updates {
		switch u.Status {
		case domain.JobRunning:
			assert.Greater(t, u.Value, prev, "progress never goes backwards")
			assert.Less(t, u.Value, progress.Complete)
			prev = u.Value
		case domain.JobCompleted:
			assert.Equal(t, progress.Complete, u.Value)
			assert.False(t, u.Active, "generation is inactive during hold")
			sawComplete = true
		}
	}
	assert.True(t, sawComplete)
	assert.Equal(t, domain.JobIdle, updates[len(updates)-1].Status)
}

func TestSimulator_StepIsAtLeastOne(t *testing.T) {
	rec := &recorder{}
	s := progress.New(domain.JobExport, progress.Config{
		Interval: time.Millisecond,
		MaxStep:  1,
	}, seeded(), progress.WithObserver(rec.observe))

	s.Start(context.Background(), nil)
	waitDone(t, s)

	prev := -1
	for _, u := range rec.all() {
		if u.Status != domain.JobRunning {
			continue
		}
		assert.Equal(t, prev+1, u.Value)
		prev = u.Value
	}
}

func TestSimulator_CancelResetsToZero(t *testing.T) {
	s := progress.New(domain.JobGeneration, progress.Config{Interval: time.Hour}, seeded())

	var completions atomic.Int32
	s.Start(context.Background(), func(context.Context) { completions.Add(1) })
	require.True(t, s.Snapshot().Active)

	assert.True(t, s.Cancel())
	snap := s.Snapshot()
	assert.Equal(t, domain.JobCancelled, snap.Status)
	assert.Zero(t, snap.Value)
	assert.False(t, snap.Active)

	waitDone(t, s)
	assert.False(t, s.Cancel(), "second cancel is a no-op")
	assert.Zero(t, completions.Load())
}

func TestSimulator_CancelIdleIsSafe(t *testing.T) {
	s := progress.New(domain.JobExport, progress.ExportConfig())
	assert.False(t, s.Cancel())
	assert.Equal(t, domain.JobIdle, s.Snapshot().Status)
}

func TestSimulator_RestartSupersedesRunningJob(t *testing.T) {
	s := progress.New(domain.JobGeneration, progress.Config{
		Interval: 2 * time.Millisecond,
		MaxStep:  1,
	}, seeded())

	var first atomic.Int32
	s.Start(context.Background(), func(context.Context) { first.Add(1) })
	firstDone := s.Done()

	require.Eventually(t, func() bool { return s.Snapshot().Value >= 3 }, 2*time.Second, time.Millisecond)

	s.Start(context.Background(), nil)
	snap := s.Snapshot()
	assert.Equal(t, domain.JobRunning, snap.Status)
	assert.Less(t, snap.Value, 3, "restart resets progress")

	select {
	case <-firstDone:
	case <-time.After(time.Second):
		t.Fatal("superseded job kept running")
	}

	s.Cancel()
	waitDone(t, s)
	assert.Zero(t, first.Load())
}

func TestSimulator_ParentContextCancels(t *testing.T) {
	s := progress.New(domain.JobGeneration, progress.Config{Interval: time.Hour}, seeded())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx, nil)
	cancel()

	waitDone(t, s)
	assert.Equal(t, domain.JobCancelled, s.Snapshot().Status)
	assert.False(t, s.Cancel())
}

func TestSimulator_ExportStaysActiveDuringHold(t *testing.T) {
	s := progress.New(domain.JobExport, progress.Config{
		Interval:         time.Millisecond,
		MaxStep:          50,
		Hold:             time.Second,
		ActiveDuringHold: true,
	}, seeded())

	s.Start(context.Background(), nil)
	require.Eventually(t, func() bool {
		return s.Snapshot().Status == domain.JobCompleted
	}, 2*time.Second, time.Millisecond)

	snap := s.Snapshot()
	assert.True(t, snap.Active)
	assert.Equal(t, progress.Complete, snap.Value)

	// Cancelling during the hold resets immediately.
	assert.True(t, s.Cancel())
	assert.Zero(t, s.Snapshot().Value)
	waitDone(t, s)
}

func TestSimulator_Subscribe(t *testing.T) {
	s := progress.New(domain.JobGeneration, progress.Config{Interval: time.Hour}, seeded())
	ch, unsubscribe := s.Subscribe()

	s.Start(context.Background(), nil)
	s.Cancel()

	got := []domain.JobStatus{(<-ch).Status, (<-ch).Status}
	assert.Equal(t, []domain.JobStatus{domain.JobRunning, domain.JobCancelled}, got)

	unsubscribe()
	_, open := <-ch
	assert.False(t, open)
	unsubscribe()
}

func TestPresets(t *testing.T) {
	g := progress.GenerationConfig()
	assert.Equal(t, 180*time.Millisecond, g.Interval)
	assert.Equal(t, 6, g.MaxStep)
	assert.False(t, g.ActiveDuringHold)

	e := progress.ExportConfig()
	assert.Equal(t, 200*time.Millisecond, e.Interval)
	assert.Equal(t, 10, e.MaxStep)
	assert.True(t, e.ActiveDuringHold)
}

func TestSimulator_Wait(t *testing.T) {
	s := progress.New(domain.JobExport, progress.Config{Interval: time.Millisecond, MaxStep: 50}, seeded())

	require.NoError(t, s.Wait(context.Background()), "idle simulator returns immediately")

	s.Start(context.Background(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
	assert.Equal(t, domain.JobIdle, s.Snapshot().Status)

	s.Start(context.Background(), nil)
	short, stop := context.WithCancel(context.Background())
	stop()
	assert.ErrorIs(t, s.Wait(short), context.Canceled)
	s.Cancel()
}
