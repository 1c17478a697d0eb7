package progress

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/domain"
)

// Complete is the value at which a job is finished.
const Complete = 100

// Observer is notified of every progress transition, in order.
// It runs while the Simulator holds its lock and must not call back into it.
type Observer func(p domain.Progress, elapsed time.Duration)

// Simulator drives one job kind. Safe for concurrent use.
type Simulator struct {
	kind     domain.JobKind
	cfg      Config
	logger   *slog.Logger
	observer Observer

	mu        sync.Mutex
	rnd       *rand.Rand
	progress  domain.Progress
	run       uint64
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
	subs      map[chan domain.Progress]struct{}
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRand sets the random source used for the tick increments.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) {
		s.rnd = r
	}
}

// WithLogger configures a logger for the Simulator.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithObserver registers a synchronous observer of progress transitions.
func WithObserver(o Observer) Option {
	return func(s *Simulator) {
		s.observer = o
	}
}

// New creates an idle Simulator.
func New(kind domain.JobKind, cfg Config, opts ...Option) *Simulator {
	done := make(chan struct{})
	close(done)

	s := &Simulator{
		kind:     kind,
		cfg:      cfg.normalized(),
		logger:   logging.NewNop(),
		progress: domain.Progress{Kind: kind, Status: domain.JobIdle},
		done:     done,
		subs:     make(map[chan domain.Progress]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Kind returns the job kind driven by the Simulator.
func (s *Simulator) Kind() domain.JobKind {
	return s.kind
}

// Start begins a new job, superseding any job that is still running or holding.
// onComplete, if not nil, runs once when the job reaches 100, before the hold.
// Cancelling ctx behaves like Cancel.
func (s *Simulator) Start(ctx context.Context, onComplete func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	s.run++
	s.cancel = cancel
	s.done = make(chan struct{})
	s.startedAt = time.Now()
	s.setLocked(domain.Progress{Kind: s.kind, Status: domain.JobRunning, Value: 0, Active: true})

	s.logger.Debug("Job started", "kind", s.kind, "run", s.run)
	go s.loop(runCtx, s.run, s.done, onComplete)
}

// Cancel stops the current job and resets its progress to zero.
// It reports whether a job was running or holding. Cancelling an idle
// Simulator is a no-op.
func (s *Simulator) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return false
	}
	s.stopLocked()
	s.setLocked(domain.Progress{Kind: s.kind, Status: domain.JobCancelled, Value: 0, Active: false})
	s.logger.Debug("Job cancelled", "kind", s.kind, "run", s.run)
	return true
}

// Snapshot returns the current progress.
func (s *Simulator) Snapshot() domain.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Done returns a channel closed when the current job has settled
// (finished its hold, been cancelled or been superseded).
func (s *Simulator) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Wait blocks until the current job settles or ctx is done.
func (s *Simulator) Wait(ctx context.Context) error {
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel receiving every progress transition and a
// function to unsubscribe. Slow subscribers miss updates rather than block the job.
func (s *Simulator) Subscribe() (<-chan domain.Progress, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan domain.Progress, 32)
	s.subs[ch] = struct{}{}

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *Simulator) loop(ctx context.Context, run uint64, done chan struct{}, onComplete func(context.Context)) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.abandon(run)
			return
		case <-ticker.C:
			finished, stale := s.tick(run)
			if stale {
				return
			}
			if !finished {
				continue
			}
			ticker.Stop()

			if onComplete != nil {
				onComplete(ctx)
			}

			select {
			case <-ctx.Done():
				s.abandon(run)
				return
			case <-time.After(s.cfg.Hold):
			}
			s.settle(run)
			return
		}
	}
}

// tick advances the job of the given run.
// stale is true when the run has been superseded or cancelled.
func (s *Simulator) tick(run uint64) (finished, stale bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run != s.run {
		return false, true
	}

	step := int(math.Round(s.rnd.Float64() * float64(s.cfg.MaxStep)))
	next := s.progress.Value + max(1, step)
	if next >= Complete {
		s.setLocked(domain.Progress{
			Kind:   s.kind,
			Status: domain.JobCompleted,
			Value:  Complete,
			Active: s.cfg.ActiveDuringHold,
		})
		s.logger.Debug("Job completed", "kind", s.kind, "run", run, "elapsed", time.Since(s.startedAt))
		return true, false
	}

	s.setLocked(domain.Progress{Kind: s.kind, Status: domain.JobRunning, Value: next, Active: true})
	return false, false
}

// settle returns a completed run to idle once the hold is over.
func (s *Simulator) settle(run uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run != s.run {
		return
	}
	s.cancel()
	s.cancel = nil
	s.setLocked(domain.Progress{Kind: s.kind, Status: domain.JobIdle, Value: 0, Active: false})
}

// abandon handles cancellation of the parent context.
func (s *Simulator) abandon(run uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run != s.run {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.setLocked(domain.Progress{Kind: s.kind, Status: domain.JobCancelled, Value: 0, Active: false})
}

// stopLocked cancels the active run, if any, and invalidates its ticks.
func (s *Simulator) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.run++
}

func (s *Simulator) setLocked(p domain.Progress) {
	s.progress = p
	elapsed := time.Since(s.startedAt)

	if s.observer != nil {
		s.observer(p, elapsed)
	}
	for ch := range s.subs {
		select {
		case ch <- p:
		default:
			s.logger.Warn("Progress subscriber buffer full, dropping update", "kind", s.kind)
		}
	}
}
