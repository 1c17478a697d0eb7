package atelier

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/progress"
)

// sessionJobs holds the two simulators of a session.
type sessionJobs struct {
	generation *progress.Simulator
	export     *progress.Simulator
}

func (j *sessionJobs) get(kind domain.JobKind) *progress.Simulator {
	if kind == domain.JobExport {
		return j.export
	}
	return j.generation
}

func (j *sessionJobs) cancelAll() {
	j.generation.Cancel()
	j.export.Cancel()
}

// simulators returns the jobs of a session, creating them on first use.
func (s *Studio) simulators(sessionID string) (*sessionJobs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if j, ok := s.jobs[sessionID]; ok {
		return j, nil
	}

	j := &sessionJobs{
		generation: s.newSimulator(sessionID, domain.JobGeneration, s.genCfg),
		export:     s.newSimulator(sessionID, domain.JobExport, s.expCfg),
	}
	s.jobs[sessionID] = j
	return j, nil
}

func (s *Studio) newSimulator(sessionID string, kind domain.JobKind, cfg progress.Config) *progress.Simulator {
	opts := []progress.Option{
		progress.WithLogger(s.logger.With("session_id", sessionID)),
		progress.WithObserver(s.observeJob(sessionID)),
	}
	if s.rnd != nil {
		s.rndMu.Lock()
		opts = append(opts, progress.WithRand(rand.New(rand.NewPCG(s.rnd.Uint64(), s.rnd.Uint64()))))
		s.rndMu.Unlock()
	}
	return progress.New(kind, cfg, opts...)
}

// observeJob turns progress transitions into lifecycle hooks and session events.
// It runs under the simulator lock.
func (s *Studio) observeJob(sessionID string) progress.Observer {
	return func(p domain.Progress, elapsed time.Duration) {
		typ := domain.EventJobProgress
		var hook func(context.Context, *domain.JobEvent)

		switch {
		case p.Status == domain.JobRunning && p.Value == 0:
			typ, hook = domain.EventJobStart, s.hooks.OnJobStart
		case p.Status == domain.JobRunning:
			hook = s.hooks.OnJobProgress
		case p.Status == domain.JobCompleted, p.Status == domain.JobCancelled:
			typ, hook = domain.EventJobDone, s.hooks.OnJobDone
		}

		base := domain.EventBase{Timestamp: time.Now(), Type: typ, SessionID: sessionID}
		if hook != nil {
			hook(s.ctx, &domain.JobEvent{EventBase: base, Progress: p, Elapsed: elapsed})
		}

		snapshot := p
		s.streams.Broadcast(sessionID, domain.Event{EventBase: base, Progress: &snapshot})
	}
}

// prepare returns the document and jobs of a session. The session is loaded
// after the jobs are registered, so an entry raced by Delete is dropped
// instead of outliving its session.
func (s *Studio) prepare(ctx context.Context, sessionID string) (*domain.Document, *sessionJobs, error) {
	jobs, err := s.simulators(sessionID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.forget(sessionID, jobs)
		}
		return nil, nil, err
	}
	return doc, jobs, nil
}

// forget removes the jobs entry of a session if it is still jobs.
func (s *Studio) forget(sessionID string, jobs *sessionJobs) {
	s.mu.Lock()
	if s.jobs[sessionID] == jobs {
		delete(s.jobs, sessionID)
	}
	s.mu.Unlock()
	jobs.cancelAll()
}

// StartTextTo3D starts a generation from the session prompt.
// It fails with domain.ErrEmptyPrompt when no prompt is set.
func (s *Studio) StartTextTo3D(ctx context.Context, sessionID string) error {
	doc, jobs, err := s.prepare(ctx, sessionID)
	if err != nil {
		return err
	}
	if doc.AIParams.Prompt == "" {
		return domain.ErrEmptyPrompt
	}
	s.startGeneration(sessionID, jobs, domain.SourceText)
	return nil
}

// StartImageTo3D starts a generation from an image. No prompt is required.
func (s *Studio) StartImageTo3D(ctx context.Context, sessionID string) error {
	_, jobs, err := s.prepare(ctx, sessionID)
	if err != nil {
		return err
	}
	s.startGeneration(sessionID, jobs, domain.SourceImage)
	return nil
}

func (s *Studio) startGeneration(sessionID string, jobs *sessionJobs, source domain.GenerationSource) {
	jobs.generation.Start(s.ctx, func(ctx context.Context) {
		action := domain.GenerationComplete(time.Now(), source)
		if _, err := s.Record(ctx, sessionID, action); err != nil {
			s.logger.Error("Failed to record generation result", "session_id", sessionID, "err", err)
		}
	})
	s.logger.Info("Generation started", "session_id", sessionID, "source", source)
}

// StartExport starts an export with the session export options.
func (s *Studio) StartExport(ctx context.Context, sessionID string) error {
	doc, jobs, err := s.prepare(ctx, sessionID)
	if err != nil {
		return err
	}

	jobs.export.Start(s.ctx, nil)
	s.logger.Info("Export started", "session_id", sessionID, "format", doc.ExportOptions.Format)
	return nil
}

// StartJob starts a job by kind. Generation jobs read the source from
// source ("text" or "image"; empty means text).
func (s *Studio) StartJob(ctx context.Context, sessionID string, kind domain.JobKind, source domain.GenerationSource) error {
	switch kind {
	case domain.JobGeneration:
		if source == domain.SourceImage {
			return s.StartImageTo3D(ctx, sessionID)
		}
		return s.StartTextTo3D(ctx, sessionID)
	case domain.JobExport:
		return s.StartExport(ctx, sessionID)
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownJobKind, kind)
}

// CancelGeneration stops the generation job of a session.
// It reports whether a job was running.
func (s *Studio) CancelGeneration(sessionID string) bool {
	ok, _ := s.CancelJob(sessionID, domain.JobGeneration)
	return ok
}

// CancelExport stops the export job of a session.
// It reports whether a job was running.
func (s *Studio) CancelExport(sessionID string) bool {
	ok, _ := s.CancelJob(sessionID, domain.JobExport)
	return ok
}

// CancelJob stops a job by kind. Cancelling an idle job is not an error.
func (s *Studio) CancelJob(sessionID string, kind domain.JobKind) (bool, error) {
	if _, err := domain.ParseJobKind(string(kind)); err != nil {
		return false, err
	}

	s.mu.Lock()
	jobs := s.jobs[sessionID]
	s.mu.Unlock()

	if jobs == nil {
		return false, nil
	}
	cancelled := jobs.get(kind).Cancel()
	if cancelled {
		s.logger.Info("Job cancelled", "session_id", sessionID, "kind", kind)
	}
	return cancelled, nil
}

// Progress returns the state of a job. Sessions that never ran the job
// report it idle.
func (s *Studio) Progress(sessionID string, kind domain.JobKind) (domain.Progress, error) {
	if _, err := domain.ParseJobKind(string(kind)); err != nil {
		return domain.Progress{}, err
	}

	s.mu.Lock()
	jobs := s.jobs[sessionID]
	s.mu.Unlock()

	if jobs == nil {
		return domain.Progress{Kind: kind, Status: domain.JobIdle}, nil
	}
	return jobs.get(kind).Snapshot(), nil
}

// Wait blocks until the current job of the given kind settles.
func (s *Studio) Wait(ctx context.Context, sessionID string, kind domain.JobKind) error {
	if _, err := domain.ParseJobKind(string(kind)); err != nil {
		return err
	}

	s.mu.Lock()
	jobs := s.jobs[sessionID]
	s.mu.Unlock()

	if jobs == nil {
		return nil
	}
	return jobs.get(kind).Wait(ctx)
}
