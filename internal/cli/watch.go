package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/atelier/internal/presentation/tui"
	"github.com/aretw0/atelier/pkg/domain"
)

// JobRunner is the part of the Studio a job watcher drives.
type JobRunner interface {
	Subscribe(sessionID string) (<-chan domain.Event, func())
	StartJob(ctx context.Context, sessionID string, kind domain.JobKind, source domain.GenerationSource) error
	CancelJob(sessionID string, kind domain.JobKind) (bool, error)
	Progress(sessionID string, kind domain.JobKind) (domain.Progress, error)
}

const barWidth = 30

// RunJob starts a job and prints its progress to w until it settles.
// Cancelling ctx cancels the job and returns the context error.
// On a terminal the line is redrawn in place.
func RunJob(ctx context.Context, r JobRunner, sessionID string, kind domain.JobKind, source domain.GenerationSource, w io.Writer, interactive bool) (domain.Progress, error) {
	events, unsubscribe := r.Subscribe(sessionID)
	defer unsubscribe()

	if err := r.StartJob(ctx, sessionID, kind, source); err != nil {
		return domain.Progress{}, err
	}

	show := func(p domain.Progress) {
		if interactive {
			fmt.Fprintf(w, "\r%s", tui.ProgressLine(p, barWidth))
			return
		}
		fmt.Fprintln(w, tui.ProgressLine(p, barWidth))
	}
	finish := func() {
		if interactive {
			fmt.Fprintln(w)
		}
	}

	for {
		select {
		case <-ctx.Done():
			_, _ = r.CancelJob(sessionID, kind)
			p, _ := r.Progress(sessionID, kind)
			show(p)
			finish()
			return p, ctx.Err()

		case ev, ok := <-events:
			if !ok {
				finish()
				return r.Progress(sessionID, kind)
			}
			if ev.Progress == nil || ev.Progress.Kind != kind {
				continue
			}
			show(*ev.Progress)
			if ev.Type == domain.EventJobDone {
				finish()
				if kind == domain.JobGeneration && ev.Progress.Status == domain.JobCompleted {
					return *ev.Progress, awaitRecord(ctx, events)
				}
				return *ev.Progress, nil
			}
		}
	}
}

// awaitRecord blocks until the generation result lands in the history.
func awaitRecord(ctx context.Context, events <-chan domain.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Type == domain.EventRecord && ev.Diff != nil {
				return nil
			}
		}
	}
}
