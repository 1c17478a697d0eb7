package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRecord      EventType = "record"
	EventUndo        EventType = "undo"
	EventRedo        EventType = "redo"
	EventJobStart    EventType = "job_start"
	EventJobProgress EventType = "job_progress"
	EventJobDone     EventType = "job_done"
	EventUpdate      EventType = "update"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// HistoryEvent describes a change of the edit timeline.
type HistoryEvent struct {
	EventBase
	Action  Action `json:"action"`
	CanUndo bool   `json:"can_undo"`
	CanRedo bool   `json:"can_redo"`
}

// JobEvent describes a progress transition of a job.
type JobEvent struct {
	EventBase
	Progress Progress      `json:"progress"`
	Elapsed  time.Duration `json:"elapsed,omitempty"`
}

// Event is what session subscribers receive: a document diff for edits or a
// progress snapshot for jobs.
type Event struct {
	EventBase
	Diff     *DocumentDiff `json:"diff,omitempty"`
	Progress *Progress     `json:"progress,omitempty"`
}

// LifecycleHooks defines callbacks for observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnRecord      func(context.Context, *HistoryEvent)
	OnUndo        func(context.Context, *HistoryEvent)
	OnRedo        func(context.Context, *HistoryEvent)
	OnJobStart    func(context.Context, *JobEvent)
	OnJobProgress func(context.Context, *JobEvent)
	OnJobDone     func(context.Context, *JobEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRecord:      chainHistory(h.OnRecord, other.OnRecord),
		OnUndo:        chainHistory(h.OnUndo, other.OnUndo),
		OnRedo:        chainHistory(h.OnRedo, other.OnRedo),
		OnJobStart:    chainJob(h.OnJobStart, other.OnJobStart),
		OnJobProgress: chainJob(h.OnJobProgress, other.OnJobProgress),
		OnJobDone:     chainJob(h.OnJobDone, other.OnJobDone),
	}
}

func chainHistory(a, b func(context.Context, *HistoryEvent)) func(context.Context, *HistoryEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *HistoryEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainJob(a, b func(context.Context, *JobEvent)) func(context.Context, *JobEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *JobEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
