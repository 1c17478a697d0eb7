// Package runtime applies edit operations to session documents.
//
// The Engine is stateless: it mutates the document it is handed through a
// history.Manager and returns the resulting HistoryEvent. Hooks run only when
// the caller hands that event to Emit after the document has been persisted.
// Persistence and locking are the caller's concern (see pkg/session).
package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/history"
)

// Engine is the edit runner shared by every session.
type Engine struct {
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	limit  int
}

// Option configures the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observers for history changes.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHistoryLimit caps the undoable actions kept per document.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		e.limit = n
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Hooks returns the registered lifecycle hooks.
func (e *Engine) Hooks() domain.LifecycleHooks {
	return e.hooks
}

func (e *Engine) manager(doc *domain.Document) *history.Manager {
	return history.Attach(&doc.History, history.WithLimit(e.limit))
}

// Record appends action to the document history, discarding the redo trail.
// The returned event is not dispatched; call Emit once the document is saved.
func (e *Engine) Record(ctx context.Context, doc *domain.Document, action domain.Action) *domain.HistoryEvent {
	h := e.manager(doc)
	discarded := h.RedoCount()
	h.Record(action)

	e.logger.Debug("action recorded",
		"session_id", doc.SessionID,
		"kind", action.Kind,
		"action_id", action.ID,
		"discarded", discarded,
	)
	return newEvent(domain.EventRecord, doc, action)
}

// Undo reverts the most recent action. It returns nil when there is nothing
// to undo.
func (e *Engine) Undo(ctx context.Context, doc *domain.Document) *domain.HistoryEvent {
	action, ok := e.manager(doc).Undo()
	if !ok {
		e.logger.Debug("nothing to undo", "session_id", doc.SessionID)
		return nil
	}

	e.logger.Debug("action undone", "session_id", doc.SessionID, "kind", action.Kind, "action_id", action.ID)
	return newEvent(domain.EventUndo, doc, action)
}

// Redo reapplies the most recently undone action. It returns nil when there
// is nothing to redo.
func (e *Engine) Redo(ctx context.Context, doc *domain.Document) *domain.HistoryEvent {
	action, ok := e.manager(doc).Redo()
	if !ok {
		e.logger.Debug("nothing to redo", "session_id", doc.SessionID)
		return nil
	}

	e.logger.Debug("action redone", "session_id", doc.SessionID, "kind", action.Kind, "action_id", action.ID)
	return newEvent(domain.EventRedo, doc, action)
}

// Emit dispatches ev to the lifecycle hook matching its type.
func (e *Engine) Emit(ctx context.Context, ev *domain.HistoryEvent) {
	if ev == nil {
		return
	}
	var hook func(context.Context, *domain.HistoryEvent)
	switch ev.Type {
	case domain.EventRecord:
		hook = e.hooks.OnRecord
	case domain.EventUndo:
		hook = e.hooks.OnUndo
	case domain.EventRedo:
		hook = e.hooks.OnRedo
	}
	if hook != nil {
		hook(ctx, ev)
	}
}

func newEvent(typ domain.EventType, doc *domain.Document, action domain.Action) *domain.HistoryEvent {
	return &domain.HistoryEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      typ,
			SessionID: doc.SessionID,
		},
		Action:  action,
		CanUndo: doc.History.CanUndo(),
		CanRedo: doc.History.CanRedo(),
	}
}
