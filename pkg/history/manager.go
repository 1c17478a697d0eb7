package history

import (
	"sync"

	"github.com/aretw0/atelier/pkg/domain"
)

// Manager routes every mutation of a domain.History through
// record, undo and redo. Safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	state *domain.History
	limit int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLimit caps the number of undoable actions; the oldest are evicted first.
// Zero or a negative value means unlimited.
func WithLimit(n int) Option {
	return func(m *Manager) {
		if n < 0 {
			n = 0
		}
		m.limit = n
	}
}

// New creates a manager over an empty timeline.
func New(opts ...Option) *Manager {
	return Attach(&domain.History{}, opts...)
}

// Attach wraps an existing timeline, typically one loaded from a store.
// The manager mutates h in place; callers must not touch it concurrently.
func Attach(h *domain.History, opts ...Option) *Manager {
	if h == nil {
		h = &domain.History{}
	}
	m := &Manager{state: h}
	for _, opt := range opts {
		opt(m)
	}
	m.enforceLimit()
	return m
}

// Record appends an action to the past and clears the redo trail.
func (m *Manager) Record(a domain.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Past = append(m.state.Past, a.Clone())
	m.state.Future = []domain.Action{}
	m.enforceLimit()
}

// Undo moves the most recent action to the head of the redo trail and returns it.
func (m *Manager) Undo() (domain.Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.state.Past)
	if n == 0 {
		return domain.Action{}, false
	}
	last := m.state.Past[n-1]
	m.state.Past = m.state.Past[:n-1]
	m.state.Future = append([]domain.Action{last}, m.state.Future...)
	return last.Clone(), true
}

// Redo moves the head of the redo trail back to the past and returns it.
func (m *Manager) Redo() (domain.Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.state.Future) == 0 {
		return domain.Action{}, false
	}
	first := m.state.Future[0]
	m.state.Future = m.state.Future[1:]
	m.state.Past = append(m.state.Past, first)
	m.enforceLimit()
	return first.Clone(), true
}

// CanUndo returns true if undo is available.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.Past) > 0
}

// CanRedo returns true if redo is available.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.Future) > 0
}

// UndoCount returns the number of undo operations available.
func (m *Manager) UndoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.Past)
}

// RedoCount returns the number of redo operations available.
func (m *Manager) RedoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.Future)
}

// PeekUndo returns the next undo candidate without removing it.
func (m *Manager) PeekUndo() (domain.Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.state.Past)
	if n == 0 {
		return domain.Action{}, false
	}
	return m.state.Past[n-1].Clone(), true
}

// PeekRedo returns the next redo candidate without removing it.
func (m *Manager) PeekRedo() (domain.Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.state.Future) == 0 {
		return domain.Action{}, false
	}
	return m.state.Future[0].Clone(), true
}

// Past returns a copy of the applied actions, oldest first.
func (m *Manager) Past() []domain.Action {
	return m.Snapshot().Past
}

// Future returns a copy of the undone actions, next redo first.
func (m *Manager) Future() []domain.Action {
	return m.Snapshot().Future
}

// Snapshot returns a deep copy of the timeline.
func (m *Manager) Snapshot() domain.History {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Clear removes all undo/redo history.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Past = []domain.Action{}
	m.state.Future = []domain.Action{}
}

// enforceLimit must be called with mu held.
func (m *Manager) enforceLimit() {
	if m.limit == 0 || len(m.state.Past) <= m.limit {
		return
	}
	excess := len(m.state.Past) - m.limit
	m.state.Past = append([]domain.Action(nil), m.state.Past[excess:]...)
}
