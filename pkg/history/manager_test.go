package history_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(actions []domain.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.ID
	}
	return out
}

func TestManager_UndoReturnsReverseInsertionOrder(t *testing.T) {
	m := history.New()
	const n = 5

	recorded := make([]domain.Action, n)
	for i := 0; i < n; i++ {
		recorded[i] = domain.NewAction(domain.ActionSmooth, map[string]any{"i": i})
		m.Record(recorded[i])
	}
	require.True(t, m.CanUndo())

	for i := n - 1; i >= 0; i-- {
		a, ok := m.Undo()
		require.True(t, ok)
		assert.Equal(t, recorded[i].ID, a.ID)
	}
	assert.False(t, m.CanUndo())
	assert.Equal(t, n, m.RedoCount())
}

func TestManager_RedoRestoresExactDescriptor(t *testing.T) {
	m := history.New()
	a, b := domain.Smooth(), domain.Subdivide()
	m.Record(a)
	m.Record(b)
	before := m.Snapshot()

	undone, ok := m.Undo()
	require.True(t, ok)
	redone, ok := m.Redo()
	require.True(t, ok)

	assert.Equal(t, undone, redone)
	assert.Equal(t, ids(before.Past), ids(m.Past()))
	assert.Equal(t, ids(before.Future), ids(m.Future()))
}

func TestManager_RecordAfterUndoDiscardsRedo(t *testing.T) {
	m := history.New()
	m.Record(domain.Smooth())
	m.Record(domain.Subdivide())
	m.Undo()
	m.Undo()
	require.True(t, m.CanRedo())

	m.Record(domain.Retopo())

	assert.False(t, m.CanRedo())
	_, ok := m.Redo()
	assert.False(t, ok)
}

func TestManager_FreshIsNoOp(t *testing.T) {
	m := history.New()

	a, ok := m.Undo()
	assert.False(t, ok)
	assert.Equal(t, domain.Action{}, a)
	assert.False(t, m.CanRedo())

	_, ok = m.Redo()
	assert.False(t, ok)
	assert.Empty(t, m.Past())
	assert.Empty(t, m.Future())
}

func TestManager_UndoRedoScenario(t *testing.T) {
	m := history.New()
	a, b := domain.Smooth(), domain.Subdivide()
	m.Record(a)
	m.Record(b)

	got, ok := m.Undo()
	require.True(t, ok)
	assert.Equal(t, b.ID, got.ID)
	assert.True(t, m.CanUndo(), "A remains")
	assert.True(t, m.CanRedo())

	got, ok = m.Redo()
	require.True(t, ok)
	assert.Equal(t, b.ID, got.ID)
	assert.False(t, m.CanRedo())
	assert.Equal(t, []string{a.ID, b.ID}, ids(m.Past()))
}

func TestManager_RecordAfterUndoScenario(t *testing.T) {
	m := history.New()
	a, c := domain.Smooth(), domain.CreateBone()
	m.Record(a)
	m.Undo()
	m.Record(c)

	assert.Empty(t, m.Future())
	got, ok := m.Undo()
	require.True(t, ok)
	assert.Equal(t, c.ID, got.ID)
}

func TestManager_FutureHeadIsMostRecentlyUndone(t *testing.T) {
	m := history.New()
	a, b, c := domain.Smooth(), domain.Subdivide(), domain.Simplify()
	m.Record(a)
	m.Record(b)
	m.Record(c)
	m.Undo()
	m.Undo()

	assert.Equal(t, []string{b.ID, c.ID}, ids(m.Future()))
	next, ok := m.PeekRedo()
	require.True(t, ok)
	assert.Equal(t, b.ID, next.ID)
	prev, ok := m.PeekUndo()
	require.True(t, ok)
	assert.Equal(t, a.ID, prev.ID)
}

func TestManager_PastAndFutureDisjoint(t *testing.T) {
	m := history.New()
	for i := 0; i < 6; i++ {
		m.Record(domain.NewAction(domain.ActionSubdivide, map[string]any{"i": i}))
	}
	ops := []func(){
		func() { m.Undo() }, func() { m.Undo() }, func() { m.Redo() },
		func() { m.Undo() }, func() { m.Undo() }, func() { m.Redo() },
	}
	for _, op := range ops {
		op()
		seen := map[string]bool{}
		for _, id := range append(ids(m.Past()), ids(m.Future())...) {
			require.False(t, seen[id], "action %s appears twice", id)
			seen[id] = true
		}
		require.Len(t, seen, 6)
	}
}

func TestManager_ReturnedActionsAreCopies(t *testing.T) {
	m := history.New()
	m.Record(domain.NewAction(domain.ActionBoolean, map[string]any{"mode": "union"}))

	a, _ := m.Undo()
	a.Metadata["mode"] = "intersect"

	b, _ := m.Redo()
	assert.Equal(t, "union", b.Metadata["mode"])
}

func TestManager_Attach(t *testing.T) {
	a := domain.Smooth()
	state := &domain.History{Past: []domain.Action{a}}
	m := history.Attach(state)

	m.Undo()
	assert.Empty(t, state.Past, "attach mutates the given state in place")
	require.Len(t, state.Future, 1)
	assert.Equal(t, a.ID, state.Future[0].ID)

	assert.NotNil(t, history.Attach(nil))
}

func TestManager_WithLimit(t *testing.T) {
	m := history.New(history.WithLimit(3))
	var all []domain.Action
	for i := 0; i < 5; i++ {
		a := domain.NewAction(domain.ActionSmooth, map[string]any{"i": i})
		all = append(all, a)
		m.Record(a)
	}
	assert.Equal(t, ids(all[2:]), ids(m.Past()))

	state := &domain.History{Past: all}
	history.Attach(state, history.WithLimit(2))
	assert.Len(t, state.Past, 2)
}

func TestManager_Clear(t *testing.T) {
	m := history.New()
	m.Record(domain.Smooth())
	m.Record(domain.Smooth())
	m.Undo()
	m.Clear()

	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
}

func TestManager_ConcurrentRecord(t *testing.T) {
	m := history.New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Record(domain.NewAction(domain.ActionSmooth, map[string]any{"i": fmt.Sprint(i)}))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, m.UndoCount())
}
