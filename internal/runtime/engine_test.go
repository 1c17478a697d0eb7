package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/atelier/internal/runtime"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(actions []domain.Action) []domain.ActionKind {
	out := make([]domain.ActionKind, len(actions))
	for i, a := range actions {
		out[i] = a.Kind
	}
	return out
}

func TestEngine_RecordUndoRedo(t *testing.T) {
	engine := runtime.NewEngine()
	ctx := context.Background()
	doc := domain.NewDocument("s1")

	engine.Record(ctx, doc, domain.Smooth())
	engine.Record(ctx, doc, domain.Subdivide())

	undone := engine.Undo(ctx, doc)
	require.NotNil(t, undone)
	assert.Equal(t, domain.ActionSubdivide, undone.Action.Kind)
	assert.Equal(t, []domain.ActionKind{domain.ActionSmooth}, kinds(doc.History.Past))
	assert.Equal(t, []domain.ActionKind{domain.ActionSubdivide}, kinds(doc.History.Future))

	redone := engine.Redo(ctx, doc)
	require.NotNil(t, redone)
	assert.Equal(t, undone.Action.ID, redone.Action.ID)
	assert.Equal(t, []domain.ActionKind{domain.ActionSmooth, domain.ActionSubdivide}, kinds(doc.History.Past))
	assert.Empty(t, doc.History.Future)
}

func TestEngine_RecordClearsFuture(t *testing.T) {
	engine := runtime.NewEngine()
	ctx := context.Background()
	doc := domain.NewDocument("s1")

	engine.Record(ctx, doc, domain.Smooth())
	engine.Record(ctx, doc, domain.Subdivide())
	engine.Undo(ctx, doc)
	engine.Record(ctx, doc, domain.AutoSkin())

	assert.Equal(t, []domain.ActionKind{domain.ActionSmooth, domain.ActionAutoSkin}, kinds(doc.History.Past))
	assert.Empty(t, doc.History.Future)
	assert.NotNil(t, doc.History.Future)
}

func TestEngine_NoOpOnEmpty(t *testing.T) {
	var events int
	engine := runtime.NewEngine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnUndo: func(context.Context, *domain.HistoryEvent) { events++ },
		OnRedo: func(context.Context, *domain.HistoryEvent) { events++ },
	}))
	ctx := context.Background()
	doc := domain.NewDocument("empty")

	assert.Nil(t, engine.Undo(ctx, doc))
	assert.Nil(t, engine.Redo(ctx, doc))
	engine.Emit(ctx, nil)
	assert.Zero(t, events)
	assert.Empty(t, doc.History.Past)
	assert.Empty(t, doc.History.Future)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var got []*domain.HistoryEvent
	capture := func(_ context.Context, e *domain.HistoryEvent) { got = append(got, e) }

	engine := runtime.NewEngine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnRecord: capture,
		OnUndo:   capture,
		OnRedo:   capture,
	}))
	ctx := context.Background()
	doc := domain.NewDocument("hooks")

	events := []*domain.HistoryEvent{
		engine.Record(ctx, doc, domain.CreateBone()),
		engine.Undo(ctx, doc),
		engine.Redo(ctx, doc),
	}
	assert.Empty(t, got, "hooks wait for Emit")

	for _, ev := range events {
		engine.Emit(ctx, ev)
	}
	require.Len(t, got, 3)
	assert.Equal(t, domain.EventRecord, got[0].Type)
	assert.True(t, got[0].CanUndo)
	assert.False(t, got[0].CanRedo)

	assert.Equal(t, domain.EventUndo, got[1].Type)
	assert.False(t, got[1].CanUndo)
	assert.True(t, got[1].CanRedo)

	assert.Equal(t, domain.EventRedo, got[2].Type)
	assert.Equal(t, "hooks", got[2].SessionID)
	assert.Equal(t, domain.ActionCreateBone, got[2].Action.Kind)
}

func TestEngine_HistoryLimit(t *testing.T) {
	engine := runtime.NewEngine(runtime.WithHistoryLimit(2))
	ctx := context.Background()
	doc := domain.NewDocument("limited")

	engine.Record(ctx, doc, domain.Smooth())
	engine.Record(ctx, doc, domain.Subdivide())
	engine.Record(ctx, doc, domain.Retopo())

	assert.Equal(t, []domain.ActionKind{domain.ActionSubdivide, domain.ActionRetopo}, kinds(doc.History.Past))
}
