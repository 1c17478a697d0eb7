package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/atelier"
	"github.com/aretw0/atelier/internal/testutils"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	studio := atelier.New(
		atelier.WithGenerationConfig(testutils.PausedJobs()),
		atelier.WithExportConfig(testutils.PausedJobs()),
	)
	t.Cleanup(func() { _ = studio.Close() })
	return NewServer(studio)
}

func TestTools_Timeline(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	resp, err := s.handleRecordAction(ctx, req, map[string]any{"session_id": "agent", "kind": "smooth"})
	require.NoError(t, err)
	assert.True(t, resp.CanUndo)

	resp, err = s.handleRecordAction(ctx, req, map[string]any{
		"session_id": "agent",
		"kind":       "boolean",
		"metadata":   `{"mode": "intersect"}`,
	})
	require.NoError(t, err)
	require.Len(t, resp.History.Past, 2)
	assert.Equal(t, "intersect", resp.History.Past[1].Metadata["mode"])

	resp, err = s.handleUndo(ctx, req, map[string]any{"session_id": "agent"})
	require.NoError(t, err)
	require.NotNil(t, resp.Action)
	assert.Equal(t, domain.ActionBoolean, resp.Action.Kind)
	assert.True(t, resp.CanRedo)

	resp, err = s.handleRedo(ctx, req, map[string]any{"session_id": "agent"})
	require.NoError(t, err)
	require.NotNil(t, resp.Action)
	assert.False(t, resp.CanRedo)

	resp, err = s.handleGetHistory(ctx, req, map[string]any{"session_id": "agent"})
	require.NoError(t, err)
	assert.Len(t, resp.History.Past, 2)
}

func TestTools_Validation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleRecordAction(ctx, req, map[string]any{"kind": "smooth"})
	assert.Error(t, err, "session_id is required")

	_, err = s.handleRecordAction(ctx, req, map[string]any{"session_id": "a", "kind": "melt"})
	assert.ErrorIs(t, err, domain.ErrUnknownActionKind)

	_, err = s.handleRecordAction(ctx, req, map[string]any{"session_id": "a", "kind": "boolean", "metadata": `{"mode": "xor"}`})
	assert.ErrorIs(t, err, domain.ErrInvalidBooleanMode)

	_, err = s.handleStartJob(ctx, req, map[string]any{"session_id": "a", "job": "render"})
	assert.ErrorIs(t, err, domain.ErrUnknownJobKind)

	_, err = s.handleStartJob(ctx, req, map[string]any{"session_id": "a", "job": "generation", "source": "text"})
	assert.ErrorIs(t, err, domain.ErrEmptyPrompt)
}

func TestTools_Jobs(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	resp, err := s.handleStartJob(ctx, req, map[string]any{
		"session_id": "agent",
		"job":        "generation",
		"prompt":     "a chrome robot",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.JobRunning, resp.Progress.Status)

	resp, err = s.handleGetProgress(ctx, req, map[string]any{"session_id": "agent", "job": "generation"})
	require.NoError(t, err)
	assert.True(t, resp.Progress.Active)

	resp, err = s.handleCancelJob(ctx, req, map[string]any{"session_id": "agent", "job": "generation"})
	require.NoError(t, err)
	assert.True(t, resp.Cancelled)
	assert.Equal(t, domain.JobCancelled, resp.Progress.Status)

	resp, err = s.handleCancelJob(ctx, req, map[string]any{"session_id": "agent", "job": "export"})
	require.NoError(t, err)
	assert.False(t, resp.Cancelled)
	assert.Equal(t, domain.JobIdle, resp.Progress.Status)
}

func TestServer_RegistersTools(t *testing.T) {
	s := newTestServer(t)
	tools := s.MCPServer().ListTools()
	for _, name := range []string{"record_action", "undo", "redo", "get_history", "start_job", "cancel_job", "get_progress"} {
		assert.Contains(t, tools, name)
	}
}
