// Package mcp exposes a Studio as Model Context Protocol tools, so agents
// can drive the edit timeline and the jobs of a session.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/atelier"
	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Studio is the part of atelier.Studio exposed to agents.
type Studio interface {
	Open(ctx context.Context, sessionID string) (*domain.Document, error)
	List(ctx context.Context) ([]string, error)
	Record(ctx context.Context, sessionID string, action domain.Action) (domain.History, error)
	Undo(ctx context.Context, sessionID string) (atelier.Step, error)
	Redo(ctx context.Context, sessionID string) (atelier.Step, error)
	History(ctx context.Context, sessionID string) (domain.History, error)
	SetPrompt(ctx context.Context, sessionID, prompt string) error
	StartJob(ctx context.Context, sessionID string, kind domain.JobKind, source domain.GenerationSource) error
	CancelJob(sessionID string, kind domain.JobKind) (bool, error)
	Progress(sessionID string, kind domain.JobKind) (domain.Progress, error)
}

var _ Studio = (*atelier.Studio)(nil)

// HistoryResponse is returned by the timeline tools.
type HistoryResponse struct {
	Action  *domain.Action `json:"action,omitempty" jsonschema_description:"The action moved by undo or redo, absent on a no-op"`
	History domain.History `json:"history" jsonschema_description:"Applied (past) and undone (future) actions"`
	CanUndo bool           `json:"can_undo"`
	CanRedo bool           `json:"can_redo"`
}

// ProgressResponse is returned by the job tools.
type ProgressResponse struct {
	Progress  domain.Progress `json:"progress"`
	Cancelled bool            `json:"cancelled,omitempty" jsonschema_description:"Whether cancel_job stopped a running job"`
}

// Server wraps a Studio and exposes it as an MCP server.
type Server struct {
	studio    Studio
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(studio Studio, opts ...Option) *Server {
	s := &Server{
		studio:    studio,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("atelier-mcp", atelier.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	session := mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to operate on; created on first use"))

	s.mcpServer.AddTool(mcp.NewTool("record_action",
		mcp.WithDescription("Record an edit action. Recording discards every undone action."),
		session,
		mcp.WithString("kind", mcp.Required(), mcp.Description("Action kind, e.g. smooth, subdivide, boolean, create-bone")),
		mcp.WithString("metadata", mcp.Description("JSON object of kind-specific metadata, e.g. {\"mode\":\"union\"}")),
		mcp.WithOutputSchema[HistoryResponse](),
	), mcp.NewStructuredToolHandler(s.handleRecordAction))

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the most recent action. A no-op when there is nothing to undo."),
		session,
		mcp.WithOutputSchema[HistoryResponse](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the most recently undone action. A no-op when there is nothing to redo."),
		session,
		mcp.WithOutputSchema[HistoryResponse](),
	), mcp.NewStructuredToolHandler(s.handleRedo))

	s.mcpServer.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("Get the edit history of a session."),
		session,
		mcp.WithOutputSchema[HistoryResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetHistory))

	job := mcp.WithString("job", mcp.Required(), mcp.Enum(string(domain.JobGeneration), string(domain.JobExport)))

	s.mcpServer.AddTool(mcp.NewTool("start_job",
		mcp.WithDescription("Start a generation or export job. Text generation needs a prompt."),
		session,
		job,
		mcp.WithString("source", mcp.Enum(string(domain.SourceText), string(domain.SourceImage)), mcp.Description("Generation source (default text)")),
		mcp.WithString("prompt", mcp.Description("Prompt for text generation")),
		mcp.WithOutputSchema[ProgressResponse](),
	), mcp.NewStructuredToolHandler(s.handleStartJob))

	s.mcpServer.AddTool(mcp.NewTool("cancel_job",
		mcp.WithDescription("Cancel a job and reset its progress. Safe when nothing is running."),
		session,
		job,
		mcp.WithOutputSchema[ProgressResponse](),
	), mcp.NewStructuredToolHandler(s.handleCancelJob))

	s.mcpServer.AddTool(mcp.NewTool("get_progress",
		mcp.WithDescription("Get the progress of a job."),
		session,
		job,
		mcp.WithOutputSchema[ProgressResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetProgress))
}

func historyResponse(action *domain.Action, h domain.History) HistoryResponse {
	return HistoryResponse{Action: action, History: h, CanUndo: h.CanUndo(), CanRedo: h.CanRedo()}
}

// open returns the session ID argument, creating the session if needed.
func (s *Server) open(ctx context.Context, args map[string]any) (string, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		return "", fmt.Errorf("session_id is required")
	}
	if _, err := s.studio.Open(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Server) handleRecordAction(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (HistoryResponse, error) {
	id, err := s.open(ctx, args)
	if err != nil {
		return HistoryResponse{}, err
	}

	rawKind, _ := args["kind"].(string)
	kind, err := domain.ParseActionKind(rawKind)
	if err != nil {
		return HistoryResponse{}, err
	}

	var meta map[string]any
	if raw, ok := args["metadata"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return HistoryResponse{}, fmt.Errorf("metadata is not a JSON object: %w", err)
		}
	}

	action := domain.NewAction(kind, meta)
	if kind == domain.ActionBoolean {
		var p domain.BooleanParams
		if err := domain.DecodeParams(action, &p); err != nil {
			return HistoryResponse{}, err
		}
		if action, err = domain.Boolean(p.Mode); err != nil {
			return HistoryResponse{}, err
		}
	}

	h, err := s.studio.Record(ctx, id, action)
	if err != nil {
		return HistoryResponse{}, fmt.Errorf("record failed: %w", err)
	}
	s.logger.Debug("MCP: action recorded", "session_id", id, "kind", kind)
	return historyResponse(nil, h), nil
}

func (s *Server) handleUndo(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (HistoryResponse, error) {
	id, err := s.open(ctx, args)
	if err != nil {
		return HistoryResponse{}, err
	}
	step, err := s.studio.Undo(ctx, id)
	if err != nil {
		return HistoryResponse{}, fmt.Errorf("undo failed: %w", err)
	}
	return historyResponse(step.Action, step.History), nil
}

func (s *Server) handleRedo(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (HistoryResponse, error) {
	id, err := s.open(ctx, args)
	if err != nil {
		return HistoryResponse{}, err
	}
	step, err := s.studio.Redo(ctx, id)
	if err != nil {
		return HistoryResponse{}, fmt.Errorf("redo failed: %w", err)
	}
	return historyResponse(step.Action, step.History), nil
}

func (s *Server) handleGetHistory(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (HistoryResponse, error) {
	id, err := s.open(ctx, args)
	if err != nil {
		return HistoryResponse{}, err
	}
	h, err := s.studio.History(ctx, id)
	if err != nil {
		return HistoryResponse{}, err
	}
	return historyResponse(nil, h), nil
}

func jobKind(args map[string]any) (domain.JobKind, error) {
	raw, _ := args["job"].(string)
	return domain.ParseJobKind(raw)
}

func (s *Server) handleStartJob(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (ProgressResponse, error) {
	id, err := s.open(ctx, args)
	if err != nil {
		return ProgressResponse{}, err
	}
	kind, err := jobKind(args)
	if err != nil {
		return ProgressResponse{}, err
	}

	if prompt, ok := args["prompt"].(string); ok && prompt != "" {
		if err := s.studio.SetPrompt(ctx, id, prompt); err != nil {
			return ProgressResponse{}, err
		}
	}
	source, _ := args["source"].(string)

	if err := s.studio.StartJob(ctx, id, kind, domain.GenerationSource(source)); err != nil {
		return ProgressResponse{}, fmt.Errorf("start failed: %w", err)
	}
	p, err := s.studio.Progress(id, kind)
	if err != nil {
		return ProgressResponse{}, err
	}
	return ProgressResponse{Progress: p}, nil
}

func (s *Server) handleCancelJob(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (ProgressResponse, error) {
	id, err := s.open(ctx, args)
	if err != nil {
		return ProgressResponse{}, err
	}
	kind, err := jobKind(args)
	if err != nil {
		return ProgressResponse{}, err
	}

	cancelled, err := s.studio.CancelJob(id, kind)
	if err != nil {
		return ProgressResponse{}, err
	}
	p, err := s.studio.Progress(id, kind)
	if err != nil {
		return ProgressResponse{}, err
	}
	return ProgressResponse{Progress: p, Cancelled: cancelled}, nil
}

func (s *Server) handleGetProgress(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (ProgressResponse, error) {
	id, err := s.open(ctx, args)
	if err != nil {
		return ProgressResponse{}, err
	}
	kind, err := jobKind(args)
	if err != nil {
		return ProgressResponse{}, err
	}
	p, err := s.studio.Progress(id, kind)
	if err != nil {
		return ProgressResponse{}, err
	}
	return ProgressResponse{Progress: p}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("atelier://sessions", "Stored sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.studio.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "atelier://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
