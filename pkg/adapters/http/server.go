// Package http exposes a Studio over a JSON API with server-sent events.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/atelier"
	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/sanitize"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Studio is the part of atelier.Studio served over HTTP.
type Studio interface {
	Open(ctx context.Context, sessionID string) (*domain.Document, error)
	Document(ctx context.Context, sessionID string) (*domain.Document, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)

	Record(ctx context.Context, sessionID string, action domain.Action) (domain.History, error)
	Undo(ctx context.Context, sessionID string) (atelier.Step, error)
	Redo(ctx context.Context, sessionID string) (atelier.Step, error)
	History(ctx context.Context, sessionID string) (domain.History, error)

	NewProject(ctx context.Context, sessionID string) error
	SetTool(ctx context.Context, sessionID, tool string) error
	SetPrompt(ctx context.Context, sessionID, prompt string) error
	SetAIParams(ctx context.Context, sessionID string, params domain.AIParams) error
	SetImageParams(ctx context.Context, sessionID string, params domain.ImageParams) error
	SetExportOptions(ctx context.Context, sessionID string, opts domain.ExportOptions) error

	StartJob(ctx context.Context, sessionID string, kind domain.JobKind, source domain.GenerationSource) error
	CancelJob(sessionID string, kind domain.JobKind) (bool, error)
	Progress(sessionID string, kind domain.JobKind) (domain.Progress, error)
	Subscribe(sessionID string) (<-chan domain.Event, func())
}

var _ Studio = (*atelier.Studio)(nil)

// Server serves the studio API.
type Server struct {
	Studio  Studio
	logger  *slog.Logger
	metrics prometheus.Gatherer
	appName string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics serves gatherer on GET /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = gatherer
	}
}

// WithAppName sets the app reported by GET /info.
func WithAppName(name string) Option {
	return func(s *Server) {
		s.appName = name
	}
}

// NewHandler creates the HTTP handler for the studio.
func NewHandler(studio Studio, opts ...Option) http.Handler {
	s := &Server{
		Studio:  studio,
		logger:  logging.NewNop(),
		appName: "atelier-http",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.OpenSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Patch("/", s.UpdateSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/new-project", s.NewProject)

			r.Post("/actions", s.RecordAction)
			r.Post("/undo", s.Undo)
			r.Post("/redo", s.Redo)
			r.Get("/history", s.GetHistory)

			r.Get("/jobs/{kind}", s.GetProgress)
			r.Post("/jobs/{kind}", s.StartJob)
			r.Delete("/jobs/{kind}", s.CancelJob)

			r.Get("/events", s.SubscribeEvents)
		})
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := GetSpec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	} else if err != nil {
		s.logger.Error("Failed to load OpenAPI spec", "err", err)
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         s.appName,
		"version":     atelier.Version,
		"api_version": apiVersion,
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Studio.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

type openRequest struct {
	SessionID string `json:"session_id"`
}

// OpenSession handles POST /sessions.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	var body openRequest
	if !s.decodeOptional(w, r, &body) {
		return
	}
	id, err := sanitize.Line(body.SessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	doc, err := s.Studio.Open(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Studio.Document(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

type updateRequest struct {
	Tool          *string               `json:"tool"`
	Prompt        *string               `json:"prompt"`
	AIParams      *domain.AIParams      `json:"ai_params"`
	ImageParams   *domain.ImageParams   `json:"image_params"`
	ExportOptions *domain.ExportOptions `json:"export_options"`
}

// UpdateSession handles PATCH /sessions/{id}.
func (s *Server) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body updateRequest
	if !s.decode(w, r, &body) {
		return
	}

	ctx := r.Context()
	if body.Tool != nil {
		if err := s.Studio.SetTool(ctx, id, *body.Tool); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if body.AIParams != nil {
		if err := s.Studio.SetAIParams(ctx, id, *body.AIParams); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if body.Prompt != nil {
		if err := s.Studio.SetPrompt(ctx, id, *body.Prompt); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if body.ImageParams != nil {
		if err := s.Studio.SetImageParams(ctx, id, *body.ImageParams); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if body.ExportOptions != nil {
		if err := s.Studio.SetExportOptions(ctx, id, *body.ExportOptions); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.GetSession(w, r)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Studio.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NewProject handles POST /sessions/{id}/new-project.
func (s *Server) NewProject(w http.ResponseWriter, r *http.Request) {
	if err := s.Studio.NewProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.GetSession(w, r)
}

type recordRequest struct {
	Kind     string         `json:"kind"`
	Metadata map[string]any `json:"metadata"`
}

// RecordAction handles POST /sessions/{id}/actions.
func (s *Server) RecordAction(w http.ResponseWriter, r *http.Request) {
	var body recordRequest
	if !s.decode(w, r, &body) {
		return
	}

	action, err := actionFromRequest(body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	h, err := s.Studio.Record(r.Context(), chi.URLParam(r, "id"), action)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, h)
}

func actionFromRequest(body recordRequest) (domain.Action, error) {
	kind, err := domain.ParseActionKind(body.Kind)
	if err != nil {
		return domain.Action{}, err
	}
	if kind == domain.ActionBoolean {
		var p domain.BooleanParams
		if err := domain.DecodeParams(domain.Action{Metadata: body.Metadata}, &p); err != nil {
			return domain.Action{}, err
		}
		return domain.Boolean(p.Mode)
	}
	return domain.NewAction(kind, body.Metadata), nil
}

// Undo handles POST /sessions/{id}/undo.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	step, err := s.Studio.Undo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, step)
}

// Redo handles POST /sessions/{id}/redo.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	step, err := s.Studio.Redo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, step)
}

// GetHistory handles GET /sessions/{id}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.Studio.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, h)
}

type jobRequest struct {
	Source string  `json:"source"`
	Prompt *string `json:"prompt"`
}

// StartJob handles POST /sessions/{id}/jobs/{kind}.
func (s *Server) StartJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	kind, err := domain.ParseJobKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var body jobRequest
	if !s.decodeOptional(w, r, &body) {
		return
	}

	source := domain.GenerationSource(body.Source)
	if source != "" && source != domain.SourceText && source != domain.SourceImage {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown generation source"})
		return
	}
	if body.Prompt != nil {
		if err := s.Studio.SetPrompt(r.Context(), id, *body.Prompt); err != nil {
			s.writeError(w, err)
			return
		}
	}

	if err := s.Studio.StartJob(r.Context(), id, kind, source); err != nil {
		s.writeError(w, err)
		return
	}

	p, err := s.Studio.Progress(id, kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, p)
}

// CancelJob handles DELETE /sessions/{id}/jobs/{kind}.
func (s *Server) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	kind := domain.JobKind(chi.URLParam(r, "kind"))

	if _, err := s.Studio.CancelJob(id, kind); err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.Studio.Progress(id, kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// GetProgress handles GET /sessions/{id}/jobs/{kind}.
func (s *Server) GetProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.Studio.Progress(chi.URLParam(r, "id"), domain.JobKind(chi.URLParam(r, "kind")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	return s.decodeBody(w, r, out, false)
}

// decodeOptional accepts an empty body, chunked or not.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.ContentLength == 0 {
		return true
	}
	return s.decodeBody(w, r, out, true)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, out any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(out)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	return false
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownActionKind),
		errors.Is(err, domain.ErrInvalidBooleanMode),
		errors.Is(err, domain.ErrEmptyPrompt),
		errors.Is(err, domain.ErrUnknownJobKind),
		errors.Is(err, domain.ErrInvalidParams),
		errors.Is(err, sanitize.ErrInputTooLarge),
		errors.Is(err, sanitize.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, atelier.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
