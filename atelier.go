package atelier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/atelier/internal/logging"
	"github.com/aretw0/atelier/internal/runtime"
	"github.com/aretw0/atelier/pkg/adapters/memory"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
	"github.com/aretw0/atelier/pkg/progress"
	"github.com/aretw0/atelier/pkg/sanitize"
	"github.com/aretw0/atelier/pkg/session"
	"github.com/google/uuid"
)

// ErrClosed is returned by operations on a closed Studio.
var ErrClosed = errors.New("studio is closed")

// Studio is the high-level entry point of the library.
// It owns the sessions, applies edits through the runtime engine and runs
// the progress jobs of every session. Safe for concurrent use.
type Studio struct {
	sessions *session.Manager
	engine   *runtime.Engine
	streams  *streamManager
	logger   *slog.Logger

	store   ports.DocumentStore
	locker  ports.DistributedLocker
	hooks   domain.LifecycleHooks
	limit   int
	genCfg  progress.Config
	expCfg  progress.Config
	lockTTL time.Duration

	rndMu sync.Mutex
	rnd   *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	jobs   map[string]*sessionJobs
	closed bool
}

// Option defines a functional option for configuring the Studio.
type Option func(*Studio)

// WithStore sets the document store (default: in-memory).
func WithStore(store ports.DocumentStore) Option {
	return func(s *Studio) {
		s.store = store
	}
}

// WithLocker enables distributed locking of sessions.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Studio) {
		s.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed session locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Studio) {
		s.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Studio) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
// Repeated calls add to the hooks already registered.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Studio) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithHistoryLimit caps the undoable actions per session. Zero means unlimited.
func WithHistoryLimit(n int) Option {
	return func(s *Studio) {
		s.limit = n
	}
}

// WithGenerationConfig overrides the timing of generation jobs.
func WithGenerationConfig(cfg progress.Config) Option {
	return func(s *Studio) {
		s.genCfg = cfg
	}
}

// WithExportConfig overrides the timing of export jobs.
func WithExportConfig(cfg progress.Config) Option {
	return func(s *Studio) {
		s.expCfg = cfg
	}
}

// WithRand seeds the random sources of every job from r, making job
// increments reproducible.
func WithRand(r *rand.Rand) Option {
	return func(s *Studio) {
		s.rnd = r
	}
}

// New creates a Studio.
func New(opts ...Option) *Studio {
	s := &Studio{
		logger:  logging.NewNop(),
		genCfg:  progress.GenerationConfig(),
		expCfg:  progress.ExportConfig(),
		streams: newStreamManager(),
		jobs:    make(map[string]*sessionJobs),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = memory.NewStore()
	}

	sessionOpts := []session.Option{session.WithLogger(s.logger)}
	if s.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(s.locker))
	}
	if s.lockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLockTTL(s.lockTTL))
	}
	s.sessions = session.NewManager(s.store, sessionOpts...)

	s.engine = runtime.NewEngine(
		runtime.WithLogger(s.logger),
		runtime.WithLifecycleHooks(s.hooks),
		runtime.WithHistoryLimit(s.limit),
	)

	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Sessions exposes the session manager, e.g. to share its store.
func (s *Studio) Sessions() *session.Manager {
	return s.sessions
}

func (s *Studio) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Open loads a session, creating it with an empty history if it does not
// exist. An empty sessionID allocates a new one.
func (s *Studio) Open(ctx context.Context, sessionID string) (*domain.Document, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	doc, err := s.sessions.LoadOrStart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to open session %q: %w", sessionID, err)
	}
	s.logger.Info("Session opened", "session_id", sessionID, "past", len(doc.History.Past), "future", len(doc.History.Future))
	return doc, nil
}

// Document returns the current document of a session.
func (s *Studio) Document(ctx context.Context, sessionID string) (*domain.Document, error) {
	return s.sessions.Load(ctx, sessionID)
}

// Delete cancels the jobs of the session and removes it from the store.
func (s *Studio) Delete(ctx context.Context, sessionID string) error {
	s.dropJobs(sessionID)
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	// A job started while the store delete was in flight.
	s.dropJobs(sessionID)
	s.logger.Info("Session deleted", "session_id", sessionID)
	return nil
}

func (s *Studio) dropJobs(sessionID string) {
	s.mu.Lock()
	jobs := s.jobs[sessionID]
	delete(s.jobs, sessionID)
	s.mu.Unlock()

	if jobs != nil {
		jobs.cancelAll()
	}
}

// List returns the IDs of the stored sessions.
func (s *Studio) List(ctx context.Context) ([]string, error) {
	return s.sessions.List(ctx)
}

// History returns the edit timeline of a session.
func (s *Studio) History(ctx context.Context, sessionID string) (domain.History, error) {
	doc, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return domain.History{}, err
	}
	return doc.History, nil
}

// Step is the outcome of an undo or redo.
// Action is nil when there was nothing to move.
type Step struct {
	Action  *domain.Action `json:"action,omitempty"`
	History domain.History `json:"history"`
}

// Record appends an action to the session history and discards the redo trail.
// String metadata is sanitized before it is stored.
func (s *Studio) Record(ctx context.Context, sessionID string, action domain.Action) (domain.History, error) {
	if action.Kind == "" {
		return domain.History{}, fmt.Errorf("%w: empty kind", domain.ErrUnknownActionKind)
	}
	meta, err := sanitize.Metadata(action.Metadata)
	if err != nil {
		return domain.History{}, fmt.Errorf("invalid action metadata: %w", err)
	}
	action.Metadata = meta

	var ev *domain.HistoryEvent
	doc, err := s.update(ctx, sessionID, domain.EventRecord, func(doc *domain.Document) error {
		ev = s.engine.Record(ctx, doc, action)
		return nil
	})
	if err != nil {
		return domain.History{}, err
	}
	s.engine.Emit(ctx, ev)
	return doc.History, nil
}

// Undo moves the most recent action to the redo trail.
// It is a no-op when there is nothing to undo.
func (s *Studio) Undo(ctx context.Context, sessionID string) (Step, error) {
	return s.step(ctx, sessionID, domain.EventUndo, s.engine.Undo)
}

// Redo reapplies the most recently undone action.
// It is a no-op when there is nothing to redo.
func (s *Studio) Redo(ctx context.Context, sessionID string) (Step, error) {
	return s.step(ctx, sessionID, domain.EventRedo, s.engine.Redo)
}

func (s *Studio) step(ctx context.Context, sessionID string, typ domain.EventType, move func(context.Context, *domain.Document) *domain.HistoryEvent) (Step, error) {
	var ev *domain.HistoryEvent
	doc, err := s.update(ctx, sessionID, typ, func(doc *domain.Document) error {
		ev = move(ctx, doc)
		if ev == nil {
			return session.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return Step{}, err
	}
	if ev == nil {
		return Step{History: doc.History}, nil
	}
	s.engine.Emit(ctx, ev)
	action := ev.Action
	return Step{Action: &action, History: doc.History}, nil
}

// NewProject resets the project name. The history is kept.
func (s *Studio) NewProject(ctx context.Context, sessionID string) error {
	_, err := s.update(ctx, sessionID, domain.EventUpdate, func(doc *domain.Document) error {
		doc.NewProject()
		return nil
	})
	return err
}

// SetTool selects the active tool panel.
func (s *Studio) SetTool(ctx context.Context, sessionID, tool string) error {
	clean, err := sanitize.Line(tool)
	if err != nil {
		return err
	}
	_, err = s.update(ctx, sessionID, domain.EventUpdate, func(doc *domain.Document) error {
		doc.Tool = clean
		return nil
	})
	return err
}

// SetPrompt stores the text-to-3D prompt after sanitizing it.
func (s *Studio) SetPrompt(ctx context.Context, sessionID, prompt string) error {
	clean, err := sanitize.Text(prompt)
	if err != nil {
		return err
	}
	_, err = s.update(ctx, sessionID, domain.EventUpdate, func(doc *domain.Document) error {
		doc.AIParams.Prompt = strings.TrimSpace(clean)
		return nil
	})
	return err
}

// SetAIParams replaces the text-to-3D settings of the session.
// The prompt and style are sanitized like SetPrompt and SetTool do.
func (s *Studio) SetAIParams(ctx context.Context, sessionID string, params domain.AIParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	prompt, err := sanitize.Text(params.Prompt)
	if err != nil {
		return err
	}
	style, err := sanitize.Line(params.Style)
	if err != nil {
		return err
	}
	params.Prompt = strings.TrimSpace(prompt)
	params.Style = style
	_, err = s.update(ctx, sessionID, domain.EventUpdate, func(doc *domain.Document) error {
		doc.AIParams = params
		return nil
	})
	return err
}

// SetImageParams replaces the image-to-3D settings of the session.
func (s *Studio) SetImageParams(ctx context.Context, sessionID string, params domain.ImageParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	_, err := s.update(ctx, sessionID, domain.EventUpdate, func(doc *domain.Document) error {
		doc.ImageParams = params
		return nil
	})
	return err
}

// SetExportOptions replaces the export settings of the session.
func (s *Studio) SetExportOptions(ctx context.Context, sessionID string, opts domain.ExportOptions) error {
	_, err := s.update(ctx, sessionID, domain.EventUpdate, func(doc *domain.Document) error {
		doc.ExportOptions = opts
		return nil
	})
	return err
}

// update runs fn under the session lock and broadcasts the resulting diff.
func (s *Studio) update(ctx context.Context, sessionID string, typ domain.EventType, fn func(*domain.Document) error) (*domain.Document, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var before *domain.Document
	doc, err := s.sessions.Update(ctx, sessionID, func(doc *domain.Document) error {
		before = doc.Clone()
		return fn(doc)
	})
	if err != nil {
		return nil, err
	}

	if diff := domain.Diff(before, doc); diff != nil {
		s.streams.Broadcast(sessionID, domain.Event{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, SessionID: sessionID},
			Diff:      diff,
		})
	}
	return doc, nil
}

// Subscribe streams the edits and job progress of a session.
// The returned function must be called to release the subscription.
func (s *Studio) Subscribe(sessionID string) (<-chan domain.Event, func()) {
	return s.streams.Subscribe(sessionID)
}

// Close cancels every running job. The Studio cannot be used afterwards.
func (s *Studio) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	jobs := s.jobs
	s.jobs = make(map[string]*sessionJobs)
	s.mu.Unlock()

	for _, j := range jobs {
		j.cancelAll()
	}
	s.cancel()
	s.streams.CloseAll()
	return nil
}
