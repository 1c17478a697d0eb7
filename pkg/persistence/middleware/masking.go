package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
)

// Mask replaces values whose key matches one of the masking patterns.
const Mask = "***"

// DefaultMaskPatterns hide the free-text prompt from persisted documents.
var DefaultMaskPatterns = []string{"(?i)prompt"}

type maskingMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// NewMaskingMiddleware creates a middleware that masks action metadata values
// whose keys match the patterns. When a pattern matches "prompt" the
// document's generation prompt is masked too.
func NewMaskingMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &maskingMiddleware{next: next, patterns: patterns}
	}
}

func (m *maskingMiddleware) Save(ctx context.Context, sessionID string, doc *domain.Document) error {
	// Work on a copy so the caller's in-memory document keeps the real values.
	masked := doc.Clone()

	if masked.AIParams.Prompt != "" && m.matches("prompt") {
		masked.AIParams.Prompt = Mask
	}
	m.maskActions(masked.History.Past)
	m.maskActions(masked.History.Future)

	return m.next.Save(ctx, sessionID, masked)
}

func (m *maskingMiddleware) Load(ctx context.Context, sessionID string) (*domain.Document, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *maskingMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *maskingMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *maskingMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (m *maskingMiddleware) maskActions(actions []domain.Action) {
	for _, a := range actions {
		m.maskMap(a.Metadata)
	}
}

func (m *maskingMiddleware) maskMap(meta map[string]any) {
	for k, v := range meta {
		if m.matches(k) {
			meta[k] = Mask
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			m.maskMap(sub)
		}
	}
}
