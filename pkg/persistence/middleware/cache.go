package middleware

import (
	"context"
	"errors"

	"github.com/aretw0/atelier/pkg/adapters/memory"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
)

type cacheMiddleware struct {
	next  ports.DocumentStore
	local *memory.Store
}

// NewCacheMiddleware keeps a process-local copy of every document that goes
// through it. Loads are served from that copy and fall back to the wrapped
// store on a miss.
//
// Placed in front of NewMaskingMiddleware it lets live sessions keep their
// real values while only the masked form reaches the backing store. Masking
// stays lossy at rest: after a restart the masked values are what loads.
// The cache assumes this process is the only writer of its sessions.
func NewCacheMiddleware() Middleware {
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &cacheMiddleware{next: next, local: memory.NewStore()}
	}
}

// Save writes through: the local copy is refreshed only once the wrapped
// store accepted the document.
func (c *cacheMiddleware) Save(ctx context.Context, sessionID string, doc *domain.Document) error {
	if err := c.next.Save(ctx, sessionID, doc); err != nil {
		return err
	}
	return c.local.Save(ctx, sessionID, doc)
}

func (c *cacheMiddleware) Load(ctx context.Context, sessionID string) (*domain.Document, error) {
	doc, err := c.local.Load(ctx, sessionID)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}
	return c.next.Load(ctx, sessionID)
}

func (c *cacheMiddleware) Delete(ctx context.Context, sessionID string) error {
	if err := c.next.Delete(ctx, sessionID); err != nil {
		return err
	}
	return c.local.Delete(ctx, sessionID)
}

func (c *cacheMiddleware) List(ctx context.Context) ([]string, error) {
	return c.next.List(ctx)
}
