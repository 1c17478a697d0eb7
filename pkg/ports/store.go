package ports

import (
	"context"

	"github.com/aretw0/atelier/pkg/domain"
)

// DocumentStore defines the interface for persisting session documents.
// The default backend keeps documents in memory for the lifetime of the
// process; durable backends let a server survive restarts.
type DocumentStore interface {
	// Save persists the document for a given session ID.
	Save(ctx context.Context, sessionID string, doc *domain.Document) error

	// Load retrieves the document for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Document, error)

	// Delete removes the document for a given session ID.
	// Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
