package ports

import (
	"context"

	"github.com/aretw0/dealreg/pkg/domain"
)

// DraftStore defines the interface for persisting wizard sessions.
// This allows an interrupted session to be resumed later.
type DraftStore interface {
	// Save persists the snapshot for a given session ID, replacing any previous one.
	Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns all persisted session IDs.
	List(ctx context.Context) ([]string, error)
}
