package repo

import (
	"context"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
)

// SessionRepository defines the persistence interface for Session entities.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *entity.Session) error
	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*entity.Session, error)
	// Update updates an existing session.
	Update(ctx context.Context, session *entity.Session) error
	// Delete removes a session.
	Delete(ctx context.Context, id string) error
	// ListByUser returns all sessions for a given user.
	ListByUser(ctx context.Context, userID string) ([]*entity.Session, error)
}
