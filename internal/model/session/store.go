package session

import (
	"context"
	"errors"

	"github.com/mentorlink/backend/internal/identity"
)

var (
	// ErrNotFound indicates the session id does not resolve to a record.
	ErrNotFound = errors.New("session not found")
	// ErrStatusConflict indicates a conditional write found the record in
	// a different status than the caller expected.
	ErrStatusConflict = errors.New("session status changed since read")
)

// Store is the persistence boundary for booking records. Transition
// writes are conditional on the expected prior status so that a record
// already past the required source state fails the write instead of
// being silently overwritten.
type Store interface {
	// Create persists a new record.
	Create(ctx context.Context, s *Session) error
	// FindByID returns the record with the given id or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Session, error)
	// UpdateIfStatus overwrites the record only while its persisted
	// status still equals expected; otherwise ErrStatusConflict.
	UpdateIfStatus(ctx context.Context, s *Session, expected Status) error
	// DeleteIfStatus removes the record only while its persisted status
	// still equals expected; otherwise ErrStatusConflict.
	DeleteIfStatus(ctx context.Context, id string, expected Status) error
	// ListByActor returns the sessions where the actor occupies the given
	// role slot, optionally filtered by status, newest first.
	ListByActor(ctx context.Context, actorID string, role identity.Role, status *Status) ([]*Session, error)
}
