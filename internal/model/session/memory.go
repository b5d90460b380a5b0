package session

import (
	"context"
	"sort"
	"sync"

	"github.com/mentorlink/backend/internal/identity"
)

// MemoryStore implements Store with a mutex-guarded map. Records are
// copied on the way in and out so callers never share memory with the
// store. Suitable for tests and single-process deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Create persists a new record.
func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

// FindByID returns a copy of the record with the given id.
func (m *MemoryStore) FindByID(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &stored, nil
}

// UpdateIfStatus overwrites the record while its status equals expected.
func (m *MemoryStore) UpdateIfStatus(_ context.Context, s *Session, expected Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != expected {
		return ErrStatusConflict
	}
	m.sessions[s.ID] = *s
	return nil
}

// DeleteIfStatus removes the record while its status equals expected.
func (m *MemoryStore) DeleteIfStatus(_ context.Context, id string, expected Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != expected {
		return ErrStatusConflict
	}
	delete(m.sessions, id)
	return nil
}

// ListByActor returns the actor's sessions for the given role slot,
// optionally filtered by status, ordered by creation time descending.
func (m *MemoryStore) ListByActor(_ context.Context, actorID string, role identity.Role, status *Status) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]*Session, 0)
	for _, stored := range m.sessions {
		var owner string
		switch role {
		case identity.RoleStudent:
			owner = stored.StudentID
		case identity.RoleMentor:
			owner = stored.MentorID
		default:
			continue
		}
		if owner != actorID {
			continue
		}
		if status != nil && stored.Status != *status {
			continue
		}
		copied := stored
		matches = append(matches, &copied)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})
	return matches, nil
}
