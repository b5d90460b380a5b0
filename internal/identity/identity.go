package identity

import (
	"context"
	"errors"
	"strings"
)

// Role distinguishes the two participant kinds. Every core operation
// dispatches on it exhaustively; there is no third variant.
type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
)

// ParseRole normalizes a raw role string from the caller.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleMentor:
		return RoleMentor, true
	default:
		return "", false
	}
}

// Actor is an authenticated participant, resolved by the surrounding
// platform before it calls into the booking core. Passed by value; the
// core holds no per-actor state.
type Actor struct {
	ID   string
	Role Role
}

// Profile carries the display attributes the directory knows about a user.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

var ErrProfileNotFound = errors.New("profile not found")

// Directory resolves user ids to display profiles. Lookups are
// best-effort callers: a failed lookup must never block a booking write.
type Directory interface {
	Lookup(ctx context.Context, id string) (Profile, error)
}

// MemoryDirectory implements Directory with an in-memory map, suitable
// for tests and for running without an upstream identity service.
type MemoryDirectory struct {
	profiles map[string]Profile
}

// NewMemoryDirectory returns a MemoryDirectory preloaded with the
// supplied profiles.
func NewMemoryDirectory(profiles []Profile) *MemoryDirectory {
	m := &MemoryDirectory{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		m.profiles[p.ID] = p
	}
	return m
}

// Lookup returns the profile for the given user id.
func (d *MemoryDirectory) Lookup(_ context.Context, id string) (Profile, error) {
	p, ok := d.profiles[id]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}
