package booking

import (
	"context"
	"fmt"

	"github.com/mentorlink/backend/internal/identity"
	"github.com/mentorlink/backend/internal/model/session"
)

// ListByActorAndStatus returns the sessions where the actor occupies its
// own role slot, optionally filtered by status, newest first. Read-only;
// the only authorization is that an actor sees its own slot.
func (s *Service) ListByActorAndStatus(ctx context.Context, actor identity.Actor, status *session.Status) ([]*session.Session, error) {
	sessions, err := s.store.ListByActor(ctx, actor.ID, actor.Role, status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepository, err)
	}
	return sessions, nil
}

// Dashboard partitions an actor's sessions for dashboard views.
type Dashboard struct {
	Pending   []*session.Session `json:"pending"`
	Upcoming  []*session.Session `json:"upcoming"`
	Completed []*session.Session `json:"completed"`
}

// Dashboard returns the actor's sessions partitioned into pending
// requests, upcoming confirmed sessions and completed sessions.
func (s *Service) Dashboard(ctx context.Context, actor identity.Actor) (*Dashboard, error) {
	sessions, err := s.ListByActorAndStatus(ctx, actor, nil)
	if err != nil {
		return nil, err
	}

	now := s.now()
	board := &Dashboard{
		Pending:   make([]*session.Session, 0),
		Upcoming:  make([]*session.Session, 0),
		Completed: make([]*session.Session, 0),
	}
	for _, sess := range sessions {
		switch {
		case sess.Status == session.StatusPending:
			board.Pending = append(board.Pending, sess)
		case sess.IsUpcoming(now):
			board.Upcoming = append(board.Upcoming, sess)
		case sess.Status == session.StatusCompleted:
			board.Completed = append(board.Completed, sess)
		}
	}
	return board, nil
}

// Get returns a single session, visible only to its own student or mentor.
func (s *Service) Get(ctx context.Context, actor identity.Actor, id string) (*session.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	var owner string
	switch actor.Role {
	case identity.RoleStudent:
		owner = sess.StudentID
	case identity.RoleMentor:
		owner = sess.MentorID
	default:
		return nil, ErrForbidden
	}
	if owner != actor.ID {
		return nil, ErrForbidden
	}
	return sess, nil
}
