// Package booking implements the session lifecycle engine: every state
// transition a booking record can make, with its role/ownership guards
// and side-effect fields. The engine is stateless; all state lives in
// the session store and each operation is a single read-modify-write
// conditioned on the status observed at read time.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mentorlink/backend/internal/identity"
	"github.com/mentorlink/backend/internal/model/session"
)

// Service applies lifecycle transitions against the session store.
type Service struct {
	store     session.Store
	directory identity.Directory
	now       func() time.Time
}

// NewService wires the engine to its store and identity directory.
func NewService(store session.Store, directory identity.Directory) *Service {
	return &Service{
		store:     store,
		directory: directory,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RequestInput carries the student's booking request.
type RequestInput struct {
	MentorID string
	Subject  string
	Date     string
	Time     string
	Notes    string
	Message  string
}

// RescheduleInput carries the mentor's new slot and reason.
type RescheduleInput struct {
	Date   string
	Time   string
	Reason string
}

// CompleteInput carries the mentor's completion report.
type CompleteInput struct {
	Notes         string
	Duration      *int
	TopicsCovered string
	Homework      string
}

// EditInput carries the student's revised request fields.
type EditInput struct {
	Subject string
	Date    string
	Time    string
	Notes   string
}

// FeedbackInput carries the student's post-session feedback.
type FeedbackInput struct {
	Rating   int
	Feedback string
	GoalsMet bool
}

// Request creates a pending session between the acting student and the
// given mentor. Display names for both parties are resolved best-effort;
// a directory failure never blocks the write.
func (s *Service) Request(ctx context.Context, actor identity.Actor, in RequestInput) (*session.Session, error) {
	if actor.Role != identity.RoleStudent {
		return nil, ErrForbidden
	}
	mentorID := strings.TrimSpace(in.MentorID)
	if mentorID == "" {
		return nil, invalidField("mentorId", "required")
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, invalidField("subject", "required")
	}
	date := strings.TrimSpace(in.Date)
	if date == "" {
		return nil, invalidField("date", "required")
	}
	timeOfDay := strings.TrimSpace(in.Time)
	if timeOfDay == "" {
		return nil, invalidField("time", "required")
	}

	now := s.now()
	sess := &session.Session{
		ID:        uuid.NewString(),
		StudentID: actor.ID,
		MentorID:  mentorID,
		Subject:   subject,
		Date:      date,
		Time:      timeOfDay,
		Status:    session.StatusPending,
		Notes:     strings.TrimSpace(in.Notes),
		Message:   strings.TrimSpace(in.Message),
		GoalsMet:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sess.StudentName = s.lookupName(ctx, actor.ID)
	sess.MentorName = s.lookupName(ctx, mentorID)

	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepository, err)
	}
	return sess, nil
}

// Accept moves a pending session to confirmed and stamps acceptedAt.
func (s *Service) Accept(ctx context.Context, actor identity.Actor, id string) (*session.Session, error) {
	sess, err := s.loadOwnedByMentor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != session.StatusPending {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	sess.Status = session.StatusConfirmed
	sess.AcceptedAt = &now
	sess.UpdatedAt = now
	return s.persistTransition(ctx, sess, session.StatusPending)
}

// Reject moves a pending session to rejected and stamps rejectedAt.
func (s *Service) Reject(ctx context.Context, actor identity.Actor, id string) (*session.Session, error) {
	sess, err := s.loadOwnedByMentor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != session.StatusPending {
		return nil, ErrInvalidTransition
	}

	now := s.now()
	sess.Status = session.StatusRejected
	sess.RejectedAt = &now
	sess.UpdatedAt = now
	return s.persistTransition(ctx, sess, session.StatusPending)
}

// Reschedule overwrites the slot of a pending or confirmed session and
// leaves it confirmed.
func (s *Service) Reschedule(ctx context.Context, actor identity.Actor, id string, in RescheduleInput) (*session.Session, error) {
	sess, err := s.loadOwnedByMentor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !sess.CanBeRescheduled() {
		return nil, ErrInvalidTransition
	}
	date := strings.TrimSpace(in.Date)
	if date == "" {
		return nil, invalidField("date", "required")
	}
	timeOfDay := strings.TrimSpace(in.Time)
	if timeOfDay == "" {
		return nil, invalidField("time", "required")
	}

	expected := sess.Status
	now := s.now()
	sess.Date = date
	sess.Time = timeOfDay
	sess.Status = session.StatusConfirmed
	sess.RescheduledAt = &now
	sess.RescheduleReason = strings.TrimSpace(in.Reason)
	sess.UpdatedAt = now
	return s.persistTransition(ctx, sess, expected)
}

// Complete moves a confirmed session to completed, recording the
// mentor's report. A session completes at most once.
func (s *Service) Complete(ctx context.Context, actor identity.Actor, id string, in CompleteInput) (*session.Session, error) {
	sess, err := s.loadOwnedByMentor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !sess.CanBeCompleted() {
		return nil, ErrInvalidTransition
	}
	if in.Duration != nil && *in.Duration <= 0 {
		return nil, invalidField("duration", "must be a positive number of minutes")
	}

	now := s.now()
	sess.Status = session.StatusCompleted
	sess.CompletedAt = &now
	sess.Notes = strings.TrimSpace(in.Notes)
	sess.Duration = in.Duration
	sess.TopicsCovered = strings.TrimSpace(in.TopicsCovered)
	sess.Homework = strings.TrimSpace(in.Homework)
	sess.UpdatedAt = now
	return s.persistTransition(ctx, sess, session.StatusConfirmed)
}

// StudentEdit overwrites the editable request fields of a pending
// session. The status is unchanged.
func (s *Service) StudentEdit(ctx context.Context, actor identity.Actor, id string, in EditInput) (*session.Session, error) {
	sess, err := s.loadOwnedByStudent(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != session.StatusPending {
		return nil, ErrInvalidTransition
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, invalidField("subject", "required")
	}
	date := strings.TrimSpace(in.Date)
	if date == "" {
		return nil, invalidField("date", "required")
	}
	timeOfDay := strings.TrimSpace(in.Time)
	if timeOfDay == "" {
		return nil, invalidField("time", "required")
	}

	sess.Subject = subject
	sess.Date = date
	sess.Time = timeOfDay
	sess.Notes = strings.TrimSpace(in.Notes)
	sess.UpdatedAt = s.now()
	return s.persistTransition(ctx, sess, session.StatusPending)
}

// StudentCancel hard-deletes a pending session. Confirmed and terminal
// sessions are retained as an audit trail and cannot be deleted here.
func (s *Service) StudentCancel(ctx context.Context, actor identity.Actor, id string) error {
	sess, err := s.loadOwnedByStudent(ctx, actor, id)
	if err != nil {
		return err
	}
	if sess.Status != session.StatusPending {
		return ErrInvalidTransition
	}

	err = s.store.DeleteIfStatus(ctx, id, session.StatusPending)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, session.ErrStatusConflict):
		return ErrInvalidTransition
	default:
		return fmt.Errorf("%w: %v", ErrRepository, err)
	}
}

// SubmitFeedback records the student's rating on a completed session.
// The status is unchanged.
func (s *Service) SubmitFeedback(ctx context.Context, actor identity.Actor, id string, in FeedbackInput) (*session.Session, error) {
	sess, err := s.loadOwnedByStudent(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != session.StatusCompleted {
		return nil, ErrInvalidTransition
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, invalidField("rating", "must be between 1 and 5")
	}

	rating := in.Rating
	sess.Rating = &rating
	sess.StudentFeedback = strings.TrimSpace(in.Feedback)
	sess.GoalsMet = in.GoalsMet
	sess.UpdatedAt = s.now()
	return s.persistTransition(ctx, sess, session.StatusCompleted)
}

// loadOwnedByMentor loads a session and checks the actor is its mentor.
func (s *Service) loadOwnedByMentor(ctx context.Context, actor identity.Actor, id string) (*session.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case identity.RoleMentor:
		if sess.MentorID != actor.ID {
			return nil, ErrForbidden
		}
		return sess, nil
	case identity.RoleStudent:
		return nil, ErrForbidden
	default:
		return nil, ErrForbidden
	}
}

// loadOwnedByStudent loads a session and checks the actor is its student.
func (s *Service) loadOwnedByStudent(ctx context.Context, actor identity.Actor, id string) (*session.Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case identity.RoleStudent:
		if sess.StudentID != actor.ID {
			return nil, ErrForbidden
		}
		return sess, nil
	case identity.RoleMentor:
		return nil, ErrForbidden
	default:
		return nil, ErrForbidden
	}
}

func (s *Service) load(ctx context.Context, id string) (*session.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	sess, err := s.store.FindByID(ctx, id)
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, session.ErrNotFound):
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: %v", ErrRepository, err)
	}
}

// persistTransition writes the mutated record conditioned on the status
// observed at read time. A concurrent transition that moved the record
// first surfaces as ErrInvalidTransition, never as a silent overwrite.
func (s *Service) persistTransition(ctx context.Context, sess *session.Session, expected session.Status) (*session.Session, error) {
	err := s.store.UpdateIfStatus(ctx, sess, expected)
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, session.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, session.ErrStatusConflict):
		return nil, ErrInvalidTransition
	default:
		return nil, fmt.Errorf("%w: %v", ErrRepository, err)
	}
}

// lookupName resolves a display name, swallowing directory failures.
func (s *Service) lookupName(ctx context.Context, userID string) string {
	if s.directory == nil {
		return ""
	}
	profile, err := s.directory.Lookup(ctx, userID)
	if err != nil {
		if !errors.Is(err, identity.ErrProfileNotFound) {
			log.Printf("[booking] name lookup failed for user=%s: %v", userID, err)
		}
		return ""
	}
	return profile.Name
}
