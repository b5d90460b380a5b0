package booking_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorlink/backend/internal/identity"
	"github.com/mentorlink/backend/internal/model/session"
	"github.com/mentorlink/backend/internal/service/booking"
)

var (
	studentA = identity.Actor{ID: "student-a", Role: identity.RoleStudent}
	studentB = identity.Actor{ID: "student-b", Role: identity.RoleStudent}
	mentorM  = identity.Actor{ID: "mentor-m", Role: identity.RoleMentor}
	mentorX  = identity.Actor{ID: "mentor-x", Role: identity.RoleMentor}
)

func newService() *booking.Service {
	directory := identity.NewMemoryDirectory([]identity.Profile{
		{ID: studentA.ID, Name: "Alice"},
		{ID: mentorM.ID, Name: "Prof. Mei"},
	})
	return booking.NewService(session.NewMemoryStore(), directory)
}

func requestSession(t *testing.T, svc *booking.Service) *session.Session {
	t.Helper()
	sess, err := svc.Request(context.Background(), studentA, booking.RequestInput{
		MentorID: mentorM.ID,
		Subject:  "Algebra",
		Date:     "2024-06-01",
		Time:     "10:00",
		Notes:    "struggling with quadratics",
	})
	require.NoError(t, err)
	return sess
}

func TestRequestCreatesPendingSession(t *testing.T) {
	svc := newService()
	sess := requestSession(t, svc)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, session.StatusPending, sess.Status)
	assert.Equal(t, studentA.ID, sess.StudentID)
	assert.Equal(t, mentorM.ID, sess.MentorID)
	assert.Equal(t, "Algebra", sess.Subject)
	assert.True(t, sess.GoalsMet)
	assert.Nil(t, sess.AcceptedAt)
	assert.Equal(t, "Alice", sess.StudentName)
	assert.Equal(t, "Prof. Mei", sess.MentorName)
}

func TestRequestValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Request(ctx, studentA, booking.RequestInput{MentorID: mentorM.ID, Date: "2024-06-01", Time: "10:00"})
	var validationErr *booking.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "subject", validationErr.Field)

	_, err = svc.Request(ctx, studentA, booking.RequestInput{MentorID: mentorM.ID, Subject: "  ", Date: "2024-06-01", Time: "10:00"})
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.Request(ctx, studentA, booking.RequestInput{MentorID: mentorM.ID, Subject: "Algebra", Time: "10:00"})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "date", validationErr.Field)
}

func TestRequestByMentorForbidden(t *testing.T) {
	svc := newService()
	_, err := svc.Request(context.Background(), mentorM, booking.RequestInput{
		MentorID: mentorM.ID, Subject: "Algebra", Date: "2024-06-01", Time: "10:00",
	})
	assert.ErrorIs(t, err, booking.ErrForbidden)
}

func TestRequestSurvivesDirectoryMiss(t *testing.T) {
	svc := booking.NewService(session.NewMemoryStore(), identity.NewMemoryDirectory(nil))
	sess, err := svc.Request(context.Background(), studentA, booking.RequestInput{
		MentorID: mentorM.ID, Subject: "Algebra", Date: "2024-06-01", Time: "10:00",
	})
	require.NoError(t, err)
	assert.Empty(t, sess.StudentName)
	assert.Empty(t, sess.MentorName)
}

func TestAccept(t *testing.T) {
	svc := newService()
	sess := requestSession(t, svc)
	ctx := context.Background()

	accepted, err := svc.Accept(ctx, mentorM, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusConfirmed, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)

	// Accepting an already-confirmed session is not a legal transition.
	_, err = svc.Accept(ctx, mentorM, sess.ID)
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

func TestAcceptByForeignMentorForbidden(t *testing.T) {
	svc := newService()
	sess := requestSession(t, svc)

	_, err := svc.Accept(context.Background(), mentorX, sess.ID)
	assert.ErrorIs(t, err, booking.ErrForbidden)

	_, err = svc.Accept(context.Background(), studentA, sess.ID)
	assert.ErrorIs(t, err, booking.ErrForbidden)
}

func TestAcceptMissingSession(t *testing.T) {
	svc := newService()
	_, err := svc.Accept(context.Background(), mentorM, "no-such-id")
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestReject(t *testing.T) {
	svc := newService()
	sess := requestSession(t, svc)
	ctx := context.Background()

	rejected, err := svc.Reject(ctx, mentorM, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectedAt)

	_, err = svc.Reject(ctx, mentorM, sess.ID)
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

func TestRescheduleFromPendingAndConfirmed(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	in := booking.RescheduleInput{Date: "2024-06-08", Time: "14:00", Reason: "conference travel"}

	// From pending: the reschedule lands the session in confirmed.
	fromPending := requestSession(t, svc)
	updated, err := svc.Reschedule(ctx, mentorM, fromPending.ID, in)
	require.NoError(t, err)
	assert.Equal(t, session.StatusConfirmed, updated.Status)
	assert.Equal(t, "2024-06-08", updated.Date)
	assert.Equal(t, "14:00", updated.Time)
	assert.Equal(t, "conference travel", updated.RescheduleReason)
	require.NotNil(t, updated.RescheduledAt)

	// From confirmed: status stays confirmed.
	fromConfirmed := requestSession(t, svc)
	_, err = svc.Accept(ctx, mentorM, fromConfirmed.ID)
	require.NoError(t, err)
	updated, err = svc.Reschedule(ctx, mentorM, fromConfirmed.ID, in)
	require.NoError(t, err)
	assert.Equal(t, session.StatusConfirmed, updated.Status)
}

func TestRescheduleCompletedForbidden(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	sess := requestSession(t, svc)
	_, err := svc.Accept(ctx, mentorM, sess.ID)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, mentorM, sess.ID, booking.CompleteInput{})
	require.NoError(t, err)

	_, err = svc.Reschedule(ctx, mentorM, sess.ID, booking.RescheduleInput{Date: "2024-06-08", Time: "14:00"})
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

func TestComplete(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	sess := requestSession(t, svc)
	_, err := svc.Accept(ctx, mentorM, sess.ID)
	require.NoError(t, err)

	duration := 60
	completed, err := svc.Complete(ctx, mentorM, sess.ID, booking.CompleteInput{
		Notes:         "Covered quadratics",
		Duration:      &duration,
		TopicsCovered: "quadratics",
		Homework:      "exercises 1-10",
	})
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	require.NotNil(t, completed.Duration)
	assert.Equal(t, 60, *completed.Duration)
	assert.Equal(t, "Covered quadratics", completed.Notes)
	assert.Equal(t, "exercises 1-10", completed.Homework)

	// Second completion attempt is rejected, not idempotently accepted.
	_, err = svc.Complete(ctx, mentorM, sess.ID, booking.CompleteInput{})
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

func TestCompletePendingForbidden(t *testing.T) {
	svc := newService()
	sess := requestSession(t, svc)

	_, err := svc.Complete(context.Background(), mentorM, sess.ID, booking.CompleteInput{})
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

func TestCompleteNegativeDuration(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	sess := requestSession(t, svc)
	_, err := svc.Accept(ctx, mentorM, sess.ID)
	require.NoError(t, err)

	bad := -5
	_, err = svc.Complete(ctx, mentorM, sess.ID, booking.CompleteInput{Duration: &bad})
	var validationErr *booking.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestStudentEdit(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	sess := requestSession(t, svc)

	edited, err := svc.StudentEdit(ctx, studentA, sess.ID, booking.EditInput{
		Subject: "Geometry",
		Date:    "2024-06-02",
		Time:    "11:00",
		Notes:   "switching topics",
	})
	require.NoError(t, err)
	assert.Equal(t, session.StatusPending, edited.Status)
	assert.Equal(t, "Geometry", edited.Subject)
	assert.Equal(t, "2024-06-02", edited.Date)

	// Once confirmed, the request is no longer the student's to edit.
	_, err = svc.Accept(ctx, mentorM, sess.ID)
	require.NoError(t, err)
	_, err = svc.StudentEdit(ctx, studentA, sess.ID, booking.EditInput{
		Subject: "Geometry", Date: "2024-06-02", Time: "11:00",
	})
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

func TestStudentEditByMentorForbidden(t *testing.T) {
	svc := newService()
	sess := requestSession(t, svc)

	_, err := svc.StudentEdit(context.Background(), mentorM, sess.ID, booking.EditInput{
		Subject: "Geometry", Date: "2024-06-02", Time: "11:00",
	})
	assert.ErrorIs(t, err, booking.ErrForbidden)
}

func TestStudentCancel(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	sess := requestSession(t, svc)

	require.NoError(t, svc.StudentCancel(ctx, studentA, sess.ID))

	_, err := svc.Get(ctx, studentA, sess.ID)
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestStudentCancelConfirmedForbidden(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	sess := requestSession(t, svc)
	_, err := svc.Accept(ctx, mentorM, sess.ID)
	require.NoError(t, err)

	err = svc.StudentCancel(ctx, studentA, sess.ID)
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)

	// The record is retained.
	kept, err := svc.Get(ctx, studentA, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusConfirmed, kept.Status)
}

func TestStudentCancelByForeignStudentForbidden(t *testing.T) {
	svc := newService()
	sess := requestSession(t, svc)

	err := svc.StudentCancel(context.Background(), studentB, sess.ID)
	assert.ErrorIs(t, err, booking.ErrForbidden)
}

func TestSubmitFeedback(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	sess := requestSession(t, svc)
	_, err := svc.Accept(ctx, mentorM, sess.ID)
	require.NoError(t, err)
	duration := 60
	_, err = svc.Complete(ctx, mentorM, sess.ID, booking.CompleteInput{Duration: &duration})
	require.NoError(t, err)

	rated, err := svc.SubmitFeedback(ctx, studentA, sess.ID, booking.FeedbackInput{
		Rating:   5,
		Feedback: "Great!",
		GoalsMet: true,
	})
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, rated.Status)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 5, *rated.Rating)
	assert.Equal(t, "Great!", rated.StudentFeedback)
	assert.True(t, rated.GoalsMet)
}

func TestSubmitFeedbackGuards(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	sess := requestSession(t, svc)

	// Not completed yet.
	_, err := svc.SubmitFeedback(ctx, studentA, sess.ID, booking.FeedbackInput{Rating: 5})
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)

	_, err = svc.Accept(ctx, mentorM, sess.ID)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, mentorM, sess.ID, booking.CompleteInput{})
	require.NoError(t, err)

	// Rating outside [1,5].
	_, err = svc.SubmitFeedback(ctx, studentA, sess.ID, booking.FeedbackInput{Rating: 6})
	var validationErr *booking.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "rating", validationErr.Field)

	_, err = svc.SubmitFeedback(ctx, studentA, sess.ID, booking.FeedbackInput{Rating: 0})
	assert.ErrorAs(t, err, &validationErr)

	// Only the session's student may rate it.
	_, err = svc.SubmitFeedback(ctx, mentorM, sess.ID, booking.FeedbackInput{Rating: 5})
	assert.ErrorIs(t, err, booking.ErrForbidden)
	_, err = svc.SubmitFeedback(ctx, studentB, sess.ID, booking.FeedbackInput{Rating: 5})
	assert.ErrorIs(t, err, booking.ErrForbidden)
}

// Timestamp/status pairing across the whole lifecycle: completedAt is
// set exactly when completed, rejectedAt exactly when rejected.
func TestLifecycleTimestampInvariants(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	completedSess := requestSession(t, svc)
	_, err := svc.Accept(ctx, mentorM, completedSess.ID)
	require.NoError(t, err)
	done, err := svc.Complete(ctx, mentorM, completedSess.ID, booking.CompleteInput{})
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)
	assert.NotNil(t, done.AcceptedAt)
	assert.Nil(t, done.RejectedAt)

	rejectedSess := requestSession(t, svc)
	rej, err := svc.Reject(ctx, mentorM, rejectedSess.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusRejected, rej.Status)
	assert.NotNil(t, rej.RejectedAt)
	assert.Nil(t, rej.CompletedAt)
	assert.Nil(t, rej.AcceptedAt)
}
