package session

import (
	"strings"
	"time"
)

// Status enumerates the lifecycle states of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// ParseStatus normalizes a raw status string, e.g. from a query filter.
func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, true
	case StatusConfirmed:
		return StatusConfirmed, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusCancelled:
		return StatusCancelled, true
	case StatusRejected:
		return StatusRejected, true
	default:
		return "", false
	}
}

// Terminal reports whether no further transition is defined from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// Session is a single mentoring booking record. Optional scalars are
// pointers so absence survives the round trip through storage and JSON.
type Session struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	MentorID  string `json:"mentorId"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Status    Status `json:"status"`

	Message          string `json:"message,omitempty"`
	Notes            string `json:"notes,omitempty"`
	TopicsCovered    string `json:"topicsCovered,omitempty"`
	Homework         string `json:"homework,omitempty"`
	StudentFeedback  string `json:"studentFeedback,omitempty"`
	RescheduleReason string `json:"rescheduleReason,omitempty"`

	Duration *int `json:"duration,omitempty"` // minutes, set on completion
	Rating   *int `json:"rating,omitempty"`   // 1..5, set by student feedback
	GoalsMet bool `json:"goalsMet"`

	AcceptedAt    *time.Time `json:"acceptedAt,omitempty"`
	RejectedAt    *time.Time `json:"rejectedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	RescheduledAt *time.Time `json:"rescheduledAt,omitempty"`

	// Display fallbacks captured at creation; never used for authorization.
	StudentName string `json:"studentName,omitempty"`
	MentorName  string `json:"mentorName,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// scheduledAtLayout matches the opaque date/time strings the original
// booking forms submit. Anything else fails the parse and the session
// simply never counts as upcoming.
const scheduledAtLayout = "2006-01-02T15:04"

// ScheduledAt combines the date and time strings into a nominal instant.
// Best-effort: returns nil when either part is missing or unparseable.
func (s *Session) ScheduledAt() *time.Time {
	if s.Date == "" || s.Time == "" {
		return nil
	}
	at, err := time.Parse(scheduledAtLayout, s.Date+"T"+s.Time)
	if err != nil {
		return nil
	}
	return &at
}

// IsUpcoming reports whether the session is confirmed and nominally
// scheduled strictly after now.
func (s *Session) IsUpcoming(now time.Time) bool {
	if s.Status != StatusConfirmed {
		return false
	}
	at := s.ScheduledAt()
	return at != nil && at.After(now)
}

// CanBeCompleted reports whether the complete transition is currently legal.
func (s *Session) CanBeCompleted() bool {
	return s.Status == StatusConfirmed && s.CompletedAt == nil
}

// CanBeRescheduled reports whether the reschedule transition is currently legal.
func (s *Session) CanBeRescheduled() bool {
	return (s.Status == StatusConfirmed || s.Status == StatusPending) && s.CompletedAt == nil
}
