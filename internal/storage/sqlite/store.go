// Package sqlite provides the durable session repository backed by a
// local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mentorlink/backend/internal/identity"
	"github.com/mentorlink/backend/internal/model/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id                TEXT PRIMARY KEY,
	student_id        TEXT NOT NULL,
	mentor_id         TEXT NOT NULL,
	subject           TEXT NOT NULL,
	date              TEXT NOT NULL,
	time              TEXT NOT NULL,
	status            TEXT NOT NULL,
	message           TEXT NOT NULL DEFAULT '',
	notes             TEXT NOT NULL DEFAULT '',
	topics_covered    TEXT NOT NULL DEFAULT '',
	homework          TEXT NOT NULL DEFAULT '',
	student_feedback  TEXT NOT NULL DEFAULT '',
	reschedule_reason TEXT NOT NULL DEFAULT '',
	duration          INTEGER,
	rating            INTEGER,
	goals_met         INTEGER NOT NULL DEFAULT 1,
	accepted_at       DATETIME,
	rejected_at       DATETIME,
	completed_at      DATETIME,
	rescheduled_at    DATETIME,
	student_name      TEXT NOT NULL DEFAULT '',
	mentor_name       TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_student_status ON sessions(student_id, status);
CREATE INDEX IF NOT EXISTS idx_sessions_mentor_status  ON sessions(mentor_id, status);
CREATE INDEX IF NOT EXISTS idx_sessions_created_at     ON sessions(created_at);
`

const sessionColumns = `id, student_id, mentor_id, subject, date, time, status,
	message, notes, topics_covered, homework, student_feedback, reschedule_reason,
	duration, rating, goals_met,
	accepted_at, rejected_at, completed_at, rescheduled_at,
	student_name, mentor_name, created_at, updated_at`

// Store implements session.Store on top of database/sql.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and ensures
// the schema exists. WAL mode and a busy timeout keep concurrent request
// handlers from tripping over SQLite's single-writer lock.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create persists a new record.
func (s *Store) Create(ctx context.Context, sess *session.Session) error {
	query := `INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.StudentID, sess.MentorID, sess.Subject, sess.Date, sess.Time, sess.Status,
		sess.Message, sess.Notes, sess.TopicsCovered, sess.Homework, sess.StudentFeedback, sess.RescheduleReason,
		nullableInt(sess.Duration), nullableInt(sess.Rating), sess.GoalsMet,
		nullableTimeValue(sess.AcceptedAt), nullableTimeValue(sess.RejectedAt),
		nullableTimeValue(sess.CompletedAt), nullableTimeValue(sess.RescheduledAt),
		sess.StudentName, sess.MentorName, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FindByID returns the record with the given id.
func (s *Store) FindByID(ctx context.Context, id string) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
	return scanSession(s.db.QueryRowContext(ctx, query, id))
}

// UpdateIfStatus overwrites the record only while its persisted status
// still equals expected. This is the conditional write that makes
// concurrent conflicting transitions lose loudly instead of silently.
func (s *Store) UpdateIfStatus(ctx context.Context, sess *session.Session, expected session.Status) error {
	query := `UPDATE sessions SET
		subject = ?, date = ?, time = ?, status = ?,
		message = ?, notes = ?, topics_covered = ?, homework = ?,
		student_feedback = ?, reschedule_reason = ?,
		duration = ?, rating = ?, goals_met = ?,
		accepted_at = ?, rejected_at = ?, completed_at = ?, rescheduled_at = ?,
		updated_at = ?
		WHERE id = ? AND status = ?`
	res, err := s.db.ExecContext(ctx, query,
		sess.Subject, sess.Date, sess.Time, sess.Status,
		sess.Message, sess.Notes, sess.TopicsCovered, sess.Homework,
		sess.StudentFeedback, sess.RescheduleReason,
		nullableInt(sess.Duration), nullableInt(sess.Rating), sess.GoalsMet,
		nullableTimeValue(sess.AcceptedAt), nullableTimeValue(sess.RejectedAt),
		nullableTimeValue(sess.CompletedAt), nullableTimeValue(sess.RescheduledAt),
		sess.UpdatedAt,
		sess.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return s.checkConditionalResult(ctx, res, sess.ID)
}

// DeleteIfStatus removes the record only while its persisted status
// still equals expected.
func (s *Store) DeleteIfStatus(ctx context.Context, id string, expected session.Status) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ? AND status = ?`, id, expected)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return s.checkConditionalResult(ctx, res, id)
}

// checkConditionalResult distinguishes a vanished record from a record
// whose status moved between the caller's read and this write.
func (s *Store) checkConditionalResult(ctx context.Context, res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sessions WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check session existence: %w", err)
	}
	if exists == 0 {
		return session.ErrNotFound
	}
	return session.ErrStatusConflict
}

// ListByActor returns the actor's sessions for the given role slot,
// optionally filtered by status, newest first.
func (s *Store) ListByActor(ctx context.Context, actorID string, role identity.Role, status *session.Status) ([]*session.Session, error) {
	var ownerColumn string
	switch role {
	case identity.RoleStudent:
		ownerColumn = "student_id"
	case identity.RoleMentor:
		ownerColumn = "mentor_id"
	default:
		return nil, fmt.Errorf("unknown role slot %q", role)
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE ` + ownerColumn + ` = ?`
	args := []any{actorID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*session.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return sessions, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*session.Session, error) {
	var (
		sess             session.Session
		duration, rating sql.NullInt64
		acceptedAt       sql.NullTime
		rejectedAt       sql.NullTime
		completedAt      sql.NullTime
		rescheduledAt    sql.NullTime
	)
	err := row.Scan(
		&sess.ID, &sess.StudentID, &sess.MentorID, &sess.Subject, &sess.Date, &sess.Time, &sess.Status,
		&sess.Message, &sess.Notes, &sess.TopicsCovered, &sess.Homework, &sess.StudentFeedback, &sess.RescheduleReason,
		&duration, &rating, &sess.GoalsMet,
		&acceptedAt, &rejectedAt, &completedAt, &rescheduledAt,
		&sess.StudentName, &sess.MentorName, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if duration.Valid {
		v := int(duration.Int64)
		sess.Duration = &v
	}
	if rating.Valid {
		v := int(rating.Int64)
		sess.Rating = &v
	}
	if acceptedAt.Valid {
		sess.AcceptedAt = &acceptedAt.Time
	}
	if rejectedAt.Valid {
		sess.RejectedAt = &rejectedAt.Time
	}
	if completedAt.Valid {
		sess.CompletedAt = &completedAt.Time
	}
	if rescheduledAt.Valid {
		sess.RescheduledAt = &rescheduledAt.Time
	}
	return &sess, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullableTimeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
