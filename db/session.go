package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/vainnor/attendance-portal/models"
	"github.com/vainnor/attendance-portal/session"
	"github.com/vainnor/attendance-portal/types"
)

var _ session.Store = (*SessionSlot)(nil)

// SessionSlot persists the single active session as a serialized row.
type SessionSlot struct {
	store *Store
	now   func() time.Time
}

// Slot returns the session slot backed by s.
func (s *Store) Slot() *SessionSlot {
	return &SessionSlot{store: s, now: time.Now}
}

// Set overwrites the active session.
func (sl *SessionSlot) Set(ctx context.Context, session types.AttendanceSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = sl.store.exec(ctx, `
		INSERT INTO active_session (slot, payload, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT (slot) DO UPDATE
		SET payload = excluded.payload, updated_at = excluded.updated_at
	`, string(payload), sl.now().UTC())
	if err != nil {
		return fmt.Errorf("write session slot: %w", err)
	}
	return nil
}

// Get returns the active session, or nil when the slot is empty.
func (sl *SessionSlot) Get(ctx context.Context) (*types.AttendanceSession, error) {
	var payload string
	err := sl.store.queryRow(ctx, `SELECT payload FROM active_session WHERE slot = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session slot: %w", err)
	}
	var session types.AttendanceSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("decode session slot: %w", err)
	}
	return &session, nil
}

// Clear empties the slot.
func (sl *SessionSlot) Clear(ctx context.Context) error {
	if _, err := sl.store.exec(ctx, `DELETE FROM active_session WHERE slot = 1`); err != nil {
		return fmt.Errorf("clear session slot: %w", err)
	}
	return nil
}

// CreateSession opens a session history entry
func (s *Store) CreateSession(ctx context.Context, h models.SessionHistory) error {
	_, err := s.exec(ctx, `
		INSERT INTO session_history (id, course_code, faculty, start_time)
		VALUES (?, ?, ?, ?)
	`, h.ID, h.CourseCode, h.Faculty, h.StartTime.UTC())
	if err != nil {
		log.Printf("Error creating session history for %s: %v", h.CourseCode, err)
		return err
	}
	log.Printf("Session history created for %s (%s)", h.CourseCode, h.ID)
	return nil
}

// EndSession closes an open history entry with its end time and reason
func (s *Store) EndSession(ctx context.Context, id string, end time.Time, reason string) error {
	_, err := s.exec(ctx, `
		UPDATE session_history SET end_time = ?, reason = ?
		WHERE id = ? AND end_time IS NULL
	`, end.UTC(), reason, id)
	if err != nil {
		log.Printf("Error ending session %s: %v", id, err)
		return err
	}
	log.Printf("Session %s ended (%s)", id, reason)
	return nil
}

// HeldSessions lists the history entries of a course, oldest first.
func (s *Store) HeldSessions(ctx context.Context, courseCode string) ([]models.SessionHistory, error) {
	rows, err := s.query(ctx, `
		SELECT id, course_code, faculty, start_time, end_time, reason
		FROM session_history
		WHERE course_code = ?
		ORDER BY start_time ASC
	`, courseCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SessionHistory
	for rows.Next() {
		var h models.SessionHistory
		var end sql.NullTime
		var reason sql.NullString
		if err := rows.Scan(&h.ID, &h.CourseCode, &h.Faculty, &h.StartTime, &end, &reason); err != nil {
			return nil, err
		}
		if end.Valid {
			t := end.Time
			h.EndTime = &t
		}
		h.Reason = reason.String
		out = append(out, h)
	}
	return out, rows.Err()
}
