package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vainnor/attendance-portal/apperr"
	"github.com/vainnor/attendance-portal/types"
)

// InsertRecord stores a successful check-in. A second record for the same
// roll number, course and day is rejected as a duplicate.
func (s *Store) InsertRecord(ctx context.Context, rec types.AttendanceRecord) error {
	_, err := s.exec(ctx, `
		INSERT INTO attendance_records (
			id, session_id, course_code, roll_no, record_date,
			marked_at, latitude, longitude, distance_m, capture_key
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.SessionID, rec.CourseCode, rec.RollNo, rec.Date,
		rec.MarkedAt.UTC(), rec.Location.Latitude, rec.Location.Longitude,
		rec.DistanceMeters, rec.CaptureKey)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.CodeDuplicateAttendance,
				"attendance already marked for this course today", err)
		}
		return fmt.Errorf("insert attendance record: %w", err)
	}
	return nil
}

// HasRecord reports whether rollNo already checked in to courseCode on date.
func (s *Store) HasRecord(ctx context.Context, rollNo, courseCode, date string) (bool, error) {
	var n int
	err := s.queryRow(ctx, `
		SELECT COUNT(*) FROM attendance_records
		WHERE roll_no = ? AND course_code = ? AND record_date = ?
	`, rollNo, courseCode, date).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup attendance record: %w", err)
	}
	return n > 0, nil
}

// RecordsForCourse returns every record of a course ordered by time.
func (s *Store) RecordsForCourse(ctx context.Context, courseCode string) ([]types.AttendanceRecord, error) {
	rows, err := s.query(ctx, `
		SELECT id, session_id, course_code, roll_no, record_date,
		       marked_at, latitude, longitude, distance_m, COALESCE(capture_key, '')
		FROM attendance_records
		WHERE course_code = ?
		ORDER BY marked_at ASC
	`, courseCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.AttendanceRecord
	for rows.Next() {
		var r types.AttendanceRecord
		err := rows.Scan(&r.ID, &r.SessionID, &r.CourseCode, &r.RollNo, &r.Date,
			&r.MarkedAt, &r.Location.Latitude, &r.Location.Longitude,
			&r.DistanceMeters, &r.CaptureKey)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
