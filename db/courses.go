package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vainnor/attendance-portal/apperr"
	"github.com/vainnor/attendance-portal/models"
)

// UpsertCourse inserts or renames a catalog course.
func (s *Store) UpsertCourse(ctx context.Context, c models.Course) error {
	_, err := s.exec(ctx, `
		INSERT INTO courses (code, name, faculty)
		VALUES (?, ?, ?)
		ON CONFLICT (code) DO UPDATE
		SET name = excluded.name, faculty = excluded.faculty
	`, c.Code, c.Name, c.Faculty)
	return err
}

// Enroll adds a student to a course roster.
func (s *Store) Enroll(ctx context.Context, courseCode string, st models.EnrolledStudent) error {
	_, err := s.exec(ctx, `
		INSERT INTO enrollments (course_code, roll_no, name)
		VALUES (?, ?, ?)
		ON CONFLICT (course_code, roll_no) DO UPDATE
		SET name = excluded.name
	`, courseCode, st.RollNo, st.Name)
	return err
}

// GetCourse looks up a catalog course.
func (s *Store) GetCourse(ctx context.Context, code string) (*models.Course, error) {
	var c models.Course
	err := s.queryRow(ctx, `SELECT code, name, faculty FROM courses WHERE code = ?`, code).
		Scan(&c.Code, &c.Name, &c.Faculty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.CodeNotFound, "invalid course code", err)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup course %s: %w", code, err)
	}
	return &c, nil
}

// ListCourses returns the catalog ordered by code.
func (s *Store) ListCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := s.query(ctx, `SELECT code, name, faculty FROM courses ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.Code, &c.Name, &c.Faculty); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// EnrolledStudents returns a course roster ordered by roll number.
func (s *Store) EnrolledStudents(ctx context.Context, courseCode string) ([]models.EnrolledStudent, error) {
	rows, err := s.query(ctx, `
		SELECT roll_no, name FROM enrollments
		WHERE course_code = ?
		ORDER BY roll_no
	`, courseCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EnrolledStudent
	for rows.Next() {
		var st models.EnrolledStudent
		if err := rows.Scan(&st.RollNo, &st.Name); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
