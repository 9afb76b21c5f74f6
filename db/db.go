package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Store wraps the attendance database. Queries are written with ? placeholders
// and rebound for postgres.
type Store struct {
	DB     *sql.DB
	driver string
}

// Open connects to the database, verifies the connection and creates the
// schema. driver is "postgres" or "sqlite".
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if driver == "sqlite" {
		// a single writer keeps the slot row free of SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	s := &Store{DB: db, driver: driver}
	if err = s.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}
	return s, nil
}

// Driver returns the database/sql driver name.
func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) createTables(ctx context.Context) error {
	serial := "SERIAL PRIMARY KEY"
	ts := "TIMESTAMP WITH TIME ZONE"
	if s.driver == "sqlite" {
		serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
		ts = "TIMESTAMP"
	}
	r := strings.NewReplacer("{{serial}}", serial, "{{ts}}", ts)

	queries := []string{
		// Core tables
		`CREATE TABLE IF NOT EXISTS api_keys (
			id {{serial}},
			key VARCHAR(64) NOT NULL UNIQUE,
			description TEXT,
			created_at {{ts}} NOT NULL,
			last_used_at {{ts}},
			is_active BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE TABLE IF NOT EXISTS courses (
			code VARCHAR(20) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			faculty VARCHAR(255) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			course_code VARCHAR(20) NOT NULL REFERENCES courses(code),
			roll_no VARCHAR(20) NOT NULL,
			name VARCHAR(255) NOT NULL,
			PRIMARY KEY (course_code, roll_no)
		)`,

		// Session slot and history
		`CREATE TABLE IF NOT EXISTS active_session (
			slot INTEGER PRIMARY KEY CHECK (slot = 1),
			payload TEXT NOT NULL,
			updated_at {{ts}} NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session_history (
			id VARCHAR(36) PRIMARY KEY,
			course_code VARCHAR(20) NOT NULL,
			faculty VARCHAR(255) NOT NULL,
			start_time {{ts}} NOT NULL,
			end_time {{ts}},
			reason VARCHAR(20)
		)`,
		`CREATE TABLE IF NOT EXISTS attendance_records (
			id VARCHAR(36) PRIMARY KEY,
			session_id VARCHAR(36) NOT NULL,
			course_code VARCHAR(20) NOT NULL,
			roll_no VARCHAR(20) NOT NULL,
			record_date VARCHAR(10) NOT NULL,
			marked_at {{ts}} NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			distance_m DOUBLE PRECISION NOT NULL,
			capture_key TEXT,
			UNIQUE (roll_no, course_code, record_date)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_session_history_course ON session_history(course_code)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_records_course ON attendance_records(course_code)`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_roll ON enrollments(roll_no)`,
	}

	for _, query := range queries {
		if _, err := s.DB.ExecContext(ctx, r.Replace(query)); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders into $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.DB.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.DB.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.DB.QueryRowContext(ctx, s.rebind(query), args...)
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
