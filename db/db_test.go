package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/vainnor/attendance-portal/apperr"
	"github.com/vainnor/attendance-portal/geo"
	"github.com/vainnor/attendance-portal/models"
	"github.com/vainnor/attendance-portal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "attendance.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: "postgres"}
	got := pg.rebind("SELECT a FROM t WHERE b = ? AND c = ?")
	if got != "SELECT a FROM t WHERE b = $1 AND c = $2" {
		t.Fatalf("unexpected postgres query %q", got)
	}
	lite := &Store{driver: "sqlite"}
	if q := lite.rebind("WHERE b = ?"); q != "WHERE b = ?" {
		t.Fatalf("expected sqlite query untouched, got %q", q)
	}
}

func TestSessionSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := openTestStore(t).Slot()

	got, err := slot.Get(ctx)
	if err != nil {
		t.Fatalf("get empty slot: %v", err)
	}
	if got != nil {
		t.Fatalf("expected empty slot, got %+v", got)
	}

	first := types.AttendanceSession{
		ID:              "s1",
		CourseCode:      "C0511",
		DurationMinutes: 10,
		StartTime:       time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
		Anchor:          geo.Coordinate{Latitude: 17, Longitude: 78},
		Faculty:         "Dr. Ramesh Kumar",
	}
	if err := slot.Set(ctx, first); err != nil {
		t.Fatalf("set: %v", err)
	}
	second := first
	second.ID = "s2"
	second.CourseCode = "C0512"
	if err := slot.Set(ctx, second); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err = slot.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != "s2" || got.CourseCode != "C0512" {
		t.Fatalf("expected overwritten session s2, got %+v", got)
	}
	if !got.StartTime.Equal(first.StartTime) || got.Anchor != first.Anchor {
		t.Fatalf("session fields not preserved: %+v", got)
	}

	if err := slot.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := slot.Get(ctx); got != nil {
		t.Fatalf("expected cleared slot, got %+v", got)
	}
}

func TestRecordsRejectDuplicates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec := types.AttendanceRecord{
		ID:         "r1",
		SessionID:  "s1",
		CourseCode: "C0511",
		RollNo:     "20BCE1234",
		Date:       "2026-10-15",
		MarkedAt:   time.Date(2026, 10, 15, 9, 3, 0, 0, time.UTC),
		Location:   geo.Coordinate{Latitude: 17.003, Longitude: 78},
	}
	if err := s.InsertRecord(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	dup := rec
	dup.ID = "r2"
	err := s.InsertRecord(ctx, dup)
	if !errors.Is(err, apperr.ErrDuplicateAttendance) {
		t.Fatalf("expected duplicate attendance, got %v", err)
	}

	ok, err := s.HasRecord(ctx, "20BCE1234", "C0511", "2026-10-15")
	if err != nil || !ok {
		t.Fatalf("expected record to exist, got %v %v", ok, err)
	}
	ok, err = s.HasRecord(ctx, "20BCE1234", "C0511", "2026-10-16")
	if err != nil || ok {
		t.Fatalf("expected no record next day, got %v %v", ok, err)
	}

	records, err := s.RecordsForCourse(ctx, "C0511")
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 || records[0].RollNo != "20BCE1234" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestSessionHistory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	start := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	if err := s.CreateSession(ctx, models.SessionHistory{ID: "s1", CourseCode: "C0511", Faculty: "f", StartTime: start}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.EndSession(ctx, "s1", start.Add(10*time.Minute), models.EndReasonExpired); err != nil {
		t.Fatalf("end: %v", err)
	}
	// a second end must not overwrite the first
	if err := s.EndSession(ctx, "s1", start.Add(20*time.Minute), models.EndReasonStopped); err != nil {
		t.Fatalf("end again: %v", err)
	}

	held, err := s.HeldSessions(ctx, "C0511")
	if err != nil {
		t.Fatalf("held: %v", err)
	}
	if len(held) != 1 {
		t.Fatalf("expected 1 session, got %d", len(held))
	}
	if held[0].EndTime == nil || !held[0].EndTime.Equal(start.Add(10*time.Minute)) {
		t.Fatalf("unexpected end time %v", held[0].EndTime)
	}
	if held[0].Reason != models.EndReasonExpired {
		t.Fatalf("expected expired reason, got %q", held[0].Reason)
	}
}

func TestSeedDemoCatalog(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.SeedDemo(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.SeedDemo(ctx); err != nil {
		t.Fatalf("seed twice: %v", err)
	}

	course, err := s.GetCourse(ctx, "C0511")
	if err != nil {
		t.Fatalf("get course: %v", err)
	}
	if course.Name != "Data Structures" {
		t.Fatalf("unexpected course %+v", course)
	}
	students, err := s.EnrolledStudents(ctx, "C0511")
	if err != nil {
		t.Fatalf("students: %v", err)
	}
	if len(students) != 8 {
		t.Fatalf("expected 8 students, got %d", len(students))
	}

	if _, err := s.GetCourse(ctx, "CS999"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAPIKeys(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	key, err := s.CreateAPIKey(ctx, "abc123", "faculty console", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !key.IsActive || key.Key != "abc123" {
		t.Fatalf("unexpected key %+v", key)
	}
	if !s.ValidateAPIKey(ctx, "abc123", now.Add(time.Minute)) {
		t.Fatal("expected key to validate")
	}
	if s.ValidateAPIKey(ctx, "nope", now) {
		t.Fatal("expected unknown key to fail")
	}

	keys, err := s.ListAPIKeys(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 || keys[0].LastUsedAt.IsZero() {
		t.Fatalf("expected one used key, got %+v", keys)
	}

	deleted, err := s.DeleteAPIKey(ctx, key.ID)
	if err != nil || !deleted {
		t.Fatalf("expected delete, got %v %v", deleted, err)
	}
	deleted, err = s.DeleteAPIKey(ctx, key.ID)
	if err != nil || deleted {
		t.Fatalf("expected nothing to delete, got %v %v", deleted, err)
	}
}
