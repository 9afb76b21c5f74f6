package types

import (
	"testing"
	"time"
)

func TestAttendanceSessionActive(t *testing.T) {
	start := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	s := AttendanceSession{CourseCode: "C0511", DurationMinutes: 10, StartTime: start}

	if !s.EndsAt().Equal(start.Add(10 * time.Minute)) {
		t.Fatalf("unexpected end %v", s.EndsAt())
	}
	if !s.Active(start.Add(9*time.Minute + 59*time.Second)) {
		t.Fatal("expected active before end")
	}
	if s.Active(start.Add(10 * time.Minute)) {
		t.Fatal("expected inactive at end")
	}
}

func TestAttendanceSessionRadius(t *testing.T) {
	if r := (AttendanceSession{}).Radius(); r != ToleranceMeters {
		t.Fatalf("expected default radius %v, got %v", ToleranceMeters, r)
	}
	if r := (AttendanceSession{RadiusMeters: 200}).Radius(); r != 200 {
		t.Fatalf("expected 200, got %v", r)
	}
}
