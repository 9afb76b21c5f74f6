package verify

import (
	"errors"
	"testing"
	"time"

	"github.com/vainnor/attendance-portal/apperr"
	"github.com/vainnor/attendance-portal/geo"
	"github.com/vainnor/attendance-portal/types"
)

var (
	anchor = geo.Coordinate{Latitude: 17.0, Longitude: 78.0}
	start  = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
)

func activeSession() *types.AttendanceSession {
	return &types.AttendanceSession{
		ID: "s1", CourseCode: "C0511", DurationMinutes: 10,
		StartTime: start, Anchor: anchor, RadiusMeters: types.ToleranceMeters,
	}
}

func TestDecideScenarios(t *testing.T) {
	near := Decide(anchor, geo.Coordinate{Latitude: 17.0030, Longitude: 78.0}, types.ToleranceMeters)
	if !near.Accepted {
		t.Fatalf("expected ~333 m to be accepted, got %+v", near)
	}
	if near.DistanceMeters < 330 || near.DistanceMeters > 337 {
		t.Fatalf("expected ~333 m, got %v", near.DistanceMeters)
	}

	far := Decide(anchor, geo.Coordinate{Latitude: 17.0060, Longitude: 78.0}, types.ToleranceMeters)
	if far.Accepted {
		t.Fatalf("expected ~667 m to be rejected, got %+v", far)
	}

	if !Decide(anchor, anchor, types.ToleranceMeters).Accepted {
		t.Fatal("expected anchor itself to be accepted")
	}
}

func TestDecideBoundaryInclusive(t *testing.T) {
	attempt := geo.Coordinate{Latitude: 17.0030, Longitude: 78.0}
	d := anchor.DistanceTo(attempt)
	if !Decide(anchor, attempt, d).Accepted {
		t.Fatal("expected distance equal to tolerance to be accepted")
	}
}

func TestCheck(t *testing.T) {
	inside := geo.Coordinate{Latitude: 17.0030, Longitude: 78.0}
	outside := geo.Coordinate{Latitude: 17.0060, Longitude: 78.0}
	during := start.Add(3 * time.Minute)

	tests := []struct {
		name     string
		active   *types.AttendanceSession
		attempt  Attempt
		recorded bool
		want     error
	}{
		{"accepted", activeSession(), Attempt{CourseCode: "C0511", Location: inside, At: during}, false, nil},
		{"lowercase course", activeSession(), Attempt{CourseCode: "c0511", Location: inside, At: during}, false, nil},
		{"out of range", activeSession(), Attempt{CourseCode: "C0511", Location: outside, At: during}, false, apperr.ErrOutOfRange},
		{"no session", nil, Attempt{CourseCode: "C0511", Location: inside, At: during}, false, apperr.ErrNoActiveSession},
		{"other course", activeSession(), Attempt{CourseCode: "C0512", Location: inside, At: during}, false, apperr.ErrNoActiveSession},
		{"session expired", activeSession(), Attempt{CourseCode: "C0511", Location: inside, At: start.Add(10 * time.Minute)}, false, apperr.ErrNoActiveSession},
		{"duplicate inside", activeSession(), Attempt{CourseCode: "C0511", Location: inside, At: during}, true, apperr.ErrDuplicateAttendance},
		{"duplicate outside", activeSession(), Attempt{CourseCode: "C0511", Location: outside, At: during}, true, apperr.ErrDuplicateAttendance},
		{"bad coordinate", activeSession(), Attempt{CourseCode: "C0511", Location: geo.Coordinate{Latitude: 120}, At: during}, false, apperr.ErrLocationUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Check(tt.active, tt.attempt, tt.recorded)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected acceptance, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCheckOutOfRangeReportsDistance(t *testing.T) {
	d, err := Check(activeSession(), Attempt{
		CourseCode: "C0511",
		Location:   geo.Coordinate{Latitude: 17.0060, Longitude: 78.0},
		At:         start.Add(time.Minute),
	}, false)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperr, got %v", err)
	}
	if appErr.Metadata["distance_m"] != "667" {
		t.Fatalf("expected 667 m in metadata, got %v", appErr.Metadata)
	}
	if d.Accepted {
		t.Fatal("expected rejected decision")
	}
}

func TestVerifierToleranceOverride(t *testing.T) {
	v := Verifier{ToleranceMeters: 1000}
	_, err := v.Check(activeSession(), Attempt{
		CourseCode: "C0511",
		Location:   geo.Coordinate{Latitude: 17.0060, Longitude: 78.0},
		At:         start.Add(time.Minute),
	}, false)
	if err != nil {
		t.Fatalf("expected acceptance with 1 km tolerance, got %v", err)
	}
}
