package types

import (
	"time"

	"github.com/vainnor/attendance-portal/geo"
)

// ToleranceMeters is the fixed radius around the anchor within which a
// capture is accepted.
const ToleranceMeters = 500.0

// AttendanceSession is the single faculty-initiated session students check
// in against.
type AttendanceSession struct {
	ID              string         `json:"id"`
	CourseCode      string         `json:"courseCode"`
	DurationMinutes int            `json:"duration"`
	StartTime       time.Time      `json:"startTime"`
	Anchor          geo.Coordinate `json:"location"`
	Faculty         string         `json:"faculty"`
	Section         string         `json:"section,omitempty"`
	Topic           string         `json:"topic,omitempty"`
	RadiusMeters    float64        `json:"radiusMeters"`
}

// EndsAt returns the instant the countdown reaches 00:00.
func (s AttendanceSession) EndsAt() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Active reports whether the session is still within its duration at now.
func (s AttendanceSession) Active(now time.Time) bool {
	return now.Before(s.EndsAt())
}

// Radius returns the tolerance radius, defaulting to ToleranceMeters.
func (s AttendanceSession) Radius() float64 {
	if s.RadiusMeters <= 0 {
		return ToleranceMeters
	}
	return s.RadiusMeters
}
