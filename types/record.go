package types

import (
	"time"

	"github.com/vainnor/attendance-portal/geo"
)

// DateLayout is the calendar-day key used for attendance records.
const DateLayout = "2006-01-02"

// AttendanceRecord is a successful check-in. At most one exists per roll
// number, course and day.
type AttendanceRecord struct {
	ID             string         `json:"id"`
	SessionID      string         `json:"sessionId"`
	CourseCode     string         `json:"courseCode"`
	RollNo         string         `json:"rollNo"`
	Date           string         `json:"date"`
	MarkedAt       time.Time      `json:"time"`
	Location       geo.Coordinate `json:"location"`
	DistanceMeters float64        `json:"distanceMeters"`
	CaptureKey     string         `json:"captureKey,omitempty"`
}

// RecordDate returns the record key date for t.
func RecordDate(t time.Time) string {
	return t.Format(DateLayout)
}
