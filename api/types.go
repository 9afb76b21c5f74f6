package api

import (
	"time"

	"github.com/vainnor/attendance-portal/faculty"
	"github.com/vainnor/attendance-portal/geo"
)

// StartSessionRequest is the body of POST /api/sessions. Coordinates are
// the faculty device's one-shot fix.
type StartSessionRequest struct {
	CourseCode      string   `json:"course_code" validate:"max=16"`
	DurationMinutes int      `json:"duration_minutes"`
	Latitude        *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude       *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Faculty         string   `json:"faculty" validate:"max=120"`
	Section         string   `json:"section" validate:"max=32"`
	Topic           string   `json:"topic" validate:"max=200"`
}

// Locator returns the anchor source. Without both coordinates the locator
// has no fix.
func (r StartSessionRequest) Locator() geo.Locator {
	if r.Latitude == nil || r.Longitude == nil {
		return geo.FixedLocator{}
	}
	return geo.Fixed(geo.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude})
}

func (r StartSessionRequest) toStart() faculty.StartRequest {
	return faculty.StartRequest{
		CourseCode:      r.CourseCode,
		DurationMinutes: r.DurationMinutes,
		Faculty:         r.Faculty,
		Section:         r.Section,
		Topic:           r.Topic,
	}
}

// CaptureRequest holds the text fields of POST /api/attendance/capture.
type CaptureRequest struct {
	RollNo     string `validate:"required,max=32"`
	CourseCode string `validate:"required,max=16"`
	Latitude   float64
	Longitude  float64
}

// CaptureResponse is returned for an accepted capture.
type CaptureResponse struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message"`
	RecordID       string  `json:"record_id"`
	DistanceMeters float64 `json:"distance_meters"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error    string            `json:"error"`
	Code     string            `json:"code"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type HealthResponse struct {
	Status string        `json:"status"`
	State  faculty.State `json:"state"`
	Time   time.Time     `json:"time"`
}
