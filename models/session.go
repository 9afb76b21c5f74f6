package models

import "time"

// End reasons recorded in the session history.
const (
	EndReasonStopped = "stopped"
	EndReasonExpired = "expired"
	EndReasonSwept   = "swept"
)

// SessionHistory is the log entry for a held attendance session.
type SessionHistory struct {
	ID         string     `json:"id"`
	CourseCode string     `json:"course_code"`
	Faculty    string     `json:"faculty"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}
