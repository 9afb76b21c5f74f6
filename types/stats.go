package types

import "time"

// CollectionStats describes the session poller.
type CollectionStats struct {
	LastPoll     time.Time `json:"last_poll"`
	LastChange   time.Time `json:"last_change"`
	TotalPolls   int64     `json:"total_polls"`
	FailedPolls  int64     `json:"failed_polls"`
	ActiveCourse string    `json:"active_course,omitempty"`
	SessionsSeen int64     `json:"sessions_seen"`
	StartTime    time.Time `json:"start_time"`
}

// ControllerStats describes the faculty session controller.
type ControllerStats struct {
	State           string    `json:"state"`
	SessionsStarted int64     `json:"sessions_started"`
	SessionsExpired int64     `json:"sessions_expired"`
	SessionsStopped int64     `json:"sessions_stopped"`
	StudentsMarked  int64     `json:"students_marked"`
	LastStart       time.Time `json:"last_start,omitempty"`
	StartTime       time.Time `json:"start_time"`
}
