package api

import "github.com/vainnor/attendance-portal/models"

// Attendance percentage at or above which a student is in good standing.
const goodStandingPercent = 75

// StudentAttendance is one row of the course statistics table.
type StudentAttendance struct {
	RollNo     string `json:"roll_no"`
	Name       string `json:"name"`
	Attended   int    `json:"attended"`
	Held       int    `json:"held"`
	Percentage int    `json:"percentage"`
	Status     string `json:"status"`
}

// MonthlyAttendance is the class-wide attendance of one calendar month.
type MonthlyAttendance struct {
	Month      string `json:"month"`
	Held       int    `json:"held"`
	Present    int    `json:"present"`
	Percentage int    `json:"percentage"`
}

// CourseStatistics is the response of GET /api/courses/{code}/stats.
type CourseStatistics struct {
	Course            models.Course       `json:"course"`
	SessionsHeld      int                 `json:"sessions_held"`
	OverallPercentage int                 `json:"overall_percentage"`
	Students          []StudentAttendance `json:"students"`
	Monthly           []MonthlyAttendance `json:"monthly"`
}

// CourseAttendance is one course of a student's attendance overview.
type CourseAttendance struct {
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	Faculty    string `json:"faculty"`
	Attended   int    `json:"attended"`
	Held       int    `json:"held"`
	Percentage int    `json:"percentage"`
	Status     string `json:"status"`
}

// StudentOverview is the response of GET /api/students/{roll}/attendance.
type StudentOverview struct {
	RollNo            string             `json:"roll_no"`
	Name              string             `json:"name"`
	OverallPercentage int                `json:"overall_percentage"`
	Courses           []CourseAttendance `json:"courses"`
}
