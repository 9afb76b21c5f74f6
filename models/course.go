package models

// Course is an entry of the enrolment catalog.
type Course struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Faculty string `json:"faculty"`
}

// EnrolledStudent is a student enrolled in a course.
type EnrolledStudent struct {
	RollNo string `json:"rollNo"`
	Name   string `json:"name"`
}
