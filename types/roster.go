package types

// Status is a student's presence within a live session.
type Status string

const (
	StatusAbsent  Status = "Absent"
	StatusPresent Status = "Present"
)

// LiveStudentStatus is one row of the live roster.
type LiveStudentStatus struct {
	RollNo string `json:"rollNo"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}
