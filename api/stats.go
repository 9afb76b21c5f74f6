package api

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vainnor/attendance-portal/models"
	"github.com/vainnor/attendance-portal/types"
)

// AttendanceStatus labels a percentage GOOD or LOW.
func AttendanceStatus(percentage int) string {
	if percentage >= goodStandingPercent {
		return "GOOD"
	}
	return "LOW"
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	p := int(math.Round(float64(part) * 100 / float64(whole)))
	if p > 100 {
		return 100
	}
	return p
}

// BuildCourseStatistics derives per-student and monthly attendance from the
// held sessions and the records of a course. Months are bucketed in loc.
func BuildCourseStatistics(course models.Course, students []models.EnrolledStudent,
	held []models.SessionHistory, records []types.AttendanceRecord, loc *time.Location) CourseStatistics {
	if loc == nil {
		loc = time.Local
	}

	enrolled := make(map[string]bool, len(students))
	for _, st := range students {
		enrolled[st.RollNo] = true
	}

	attended := make(map[string]int)
	presentByMonth := make(map[string]int)
	for _, rec := range records {
		if !enrolled[rec.RollNo] {
			continue
		}
		attended[rec.RollNo]++
		if d, err := time.ParseInLocation(types.DateLayout, rec.Date, loc); err == nil {
			presentByMonth[d.Format("2006-01")]++
		}
	}

	heldByMonth := make(map[string]int)
	for _, h := range held {
		heldByMonth[h.StartTime.In(loc).Format("2006-01")]++
	}

	stats := CourseStatistics{
		Course:       course,
		SessionsHeld: len(held),
		Students:     make([]StudentAttendance, 0, len(students)),
		Monthly:      make([]MonthlyAttendance, 0, len(heldByMonth)),
	}

	total := 0
	for _, st := range students {
		n := attended[st.RollNo]
		if n > len(held) {
			n = len(held)
		}
		total += n
		p := percent(n, len(held))
		stats.Students = append(stats.Students, StudentAttendance{
			RollNo:     st.RollNo,
			Name:       st.Name,
			Attended:   n,
			Held:       len(held),
			Percentage: p,
			Status:     AttendanceStatus(p),
		})
	}
	stats.OverallPercentage = percent(total, len(held)*len(students))

	for month, n := range heldByMonth {
		present := presentByMonth[month]
		stats.Monthly = append(stats.Monthly, MonthlyAttendance{
			Month:      month,
			Held:       n,
			Present:    present,
			Percentage: percent(present, n*len(students)),
		})
	}
	sort.Slice(stats.Monthly, func(i, j int) bool {
		return stats.Monthly[i].Month < stats.Monthly[j].Month
	})
	return stats
}

// BuildCourseAttendance counts rollNo's records against the sessions held
// for course.
func BuildCourseAttendance(course models.Course, rollNo string,
	held []models.SessionHistory, records []types.AttendanceRecord) CourseAttendance {
	attended := 0
	for _, rec := range records {
		if strings.EqualFold(rec.RollNo, rollNo) {
			attended++
		}
	}
	if attended > len(held) {
		attended = len(held)
	}
	p := percent(attended, len(held))
	return CourseAttendance{
		CourseCode: course.Code,
		CourseName: course.Name,
		Faculty:    course.Faculty,
		Attended:   attended,
		Held:       len(held),
		Percentage: p,
		Status:     AttendanceStatus(p),
	}
}

// OverallPercentage is total attended over total held across courses.
func OverallPercentage(courses []CourseAttendance) int {
	attended, held := 0, 0
	for _, c := range courses {
		attended += c.Attended
		held += c.Held
	}
	return percent(attended, held)
}
