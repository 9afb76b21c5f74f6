// Package verify decides whether a capture attempt is accepted against the
// active session. It checks location only; the captured frame is not
// compared with any enrolled face.
package verify

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vainnor/attendance-portal/apperr"
	"github.com/vainnor/attendance-portal/geo"
	"github.com/vainnor/attendance-portal/types"
)

// Decision is the outcome of a distance check.
type Decision struct {
	Accepted       bool    `json:"accepted"`
	DistanceMeters float64 `json:"distance_meters"`
}

// Decide accepts attempt when it lies within toleranceMeters of anchor.
func Decide(anchor, attempt geo.Coordinate, toleranceMeters float64) Decision {
	d := anchor.DistanceTo(attempt)
	return Decision{Accepted: d <= toleranceMeters, DistanceMeters: d}
}

// Attempt is one student capture submission.
type Attempt struct {
	CourseCode string
	RollNo     string
	Location   geo.Coordinate
	At         time.Time
}

// Verifier applies the acceptance rule. A zero ToleranceMeters uses the
// session radius.
type Verifier struct {
	ToleranceMeters float64
}

// Check runs Verifier{}.Check.
func Check(active *types.AttendanceSession, attempt Attempt, alreadyRecorded bool) (Decision, error) {
	return Verifier{}.Check(active, attempt, alreadyRecorded)
}

// Check runs the full acceptance rule for an attempt: a session for the same
// course must be active, the student must not have a record for the day,
// and the location must be within tolerance. The duplicate check comes
// before the distance check.
func (v Verifier) Check(active *types.AttendanceSession, attempt Attempt, alreadyRecorded bool) (Decision, error) {
	if active == nil || !strings.EqualFold(active.CourseCode, strings.TrimSpace(attempt.CourseCode)) ||
		!active.Active(attempt.At) {
		return Decision{}, apperr.New(apperr.CodeNoActiveSession,
			"faculty has not started attendance for this course")
	}
	if alreadyRecorded {
		return Decision{}, apperr.New(apperr.CodeDuplicateAttendance,
			"attendance already marked for this course today")
	}
	if err := attempt.Location.Validate(); err != nil {
		return Decision{}, apperr.Wrap(apperr.CodeLocationUnavailable, "invalid location: "+err.Error(), err)
	}

	tolerance := v.ToleranceMeters
	if tolerance <= 0 {
		tolerance = active.Radius()
	}
	d := Decide(active.Anchor, attempt.Location, tolerance)
	if !d.Accepted {
		meters := int(math.Round(d.DistanceMeters))
		return d, apperr.WithMetadata(apperr.CodeOutOfRange,
			fmt.Sprintf("you are outside the attendance radius (%d m away)", meters),
			map[string]string{"distance_m": fmt.Sprint(meters)})
	}
	return d, nil
}
