// Package student drives a student's capture attempt: pre-checks, camera,
// one-shot location fix and submission.
package student

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/vainnor/attendance-portal/apperr"
	"github.com/vainnor/attendance-portal/geo"
	"github.com/vainnor/attendance-portal/types"
)

// Capture resolution requested from the camera.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

// Camera opens a live stream at the requested resolution.
type Camera interface {
	Open(ctx context.Context, width, height int) (Stream, error)
}

// Stream yields still frames until closed.
type Stream interface {
	Capture(ctx context.Context) (image.Image, error)
	Close() error
}

// SessionSource reports the active session for a course, or nil.
// *collector.Collector satisfies it.
type SessionSource interface {
	ActiveFor(courseCode string) *types.AttendanceSession
}

// Submission is what a capture attempt sends to the verification endpoint.
type Submission struct {
	RollNo     string
	CourseCode string
	Image      []byte
	Location   geo.Coordinate
}

// Outcome is the verification endpoint's answer.
type Outcome struct {
	Success bool
	Message string
	Error   string
	Code    apperr.Code
}

// Submitter sends a capture for verification. A returned error means the
// request itself failed; a rejection is reported through Outcome.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) (Outcome, error)
}

// ErrNotCapturing is returned by Capture when Begin has not opened a camera.
var ErrNotCapturing = apperr.New(apperr.CodeInvalidInput, "attendance capture has not been started")

// Flow is one student's capture state. Methods are safe for concurrent use.
type Flow struct {
	rollNo    string
	camera    Camera
	locator   geo.Locator
	sessions  SessionSource
	submitter Submitter
	records   RecordBook
	now       func() time.Time
	loc       *time.Location

	mu     sync.Mutex
	course string
	stream Stream
}

// Option configures a Flow.
type Option func(*Flow)

// WithClock overrides the clock used for record dates.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// WithLocation sets the timezone whose calendar day keys records. It
// should match the portal's ATTENDANCE_TZ.
func WithLocation(loc *time.Location) Option {
	return func(f *Flow) {
		if loc != nil {
			f.loc = loc
		}
	}
}

// WithRecordBook overrides the default in-memory record book.
func WithRecordBook(b RecordBook) Option {
	return func(f *Flow) { f.records = b }
}

func NewFlow(rollNo string, camera Camera, locator geo.Locator, sessions SessionSource, submitter Submitter, opts ...Option) *Flow {
	f := &Flow{
		rollNo:    strings.TrimSpace(rollNo),
		camera:    camera,
		locator:   locator,
		sessions:  sessions,
		submitter: submitter,
		records:   NewMemoryRecordBook(),
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Begin runs the pre-checks for courseCode and opens the camera.
func (f *Flow) Begin(ctx context.Context, courseCode string) error {
	code := strings.ToUpper(strings.TrimSpace(courseCode))
	if code == "" {
		return apperr.New(apperr.CodeInvalidInput, "please enter course code")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.records.Has(code, f.today()) {
		return apperr.New(apperr.CodeDuplicateAttendance, "attendance already marked for this course today")
	}
	if f.sessions.ActiveFor(code) == nil {
		return apperr.New(apperr.CodeNoActiveSession, "faculty has not started attendance for this course")
	}

	// A second Begin replaces the earlier stream.
	f.closeLocked()

	stream, err := f.camera.Open(ctx, FrameWidth, FrameHeight)
	if err != nil {
		return apperr.Wrap(apperr.CodeCameraUnavailable, "camera access denied: "+err.Error(), err)
	}
	f.course = code
	f.stream = stream
	return nil
}

// Capture locates the device, grabs a frame and submits it. On acceptance
// the local record is written and the camera released; on rejection the
// camera stays open so the student can try again.
func (f *Flow) Capture(ctx context.Context) (Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stream == nil {
		return Outcome{}, ErrNotCapturing
	}

	pos, err := f.locator.Locate(ctx)
	if err != nil {
		return Outcome{}, apperr.Wrap(apperr.CodeLocationUnavailable, "failed to get location: "+err.Error(), err)
	}

	frame, err := f.stream.Capture(ctx)
	if err != nil {
		return Outcome{}, apperr.Wrap(apperr.CodeCameraUnavailable, "failed to capture image: "+err.Error(), err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG); err != nil {
		return Outcome{}, apperr.Wrap(apperr.CodeCameraUnavailable, "failed to encode image: "+err.Error(), err)
	}

	out, err := f.submitter.Submit(ctx, Submission{
		RollNo:     f.rollNo,
		CourseCode: f.course,
		Image:      buf.Bytes(),
		Location:   pos,
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return Outcome{}, err
		}
		return Outcome{}, apperr.Wrap(apperr.CodeSubmissionFailure, "failed to submit attendance: "+err.Error(), err)
	}
	if !out.Success {
		code := out.Code
		if code == "" {
			code = apperr.CodeSubmissionFailure
		}
		msg := out.Error
		if msg == "" {
			msg = "attendance was not accepted"
		}
		return out, apperr.New(code, msg)
	}

	if err := f.records.Put(f.course, f.today()); err != nil {
		log.Printf("[STUDENT] failed to save local record for %s: %v", f.course, err)
	}
	f.closeLocked()
	return out, nil
}

// Cancel releases the camera without submitting.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

// Capturing reports whether a camera stream is open.
func (f *Flow) Capturing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stream != nil
}

func (f *Flow) today() string {
	return types.RecordDate(f.now().In(f.loc))
}

func (f *Flow) closeLocked() {
	if f.stream == nil {
		return
	}
	if err := f.stream.Close(); err != nil {
		log.Printf("[STUDENT] error closing camera: %v", err)
	}
	f.stream = nil
	f.course = ""
}
