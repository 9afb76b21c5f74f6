// Package faculty runs the faculty side of an attendance session: it anchors
// the session at the faculty's location, counts it down, and keeps the live
// roster of who has checked in.
package faculty

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vainnor/attendance-portal/apperr"
	"github.com/vainnor/attendance-portal/geo"
	"github.com/vainnor/attendance-portal/models"
	"github.com/vainnor/attendance-portal/session"
	"github.com/vainnor/attendance-portal/types"
)

// State of the controller.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Catalog resolves courses and their enrolled students.
type Catalog interface {
	GetCourse(ctx context.Context, code string) (*models.Course, error)
	EnrolledStudents(ctx context.Context, code string) ([]models.EnrolledStudent, error)
}

// History records held sessions.
type History interface {
	CreateSession(ctx context.Context, h models.SessionHistory) error
	EndSession(ctx context.Context, id string, end time.Time, reason string) error
}

// StartRequest is the faculty's "start attendance" form.
type StartRequest struct {
	CourseCode      string
	DurationMinutes int
	Faculty         string
	Section         string
	Topic           string
}

// Live is a point-in-time view of the running session.
type Live struct {
	State            State                     `json:"state"`
	Session          *types.AttendanceSession  `json:"session,omitempty"`
	Remaining        string                    `json:"remaining"`
	RemainingSeconds int                       `json:"remaining_seconds"`
	Roster           []types.LiveStudentStatus `json:"roster"`
	Present          int                       `json:"present"`
	Total            int                       `json:"total"`
}

// Controller is the Idle -> Running -> Idle session state machine. It is the
// only writer of the session slot.
type Controller struct {
	store     session.Store
	catalog   Catalog
	history   History
	tolerance float64
	now       func() time.Time
	newID     func() string

	mu        sync.Mutex
	state     State
	current   *types.AttendanceSession
	roster    []types.LiveStudentStatus
	countdown Countdown
	stats     types.ControllerStats
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithTolerance sets the acceptance radius stored on new sessions.
func WithTolerance(meters float64) Option {
	return func(c *Controller) { c.tolerance = meters }
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(f func() string) Option {
	return func(c *Controller) { c.newID = f }
}

// NewController builds an idle controller. history may be nil.
func NewController(store session.Store, catalog Catalog, history History, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		catalog:   catalog,
		history:   history,
		tolerance: types.ToleranceMeters,
		now:       time.Now,
		newID:     uuid.NewString,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.stats.StartTime = c.now()
	return c
}

// Start validates the request, resolves the anchor location and enters
// Running. On any failure the controller stays Idle.
func (c *Controller) Start(ctx context.Context, req StartRequest, locator geo.Locator) (types.AttendanceSession, error) {
	code := strings.ToUpper(strings.TrimSpace(req.CourseCode))
	if code == "" {
		return types.AttendanceSession{}, apperr.New(apperr.CodeInvalidInput, "please enter course code")
	}
	if req.DurationMinutes <= 0 {
		return types.AttendanceSession{}, apperr.New(apperr.CodeInvalidInput, "please enter valid duration")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning {
		return types.AttendanceSession{}, apperr.WithMetadata(apperr.CodeSessionActive,
			fmt.Sprintf("attendance is already running for %s", c.current.CourseCode),
			map[string]string{"course_code": c.current.CourseCode})
	}

	course, err := c.catalog.GetCourse(ctx, code)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return types.AttendanceSession{}, apperr.Wrap(apperr.CodeInvalidInput, "invalid course code", err)
		}
		return types.AttendanceSession{}, apperr.Wrap(apperr.CodeInternal, "failed to load course", err)
	}

	anchor, err := locator.Locate(ctx)
	if err != nil {
		return types.AttendanceSession{}, apperr.Wrap(apperr.CodeLocationUnavailable,
			"failed to get location: "+err.Error(), err)
	}

	students, err := c.catalog.EnrolledStudents(ctx, code)
	if err != nil {
		return types.AttendanceSession{}, apperr.Wrap(apperr.CodeInternal, "failed to load roster", err)
	}

	faculty := strings.TrimSpace(req.Faculty)
	if faculty == "" {
		faculty = course.Faculty
	}
	s := types.AttendanceSession{
		ID:              c.newID(),
		CourseCode:      code,
		DurationMinutes: req.DurationMinutes,
		StartTime:       c.now(),
		Anchor:          anchor,
		Faculty:         faculty,
		Section:         strings.TrimSpace(req.Section),
		Topic:           strings.TrimSpace(req.Topic),
		RadiusMeters:    c.tolerance,
	}
	if err := c.store.Set(ctx, s); err != nil {
		return types.AttendanceSession{}, apperr.Wrap(apperr.CodeInternal, "failed to publish session", err)
	}
	if c.history != nil {
		if err := c.history.CreateSession(ctx, models.SessionHistory{
			ID: s.ID, CourseCode: s.CourseCode, Faculty: s.Faculty, StartTime: s.StartTime,
		}); err != nil {
			log.Printf("[CONTROLLER] failed to record session history for %s: %v", s.ID, err)
		}
	}

	c.enterRunning(s, students, NewCountdown(time.Duration(s.DurationMinutes)*time.Minute))
	c.stats.SessionsStarted++
	c.stats.LastStart = s.StartTime
	log.Printf("[CONTROLLER] attendance started for %s (%d students, %s, anchor %s)",
		s.CourseCode, len(c.roster), c.countdown, s.Anchor)
	return s, nil
}

func (c *Controller) enterRunning(s types.AttendanceSession, students []models.EnrolledStudent, cd Countdown) {
	roster := make([]types.LiveStudentStatus, 0, len(students))
	for _, st := range students {
		roster = append(roster, types.LiveStudentStatus{RollNo: st.RollNo, Name: st.Name, Status: types.StatusAbsent})
	}
	c.current = &s
	c.roster = roster
	c.countdown = cd
	c.state = StateRunning
}

// Tick advances the countdown by one second and stops the session when it
// reaches 00:00 or its end time has passed.
func (c *Controller) Tick(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return
	}
	if c.countdown.Tick() || !c.current.Active(c.now()) {
		c.stats.SessionsExpired++
		if err := c.stopLocked(ctx, models.EndReasonExpired); err != nil {
			log.Printf("[CONTROLLER] auto-stop: %v", err)
		}
	}
}

// Run ticks once per second until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Stop ends the running session. Stopping an idle controller is a no-op.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return nil
	}
	c.stats.SessionsStopped++
	return c.stopLocked(ctx, models.EndReasonStopped)
}

// stopLocked resets to Idle even when clearing the slot fails, so a faculty
// member can always start again.
func (c *Controller) stopLocked(ctx context.Context, reason string) error {
	s := c.current
	c.state = StateIdle
	c.current = nil
	c.roster = nil
	c.countdown = Countdown{}

	err := c.store.Clear(ctx)
	if err != nil {
		err = fmt.Errorf("clear session slot: %w", err)
	}
	if c.history != nil {
		if herr := c.history.EndSession(ctx, s.ID, c.now(), reason); herr != nil {
			log.Printf("[CONTROLLER] failed to close session history %s: %v", s.ID, herr)
		}
	}
	log.Printf("[CONTROLLER] attendance for %s %s", s.CourseCode, reason)
	return err
}

// MarkPresent flips a roster entry to Present. Entries are never removed.
func (c *Controller) MarkPresent(courseCode, rollNo string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning || !strings.EqualFold(c.current.CourseCode, courseCode) {
		return apperr.New(apperr.CodeNoActiveSession, "faculty has not started attendance for this course")
	}
	for i := range c.roster {
		if !strings.EqualFold(c.roster[i].RollNo, rollNo) {
			continue
		}
		if c.roster[i].Status != types.StatusPresent {
			c.roster[i].Status = types.StatusPresent
			c.stats.StudentsMarked++
		}
		return nil
	}
	return apperr.WithMetadata(apperr.CodeNotEnrolled,
		fmt.Sprintf("student %s is not enrolled in %s", rollNo, c.current.CourseCode),
		map[string]string{"roll_no": rollNo})
}

// Restore resumes a session found in the slot after a restart. An expired
// session is cleared instead.
func (c *Controller) Restore(ctx context.Context) error {
	s, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("read session slot: %w", err)
	}
	if s == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !s.Active(now) {
		c.current = s
		c.stats.SessionsExpired++
		return c.stopLocked(ctx, models.EndReasonExpired)
	}

	students, err := c.catalog.EnrolledStudents(ctx, s.CourseCode)
	if err != nil {
		return fmt.Errorf("load roster for %s: %w", s.CourseCode, err)
	}
	c.enterRunning(*s, students, NewCountdown(s.EndsAt().Sub(now)))
	log.Printf("[CONTROLLER] resumed attendance for %s with %s left", s.CourseCode, c.countdown)
	return nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the running session, or nil when Idle.
func (c *Controller) Session() *types.AttendanceSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	s := *c.current
	return &s
}

// Roster returns a copy of the live roster.
func (c *Controller) Roster() []types.LiveStudentStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.LiveStudentStatus(nil), c.roster...)
}

// Remaining returns the countdown.
func (c *Controller) Remaining() Countdown {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countdown
}

// Live returns the roster view shown to faculty.
func (c *Controller) Live() Live {
	c.mu.Lock()
	defer c.mu.Unlock()

	l := Live{
		State:            c.state,
		Remaining:        c.countdown.String(),
		RemainingSeconds: int(c.countdown.Duration() / time.Second),
		Roster:           append([]types.LiveStudentStatus{}, c.roster...),
		Total:            len(c.roster),
	}
	if c.current != nil {
		s := *c.current
		l.Session = &s
	}
	for _, st := range c.roster {
		if st.Status == types.StatusPresent {
			l.Present++
		}
	}
	return l
}

func (c *Controller) GetStats() types.ControllerStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.State = string(c.state)
	return stats
}
