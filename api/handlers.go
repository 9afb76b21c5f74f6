package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vainnor/attendance-portal/apperr"
	"github.com/vainnor/attendance-portal/capture"
	"github.com/vainnor/attendance-portal/db"
	"github.com/vainnor/attendance-portal/faculty"
	"github.com/vainnor/attendance-portal/geo"
	"github.com/vainnor/attendance-portal/models"
	"github.com/vainnor/attendance-portal/types"
	"github.com/vainnor/attendance-portal/verify"
)

const maxCaptureSize = 5 << 20

// SessionView is the polled, read-only view of the session slot.
type SessionView interface {
	Active() *types.AttendanceSession
	GetStats() types.CollectionStats
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	controller *faculty.Controller
	sessions   SessionView
	store      *db.Store
	archive    *capture.Archive
	verifier   verify.Verifier
	masterKey  string
	loc        *time.Location
	now        func() time.Time
	validate   *validator.Validate
}

// Config carries the optional Server settings.
type Config struct {
	Archive         *capture.Archive
	ToleranceMeters float64
	MasterAPIKey    string
	Location        *time.Location
	Now             func() time.Time
}

func NewServer(controller *faculty.Controller, sessions SessionView, store *db.Store, cfg Config) *Server {
	s := &Server{
		controller: controller,
		sessions:   sessions,
		store:      store,
		archive:    cfg.Archive,
		verifier:   verify.Verifier{ToleranceMeters: cfg.ToleranceMeters},
		masterKey:  cfg.MasterAPIKey,
		loc:        cfg.Location,
		now:        cfg.Now,
		validate:   validator.New(),
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeError maps err to its status and the JSON error body. Errors without
// a code are logged and reported as internal.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Code == apperr.CodeUnknown {
		log.Printf("Internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  string(apperr.CodeInternal),
		})
		return
	}
	if appErr.Code == apperr.CodeInternal {
		log.Printf("Internal error: %v", err)
	}
	writeJSON(w, appErr.Code.HTTPStatus(), ErrorResponse{
		Error:    appErr.Message,
		Code:     string(appErr.Code),
		Metadata: appErr.Metadata,
	})
}

func (s *Server) validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.Wrap(apperr.CodeInvalidInput,
			"invalid "+strings.ToLower(fe.Field())+": failed "+fe.Tag()+" check", err)
	}
	return apperr.Wrap(apperr.CodeInvalidInput, "invalid request", err)
}

// StartSession handles POST /api/sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInvalidInput, "invalid request body", err))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, s.validationError(err))
		return
	}

	started, err := s.controller.Start(r.Context(), req.toStart(), req.Locator())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, started)
}

// StopSession handles DELETE /api/sessions/active.
func (s *Server) StopSession(w http.ResponseWriter, r *http.Request) {
	if s.controller.State() != faculty.StateRunning {
		writeError(w, apperr.New(apperr.CodeNoActiveSession, "no attendance session is running"))
		return
	}
	if err := s.controller.Stop(r.Context()); err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInternal, "failed to stop attendance", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetActiveSession handles GET /api/sessions/active from the polled view.
func (s *Server) GetActiveSession(w http.ResponseWriter, r *http.Request) {
	active := s.sessions.Active()
	if active == nil || !active.Active(s.now()) {
		writeError(w, apperr.New(apperr.CodeNoActiveSession, "no attendance session is running"))
		return
	}
	writeJSON(w, http.StatusOK, active)
}

// GetLiveSession handles GET /api/sessions/live.
func (s *Server) GetLiveSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Live())
}

func parseCoordinate(r *http.Request) (geo.Coordinate, error) {
	latText := strings.TrimSpace(r.FormValue("gps_lat"))
	lngText := strings.TrimSpace(r.FormValue("gps_long"))
	if latText == "" || lngText == "" {
		return geo.Coordinate{}, apperr.New(apperr.CodeLocationUnavailable, "GPS coordinates are required")
	}
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return geo.Coordinate{}, apperr.Wrap(apperr.CodeLocationUnavailable, "invalid GPS coordinates", err)
	}
	lng, err := strconv.ParseFloat(lngText, 64)
	if err != nil {
		return geo.Coordinate{}, apperr.Wrap(apperr.CodeLocationUnavailable, "invalid GPS coordinates", err)
	}
	return geo.Coordinate{Latitude: lat, Longitude: lng}, nil
}

// CaptureAttendance handles POST /api/attendance/capture.
func (s *Server) CaptureAttendance(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCaptureSize+1<<20)
	if err := r.ParseMultipartForm(maxCaptureSize); err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInvalidInput, "invalid multipart form", err))
		return
	}

	req := CaptureRequest{
		RollNo:     strings.ToUpper(strings.TrimSpace(r.FormValue("roll_no"))),
		CourseCode: strings.ToUpper(strings.TrimSpace(r.FormValue("course_code"))),
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, s.validationError(err))
		return
	}

	ctx := r.Context()
	now := s.now()
	date := types.RecordDate(now.In(s.loc))

	// A second capture on the same day is a duplicate whatever its location.
	recorded, err := s.store.HasRecord(ctx, req.RollNo, req.CourseCode, date)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInternal, "failed to check attendance", err))
		return
	}
	if recorded {
		writeError(w, apperr.New(apperr.CodeDuplicateAttendance, "attendance already marked for this course today"))
		return
	}

	pos, err := parseCoordinate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	req.Latitude, req.Longitude = pos.Latitude, pos.Longitude

	file, _, err := r.FormFile("captured_image")
	if err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInvalidInput, "captured image is required", err))
		return
	}
	defer file.Close()
	frame, err := io.ReadAll(file)
	if err != nil || len(frame) == 0 {
		writeError(w, apperr.Wrap(apperr.CodeInvalidInput, "captured image is required", err))
		return
	}

	// The controller is the slot's only writer, so it sees a stop before
	// the poller does.
	active := s.controller.Session()
	decision, err := s.verifier.Check(active, verify.Attempt{
		CourseCode: req.CourseCode,
		RollNo:     req.RollNo,
		Location:   pos,
		At:         now,
	}, false)
	if err != nil {
		writeError(w, err)
		return
	}

	if ok, err := s.isEnrolled(ctx, req.CourseCode, req.RollNo); err != nil {
		writeError(w, apperr.Wrap(apperr.CodeInternal, "failed to load roster", err))
		return
	} else if !ok {
		writeError(w, apperr.New(apperr.CodeNotEnrolled, "you are not enrolled in this course"))
		return
	}

	rec := types.AttendanceRecord{
		ID:             uuid.NewString(),
		SessionID:      active.ID,
		CourseCode:     req.CourseCode,
		RollNo:         req.RollNo,
		Date:           date,
		MarkedAt:       now,
		Location:       pos,
		DistanceMeters: decision.DistanceMeters,
	}
	if s.archive != nil {
		key, err := s.archive.Store(ctx, req.CourseCode, req.RollNo, date, frame)
		if err != nil {
			log.Printf("Error archiving capture for %s/%s: %v", req.CourseCode, req.RollNo, err)
		}
		rec.CaptureKey = key
	}

	if err := s.store.InsertRecord(ctx, rec); err != nil {
		writeError(w, err)
		return
	}
	if err := s.controller.MarkPresent(req.CourseCode, req.RollNo); err != nil {
		log.Printf("Roster not updated for %s/%s: %v", req.CourseCode, req.RollNo, err)
	}

	log.Printf("Attendance marked for %s in %s (%.0f m)", req.RollNo, req.CourseCode, decision.DistanceMeters)
	writeJSON(w, http.StatusCreated, CaptureResponse{
		Success:        true,
		Message:        "Attendance marked successfully!",
		RecordID:       rec.ID,
		DistanceMeters: decision.DistanceMeters,
	})
}

func (s *Server) isEnrolled(ctx context.Context, courseCode, rollNo string) (bool, error) {
	students, err := s.store.EnrolledStudents(ctx, courseCode)
	if err != nil {
		return false, err
	}
	for _, st := range students {
		if strings.EqualFold(st.RollNo, rollNo) {
			return true, nil
		}
	}
	return false, nil
}

// GetCourseStats handles GET /api/courses/{code}/stats.
func (s *Server) GetCourseStats(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["code"]))
	ctx := r.Context()

	course, err := s.store.GetCourse(ctx, code)
	if err != nil {
		writeError(w, err)
		return
	}
	students, err := s.store.EnrolledStudents(ctx, code)
	if err != nil {
		writeError(w, err)
		return
	}
	held, err := s.store.HeldSessions(ctx, code)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := s.store.RecordsForCourse(ctx, code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BuildCourseStatistics(*course, students, held, records, s.loc))
}

// ListCourses handles GET /api/courses.
func (s *Server) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.store.ListCourses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if courses == nil {
		courses = []models.Course{}
	}
	writeJSON(w, http.StatusOK, courses)
}

// GetStudentAttendance handles GET /api/students/{roll}/attendance.
func (s *Server) GetStudentAttendance(w http.ResponseWriter, r *http.Request) {
	rollNo := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["roll"]))
	ctx := r.Context()

	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	overview := StudentOverview{RollNo: rollNo, Courses: []CourseAttendance{}}
	for _, course := range courses {
		students, err := s.store.EnrolledStudents(ctx, course.Code)
		if err != nil {
			writeError(w, err)
			return
		}
		enrolled := false
		for _, st := range students {
			if strings.EqualFold(st.RollNo, rollNo) {
				enrolled = true
				overview.Name = st.Name
				break
			}
		}
		if !enrolled {
			continue
		}

		held, err := s.store.HeldSessions(ctx, course.Code)
		if err != nil {
			writeError(w, err)
			return
		}
		records, err := s.store.RecordsForCourse(ctx, course.Code)
		if err != nil {
			writeError(w, err)
			return
		}
		overview.Courses = append(overview.Courses, BuildCourseAttendance(course, rollNo, held, records))
	}

	if len(overview.Courses) == 0 {
		writeError(w, apperr.New(apperr.CodeNotFound, "student is not enrolled in any course"))
		return
	}
	overview.OverallPercentage = OverallPercentage(overview.Courses)
	writeJSON(w, http.StatusOK, overview)
}

// GetCollectorStats handles GET /api/collector/stats.
func (s *Server) GetCollectorStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.GetStats())
}

// GetControllerStats handles GET /api/controller/stats.
func (s *Server) GetControllerStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.GetStats())
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		State:  s.controller.State(),
		Time:   s.now(),
	})
}
