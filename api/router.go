package api

import (
	"github.com/gorilla/mux"
)

// NewRouter creates and configures a new router with all API endpoints
func NewRouter(s *Server, limiter *RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger)

	r.HandleFunc("/health", s.Health).Methods("GET")

	// Add API key management endpoints
	r.HandleFunc("/api/keys", s.CreateAPIKey).Methods("POST")
	r.HandleFunc("/api/keys", s.ListAPIKeys).Methods("GET")
	r.HandleFunc("/api/keys", s.DeleteAPIKey).Methods("DELETE")

	// Student capture endpoint. A classroom usually shares one campus NAT
	// address, so captures are not counted against the per-address limit.
	r.HandleFunc("/api/attendance/capture", s.CaptureAttendance).Methods("POST")

	// Apply rate limiting middleware to all other routes
	api := r.PathPrefix("/api").Subrouter()
	if limiter != nil {
		api.Use(limiter.Middleware)
	}

	// Faculty session endpoints
	api.HandleFunc("/sessions", s.StartSession).Methods("POST")
	api.HandleFunc("/sessions/active", s.GetActiveSession).Methods("GET")
	api.HandleFunc("/sessions/active", s.StopSession).Methods("DELETE")
	api.HandleFunc("/sessions/live", s.GetLiveSession).Methods("GET")

	// Course catalog and student overview
	api.HandleFunc("/courses", s.ListCourses).Methods("GET")
	api.HandleFunc("/students/{roll}/attendance", s.GetStudentAttendance).Methods("GET")

	// Statistics endpoints
	api.HandleFunc("/courses/{code}/stats", s.GetCourseStats).Methods("GET")
	api.HandleFunc("/collector/stats", s.GetCollectorStats).Methods("GET")
	api.HandleFunc("/controller/stats", s.GetControllerStats).Methods("GET")

	return r
}
