// Package apperr provides the structured error kinds reported to portal users.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Input and device errors
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeLocationUnavailable Code = "LOCATION_UNAVAILABLE"
	CodeCameraUnavailable   Code = "CAMERA_UNAVAILABLE"

	// Attendance protocol errors
	CodeDuplicateAttendance Code = "DUPLICATE_ATTENDANCE"
	CodeNoActiveSession     Code = "NO_ACTIVE_SESSION"
	CodeOutOfRange          Code = "OUT_OF_RANGE"
	CodeNotEnrolled         Code = "NOT_ENROLLED"
	CodeSessionActive       Code = "SESSION_ACTIVE"
	CodeSubmissionFailure   Code = "SUBMISSION_FAILURE"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeInternal Code = "INTERNAL"
)

// HTTPStatus maps a code to the status returned by the API.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput, CodeNotEnrolled:
		return http.StatusBadRequest
	case CodeLocationUnavailable, CodeCameraUnavailable, CodeOutOfRange:
		return http.StatusUnprocessableEntity
	case CodeDuplicateAttendance, CodeSessionActive:
		return http.StatusConflict
	case CodeNoActiveSession, CodeNotFound:
		return http.StatusNotFound
	case CodeSubmissionFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // User-facing message
	Metadata map[string]string // Additional context, e.g. measured distance
	Cause    error             // Wrapped underlying error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata creates a domain error carrying extra context.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidInput        = New(CodeInvalidInput, "invalid input")
	ErrLocationUnavailable = New(CodeLocationUnavailable, "location unavailable")
	ErrCameraUnavailable   = New(CodeCameraUnavailable, "camera unavailable")
	ErrDuplicateAttendance = New(CodeDuplicateAttendance, "attendance already marked")
	ErrNoActiveSession     = New(CodeNoActiveSession, "no active session")
	ErrOutOfRange          = New(CodeOutOfRange, "out of range")
	ErrNotEnrolled         = New(CodeNotEnrolled, "not enrolled")
	ErrSessionActive       = New(CodeSessionActive, "session already active")
	ErrSubmissionFailure   = New(CodeSubmissionFailure, "submission failed")
	ErrNotFound            = New(CodeNotFound, "not found")
)
