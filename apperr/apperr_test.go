package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeOutOfRange, "you are 667 m away")
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatal("expected errors.Is to match by code")
	}
	if errors.Is(err, ErrDuplicateAttendance) {
		t.Fatal("expected different codes not to match")
	}

	wrapped := fmt.Errorf("capture: %w", err)
	if !errors.Is(wrapped, ErrOutOfRange) {
		t.Fatal("expected match through fmt wrapping")
	}
	if CodeOf(wrapped) != CodeOutOfRange {
		t.Fatalf("expected OUT_OF_RANGE, got %s", CodeOf(wrapped))
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("permission denied")
	err := Wrap(CodeLocationUnavailable, "failed to get location: permission denied", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "failed to get location: permission denied" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestCodeOfUnknown(t *testing.T) {
	if CodeOf(errors.New("plain")) != CodeUnknown {
		t.Fatal("expected unknown code for plain error")
	}
	if CodeOf(nil) != CodeUnknown {
		t.Fatal("expected unknown code for nil")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		CodeInvalidInput:        http.StatusBadRequest,
		CodeLocationUnavailable: http.StatusUnprocessableEntity,
		CodeDuplicateAttendance: http.StatusConflict,
		CodeNoActiveSession:     http.StatusNotFound,
		CodeOutOfRange:          http.StatusUnprocessableEntity,
		CodeSubmissionFailure:   http.StatusBadGateway,
		CodeUnknown:             http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := code.HTTPStatus(); got != want {
			t.Fatalf("%s: expected %d, got %d", code, want, got)
		}
	}
}
