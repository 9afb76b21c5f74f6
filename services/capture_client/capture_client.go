// Package captureclient talks to the attendance portal over HTTP on behalf
// of the student capture tool.
package captureclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vainnor/attendance-portal/apperr"
	"github.com/vainnor/attendance-portal/student"
	"github.com/vainnor/attendance-portal/types"
)

const (
	capturePath       = "/api/attendance/capture"
	activeSessionPath = "/api/sessions/active"
)

// Client submits captures and reads the active session.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// captureResponse is the body of a capture reply, accepted or not.
type captureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// Submit posts the frame and coordinates as multipart form data. Rejections
// come back as an Outcome; transport and decoding problems as an error.
func (c *Client) Submit(ctx context.Context, sub student.Submission) (student.Outcome, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := map[string]string{
		"roll_no":     sub.RollNo,
		"course_code": sub.CourseCode,
		"gps_lat":     strconv.FormatFloat(sub.Location.Latitude, 'f', -1, 64),
		"gps_long":    strconv.FormatFloat(sub.Location.Longitude, 'f', -1, 64),
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return student.Outcome{}, fmt.Errorf("write field %s: %w", name, err)
		}
	}
	part, err := mw.CreateFormFile("captured_image", "capture.jpg")
	if err != nil {
		return student.Outcome{}, fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(sub.Image); err != nil {
		return student.Outcome{}, fmt.Errorf("write image part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return student.Outcome{}, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+capturePath, &body)
	if err != nil {
		return student.Outcome{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("Error submitting capture: %v", err)
		return student.Outcome{}, err
	}
	defer resp.Body.Close()

	var cr captureResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		log.Printf("Error decoding capture response (%d): %v", resp.StatusCode, err)
		return student.Outcome{}, fmt.Errorf("decode capture response: status %d: %w", resp.StatusCode, err)
	}

	out := student.Outcome{
		Success: cr.Success && resp.StatusCode < http.StatusBadRequest,
		Message: cr.Message,
		Error:   cr.Error,
		Code:    apperr.Code(cr.Code),
	}
	if !out.Success && out.Error == "" {
		out.Error = fmt.Sprintf("submission rejected with status %d", resp.StatusCode)
	}
	return out, nil
}

// Get returns the session the server currently reports as active, or nil.
// It satisfies session.Source, so a collector can poll a remote portal.
func (c *Client) Get(ctx context.Context) (*types.AttendanceSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+activeSessionPath, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("active session: unexpected status %d", resp.StatusCode)
	}

	var s types.AttendanceSession
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode active session: %w", err)
	}
	return &s, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}
}
