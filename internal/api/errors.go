package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrMissingAPIKey is returned by NewClient when no key is supplied.
	ErrMissingAPIKey = errors.New("api: api key required")

	// ErrNotFound matches a RequestError for an ID the service does not know.
	ErrNotFound = errors.New("api: video not found")

	// ErrJobNotReady matches a NotReadyError.
	ErrJobNotReady = errors.New("api: video not ready")
)

const maxErrorBody = 4 << 10

// RequestError reports a failed remote call. StatusCode is zero when the
// request never produced a response or the body stream broke.
type RequestError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: http %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, body)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *RequestError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// NotReadyError is returned by Download before the job has completed.
type NotReadyError struct {
	JobID  string
	Status string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("video %s not completed (status: %s)", e.JobID, e.Status)
}

func (e *NotReadyError) Is(target error) bool {
	return target == ErrJobNotReady
}

func newStatusError(op string, resp *http.Response) *RequestError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &RequestError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

func success(code int) bool {
	return code >= 200 && code < 300
}
