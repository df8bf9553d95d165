package api

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Job statuses the client interprets. Anything else is passed through as-is.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Job mirrors the remote service's view of a video generation job.
type Job struct {
	ID          string
	Status      string
	DownloadURL string
	Error       string

	// Raw holds the decoded response, including fields the client does not model.
	Raw map[string]any
}

// Completed reports whether the job reached the terminal success status.
func (j Job) Completed() bool {
	return normalizeStatus(j.Status) == StatusCompleted
}

// Failed reports whether the service gave up on the job.
func (j Job) Failed() bool {
	switch normalizeStatus(j.Status) {
	case StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the job will not change status again.
func (j Job) Terminal() bool {
	return j.Completed() || j.Failed()
}

// CreateRequest carries the user's input for a new video.
type CreateRequest struct {
	Script string
	Voice  string
	Style  string
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func decodeJob(r io.Reader, profile Profile) (Job, error) {
	var raw map[string]any
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return Job{}, fmt.Errorf("decode response: %w", err)
	}
	job := Job{
		ID:          stringField(raw, "id"),
		Status:      stringField(raw, "status"),
		DownloadURL: stringField(raw, profile.DownloadURLField),
		Error:       errorText(raw["error"]),
		Raw:         raw,
	}
	return job, nil
}

func stringField(raw map[string]any, key string) string {
	if key == "" {
		return ""
	}
	switch v := raw[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// errorText accepts both `"error": "msg"` and `"error": {"message": "msg"}`.
func errorText(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return strings.TrimSpace(msg)
		}
		if code, ok := v["code"].(string); ok {
			return strings.TrimSpace(code)
		}
	}
	return ""
}
