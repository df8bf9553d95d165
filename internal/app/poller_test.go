package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/five82/soratui/internal/api"
)

type scriptedStatus struct {
	steps []func() (api.Job, error)
	calls int
}

func (s *scriptedStatus) GetStatus(ctx context.Context, id string) (api.Job, error) {
	i := s.calls
	s.calls++
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	return s.steps[i]()
}

func status(s string) func() (api.Job, error) {
	return func() (api.Job, error) { return api.Job{ID: "abc123", Status: s}, nil }
}

func failing(code int) func() (api.Job, error) {
	return func() (api.Job, error) {
		return api.Job{}, &api.RequestError{Op: "get video status", StatusCode: code}
	}
}

func TestWatchJob_StopsAtTerminalStatus(t *testing.T) {
	client := &scriptedStatus{steps: []func() (api.Job, error){
		status("queued"), status("processing"), status("completed"),
	}}
	var seen []string
	job, err := WatchJob(context.Background(), client, "abc123", WatchOptions{
		Interval: time.Millisecond,
		OnStatus: func(j api.Job) { seen = append(seen, j.Status) },
	})
	if err != nil {
		t.Fatalf("WatchJob: %v", err)
	}
	if job.Status != "completed" {
		t.Fatalf("status = %q, want completed", job.Status)
	}
	if len(seen) != 3 || seen[0] != "queued" || seen[2] != "completed" {
		t.Fatalf("observed = %v, want [queued processing completed]", seen)
	}
}

func TestWatchJob_FailedIsTerminal(t *testing.T) {
	client := &scriptedStatus{steps: []func() (api.Job, error){status("processing"), status("cancelled")}}
	job, err := WatchJob(context.Background(), client, "abc123", WatchOptions{Interval: time.Millisecond})
	if err != nil {
		t.Fatalf("WatchJob: %v", err)
	}
	if !job.Failed() {
		t.Fatalf("status = %q, want a failed status", job.Status)
	}
	if client.calls != 2 {
		t.Fatalf("calls = %d, want 2", client.calls)
	}
}

func TestWatchJob_ErrorEndsWatch(t *testing.T) {
	tests := []struct {
		name string
		code int
		want error
	}{
		{"not found", http.StatusNotFound, api.ErrNotFound},
		{"server error", http.StatusBadGateway, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedStatus{steps: []func() (api.Job, error){failing(tt.code), status("completed")}}
			_, err := WatchJob(context.Background(), client, "abc123", WatchOptions{Interval: time.Millisecond})
			var reqErr *api.RequestError
			if !errors.As(err, &reqErr) || reqErr.StatusCode != tt.code {
				t.Fatalf("err = %v, want RequestError %d", err, tt.code)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if client.calls != 1 {
				t.Fatalf("calls = %d, want 1 (no retry)", client.calls)
			}
		})
	}
}

func TestWatchJob_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &scriptedStatus{steps: []func() (api.Job, error){
		func() (api.Job, error) {
			cancel()
			return api.Job{ID: "abc123", Status: "processing"}, nil
		},
	}}
	_, err := WatchJob(ctx, client, "abc123", WatchOptions{Interval: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
