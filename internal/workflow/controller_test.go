package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/five82/soratui/internal/api"
	"github.com/five82/soratui/internal/output"
	"github.com/five82/soratui/internal/state"
)

type fakeClient struct {
	mu sync.Mutex

	submitJob  api.Job
	submitErr  error
	submitGate chan struct{}

	// status returns the result of the n-th GetStatus call (1-based).
	status func(n int) (api.Job, error)

	downloadErr error

	requests    []api.CreateRequest
	statusCalls int
	downloads   []string
}

func (f *fakeClient) Submit(ctx context.Context, req api.CreateRequest) (api.Job, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate := f.submitGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.submitJob, f.submitErr
}

func (f *fakeClient) GetStatus(ctx context.Context, id string) (api.Job, error) {
	f.mu.Lock()
	f.statusCalls++
	n := f.statusCalls
	f.mu.Unlock()
	return f.status(n)
}

func (f *fakeClient) Download(ctx context.Context, id, dest string, opts ...api.DownloadOption) error {
	f.mu.Lock()
	f.downloads = append(f.downloads, dest)
	f.mu.Unlock()
	if f.downloadErr != nil {
		return f.downloadErr
	}
	return os.WriteFile(dest, []byte("video:"+id), 0o644)
}

func (f *fakeClient) calls() (submits, statuses, downloads int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests), f.statusCalls, len(f.downloads)
}

func statusSequence(statuses ...string) func(int) (api.Job, error) {
	return func(n int) (api.Job, error) {
		if n > len(statuses) {
			n = len(statuses)
		}
		return api.Job{ID: "abc123", Status: statuses[n-1]}, nil
	}
}

type recordingSurface struct {
	fields Fields

	mu    sync.Mutex
	lines []string
}

func (s *recordingSurface) Fields() Fields { return s.fields }

func (s *recordingSurface) Log(line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

func (s *recordingSurface) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func newController(t *testing.T, client Client, opts ...Option) (*Controller, string) {
	t.Helper()
	dir := t.TempDir()
	opts = append([]Option{WithPollInterval(time.Millisecond), WithOutputDir(dir)}, opts...)
	return New(client, opts...), dir
}

func assertLines(t *testing.T, got, want []string) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("log lines:\n got %q\nwant %q", got, want)
	}
}

func TestRun_HappyPath(t *testing.T) {
	client := &fakeClient{
		submitJob: api.Job{ID: "abc123", Status: "queued"},
		status:    statusSequence("queued", "processing", "completed"),
	}
	ctrl, dir := newController(t, client)
	surface := &recordingSurface{fields: Fields{Script: "Hello world"}}

	if err := ctrl.Run(context.Background(), surface); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	path := filepath.Join(dir, "abc123.mp4")
	assertLines(t, surface.Lines(), []string{
		"Creating video...",
		"Video created with ID: abc123",
		"Status: queued",
		"Status: processing",
		"Status: completed",
		"Downloading video to " + path + "...",
		"Video downloaded to " + path,
	})
	if data, err := os.ReadFile(path); err != nil || string(data) != "video:abc123" {
		t.Fatalf("output = %q, %v; want video:abc123", data, err)
	}

	snap := ctrl.Snapshot()
	if snap.Phase != state.Done || snap.JobID != "abc123" || snap.Polls != 3 || snap.OutputPath != path {
		t.Fatalf("snapshot = %+v, want done abc123 after 3 polls", snap)
	}
	if ctrl.Busy() {
		t.Fatal("Busy() = true after run finished")
	}
}

func TestRun_ScriptSentAsTypedAndBlankOptionalFieldsAbsent(t *testing.T) {
	client := &fakeClient{
		submitJob: api.Job{ID: "abc123"},
		status:    statusSequence("completed"),
	}
	ctrl, _ := newController(t, client)
	surface := &recordingSurface{fields: Fields{Script: "  Hello  ", Voice: "   ", Style: ""}}

	if err := ctrl.Run(context.Background(), surface); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := api.CreateRequest{Script: "  Hello  "}
	if len(client.requests) != 1 || client.requests[0] != want {
		t.Fatalf("requests = %+v, want [%+v]", client.requests, want)
	}
}

func TestRun_SubmitErrorStopsBeforePolling(t *testing.T) {
	client := &fakeClient{
		submitErr: errors.New("create video: http 500"),
		status:    statusSequence("completed"),
	}
	ctrl, _ := newController(t, client)
	surface := &recordingSurface{fields: Fields{Script: "Hello world"}}

	if err := ctrl.Run(context.Background(), surface); err == nil {
		t.Fatal("Run returned nil error")
	}
	assertLines(t, surface.Lines(), []string{
		"Creating video...",
		"Error creating video: create video: http 500",
	})
	if _, statuses, downloads := client.calls(); statuses != 0 || downloads != 0 {
		t.Fatalf("status calls = %d downloads = %d, want 0 and 0", statuses, downloads)
	}
	if snap := ctrl.Snapshot(); snap.Phase != state.Failed {
		t.Fatalf("Phase = %v, want failed", snap.Phase)
	}
}

func TestRun_MissingIDFails(t *testing.T) {
	client := &fakeClient{status: statusSequence("completed")}
	ctrl, _ := newController(t, client)
	surface := &recordingSurface{fields: Fields{Script: "Hello world"}}

	if err := ctrl.Run(context.Background(), surface); err == nil {
		t.Fatal("Run returned nil error")
	}
	lines := surface.Lines()
	if lines[len(lines)-1] != "Error creating video: response did not include a video id" {
		t.Fatalf("last line = %q", lines[len(lines)-1])
	}
}

func TestRun_RejectsIDOutsideOutputDir(t *testing.T) {
	for _, id := range []string{"../escaped", "a/b", `..\escaped`, ".."} {
		t.Run(id, func(t *testing.T) {
			client := &fakeClient{
				submitJob: api.Job{ID: id, Status: "queued"},
				status:    statusSequence("completed"),
			}
			ctrl, dir := newController(t, client)
			surface := &recordingSurface{fields: Fields{Script: "Hello world"}}

			err := ctrl.Run(context.Background(), surface)
			if !errors.Is(err, output.ErrInvalidID) {
				t.Fatalf("Run error = %v, want ErrInvalidID", err)
			}
			assertLines(t, surface.Lines(), []string{
				"Creating video...",
				"Error creating video: invalid video id",
			})
			if _, statuses, downloads := client.calls(); statuses != 0 || downloads != 0 {
				t.Fatalf("status calls = %d downloads = %d, want 0 and 0", statuses, downloads)
			}
			if _, statErr := os.Stat(filepath.Join(filepath.Dir(dir), "escaped.mp4")); !os.IsNotExist(statErr) {
				t.Fatalf("file written outside output dir (stat err = %v)", statErr)
			}
		})
	}
}

func TestRun_StatusErrorStopsPolling(t *testing.T) {
	client := &fakeClient{
		submitJob: api.Job{ID: "abc123"},
		status: func(n int) (api.Job, error) {
			if n == 2 {
				return api.Job{}, errors.New("get video status: http 502")
			}
			return api.Job{ID: "abc123", Status: "processing"}, nil
		},
	}
	ctrl, _ := newController(t, client)
	surface := &recordingSurface{fields: Fields{Script: "Hello world"}}

	if err := ctrl.Run(context.Background(), surface); err == nil {
		t.Fatal("Run returned nil error")
	}
	assertLines(t, surface.Lines(), []string{
		"Creating video...",
		"Video created with ID: abc123",
		"Status: processing",
		"Error checking status: get video status: http 502",
	})
	if _, statuses, downloads := client.calls(); statuses != 2 || downloads != 0 {
		t.Fatalf("status calls = %d downloads = %d, want 2 and 0", statuses, downloads)
	}
}

func TestRun_DownloadErrorFails(t *testing.T) {
	client := &fakeClient{
		submitJob:   api.Job{ID: "abc123"},
		status:      statusSequence("completed"),
		downloadErr: errors.New("download video: http 403: expired"),
	}
	ctrl, dir := newController(t, client)
	surface := &recordingSurface{fields: Fields{Script: "Hello world"}}

	if err := ctrl.Run(context.Background(), surface); err == nil {
		t.Fatal("Run returned nil error")
	}
	path := filepath.Join(dir, "abc123.mp4")
	assertLines(t, surface.Lines(), []string{
		"Creating video...",
		"Video created with ID: abc123",
		"Status: completed",
		"Downloading video to " + path + "...",
		"Error downloading video: download video: http 403: expired",
	})
	snap := ctrl.Snapshot()
	if snap.Phase != state.Failed || snap.LastError == nil {
		t.Fatalf("snapshot = %+v, want failed with error", snap)
	}
}

func TestRun_GenerationFailed(t *testing.T) {
	tests := []struct {
		name string
		job  api.Job
		want string
	}{
		{"with reason", api.Job{ID: "abc123", Status: "failed", Error: "moderation blocked"}, "Video generation failed: moderation blocked"},
		{"cancelled without reason", api.Job{ID: "abc123", Status: "cancelled"}, "Video generation failed: cancelled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{
				submitJob: api.Job{ID: "abc123"},
				status:    func(int) (api.Job, error) { return tt.job, nil },
			}
			ctrl, _ := newController(t, client)
			surface := &recordingSurface{fields: Fields{Script: "Hello world"}}

			err := ctrl.Run(context.Background(), surface)
			if !errors.Is(err, ErrGenerationFailed) {
				t.Fatalf("Run error = %v, want ErrGenerationFailed", err)
			}
			lines := surface.Lines()
			if got := lines[len(lines)-1]; got != tt.want {
				t.Fatalf("last line = %q, want %q", got, tt.want)
			}
			if _, statuses, downloads := client.calls(); statuses != 1 || downloads != 0 {
				t.Fatalf("status calls = %d downloads = %d, want 1 and 0", statuses, downloads)
			}
		})
	}
}

func TestRun_MaxPolls(t *testing.T) {
	client := &fakeClient{
		submitJob: api.Job{ID: "abc123"},
		status:    statusSequence("processing"),
	}
	ctrl, _ := newController(t, client, WithMaxPolls(3))
	surface := &recordingSurface{fields: Fields{Script: "Hello world"}}

	err := ctrl.Run(context.Background(), surface)
	if !errors.Is(err, ErrPollLimit) {
		t.Fatalf("Run error = %v, want ErrPollLimit", err)
	}
	lines := surface.Lines()
	if got := lines[len(lines)-1]; got != "Timed out waiting for video after 3 checks" {
		t.Fatalf("last line = %q", got)
	}
	if _, statuses, _ := client.calls(); statuses != 3 {
		t.Fatalf("status calls = %d, want 3", statuses)
	}
}

func TestRun_CancelDuringPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeClient{
		submitJob: api.Job{ID: "abc123"},
		status: func(int) (api.Job, error) {
			cancel()
			return api.Job{ID: "abc123", Status: "processing"}, nil
		},
	}
	ctrl, _ := newController(t, client, WithPollInterval(time.Hour))
	surface := &recordingSurface{fields: Fields{Script: "Hello world"}}

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx, surface) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	lines := surface.Lines()
	if got := lines[len(lines)-1]; got != "Cancelled: context canceled" {
		t.Fatalf("last line = %q", got)
	}
	if snap := ctrl.Snapshot(); snap.Phase != state.Failed {
		t.Fatalf("Phase = %v, want failed", snap.Phase)
	}
}

func TestRun_EmptyScriptMakesNoCalls(t *testing.T) {
	client := &fakeClient{status: statusSequence("completed")}
	ctrl, _ := newController(t, client)
	surface := &recordingSurface{fields: Fields{Script: "  \n", Voice: "alloy"}}

	if err := ctrl.Run(context.Background(), surface); !errors.Is(err, ErrEmptyScript) {
		t.Fatalf("Run error = %v, want ErrEmptyScript", err)
	}
	if submits, _, _ := client.calls(); submits != 0 {
		t.Fatalf("submit calls = %d, want 0", submits)
	}
	if snap := ctrl.Snapshot(); snap.Phase != state.Idle {
		t.Fatalf("Phase = %v, want idle", snap.Phase)
	}
	assertLines(t, surface.Lines(), []string{"Please enter a script"})
}

func TestTrigger_RejectsSecondRunWhileBusy(t *testing.T) {
	gate := make(chan struct{})
	client := &fakeClient{
		submitJob:  api.Job{ID: "abc123"},
		submitGate: gate,
		status:     statusSequence("completed"),
	}
	ctrl, _ := newController(t, client)
	surface := &recordingSurface{fields: Fields{Script: "Hello world"}}

	if err := ctrl.Trigger(context.Background(), surface); err != nil {
		t.Fatalf("first Trigger returned error: %v", err)
	}
	if !ctrl.Busy() {
		t.Fatal("Busy() = false after Trigger")
	}
	if err := ctrl.Trigger(context.Background(), surface); !errors.Is(err, ErrBusy) {
		t.Fatalf("second Trigger error = %v, want ErrBusy", err)
	}

	close(gate)
	ctrl.Wait()

	if submits, _, downloads := client.calls(); submits != 1 || downloads != 1 {
		t.Fatalf("submits = %d downloads = %d, want 1 and 1", submits, downloads)
	}
	if ctrl.Busy() {
		t.Fatal("Busy() = true after run finished")
	}

	// A finished run does not block the next one.
	if err := ctrl.Trigger(context.Background(), surface); err != nil {
		t.Fatalf("Trigger after finish returned error: %v", err)
	}
	ctrl.Wait()
}

func TestRun_AgainstHTTPService(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/videos":
			_, _ = w.Write([]byte(`{"id":"vid_9","status":"queued"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/videos/vid_9":
			mu.Lock()
			polls++
			n := polls
			mu.Unlock()
			status := "processing"
			if n >= 2 {
				status = "completed"
			}
			_, _ = fmt.Fprintf(w, `{"id":"vid_9","status":%q,"download_url":"/files/vid_9.mp4"}`, status)
		case r.URL.Path == "/files/vid_9.mp4":
			_, _ = w.Write([]byte("MP4DATA"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	client, err := api.NewClient("sk-test", api.WithEndpoint(server.URL))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctrl, dir := newController(t, client)
	surface := &recordingSurface{fields: Fields{Script: "A cat surfing"}}

	if err := ctrl.Run(context.Background(), surface); err != nil {
		t.Fatalf("Run returned error: %v (lines %q)", err, surface.Lines())
	}
	data, err := os.ReadFile(filepath.Join(dir, "vid_9.mp4"))
	if err != nil || string(data) != "MP4DATA" {
		t.Fatalf("output = %q, %v; want MP4DATA", data, err)
	}
	// Completed is seen on the second check; the download's own status check is the third.
	mu.Lock()
	defer mu.Unlock()
	if polls != 3 {
		t.Fatalf("status requests = %d, want 3", polls)
	}
}
