package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/five82/soratui/internal/api"
	"github.com/five82/soratui/internal/config"
	"github.com/five82/soratui/internal/output"
)

type cliTestEnv struct {
	dir        string
	configPath string
	logPath    string
	outputDir  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(config.APIKeyEnv, "sk-test")

	env := &cliTestEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.toml"),
		logPath:    filepath.Join(dir, "soratui.log"),
		outputDir:  filepath.Join(dir, "videos"),
	}
	content := fmt.Sprintf("poll_interval = \"5ms\"\nlog_file = %q\n", env.logPath)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	flags := []string{"--config", env.configPath, "--prefs", filepath.Join(env.dir, "prefs.toml"), "--output-dir", env.outputDir}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

// newVideoServer serves one job that completes on its second status check.
func newVideoServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	var checks atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /videos", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "vid_42", "status": "queued"})
	})
	mux.HandleFunc("GET /videos/vid_42", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"id": "vid_42", "status": "in_progress", "progress": 40.0}
		if checks.Add(1) >= 2 {
			resp["status"] = "completed"
			resp["download_url"] = "/content/vid_42"
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /content/vid_42", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRootRequiresTerminal(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env)
	if err == nil || !strings.Contains(err.Error(), "interactive terminal") {
		t.Fatalf("err = %v, want terminal error", err)
	}
}

func TestCreateRequiresAPIKey(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv(config.APIKeyEnv, "")

	_, _, err := runCLI(t, env, "create", "--script", "hello")
	if err == nil || err.Error() != "Please set the OPENAI_API_KEY environment variable." {
		t.Fatalf("err = %v, want missing key message", err)
	}
}

func TestCreateEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newVideoServer(t, []byte("mp4"))

	out, _, err := runCLI(t, env, "--endpoint", srv.URL, "create", "-s", "A lighthouse at dusk", "--voice", "alloy")
	if err != nil {
		t.Fatalf("create: %v\n%s", err, out)
	}
	dest := filepath.Join(env.outputDir, "vid_42.mp4")
	requireContains(t, out, "Video created with ID: vid_42")
	requireContains(t, out, "Status: in_progress")
	requireContains(t, out, "Video downloaded to "+dest)

	if data, err := os.ReadFile(dest); err != nil || string(data) != "mp4" {
		t.Fatalf("output file = %q, %v", data, err)
	}
}

func TestCreateScriptFromStdin(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newVideoServer(t, []byte("mp4"))

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)
	cmd.SetIn(strings.NewReader("  A lighthouse at dusk\n"))
	cmd.SetArgs([]string{"--config", env.configPath, "--output-dir", env.outputDir,
		"--endpoint", srv.URL, "create", "--script-file", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("create: %v\n%s", err, stdout.String())
	}
	requireContains(t, stdout.String(), "Video downloaded to")
}

func TestCreateRejectsBothScriptSources(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "create", "-s", "a", "-f", "script.txt")
	if err == nil || !strings.Contains(err.Error(), "not both") {
		t.Fatalf("err = %v, want conflict error", err)
	}
}

func TestStatusTable(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newVideoServer(t, nil)

	out, _, err := runCLI(t, env, "--endpoint", srv.URL, "status", "vid_42")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "vid_42")
	requireContains(t, out, "In Progress")
	requireContains(t, out, "progress")
	requireContains(t, out, "40")
}

func TestRenderJobIncludesNumericFields(t *testing.T) {
	out := renderJob(api.Job{
		ID:     "vid_42",
		Status: "in_progress",
		Raw: map[string]any{
			"id":       "vid_42",
			"progress": json.Number("40"),
			"model":    "sora-2",
			"nested":   map[string]any{"skip": true},
		},
	})
	requireContains(t, out, "progress")
	requireContains(t, out, "40")
	requireContains(t, out, "sora-2")
	if strings.Contains(out, "nested") {
		t.Fatalf("table includes non-scalar field:\n%s", out)
	}
}

func TestCommandsRejectTraversalID(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newVideoServer(t, nil)

	for _, cmd := range []string{"status", "download"} {
		_, _, err := runCLI(t, env, "--endpoint", srv.URL, cmd, "../vid_42")
		if !errors.Is(err, output.ErrInvalidID) {
			t.Fatalf("%s err = %v, want ErrInvalidID", cmd, err)
		}
	}
	if _, err := os.Stat(filepath.Join(env.dir, "vid_42.mp4")); !os.IsNotExist(err) {
		t.Fatalf("file written outside output dir: %v", err)
	}
}

func TestStatusWatchJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newVideoServer(t, nil)

	out, _, err := runCLI(t, env, "--endpoint", srv.URL, "status", "--watch", "--json", "vid_42")
	if err != nil {
		t.Fatalf("status --watch: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if payload["status"] != "completed" {
		t.Fatalf("status = %v, want completed", payload["status"])
	}
}

func TestDownloadToExplicitPath(t *testing.T) {
	env := setupCLITestEnv(t)
	srv := newVideoServer(t, []byte("0123456789"))

	// First check reports in_progress, so download is refused.
	_, _, err := runCLI(t, env, "--endpoint", srv.URL, "download", "vid_42")
	if err == nil || !strings.Contains(err.Error(), "not completed") {
		t.Fatalf("err = %v, want not completed", err)
	}

	dest := filepath.Join(env.dir, "clip.mp4")
	out, _, err := runCLI(t, env, "--endpoint", srv.URL, "download", "vid_42", "-o", dest)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	requireContains(t, out, "Video downloaded to "+dest+" (10 B)")
}

func TestLogsShowsTail(t *testing.T) {
	env := setupCLITestEnv(t)
	lines := "time=1 level=info msg=first\ntime=2 level=info msg=second\ntime=3 level=warn msg=third\n"
	if err := os.WriteFile(env.logPath, []byte(lines), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, env, "logs", "-n", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "first") {
		t.Fatalf("logs -n 2 included the first line:\n%s", out)
	}
	requireContains(t, out, "msg=second")
	requireContains(t, out, "msg=third")
}

func TestLogsMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv(config.APIKeyEnv, "")

	out, _, err := runCLI(t, env, "logs")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log records")
}

func TestProfilesCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "profiles")
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}
	requireContains(t, out, "sora2")
	requireContains(t, out, "openai")
	requireContains(t, out, "https://api.openai.com/v1")
}

func TestTitleStatus(t *testing.T) {
	tests := map[string]string{
		"queued":      "Queued",
		"in_progress": "In Progress",
		"":            "Unknown",
		" COMPLETED ": "Completed",
	}
	for in, want := range tests {
		if got := titleStatus(in); got != want {
			t.Fatalf("titleStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
