package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRead(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}
	if err := os.WriteFile(logPath, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"read all (0)", 0, expectedAll},
		{"read all (negative)", -1, expectedAll},
		{"read partial (5)", 5, expectedAll[5:]},
		{"read one", 1, expectedAll[9:]},
		{"read exactly all (10)", 10, expectedAll},
		{"read more than exists (20)", 20, expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	lines, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || lines != nil {
		t.Fatalf("Read = %v, %v; want nil, nil", lines, err)
	}
}

func TestRead_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	lines, err := Read(path, 5)
	if err != nil || len(lines) != 0 {
		t.Fatalf("Read = %v, %v; want no lines", lines, err)
	}
}

func plainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Time: s, Debug: s, Info: s, Warn: s, Error: s, Key: s}
}

func TestHighlight(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "text record",
			input: `time=2026-10-18T09:12:03Z level=warn msg="api request rejected" status=500`,
			want:  `2026-10-18T09:12:03Z WARN "api request rejected" status=500`,
		},
		{
			name:  "quoted value with spaces and escapes",
			input: `time=t level=info msg=done path="a b/\"c\".mp4"`,
			want:  `t INFO done path="a b/\"c\".mp4"`,
		},
		{
			name:  "non record passes through",
			input: `{"level":"info","msg":"video created"}`,
			want:  `{"level":"info","msg":"video created"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Highlight(tt.input, plainStyles()); got != tt.want {
				t.Fatalf("Highlight = %q, want %q", got, tt.want)
			}
		})
	}
}
