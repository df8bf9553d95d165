package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const maxLineBytes = 1 << 20

// Read returns the last maxLines lines of the file at path. maxLines <= 0
// returns every line. A missing file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count, next := 0, 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count < maxLines {
		copy(lines, ring[:count])
		return lines, nil
	}
	for i := range lines {
		lines[i] = ring[(next+i)%maxLines]
	}
	return lines, nil
}

// Styles colours the parts of a slog text record.
type Styles struct {
	Time  lipgloss.Style
	Debug lipgloss.Style
	Info  lipgloss.Style
	Warn  lipgloss.Style
	Error lipgloss.Style
	Key   lipgloss.Style
}

// DefaultStyles suits dark terminal backgrounds.
func DefaultStyles() Styles {
	return Styles{
		Time:  lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
		Debug: lipgloss.NewStyle().Foreground(lipgloss.Color("#8be9fd")),
		Info:  lipgloss.NewStyle().Foreground(lipgloss.Color("#50fa7b")).Bold(true),
		Warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f1fa8c")).Bold(true),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555")).Bold(true),
		Key:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6495ED")),
	}
}

// Highlight styles the time, level and attribute keys of a key=value line.
// Lines that are not key=value records are returned unchanged.
func Highlight(line string, s Styles) string {
	if !strings.HasPrefix(line, "time=") {
		return line
	}
	fields := splitFields(line)
	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			b.WriteString(field)
			continue
		}
		switch key {
		case "time":
			b.WriteString(s.Time.Render(value))
		case "level":
			b.WriteString(levelStyle(value, s).Render(strings.ToUpper(value)))
		case "msg":
			b.WriteString(value)
		default:
			b.WriteString(s.Key.Render(key + "="))
			b.WriteString(value)
		}
	}
	return b.String()
}

func levelStyle(level string, s Styles) lipgloss.Style {
	switch strings.ToLower(level) {
	case "debug":
		return s.Debug
	case "warn":
		return s.Warn
	case "error":
		return s.Error
	default:
		return s.Info
	}
}

// splitFields splits on spaces outside double quotes.
func splitFields(line string) []string {
	var fields []string
	var cur strings.Builder
	quoted, escaped := false, false
	for _, r := range line {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ' ' && !quoted:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}
