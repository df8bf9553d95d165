package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

const logTimeLayout = "15:04:05"

// appendLog adds one timestamped line to the scrollback.
func (m *Model) appendLog(at time.Time, text string) {
	m.logLines = append(m.logLines, at.Format(logTimeLayout)+" "+text)
	m.logLines = trimLogBuffer(m.logLines, LogBufferLimit)
	m.refreshLogContent()
}

// trimLogBuffer trims the log buffer to the limit by removing oldest entries.
func trimLogBuffer(lines []string, limit int) []string {
	if overflow := len(lines) - limit; overflow > 0 {
		return append([]string(nil), lines[overflow:]...)
	}
	return lines
}

func (m *Model) updateLogViewport() {
	width := m.width - 4
	if width < 10 {
		width = 10
	}
	height := m.height - headerRows - formRows - footerRows - boxBorders
	if height < minLogRows {
		height = minLogRows
	}
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(width, height)
	}
	m.logViewport.Width = width
	m.logViewport.Height = height
	m.refreshLogContent()
}

func (m *Model) refreshLogContent() {
	styles := m.theme.Styles()
	rendered := make([]string, len(m.logLines))
	for i, line := range m.logLines {
		rendered[i] = colorizeLogLine(line, styles)
	}
	m.logViewport.SetContent(strings.Join(rendered, "\n"))
	if m.follow {
		m.logViewport.GotoBottom()
	}
}

// colorizeLogLine dims the timestamp and tints the message by outcome.
func colorizeLogLine(line string, styles Styles) string {
	stamp, text, ok := strings.Cut(line, " ")
	if !ok {
		return styles.Text.Render(line)
	}
	return styles.FaintText.Render(stamp) + " " + messageStyle(text, styles).Render(text)
}

func messageStyle(text string, styles Styles) lipgloss.Style {
	switch {
	case strings.HasPrefix(text, "Error"),
		strings.HasPrefix(text, "Video generation failed"),
		strings.HasPrefix(text, "Timed out"),
		strings.HasPrefix(text, "Cancelled"):
		return styles.DangerText
	case strings.HasPrefix(text, "Video downloaded"):
		return styles.SuccessText
	case strings.HasPrefix(text, "Status:"):
		return styles.InfoText
	case strings.HasPrefix(text, "Press Ctrl-C"), strings.HasPrefix(text, "Please enter"):
		return styles.WarningText
	default:
		return styles.Text
	}
}

// renderLogs renders the scrollback box and its status line.
func (m Model) renderLogs() string {
	title := "Log"
	if !m.follow {
		title += " (paused)"
	}
	return m.renderBox(title, m.logViewport.View(), m.width, m.logViewport.Height+boxBorders, false)
}

// renderBox draws content inside a rounded border with a title inset into
// the top edge.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	borderColor := m.theme.Border
	if focused {
		borderColor = m.theme.BorderFocus
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Padding(0, 1).
		Width(max(width-2, 1)).
		Height(max(height-boxBorders, 1)).
		Render(content)

	if title == "" {
		return box
	}
	styles := m.theme.Styles()
	label := " " + styles.AccentText.Bold(true).Render(title) + " "
	lines := strings.SplitN(box, "\n", 2)
	top := lines[0]
	if lipgloss.Width(top) <= lipgloss.Width(label)+4 {
		return box
	}
	border := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	rb := lipgloss.RoundedBorder()
	fill := lipgloss.Width(top) - lipgloss.Width(label) - 3
	top = border.Render(rb.TopLeft+rb.Top) + label + border.Render(strings.Repeat(rb.Top, fill)+rb.TopRight)
	if len(lines) == 1 {
		return top
	}
	return top + "\n" + lines[1]
}
