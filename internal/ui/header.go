package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/soratui/internal/state"
)

// renderHeader renders the status bar: logo, phase badge, job and endpoint.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth
	snap := m.snapshot

	parts := []string{bg.Render("soratui", styles.Logo)}

	phase := snap.Phase.String()
	badge := styles.StatusStyle(phase).Render(strings.ToUpper(phase))
	if snap.Phase.Active() {
		badge = bg.Render(m.spinner.View(), styles.AccentText) + bg.Space() + badge
	}
	parts = append(parts, badge)

	if snap.JobID != "" {
		parts = append(parts, bg.Render("job", styles.FaintText)+bg.Space()+bg.Render(truncateMiddle(snap.JobID, 24), styles.Text))
	}
	if snap.LastStatus != "" && snap.Phase == state.Polling {
		parts = append(parts, styles.StatusStyle(snap.LastStatus).Render(snap.LastStatus))
	}
	if snap.Polls > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%d checks", snap.Polls), styles.MutedText))
	}
	if elapsed := snap.Elapsed(); elapsed > 0 {
		parts = append(parts, bg.Render(formatElapsed(elapsed), styles.MutedText))
	}
	if snap.Phase == state.Failed && snap.LastError != nil && !compact {
		parts = append(parts, bg.Render(truncate(snap.LastError.Error(), 40), styles.DangerText))
	}
	if !compact && m.endpoint != "" {
		target := m.endpoint
		if m.profile != "" {
			target = m.profile + " " + target
		}
		parts = append(parts, bg.Render(truncateMiddle(target, 40), styles.FaintText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Padding(0, 1).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

// renderCommandBar renders key hints for the current focus.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	commands := []cmd{{"tab", "Next"}}
	if m.focus == fieldButton {
		commands = append(commands, cmd{"enter", "Create"})
	} else {
		commands = append(commands, cmd{"enter", "Next"})
	}
	commands = append(commands, cmd{"ctrl+s", "Create"})
	follow := "Pause"
	if !m.follow {
		follow = "Follow"
	}
	commands = append(commands, cmd{"ctrl+f", follow}, cmd{"pgup/pgdn", "Scroll"}, cmd{"F1", "Help"})

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	if m.outputDir != "" && m.width >= LayoutCompactWidth {
		segments = append(segments,
			bg.Render("out", styles.FaintText)+colon+bg.Render(truncateMiddle(m.outputDir, 30), styles.MutedText))
	}
	segments = append(segments,
		bg.Render("ctrl+t", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(bg.Join(segments, "  "))
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

// truncate truncates a string to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// truncateMiddle keeps the start and the (longer) end of s.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 5 {
		return string(r[:max])
	}
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return string(r[:startLen]) + "..." + string(r[len(r)-endLen:])
}
