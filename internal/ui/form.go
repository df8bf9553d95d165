package ui

import (
	"strings"
)

const buttonLabel = "Create Video"

// renderForm renders the three inputs and the trigger button.
func (m Model) renderForm() string {
	styles := m.theme.Styles()

	var b strings.Builder
	for i := range m.inputs {
		marker := "  "
		if m.focus == i {
			marker = styles.AccentText.Render("▸ ")
		}
		b.WriteString(marker)
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderButton(styles))

	title := "New video"
	if m.busy() {
		title = "New video " + m.spinner.View()
	}
	return m.renderBox(title, b.String(), m.width, formRows, m.focus != fieldButton)
}

// renderButton shows the trigger as disabled while a run is in flight.
func (m Model) renderButton(styles Styles) string {
	switch {
	case m.busy():
		return "  " + styles.ButtonDisabled.Render(buttonLabel) + "  " +
			styles.FaintText.Render("working on "+m.snapshot.Phase.String()+"...")
	case m.focus == fieldButton:
		return styles.AccentText.Render("▸ ") + styles.Button.Render(buttonLabel)
	default:
		return "  " + styles.ButtonIdle.Render(buttonLabel)
	}
}
