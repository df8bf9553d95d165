// Package ui provides the Bubble Tea frontend for soratui.
//
// # Layout
//
//	┌ header ─ logo, phase badge + spinner, job id, checks, elapsed ┐
//	│ command bar ─ key hints, output dir, theme                     │
//	╭ New video ──────────────────────────────────────────────────╮
//	│ ▸ Script  ...                                                │
//	│   Voice   ...                                                │
//	│   Style   ...                                                │
//	│   [ Create Video ]                                           │
//	╰──────────────────────────────────────────────────────────────╯
//	╭ Log ─────────────────────────────────────────────────────────╮
//	│ 09:12:03 Creating video...                                   │
//	│ 09:12:04 Video created with ID: abc123                       │
//	╰──────────────────────────────────────────────────────────────╯
//	  footer rendered by bubbles/help
//
// # Talking to the workflow
//
// The model never calls the API itself. Pressing the button (enter on it, or
// ctrl+s anywhere) copies the three inputs into a channel-backed Surface and
// calls Workflow.Trigger, which returns at once. The controller's goroutine
// writes log lines into the Surface; waitForLine turns each one into a
// logLineMsg and is re-armed by Update, so lines arrive in order on the UI
// goroutine. A tick refreshes the workflow snapshot that drives the header
// badge, the spinner, and the disabled button.
//
// # Keys
//
// Printable keys go to the focused input, so commands use modifiers: ctrl+s
// submits, ctrl+f toggles log follow, ctrl+t cycles the theme (saved to
// prefs), F1 opens help. Quitting takes ctrl+c twice within two seconds; the
// first press only logs a reminder.
package ui
