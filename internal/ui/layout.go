package ui

import "time"

// Terminal width below which the header drops secondary fields.
const LayoutCompactWidth = 90

// Log pane limits.
const (
	// LogBufferLimit is the maximum number of log lines kept in memory.
	LogBufferLimit = 2000

	// LogChannelBuffer is how many workflow lines may queue before Log blocks.
	LogChannelBuffer = 256
)

// Timing constants.
const (
	// DefaultUIInterval is how often the model refreshes the workflow snapshot.
	DefaultUIInterval = 250 * time.Millisecond

	// QuitConfirmWindow is how long a first ctrl+c stays armed.
	QuitConfirmWindow = 2 * time.Second
)

// Fixed row counts used to size the log viewport.
const (
	headerRows = 2 // status header + command bar
	formRows   = 7 // three inputs, spacer, button, two borders
	footerRows = 1
	boxBorders = 2
	minLogRows = 3
)
