// Package logtail reads the end of the soratui log file for `soratui logs`.
//
// # Reading
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays O(maxLines) however large the log grows:
//
//	1. Allocate a ring of maxLines slots
//	2. For each line, store it at the cursor and advance (wrapping)
//	3. If fewer than maxLines were seen, return them in order
//	4. Otherwise return the ring starting at the cursor (oldest line)
//
// Lines longer than 1 MiB fail the read rather than being split.
//
// # Highlighting
//
// Highlight colours records written by the text handler in
// internal/logging:
//
//	time=2026-10-18T09:12:03Z level=info msg="video created" job_id=abc123
//
// The timestamp is dimmed, the level is upper-cased and coloured, and
// attribute keys are tinted. JSON records and free text pass through as-is.
package logtail
