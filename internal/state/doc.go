// Package state holds the shared view of the video workflow.
//
// # Overview
//
// The workflow controller runs each video job on its own goroutine while the
// UI renders on the Bubble Tea loop. Store is the single point where the two
// meet: the controller writes phase changes, the UI reads snapshots.
//
//	Writer (workflow):              Reader (UI):
//	┌──────────────────┐            ┌──────────────────┐
//	│ store.Begin()    │            │                  │
//	│ store.SetJob()   │            │ store.Snapshot() │
//	│ store.Observe…() │───────────→│       ↓          │
//	│ store.Finish()   │  (mutex)   │ render trigger,  │
//	│ store.Fail()     │            │ spinner, header  │
//	└──────────────────┘            └──────────────────┘
//
// # Phases
//
//	Idle → Submitting → Polling → Downloading → Done
//	            └──────────┴───────────┴──────→ Failed
//
// Done and Failed end a run. Begin starts the next one from Submitting and
// clears the previous job ID, status and error.
//
// # Re-entrancy
//
// Begin is a check-and-set under the write lock: it refuses to start while
// Phase.Active() is true. The controller relies on this to reject a second
// trigger, and the UI uses the same predicate to render the trigger as
// disabled.
//
// # Copies
//
// Snapshot returns a value copy. LastError is re-wrapped so callers never
// hold the stored error value directly; errors.Is and errors.As still see
// through it.
package state
