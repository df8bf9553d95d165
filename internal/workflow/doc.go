// Package workflow drives one video from script to file.
//
// A Controller submits the script, polls the job until it completes, and
// downloads the result to <output dir>/<id>.mp4. It knows nothing about the
// terminal: frontends implement Surface, which supplies the typed fields and
// receives human-readable log lines. The Bubble Tea UI, the headless
// `create` command and the tests all use the same controller.
//
// Polling checks status once right away and then waits on a timer between
// checks, so cancelling the context ends a run within one interval. Run
// blocks; Trigger starts the same sequence on a goroutine and refuses a
// second start while one is in flight.
//
// Lines written to the Surface, in order for a successful run:
//
//	Creating video...
//	Video created with ID: <id>
//	Status: <status>            (one per check)
//	Downloading video to <path>...
//	Video downloaded to <path>
//
// Failures end the run with one of:
//
//	Error creating video: <err>
//	Error checking status: <err>
//	Video generation failed: <reason>
//	Timed out waiting for video after <n> checks
//	Error downloading video: <err>
//	Cancelled: <err>
package workflow
