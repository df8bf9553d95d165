// Package app is the composition root for soratui.
//
// # Overview
//
// Open wires configuration, logging, the API client and the workflow
// controller into a Session. Run hands that session to the TUI; Headless runs
// one workflow cycle against a plain writer for the create command.
//
//	┌──────────────┐
//	│   Open()     │
//	└──────┬───────┘
//	       ├─────> config.LoadEnv()    .env into the environment
//	       ├─────> config.APIKey()     fail fast without OPENAI_API_KEY
//	       ├─────> config.Load/Apply   file, then flag overrides
//	       ├─────> logging.New()       slog to file, stderr or nowhere
//	       ├─────> api.NewClient()     profile + endpoint
//	       └─────> workflow.New()      controller with its own state.Store
//
//	Run:      prefs.Load ─> ui.Run (blocks) ─> cancel ─> Controller.Wait
//	Headless: Controller.Run with a WriterSurface
//
// # Watching existing jobs
//
// WatchJob polls a job the caller already knows about (status --watch) on a
// fixed ticker. Like the controller's loop it stops at the first request
// error; it never submits or downloads.
//
// # Errors
//
// A missing API key is returned as a config.Error whose message is meant for
// the user verbatim. Everything else is wrapped with the step that failed.
package app
