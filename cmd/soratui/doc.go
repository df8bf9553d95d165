// Package main hosts the soratui entrypoint and command graph.
//
// Running soratui with no subcommand opens the TUI. The subcommands cover the
// same workflow for scripts and pipes: create runs one video end to end,
// status and download act on an existing job ID, logs tails the diagnostic
// log, and profiles lists the wire contracts the client can speak.
//
// Keep this package lean: behavior lives in internal/app and the packages it
// wires; commands here only parse flags and format output.
package main
