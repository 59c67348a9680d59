// Package logging assembles structured slog loggers for clipguard.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code tags log lines
// with the request identifier, stage, and source platform. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
