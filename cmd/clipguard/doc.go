// Package main hosts the clipguard CLI entrypoint and command graph.
//
// The Cobra-based command tree runs single moderation requests from the
// terminal, serves the HTTP API, reports readiness of binaries and model
// endpoints, prints the active rule set, and scaffolds configuration. It
// centralizes configuration resolution, logger setup, and pipeline wiring
// so subcommands can focus on presentation.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
