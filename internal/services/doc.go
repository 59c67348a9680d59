// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, stage names, and platforms for
//     logging.
//   - Structured error markers plus the Wrap helper that let callers classify
//     failures (validation vs external tool vs timeout) with errors.Is.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
