// Package config loads, normalizes, and validates clipguard configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLIPGUARD_LLM_API_KEY and HF_TOKEN. The Config type centralizes every knob
// the CLI and HTTP server need, so the pipeline is constructed from one
// explicit value instead of process globals.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
