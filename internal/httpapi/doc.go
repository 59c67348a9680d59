// Package httpapi exposes moderation over HTTP.
//
// Routes:
//
//	GET  /         banner
//	GET  /healthz  liveness
//	POST /analyze  {"url": "..."} -> moderation result (also served at /analisar)
//	GET  /metrics  Prometheus exposition
//
// A completed run answers 200, a run that aborted answers 422 with the same
// result shape. Requests are throttled by a process-wide token bucket and a
// cap on concurrent runs; both answer 429 when exhausted.
package httpapi
