// Package llm provides an OpenAI-compatible chat client used by the judge.
//
// The client speaks the plain chat/completions wire format, so it works with
// OpenRouter, OpenAI, and local servers such as Ollama. The API key is
// optional and only sent when configured.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts at temperature 0 and request
// a JSON object response.
// Client.HealthCheck: verify the endpoint and model respond.
// DecodeLLMJSON: decode a model reply that may wrap JSON in fences or prose.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx, empty completions, and network
// timeouts with exponential backoff (base 1s, max 10s, 3 attempts by
// default). A Retry-After header replaces the next delay. Context
// cancellation aborts retries immediately.
package llm
