// Package llm provides an OpenRouter chat-completion client used as the
// alternate story provider (story.provider = "openrouter").
//
// The client sends a system and a user prompt with JSON response mode and
// returns the raw content. DecodeJSON tolerates code fences and prose
// around the JSON object.
//
// # Retry Behaviour
//
// Requests are retried on HTTP 408/429/5xx, empty completions and network
// timeouts with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default). Retry-After is honoured. Context cancellation aborts retries.
//
// StatusError and Transient let callers map failures onto their own error
// taxonomy.
package llm
