// Package story is the narrative collaborator of the episode workflow.
//
// It builds a prompt from the recurring cast and the continuity window,
// sends it to a text provider (Gemini or OpenRouter), and parses the reply
// into an episode.Story through a strict wire schema. A reply that fails the
// schema is never coerced: a deterministic fallback story is derived from
// the raw text instead, and the run continues.
package story
