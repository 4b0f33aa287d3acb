// Package gemini constructs google.golang.org/genai clients and maps genai
// failures onto the reelcast error taxonomy.
//
// The backend-unavailable set is closed: transport errors (dial, DNS,
// refused connections, timeouts), HTTP 404 for a model that is not
// provisioned, 429, 500, 502, 503, 504, and a missing API key. Any other API
// error is a job failure.
package gemini
