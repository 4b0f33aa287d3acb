// Package services defines shared utilities consumed by the episode workflow
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, episode numbers and
//     correlation identifiers for logging.
//   - The failure taxonomy: one sentinel marker per kind plus the Wrap helper
//     that tags an error with stage and operation context, and Details/KindOf
//     that recover those fields for persistence and operator output.
//
// Subpackages hold the clients for remote services (Gemini, OpenRouter).
package services
