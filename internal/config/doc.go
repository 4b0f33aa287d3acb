// Package config loads, normalizes, and validates reelcast configuration.
//
// Configuration is TOML. Load resolves an explicit path, then
// ~/.config/reelcast/config.toml, then ./reelcast.toml, and applies repository
// defaults for anything not set. Secrets may instead come from the environment
// (GOOGLE_API_KEY, OPENROUTER_API_KEY, YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET,
// YOUTUBE_REFRESH_TOKEN); a .env file is read without overriding variables that
// are already set.
//
// Validate is strict: a run never starts with a backend it cannot reach for
// lack of credentials.
package config
