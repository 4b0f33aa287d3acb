// Package publish uploads finished episodes to YouTube.
//
// Uploader authenticates with a stored OAuth refresh token and sends one
// videos.insert call per episode. Failures are classified as auth, quota or
// upload so operators can tell a revoked token from an exhausted quota.
// Skipper stands in when publishing is disabled and records a skipped result.
package publish
