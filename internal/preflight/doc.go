// Package preflight provides readiness checks for the external services,
// binaries and filesystem paths reelcast depends on.
//
// These checks run in two contexts:
//   - "reelcast run" calls CheckDirectories before starting a workflow so a
//     missing output directory fails fast instead of after minutes of video
//     generation.
//   - "reelcast status" calls RunAll to display every check, including the
//     network probes for the story provider.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
