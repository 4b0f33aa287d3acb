// Package staging owns the per-run temporary directories under
// paths.staging_dir and the age-based cleanup of run directories and output
// artifacts.
//
// Each run gets its own directory named after the episode number and run id.
// Segment files are written there and only files under that directory are
// eligible for deletion by the assembler.
package staging
