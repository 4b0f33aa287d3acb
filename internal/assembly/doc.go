// Package assembly concatenates an ordered set of rendered segments into the
// final episode file.
//
// Segments are joined with the ffmpeg concat demuxer using stream copy. The
// output is written to a hidden temp file beside the canonical path and
// renamed into place only after the concat (and optional duration check)
// succeeds, so a failed run never leaves a partial artifact at the
// canonical path. On success the manifest and every segment that lives
// under the run directory are removed; files outside it are never touched.
package assembly
