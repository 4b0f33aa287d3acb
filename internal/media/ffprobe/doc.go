// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect executes ffprobe and returns the parsed Result. Prober narrows that
// to the single question the assembler asks of a rendered episode: how long
// is it and does it carry video.
package ffprobe
