// Package logging assembles structured slog loggers and formatting helpers used
// across reelcast.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing (including size-based rotation of the log file), and exposes
// context-aware helpers so workflow code automatically tags log lines with run
// IDs, stages and episode numbers. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
package logging
