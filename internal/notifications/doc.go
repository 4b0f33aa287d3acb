// Package notifications delivers episode run events via ntfy.
//
// NewService returns an ntfy-backed Service when a topic URL is configured
// and a no-op implementation otherwise. The workflow treats every delivery
// error as a warning; a failed push never fails a run.
package notifications
