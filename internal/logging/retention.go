package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionTarget names a directory, an optional glob over file names and
// paths that must never be pruned (the active log file).
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

func (t RetentionTarget) excluded(path string) bool {
	for _, candidate := range t.Exclude {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if abs, err := filepath.Abs(candidate); err == nil && abs == path {
			return true
		}
	}
	return false
}

func (t RetentionTarget) matches(name string) bool {
	pattern := strings.TrimSpace(t.Pattern)
	if pattern == "" {
		return true
	}
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

// expired appends files under the target last modified before cutoff.
func (t RetentionTarget) expired(dst []string, cutoff time.Time) []string {
	dir := strings.TrimSpace(t.Dir)
	if dir == "" {
		return dst
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return dst
	}
	for _, entry := range entries {
		if entry.IsDir() || !t.matches(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if t.excluded(path) {
			continue
		}
		if info, err := entry.Info(); err == nil && info.ModTime().Before(cutoff) {
			dst = append(dst, path)
		}
	}
	return dst
}

// ExpiredLogs lists files matching the targets whose modification time is
// older than retentionDays. A retentionDays value of 0 disables pruning.
func ExpiredLogs(retentionDays int, now time.Time, targets ...RetentionTarget) []string {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	var expired []string
	for _, target := range targets {
		expired = target.expired(expired, cutoff)
	}
	return expired
}

// CleanupOldLogs removes the files ExpiredLogs reports and returns the
// removed paths. Failures are logged and skipped.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) []string {
	if logger == nil {
		logger = NewNop()
	}
	var removed []string
	for _, path := range ExpiredLogs(retentionDays, time.Now(), targets...) {
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed = append(removed, path)
		logger.Info("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
	}
	return removed
}
