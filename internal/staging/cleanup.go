package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"reelcast/internal/logging"
)

// EntryKind distinguishes cleanup candidates.
type EntryKind string

const (
	// KindRun is a per-run temp directory under staging_dir.
	KindRun EntryKind = "run"
	// KindOutput is a rendered episode file under output_dir.
	KindOutput EntryKind = "output"
	// KindLog is an expired log file under log_dir.
	KindLog EntryKind = "log"
)

// Entry describes one run directory or output file.
type Entry struct {
	Kind    EntryKind
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// RemoveResult lists what Remove deleted and what it could not.
type RemoveResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// ListRuns returns the run directories under stagingDir, oldest first.
func ListRuns(stagingDir string) ([]Entry, error) {
	return listEntries(stagingDir, KindRun, func(e os.DirEntry) bool { return e.IsDir() })
}

// ListOutputs returns the regular files under outputDir, oldest first.
// Hidden temp files left behind by an interrupted assembly are included.
func ListOutputs(outputDir string) ([]Entry, error) {
	return listEntries(outputDir, KindOutput, func(e os.DirEntry) bool { return e.Type().IsRegular() })
}

func listEntries(dir string, kind EntryKind, keep func(os.DirEntry) bool) ([]Entry, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Entry
	for _, entry := range entries {
		if !keep(entry) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		size := info.Size()
		if entry.IsDir() {
			size, _ = dirSize(path)
		}
		out = append(out, Entry{
			Kind:    kind,
			Name:    entry.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}
	slices.SortFunc(out, func(a, b Entry) int { return a.ModTime.Compare(b.ModTime) })
	return out, nil
}

// Stale returns the entries last modified before cutoff.
func Stale(entries []Entry, cutoff time.Time) []Entry {
	var out []Entry
	for _, entry := range entries {
		if entry.ModTime.Before(cutoff) {
			out = append(out, entry)
		}
	}
	return out
}

// Remove deletes the given entries. It stops early when ctx is canceled.
func Remove(ctx context.Context, entries []Entry, logger *slog.Logger) RemoveResult {
	result := RemoveResult{}
	for _, entry := range entries {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, CleanupError{Path: entry.Path, Error: ctx.Err()})
			return result
		}
		if err := os.RemoveAll(entry.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: entry.Path, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale entry", "staging_cleanup_failed",
				logging.String("path", entry.Path),
				logging.String("kind", string(entry.Kind)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging_dir and output_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, entry.Path)
		if logger != nil {
			logger.Info("removed stale entry",
				logging.String("path", entry.Path),
				logging.String("kind", string(entry.Kind)),
				logging.Duration("age", time.Since(entry.ModTime)),
				logging.String(logging.FieldEventType, "staging_cleanup"),
			)
		}
	}
	return result
}

// dirSize calculates the total size of a directory recursively.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best effort
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
