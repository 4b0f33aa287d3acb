package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RunDirName returns the directory name used for a run.
func RunDirName(episodeNumber int, runID string) string {
	id := strings.TrimSpace(runID)
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return fmt.Sprintf("ep-%04d", episodeNumber)
	}
	return fmt.Sprintf("ep-%04d-%s", episodeNumber, id)
}

// CreateRunDir creates the temp directory for one run and returns its path.
func CreateRunDir(stagingDir string, episodeNumber int, runID string) (string, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return "", errors.New("staging dir not configured")
	}
	dir := filepath.Join(stagingDir, RunDirName(episodeNumber, runID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	return dir, nil
}

// Within reports whether path lies inside dir. Both are cleaned first; dir
// itself does not count.
func Within(dir, path string) bool {
	dir = strings.TrimSpace(dir)
	path = strings.TrimSpace(path)
	if dir == "" || path == "" {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
