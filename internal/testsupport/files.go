package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteFile writes size filler bytes to path, creating parent directories.
// A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Age backdates the modification time of each path by d.
func Age(t testing.TB, d time.Duration, paths ...string) {
	t.Helper()
	old := time.Now().Add(-d)
	for _, path := range paths {
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}
}
