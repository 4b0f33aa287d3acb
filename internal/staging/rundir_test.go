package staging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateRunDir(t *testing.T) {
	root := t.TempDir()
	dir, err := CreateRunDir(root, 4, "0f8e2c1a-9b7d-4c55-8d0e-1234567890ab")
	if err != nil {
		t.Fatalf("CreateRunDir: %v", err)
	}
	if filepath.Base(dir) != "ep-0004-0f8e2c1a" {
		t.Fatalf("unexpected run dir name %q", filepath.Base(dir))
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("run dir not created: %v", err)
	}
}

func TestCreateRunDirRequiresStaging(t *testing.T) {
	if _, err := CreateRunDir(" ", 1, "x"); err == nil {
		t.Fatal("expected error for empty staging dir")
	}
}

func TestRunDirNameWithoutID(t *testing.T) {
	if got := RunDirName(12, ""); got != "ep-0012" {
		t.Fatalf("got %q", got)
	}
}

func TestWithin(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(root, "segment-01.mp4"), true},
		{filepath.Join(root, "a", "b.mp4"), true},
		{root, false},
		{filepath.Join(root, "..", "other.mp4"), false},
		{filepath.Join(root+"-sibling", "x.mp4"), false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Within(root, tt.path); got != tt.want {
			t.Errorf("Within(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
