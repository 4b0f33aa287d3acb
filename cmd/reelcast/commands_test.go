package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelcast/internal/config"
	"reelcast/internal/episode"
	"reelcast/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Video: static")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected existing config to be refused without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No episodes recorded yet")

	if _, _, err := runCLI(t, []string{"history", "0"}, env.configPath); err == nil {
		t.Fatal("expected invalid limit error")
	}
}

func TestHistoryExportThenImport(t *testing.T) {
	src := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, src.cfg)
	testsupport.MustAppend(t, store, episode.Episode{
		Number:    1,
		RunID:     "run-1",
		CreatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		Status:    episode.StatusCompleted,
		Story:     episode.Story{Title: "Nori's Pancakes", Subject: "Pancakes", Prompts: []string{"p"}},
	})
	store.Close()

	exported, _, err := runCLI(t, []string{"history", "export"}, src.configPath)
	if err != nil {
		t.Fatalf("history export: %v", err)
	}
	requireContains(t, exported, `"episode_number": 1`)
	dump := filepath.Join(t.TempDir(), "records.json")
	if err := os.WriteFile(dump, []byte(exported), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}

	dst := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"history", "import", dump}, dst.configPath)
	if err != nil {
		t.Fatalf("history import: %v", err)
	}
	requireContains(t, out, "Imported 1 records")
	out, _, err = runCLI(t, []string{"history"}, dst.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Nori's Pancakes")

	if _, _, err := runCLI(t, []string{"history", "import", dump}, dst.configPath); err == nil {
		t.Fatal("expected second import of a completed episode to be refused")
	}
}

func TestCleanupDryRunThenExecute(t *testing.T) {
	env := setupCLITestEnv(t)
	staleRun := filepath.Join(env.cfg.Paths.StagingDir, "episode-0001-deadbeef")
	freshRun := filepath.Join(env.cfg.Paths.StagingDir, "episode-0002-cafebabe")
	staleOutput := filepath.Join(env.cfg.Paths.OutputDir, "episode_0001.mp4")
	staleLog := filepath.Join(env.cfg.Paths.LogDir, "reelcast-2026-01-01.log")
	for _, dir := range []string{staleRun, freshRun} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	testsupport.WriteFile(t, filepath.Join(staleRun, "segment-01.mp4"), 4)
	testsupport.WriteFile(t, staleOutput, 8)
	testsupport.WriteFile(t, staleLog, 2)
	testsupport.Age(t, 10*24*time.Hour, staleRun, staleOutput, staleLog)

	out, _, err := runCLI(t, []string{"cleanup"}, env.configPath)
	if err != nil {
		t.Fatalf("cleanup dry run: %v", err)
	}
	requireContains(t, out, "3 entries")
	requireContains(t, out, "dry run")
	if _, err := os.Stat(staleRun); err != nil {
		t.Fatalf("dry run removed %s", staleRun)
	}

	out, _, err = runCLI(t, []string{"cleanup", "--execute"}, env.configPath)
	if err != nil {
		t.Fatalf("cleanup --execute: %v", err)
	}
	requireContains(t, out, "Removed 3 of 3 entries")
	for _, path := range []string{staleRun, staleOutput, staleLog} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err = %v", path, err)
		}
	}
	if _, err := os.Stat(freshRun); err != nil {
		t.Fatalf("fresh run dir removed: %v", err)
	}
}

func TestUploadUsesFileNameAndFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	pub := &recordingPublisher{}
	stubUploader(t, pub)

	video := filepath.Join(env.baseDir, "pilot-episode.mp4")
	testsupport.WriteFile(t, video, 16)

	out, _, err := runCLI(t, []string{"upload", video, "--tags", "cooking, raccoon,", "--private"}, env.configPath)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	requireContains(t, out, "https://www.youtube.com/watch?v=vid123")
	if pub.path != video {
		t.Fatalf("uploaded path = %q", pub.path)
	}
	if pub.meta.Title != "pilot-episode" {
		t.Fatalf("title = %q", pub.meta.Title)
	}
	if len(pub.meta.Tags) != 2 || pub.meta.Tags[1] != "raccoon" {
		t.Fatalf("tags = %v", pub.meta.Tags)
	}
	if pub.meta.Visibility != config.VisibilityPrivate {
		t.Fatalf("visibility = %q", pub.meta.Visibility)
	}

	if _, _, err := runCLI(t, []string{"upload", filepath.Join(env.baseDir, "missing.mp4")}, env.configPath); err == nil {
		t.Fatal("expected missing file error")
	}
}

func TestTestNotify(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, testsupport.WithNtfyTopic(srv.URL))
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if hits != 1 {
		t.Fatalf("expected 1 request, got %d", hits)
	}
}

func TestTestNotifyUnconfigured(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications not configured")
}
