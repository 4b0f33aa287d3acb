package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"reelcast/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckGemini_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "good-key" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckGemini(context.Background(), "Gemini", srv.URL, "good-key")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckGemini_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	result := CheckGemini(context.Background(), "Gemini", srv.URL, "bad-key")
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
}

func TestCheckGemini_MissingKey(t *testing.T) {
	result := CheckGemini(context.Background(), "Gemini", "http://localhost", "")
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckStaticClip(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(clip, []byte("mp4"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckStaticClip(clip); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	empty := filepath.Join(dir, "empty.mp4")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckStaticClip(empty); r.Passed {
		t.Fatal("expected failure for empty clip")
	}
	if r := CheckStaticClip(""); r.Passed {
		t.Fatal("expected failure for unset clip")
	}
}

func TestCheckYouTubeCredentials(t *testing.T) {
	r := CheckYouTubeCredentials(config.Publish{ClientID: "id"})
	if r.Passed || r.Detail != "missing client_secret, refresh_token" {
		t.Fatalf("unexpected result %+v", r)
	}
	r = CheckYouTubeCredentials(config.Publish{ClientID: "id", ClientSecret: "s", RefreshToken: "t"})
	if !r.Passed {
		t.Fatalf("expected pass, got %+v", r)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_StaticBackendOffline(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Story.Provider = config.StoryProviderOpenRouter
	cfg.LLM.APIKey = ""
	cfg.Video.Backend = config.VideoBackendStatic
	cfg.Video.StaticClipPath = filepath.Join(t.TempDir(), "missing.mp4")
	cfg.Publish.Enabled = false

	results := RunAll(context.Background(), &cfg)
	// directories + story LLM + static clip
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d: %+v", len(results), results)
	}
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected LLM and clip failures, got %+v", failed)
	}
}

func TestCheckDirectories(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Paths.OutputDir = filepath.Join(t.TempDir(), "missing")

	failed := Failed(CheckDirectories(&cfg))
	if len(failed) != 1 || failed[0].Name != "Output directory" {
		t.Fatalf("unexpected failures %+v", failed)
	}
}
