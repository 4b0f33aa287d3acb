package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelcast/internal/config"
)

// ConfigOption adjusts the config built by NewConfig. base is the test's
// temp directory that holds every configured path.
type ConfigOption func(t testing.TB, base string, cfg *config.Config)

// NewConfig returns a config rooted in t.TempDir() with publishing and
// notifications off and a one second poll interval.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		DataDir:    filepath.Join(base, "data"),
		StagingDir: filepath.Join(base, "staging"),
		OutputDir:  filepath.Join(base, "output"),
		LogDir:     filepath.Join(base, "logs"),
	}
	cfg.Gemini.APIKey = "test"
	cfg.Publish.Enabled = false
	cfg.Video.PollIntervalSeconds = 1
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// WithStaticClip writes contents to <base>/clip.mp4 and selects the static backend.
func WithStaticClip(contents string) ConfigOption {
	return func(t testing.TB, base string, cfg *config.Config) {
		path := filepath.Join(base, "clip.mp4")
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatalf("write static clip: %v", err)
		}
		cfg.Video.Backend = config.VideoBackendStatic
		cfg.Video.StaticClipPath = path
	}
}

func WithNtfyTopic(url string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Notifications.NtfyTopic = url
	}
}

// BaseDir returns the temp directory backing a config from NewConfig.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
