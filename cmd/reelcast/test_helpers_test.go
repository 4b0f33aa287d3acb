package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"reelcast/internal/config"
	"reelcast/internal/episode"
	"reelcast/internal/publish"
	"reelcast/internal/story"
	"reelcast/internal/testsupport"
	"reelcast/internal/workflow"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

// setupCLITestEnv writes a config using the static video backend with
// publishing disabled, so `run` never leaves the machine once the story
// generator is stubbed.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	for _, key := range []string{"NTFY_TOPIC", "YOUTUBE_CLIENT_ID", "YOUTUBE_CLIENT_SECRET", "YOUTUBE_REFRESH_TOKEN"} {
		t.Setenv(key, "")
	}

	opts = append([]testsupport.ConfigOption{testsupport.WithStaticClip("static-clip")}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Video.VerifyDuration = false
	cfg.Logging.Level = "error"

	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", base)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

type stubStory struct {
	story episode.Story
	err   error
	input story.Input
}

func (s *stubStory) Generate(_ context.Context, in story.Input) (episode.Story, error) {
	s.input = in
	return s.story, s.err
}

func stubStoryGenerator(t *testing.T, gen *stubStory) {
	t.Helper()
	prev := newStoryGenerator
	newStoryGenerator = func(context.Context, *config.Config, *slog.Logger) (workflow.StoryGenerator, error) {
		return gen, nil
	}
	t.Cleanup(func() { newStoryGenerator = prev })
}

type recordingPublisher struct {
	path string
	meta publish.Metadata
}

func (p *recordingPublisher) Publish(_ context.Context, path string, meta publish.Metadata) (episode.PublishResult, error) {
	p.path = path
	p.meta = meta
	return episode.PublishResult{RemoteID: "vid123", URL: "https://www.youtube.com/watch?v=vid123", Visibility: meta.Visibility}, nil
}

func stubUploader(t *testing.T, pub workflow.Publisher) {
	t.Helper()
	prev := newUploader
	newUploader = func(context.Context, *config.Config, *slog.Logger) (workflow.Publisher, error) {
		return pub, nil
	}
	t.Cleanup(func() { newUploader = prev })
}

func pancakeStory() episode.Story {
	return episode.Story{
		Title:   "Midnight Pancakes",
		Subject: "pancakes",
		Summary: "The raccoon flips pancakes.",
		Steps:   []string{"Mix", "Flip"},
		Prompts: []string{"a raccoon flipping pancakes"},
		Tags:    []string{"cooking"},
	}
}
