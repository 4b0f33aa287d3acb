package preflight

import (
	"context"
	"strings"

	"reelcast/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// CheckDirectories checks every configured working directory.
func CheckDirectories(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
	}
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := CheckDirectories(cfg)

	switch strings.ToLower(strings.TrimSpace(cfg.Story.Provider)) {
	case config.StoryProviderOpenRouter:
		results = append(results, CheckLLM(ctx, "Story LLM (OpenRouter)", cfg.StoryLLM()))
	default:
		results = append(results, CheckGemini(ctx, "Story LLM (Gemini)", "", cfg.Gemini.APIKey))
	}

	switch cfg.Video.Backend {
	case config.VideoBackendStatic:
		results = append(results, CheckStaticClip(cfg.Video.StaticClipPath))
	default:
		if cfg.Story.Provider == config.StoryProviderOpenRouter {
			results = append(results, CheckGemini(ctx, "Video backend (Veo)", "", cfg.Gemini.APIKey))
		}
	}

	if cfg.Publish.Enabled {
		results = append(results, CheckYouTubeCredentials(cfg.Publish))
	}

	return results
}
