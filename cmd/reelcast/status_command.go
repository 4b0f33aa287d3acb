package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"reelcast/internal/config"
	"reelcast/internal/episode"
	"reelcast/internal/history"
	"reelcast/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check dependencies, directories and configured backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			writeSection(out, "configuration", configurationLines(cfg, ctx.configPath, colorize), colorize)
			writeSection(out, "dependencies", dependencyLines(preflight.CheckSystemDeps(cfg), colorize), colorize)
			writeSection(out, "checks", checkLines(preflight.RunAll(cmd.Context(), cfg), colorize), colorize)
			writeSection(out, "history", historyLines(cmd, ctx, colorize), colorize)
			return nil
		},
	}
}

func writeSection(out io.Writer, title string, lines []string, colorize bool) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
}

func configurationLines(cfg *config.Config, path string, colorize bool) []string {
	lines := []string{
		renderStatusLine("Config file", statusInfo, firstNonEmpty(path, "defaults"), colorize),
	}

	storyModel := cfg.Story.Model
	if cfg.Story.Provider == config.StoryProviderOpenRouter {
		storyModel = cfg.StoryLLM().Model
	}
	lines = append(lines, renderStatusLine("Story provider", statusInfo,
		fmt.Sprintf("%s (model %s, window %d, language %s)", cfg.Story.Provider, storyModel, cfg.Story.WindowSize, cfg.Story.Language), colorize))

	switch cfg.Video.Backend {
	case config.VideoBackendStatic:
		lines = append(lines, renderStatusLine("Video backend", statusWarn, "static clip "+cfg.Video.StaticClipPath, colorize))
	default:
		lines = append(lines, renderStatusLine("Video backend", statusInfo,
			fmt.Sprintf("%s (model %s, %ds %s)", cfg.Video.Backend, cfg.Video.Model, cfg.Video.DurationSeconds, cfg.Video.AspectRatio), colorize))
	}
	lines = append(lines, renderStatusLine("Poll loop", statusInfo,
		fmt.Sprintf("every %s, %d attempts, %d tolerated errors", cfg.PollInterval(), cfg.Video.PollMaxAttempts, cfg.Video.PollErrorTolerance), colorize))

	var placeholders []string
	if cfg.Video.PlaceholderOnUnavailable {
		placeholders = append(placeholders, "backend unavailable")
	}
	if cfg.Video.PlaceholderOnTimeout {
		placeholders = append(placeholders, "job timeout")
	}
	if len(placeholders) == 0 {
		lines = append(lines, renderStatusLine("Placeholders", statusInfo, "disabled", colorize))
	} else {
		lines = append(lines, renderStatusLine("Placeholders", statusWarn, "on "+strings.Join(placeholders, ", "), colorize))
	}

	if cfg.Publish.Enabled {
		lines = append(lines, renderStatusLine("Publish", statusInfo,
			fmt.Sprintf("YouTube %s (shorts: %s)", cfg.Publish.Visibility, yesNo(cfg.Publish.Shorts)), colorize))
	} else {
		lines = append(lines, renderStatusLine("Publish", statusWarn, "disabled", colorize))
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		lines = append(lines, renderStatusLine("Notifications", statusInfo, "not configured", colorize))
	} else {
		lines = append(lines, renderStatusLine("Notifications", statusOK, cfg.Notifications.NtfyTopic, colorize))
	}
	return lines
}

func historyLines(cmd *cobra.Command, ctx *commandContext, colorize bool) []string {
	var lines []string
	err := ctx.withStore(func(store *history.Store) error {
		stats, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		next, err := store.NextEpisodeNumber(cmd.Context())
		if err != nil {
			return err
		}
		lines = []string{
			renderStatusLine("Store", statusOK, store.Path(), colorize),
			renderStatusLine("Episodes", statusInfo,
				fmt.Sprintf("%d completed, %d failed", stats[episode.StatusCompleted], stats[episode.StatusFailed]), colorize),
			renderStatusLine("Next episode", statusInfo, fmt.Sprintf("%d", next), colorize),
		}
		return nil
	})
	if err != nil {
		return []string{renderStatusLine("Store", statusError, err.Error(), colorize)}
	}
	return lines
}
