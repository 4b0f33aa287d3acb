package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reelcast/internal/config"
	"reelcast/internal/logging"
	"reelcast/internal/publish"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var title string
	var description string
	var tags string
	var private bool

	cmd := &cobra.Command{
		Use:   "upload <video-file>",
		Short: "Upload an existing video without running the workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve video path: %w", err)
			}
			if info, err := os.Stat(path); err != nil {
				return fmt.Errorf("video file: %w", err)
			} else if info.IsDir() {
				return fmt.Errorf("video file: %s is a directory", path)
			}

			logger, err := logging.NewFromConfig(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			uploader, err := newUploader(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			meta := uploadMetadata(path, title, description, tags, private, cfg.Publish.Visibility)
			result, err := uploader.Publish(cmd.Context(), path, meta)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%s): %s\n", filepath.Base(path), result.Visibility, result.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Video title (defaults to the file name)")
	cmd.Flags().StringVar(&description, "description", "", "Video description")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	cmd.Flags().BoolVar(&private, "private", false, "Upload as private")
	return cmd
}

func uploadMetadata(path, title, description, tags string, private bool, visibility string) publish.Metadata {
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	var tagList []string
	for _, tag := range strings.Split(tags, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tagList = append(tagList, trimmed)
		}
	}
	if private {
		visibility = config.VisibilityPrivate
	}
	return publish.Metadata{
		Title:       title,
		Description: strings.TrimSpace(description),
		Tags:        tagList,
		Visibility:  visibility,
	}
}
