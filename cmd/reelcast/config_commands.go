package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"reelcast/internal/config"
	"reelcast/internal/preflight"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the configuration file",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				_, statErr := os.Stat(target)
				switch {
				case statErr == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(statErr, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", statErr)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Next: set gemini.api_key (or GOOGLE_API_KEY) and the YouTube OAuth credentials,")
			fmt.Fprintln(out, "then run `reelcast config validate`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func initTarget(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		target, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return target, nil
	}
	target, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return target, nil
}

// newConfigValidateCommand relies on the root pre-run hook: by the time RunE
// executes the file has been parsed, normalized and validated.
func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Parse and validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ctx.configPath != "" {
				if _, statErr := os.Stat(ctx.configPath); statErr == nil {
					fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
				} else {
					fmt.Fprintf(out, "Config path: %s (not found; defaults and environment used)\n", ctx.configPath)
				}
			}
			fmt.Fprintf(out, "Story: %s / Video: %s / Publish: %s\n", cfg.Story.Provider, cfg.Video.Backend, yesNo(cfg.Publish.Enabled))

			if failed := preflight.Failed(preflight.CheckDirectories(cfg)); len(failed) > 0 {
				for _, f := range failed {
					fmt.Fprintf(out, "  %s: %s\n", f.Name, f.Detail)
				}
				return fmt.Errorf("configuration loaded but %d directories are not usable", len(failed))
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
