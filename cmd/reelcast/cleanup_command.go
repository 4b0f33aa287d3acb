package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"reelcast/internal/config"
	"reelcast/internal/logging"
	"reelcast/internal/staging"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var days int
	var execute bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old run directories, episode files and logs",
		Long: `List run directories, rendered episodes and log files older than --days.

Nothing is removed unless --execute is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			now := time.Now()
			entries, err := cleanupCandidates(cfg, days, now)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "Nothing older than %d days\n", days)
				return nil
			}

			var total int64
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				total += entry.Size
				rows = append(rows, []string{string(entry.Kind), entry.Path, formatAge(now.Sub(entry.ModTime)), formatBytes(entry.Size)})
			}
			fmt.Fprint(out, renderTable([]tableColumn{
				{Header: "Kind"},
				{Header: "Path", MaxWidth: 80},
				{Header: "Age", Right: true},
				{Header: "Size", Right: true},
			}, rows))

			if !execute {
				fmt.Fprintf(out, "\n%d entries, %s (dry run; pass --execute to remove)\n", len(entries), formatBytes(total))
				return nil
			}

			logger, err := logging.NewFromConfig(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			result := staging.Remove(cmd.Context(), entries, logger)
			fmt.Fprintf(out, "\nRemoved %d of %d entries (%s)\n", len(result.Removed), len(entries), formatBytes(total))
			for _, failure := range result.Errors {
				fmt.Fprintf(out, "  failed: %s: %v\n", failure.Path, failure.Error)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("cleanup: %d entries could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Age threshold in days")
	cmd.Flags().BoolVar(&execute, "execute", false, "Remove the listed entries")
	return cmd
}

// cleanupCandidates collects stale run directories, output files and log
// files. The active log file is never a candidate.
func cleanupCandidates(cfg *config.Config, days int, now time.Time) ([]staging.Entry, error) {
	cutoff := now.AddDate(0, 0, -days)

	runs, err := staging.ListRuns(cfg.Paths.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("list run directories: %w", err)
	}
	outputs, err := staging.ListOutputs(cfg.Paths.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("list output files: %w", err)
	}
	entries := append(staging.Stale(runs, cutoff), staging.Stale(outputs, cutoff)...)

	for _, path := range logging.ExpiredLogs(days, now, logRetentionTarget(cfg)) {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		entries = append(entries, staging.Entry{
			Kind:    staging.KindLog,
			Name:    info.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return entries, nil
}
