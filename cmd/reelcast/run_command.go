package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"reelcast/internal/config"
	"reelcast/internal/history"
	"reelcast/internal/logging"
	"reelcast/internal/preflight"
	"reelcast/internal/services"
	"reelcast/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var private bool
	var visibility string

	cmd := &cobra.Command{
		Use:   "run [episode-number]",
		Short: "Produce and publish the next episode",
		Long: `Produce one episode end to end.

The episode number defaults to one past the highest completed episode.
Pass a number to produce a specific episode instead. Only one run may
execute per data directory at a time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts, err := parseRunOptions(args, private, visibility)
			if err != nil {
				return err
			}
			return executeRun(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, opts)
		},
	}

	cmd.Flags().BoolVar(&private, "private", false, "Upload the episode as private")
	cmd.Flags().StringVar(&visibility, "visibility", "", "Upload visibility: public, unlisted or private")
	return cmd
}

func parseRunOptions(args []string, private bool, visibility string) (workflow.Options, error) {
	var opts workflow.Options
	if len(args) == 1 {
		n, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil || n < 1 {
			return opts, fmt.Errorf("invalid episode number %q: must be a positive integer", args[0])
		}
		opts.EpisodeNumber = n
	}
	visibility = strings.ToLower(strings.TrimSpace(visibility))
	switch {
	case private && visibility != "" && visibility != config.VisibilityPrivate:
		return opts, fmt.Errorf("--private conflicts with --visibility %s", visibility)
	case private:
		opts.Visibility = config.VisibilityPrivate
	case visibility != "":
		if !config.ValidVisibility(visibility) {
			return opts, fmt.Errorf("invalid visibility %q (expected public, unlisted or private)", visibility)
		}
		opts.Visibility = visibility
	}
	return opts, nil
}

func executeRun(ctx context.Context, out, errOut io.Writer, cfg *config.Config, opts workflow.Options) error {
	logger, err := logging.NewFromConfig(cfg, out, errOut)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logRetentionTarget(cfg))

	if failed := preflight.Failed(preflight.CheckDirectories(cfg)); len(failed) > 0 {
		return fmt.Errorf("preflight: %s: %s", failed[0].Name, failed[0].Detail)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another run is in progress (lock held on %s)", cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock",
				logging.String(logging.FieldEventType, "run_lock_release_failed"),
				logging.String(logging.FieldErrorHint, "remove the lock file if no run is active"),
				logging.String(logging.FieldImpact, "next run may report a held lock"),
				logging.Error(err),
			)
		}
	}()

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	collaborators, err := buildCollaborators(runCtx, cfg, store, opts, logger)
	if err != nil {
		return err
	}

	manager := workflow.NewManager(cfg, collaborators, logger)
	run, err := manager.Run(runCtx, opts)
	if err != nil {
		return &runFailedError{run: run}
	}
	printRunSummary(out, run)
	return nil
}

func logRetentionTarget(cfg *config.Config) logging.RetentionTarget {
	return logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: "*.log",
		Exclude: []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
	}
}

func printRunSummary(out io.Writer, run *workflow.Run) {
	ep := run.Episode
	fmt.Fprintf(out, "Episode %d complete: %s\n", ep.Number, ep.Story.Title)
	if ep.Story.Fallback {
		fmt.Fprintln(out, "  Story:     fallback (provider reply did not match the schema)")
	}
	if ep.Artifact != nil {
		fmt.Fprintf(out, "  Artifact:  %s\n", ep.Artifact.Path)
		fmt.Fprintf(out, "  Segments:  %d (%s", ep.Artifact.SegmentCount, ep.Artifact.Provenance)
		if ep.Artifact.SyntheticSegments > 0 {
			fmt.Fprintf(out, ", %d placeholder", ep.Artifact.SyntheticSegments)
		}
		fmt.Fprintln(out, ")")
	}
	switch {
	case ep.Publish == nil:
	case ep.Publish.Skipped:
		fmt.Fprintln(out, "  Published: skipped (publish.enabled = false)")
	default:
		fmt.Fprintf(out, "  Published: %s (%s)\n", ep.Publish.URL, ep.Publish.Visibility)
	}
	fmt.Fprintf(out, "  Run:       %s in %s\n", run.ID, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
}

// runFailedError reports a run that ended in the Error stage.
type runFailedError struct {
	run *workflow.Run
}

func (e *runFailedError) Error() string {
	details := services.Details(e.run.Err)
	message := details.Message
	if message == "" {
		message = e.run.Err.Error()
	}
	text := fmt.Sprintf("episode %d failed at stage %s (%s): %s", e.run.Episode.Number, e.run.FailedStage, details.Kind, message)
	if details.Hint != "" {
		text += "\nhint: " + details.Hint
	}
	if !e.run.Recorded && !errors.Is(e.run.Err, services.ErrStoreWriteFailed) {
		text += "\nwarning: the failure was not recorded in history"
	}
	return text
}

func (e *runFailedError) Unwrap() error {
	return e.run.Err
}
