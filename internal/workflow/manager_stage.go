package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelcast/internal/episode"
	"reelcast/internal/logging"
	"reelcast/internal/publish"
	"reelcast/internal/services"
	"reelcast/internal/staging"
	"reelcast/internal/story"
	"reelcast/internal/videogen"
)

// ArtifactName is the canonical output file name for an episode.
func ArtifactName(number int) string {
	return fmt.Sprintf("episode_%04d.mp4", number)
}

func (m *Manager) loadHistory(ctx context.Context, run *Run, opts Options) error {
	history, err := m.deps.Store.Load(ctx)
	if opts.EpisodeNumber > 0 {
		run.Episode.Number = opts.EpisodeNumber
	}
	if err != nil {
		return err
	}
	run.history = history
	if prior, taken := episode.FindCompleted(history, opts.EpisodeNumber); taken {
		msg := fmt.Sprintf("episode %d already completed (run %s)", prior.Number, prior.RunID)
		return services.WithHint(
			services.Wrap(services.ErrConfiguration, string(StageLoadHistory), "episode number", msg, nil),
			"omit the episode number to produce the next episode",
		)
	}
	run.Window = episode.NewWindow(history, m.cfg.Story.WindowSize)
	if run.Episode.Number == 0 {
		run.Episode.Number = episode.NextNumber(history)
	}

	logging.WithContext(ctx, m.logger).Info("continuity loaded",
		logging.String(logging.FieldEventType, "history_loaded"),
		logging.Int(logging.FieldEpisode, run.Episode.Number),
		logging.Int("history_records", len(history)),
		logging.Int("window_size", len(run.Window)),
		logging.Bool("cold_start", len(history) == 0),
	)
	m.notify(ctx, "start", func(nctx context.Context) error {
		return m.deps.Notifier.NotifyRunStarted(nctx, run.Episode.Number)
	})
	return nil
}

func (m *Manager) generateStory(ctx context.Context, run *Run) error {
	st, err := m.deps.Story.Generate(ctx, story.Input{
		EpisodeNumber: run.Episode.Number,
		Window:        run.Window,
		UsedSubjects:  episode.DistinctSubjects(run.history),
	})
	if err != nil {
		return err
	}
	if len(st.Prompts) == 0 {
		return services.Wrap(services.ErrConfiguration, string(StageGenerateStory), "story", "story has no video prompts", nil)
	}
	run.Episode.Story = st
	logging.WithContext(ctx, m.logger).Info("story ready",
		logging.String(logging.FieldEventType, "story_ready"),
		logging.String("title", st.Title),
		logging.String("subject", st.Subject),
		logging.Int(logging.FieldSegmentCount, len(st.Prompts)),
		logging.Bool("fallback", st.Fallback),
	)
	return nil
}

func (m *Manager) generateVideos(ctx context.Context, run *Run) error {
	outputPath := filepath.Join(m.cfg.Paths.OutputDir, ArtifactName(run.Episode.Number))
	if err := m.releaseSupersededArtifact(ctx, run, outputPath); err != nil {
		return err
	}
	runDir, err := staging.CreateRunDir(m.cfg.Paths.StagingDir, run.Episode.Number, run.ID)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, string(StageGenerateVideos), "run dir", "", err)
	}
	run.RunDir = runDir

	reqs := videogen.RequestsFromPrompts(run.Episode.Story.Prompts, m.cfg.Video)
	artifact, segments, err := m.deps.Producer.Produce(ctx, runDir, reqs, outputPath)
	if err != nil {
		var seqErr *videogen.SequenceError
		if errors.As(err, &seqErr) {
			run.Segments = seqErr.Completed
		} else {
			run.Segments = segments
		}
		return err
	}
	run.Segments = segments
	run.Episode.Artifact = &artifact
	return nil
}

// releaseSupersededArtifact removes an artifact left at outputPath by an
// earlier failed attempt at the same episode (a Publish failure keeps it).
// Files owned by a completed record or by nothing in history stay in place
// and the Producer refuses to overwrite them.
func (m *Manager) releaseSupersededArtifact(ctx context.Context, run *Run, outputPath string) error {
	if _, err := os.Lstat(outputPath); err != nil {
		return nil
	}
	var owner *episode.Episode
	for i := range run.history {
		rec := &run.history[i]
		if rec.Artifact != nil && rec.Artifact.Path == outputPath {
			owner = rec
		}
	}
	if owner == nil || owner.Completed() || owner.Number != run.Episode.Number {
		return nil
	}
	if err := os.Remove(outputPath); err != nil {
		return services.Wrap(services.ErrConfiguration, string(StageGenerateVideos), "release artifact", outputPath, err)
	}
	logging.WithContext(ctx, m.logger).Info("removed artifact of failed attempt",
		logging.String(logging.FieldEventType, "artifact_superseded"),
		logging.String("path", outputPath),
		logging.String("previous_run_id", owner.RunID),
	)
	return nil
}

func (m *Manager) publish(ctx context.Context, run *Run, opts Options) error {
	if run.Episode.Artifact == nil {
		return services.Wrap(services.ErrPublishFailed, string(StagePublish), "publish", "no artifact to publish", nil)
	}
	visibility := strings.TrimSpace(opts.Visibility)
	if visibility == "" {
		visibility = m.cfg.Publish.Visibility
	}
	result, err := m.deps.Publisher.Publish(ctx, run.Episode.Artifact.Path, publish.MetadataFor(run.Episode.Story, visibility))
	if err != nil {
		return err
	}
	run.Episode.Publish = &result
	return nil
}

// saveHistory appends the episode record. It ignores cancellation of ctx so a
// canceled run is still recorded.
func (m *Manager) saveHistory(ctx context.Context, run *Run) error {
	record := run.Episode
	if record.Number <= 0 {
		// History was never read; the failed record takes the first number.
		record.Number = 1
		run.Episode.Number = 1
	}
	if run.Failed() {
		details := services.Details(run.Err)
		record.Status = episode.StatusFailed
		record.Failure = &episode.Failure{
			Stage:   string(run.FailedStage),
			Kind:    details.Kind,
			Message: details.Message,
		}
		record.Artifact = nil
		if run.FailedStage == StagePublish {
			record.Artifact = run.Episode.Artifact
		}
	} else {
		record.Status = episode.StatusCompleted
	}

	if err := m.deps.Store.Append(context.WithoutCancel(ctx), record); err != nil {
		wrapped := err
		if !errors.Is(err, services.ErrStoreWriteFailed) {
			wrapped = services.Wrap(services.ErrStoreWriteFailed, string(StageSaveHistory), "append", "", err)
		}
		if run.Failed() {
			logging.WithContext(ctx, m.logger).Error("earlier failure could not be recorded",
				logging.String(logging.FieldEventType, "failure_unrecorded"),
				logging.String("failed_stage", string(run.FailedStage)),
				logging.String(logging.FieldErrorKind, services.KindOf(run.Err)),
				logging.Error(run.Err),
			)
		}
		run.Err = wrapped
		run.FailedStage = StageSaveHistory
		return wrapped
	}
	run.Episode = record
	run.Recorded = true
	return nil
}
