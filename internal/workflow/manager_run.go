package workflow

import (
	"context"
	"time"

	"reelcast/internal/logging"
	"reelcast/internal/services"
)

// Run executes one episode workflow to a terminal stage. The returned error
// is the run's failure (nil on Done). The Run is always non-nil.
func (m *Manager) Run(ctx context.Context, opts Options) (*Run, error) {
	run := &Run{
		ID:        m.newID(),
		Stage:     StageLoadHistory,
		StartedAt: m.now(),
	}
	run.Episode.RunID = run.ID
	run.Episode.CreatedAt = run.StartedAt
	ctx = services.WithRunID(ctx, run.ID)

	m.logger.Info("episode run started",
		logging.String(logging.FieldEventType, "run_started"),
		logging.String(logging.FieldRunID, run.ID),
		logging.Int("episode_override", opts.EpisodeNumber),
	)

	for !run.Stage.Terminal() {
		stage := run.Stage
		stageCtx := services.WithStage(ctx, string(stage))
		if run.Episode.Number > 0 {
			stageCtx = services.WithEpisode(stageCtx, run.Episode.Number)
		}
		err := m.executeStage(stageCtx, run, stage, opts)
		if err != nil && stage != StageSaveHistory {
			m.recordFailure(stageCtx, run, stage, err)
		}
		run.Stage = next(stage, run.Failed())
	}
	run.FinishedAt = m.now()

	m.finish(ctx, run)
	if run.Stage == StageError {
		return run, run.Err
	}
	return run, nil
}

func (m *Manager) executeStage(ctx context.Context, run *Run, stage Stage, opts Options) error {
	if stage != StageSaveHistory {
		if err := ctx.Err(); err != nil {
			return services.Wrap(services.ErrCanceled, string(stage), "run", "run canceled", err)
		}
	}
	logger := logging.WithContext(ctx, m.logger)
	start := time.Now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	var err error
	switch stage {
	case StageLoadHistory:
		err = m.loadHistory(ctx, run, opts)
	case StageGenerateStory:
		err = m.generateStory(ctx, run)
	case StageGenerateVideos:
		err = m.generateVideos(ctx, run)
	case StagePublish:
		err = m.publish(ctx, run, opts)
	case StageSaveHistory:
		err = m.saveHistory(ctx, run)
	}
	if err != nil {
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(start)),
	)
	return nil
}

func (m *Manager) finish(ctx context.Context, run *Run) {
	ctx = services.WithEpisode(ctx, run.Episode.Number)
	logger := logging.WithContext(ctx, m.logger)
	elapsed := run.FinishedAt.Sub(run.StartedAt)
	if run.Stage == StageDone {
		attrs := []logging.Attr{
			logging.String(logging.FieldEventType, "run_completed"),
			logging.String("title", run.Episode.Story.Title),
			logging.Duration("elapsed", elapsed),
		}
		if run.Episode.Artifact != nil {
			attrs = append(attrs,
				logging.String("artifact", run.Episode.Artifact.Path),
				logging.String(logging.FieldProvenance, string(run.Episode.Artifact.Provenance)),
			)
		}
		if run.Episode.Publish != nil {
			attrs = append(attrs, logging.String("url", run.Episode.Publish.URL), logging.Bool("publish_skipped", run.Episode.Publish.Skipped))
		}
		logger.Info("episode run completed", logging.Args(attrs...)...)
		url := ""
		if run.Episode.Publish != nil {
			url = run.Episode.Publish.URL
		}
		m.notify(ctx, "completion", func(nctx context.Context) error {
			return m.deps.Notifier.NotifyRunCompleted(nctx, run.Episode.Number, run.Episode.Story.Title, url)
		})
		return
	}

	details := services.Details(run.Err)
	logging.ErrorWithContext(logger, "episode run failed", "run_failed",
		logging.String("failed_stage", string(run.FailedStage)),
		logging.String(logging.FieldErrorKind, details.Kind),
		logging.String(logging.FieldErrorHint, firstNonEmpty(details.Hint, "inspect the run directory and logs")),
		logging.Bool("recorded", run.Recorded),
		logging.Duration("elapsed", elapsed),
		logging.Error(run.Err),
	)
	m.notify(ctx, "failure", func(nctx context.Context) error {
		return m.deps.Notifier.NotifyRunFailed(nctx, run.Episode.Number, string(run.FailedStage), details.Kind, details.Message)
	})
}
