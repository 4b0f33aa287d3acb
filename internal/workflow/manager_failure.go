package workflow

import (
	"context"
	"errors"
	"strings"

	"reelcast/internal/logging"
	"reelcast/internal/services"
)

// stageMarkers classifies errors that reach the workflow without a kind.
var stageMarkers = map[Stage]error{
	StageLoadHistory:    services.ErrStoreReadFailed,
	StageGenerateStory:  services.ErrBackendUnavailable,
	StageGenerateVideos: services.ErrJobFailed,
	StagePublish:        services.ErrPublishFailed,
}

func classifyStageFailure(stage Stage, err error) error {
	var se *services.Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrCanceled, string(stage), "run", "", err)
	}
	marker, ok := stageMarkers[stage]
	if !ok {
		marker = services.ErrJobFailed
	}
	return services.Wrap(marker, string(stage), "", "", err)
}

// recordFailure keeps the first failure of the run; later stages are skipped
// by the transition table, so there is at most one.
func (m *Manager) recordFailure(ctx context.Context, run *Run, stage Stage, err error) {
	if run.Failed() {
		return
	}
	classified := classifyStageFailure(stage, err)
	run.Err = classified
	run.FailedStage = stage

	attrs := append([]logging.Attr{
		logging.Alert("stage_failure"),
		logging.String(logging.FieldImpact, "remaining stages skipped; failure will be recorded"),
	}, logging.Failure(classified)...)
	logging.ErrorWithContext(logging.WithContext(ctx, m.logger), "stage failed", "stage_failure", attrs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
