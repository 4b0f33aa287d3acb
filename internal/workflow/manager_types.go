package workflow

import (
	"context"
	"time"

	"reelcast/internal/episode"
	"reelcast/internal/publish"
	"reelcast/internal/story"
	"reelcast/internal/videogen"
)

// Stage names a workflow state.
type Stage string

const (
	StageLoadHistory    Stage = "LoadHistory"
	StageGenerateStory  Stage = "GenerateStory"
	StageGenerateVideos Stage = "GenerateVideos"
	StagePublish        Stage = "Publish"
	StageSaveHistory    Stage = "SaveHistory"
	StageDone           Stage = "Done"
	StageError          Stage = "Error"
)

// Terminal reports whether no further transition exists.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageError
}

// next is the transition table. A failure in any stage before SaveHistory
// still moves to SaveHistory so the failure is recorded.
func next(stage Stage, failed bool) Stage {
	switch stage {
	case StageLoadHistory, StageGenerateStory, StageGenerateVideos, StagePublish:
		if failed {
			return StageSaveHistory
		}
		switch stage {
		case StageLoadHistory:
			return StageGenerateStory
		case StageGenerateStory:
			return StageGenerateVideos
		case StageGenerateVideos:
			return StagePublish
		default:
			return StageSaveHistory
		}
	case StageSaveHistory:
		if failed {
			return StageError
		}
		return StageDone
	default:
		return stage
	}
}

// Store is the append-only continuity ledger.
type Store interface {
	Load(ctx context.Context) ([]episode.Episode, error)
	Append(ctx context.Context, ep episode.Episode) error
}

// StoryGenerator produces the narrative for an episode.
type StoryGenerator interface {
	Generate(ctx context.Context, in story.Input) (episode.Story, error)
}

// Producer generates every segment and writes the final artifact.
type Producer interface {
	Produce(ctx context.Context, runDir string, reqs []videogen.Request, outputPath string) (episode.Artifact, videogen.SegmentSet, error)
}

// Publisher uploads the artifact.
type Publisher interface {
	Publish(ctx context.Context, path string, meta publish.Metadata) (episode.PublishResult, error)
}

// Options are per-run overrides.
type Options struct {
	// EpisodeNumber forces the episode number when positive.
	EpisodeNumber int
	// Visibility overrides publish.visibility when set.
	Visibility string
}

// Run is the state of one workflow run. It is returned to the caller after
// the run reaches a terminal stage.
type Run struct {
	ID         string
	Stage      Stage
	Episode    episode.Episode
	Window     episode.Window
	RunDir     string
	Segments   videogen.SegmentSet
	StartedAt  time.Time
	FinishedAt time.Time
	// Recorded is set once SaveHistory appended the record.
	Recorded bool
	// Err is the first stage failure, or the store write failure.
	Err error

	// FailedStage is where Err originated.
	FailedStage Stage

	history []episode.Episode
}

// Failed reports whether the run carries a failure.
func (r *Run) Failed() bool {
	return r != nil && r.Err != nil
}
