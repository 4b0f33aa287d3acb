package videogen

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"reelcast/internal/episode"
	"reelcast/internal/fileutil"
	"reelcast/internal/logging"
	"reelcast/internal/services"
)

// Assembler concatenates two or more segments into outputPath and returns the
// measured output duration (0 when not measured).
type Assembler interface {
	Assemble(ctx context.Context, runDir string, segments []string, outputPath string) (float64, error)
}

// Prober measures a media file's duration in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ErrOutputExists is the cause when the artifact path is already occupied.
var ErrOutputExists = errors.New("output already exists")

// Producer runs the Sequencer and then the Assembler.
type Producer struct {
	sequencer *Sequencer
	assembler Assembler
	prober    Prober
	logger    *slog.Logger
}

// NewProducer builds a Producer. prober is optional and only used to measure
// single-segment episodes.
func NewProducer(sequencer *Sequencer, assembler Assembler, prober Prober, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Producer{sequencer: sequencer, assembler: assembler, prober: prober, logger: logger}
}

// Produce generates all segments and writes the final artifact to outputPath.
// A partial SegmentSet never reaches the Assembler. With one segment the
// clip itself becomes the artifact without concatenation. An existing file at
// outputPath is never replaced; the check runs before any backend call.
func (p *Producer) Produce(ctx context.Context, runDir string, reqs []Request, outputPath string) (episode.Artifact, SegmentSet, error) {
	if err := ensureVacant(outputPath); err != nil {
		return episode.Artifact{}, nil, err
	}
	set, err := p.sequencer.Run(ctx, runDir, reqs)
	if err != nil {
		return episode.Artifact{}, nil, err
	}
	if len(set) != len(reqs) {
		return episode.Artifact{}, nil, services.Wrap(services.ErrAssemblyFailed, StageName, "produce", "segment count does not match prompt count", nil)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return episode.Artifact{}, set, services.Wrap(services.ErrAssemblyFailed, StageName, "produce", "create output dir", err)
	}

	artifact := episode.Artifact{
		Path:              outputPath,
		Provenance:        set.Provenance(),
		SegmentCount:      len(set),
		SyntheticSegments: set.SyntheticCount(),
	}

	if len(set) == 1 {
		if err := fileutil.MoveFile(set[0].Path, outputPath); err != nil {
			return episode.Artifact{}, set, services.Wrap(services.ErrAssemblyFailed, StageName, "finalize", "move single segment", err)
		}
		if p.prober != nil {
			duration, err := p.prober.Duration(ctx, outputPath)
			if err != nil && !errors.Is(err, context.Canceled) {
				logging.WarnWithContext(p.logger, "could not measure artifact duration", "artifact_probe_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "verify ffprobe is installed"),
					logging.String(logging.FieldImpact, "episode recorded without duration"),
				)
			}
			artifact.DurationSeconds = duration
		}
		return artifact, set, nil
	}

	duration, err := p.assembler.Assemble(ctx, runDir, set.Paths(), outputPath)
	if err != nil {
		return episode.Artifact{}, set, err
	}
	artifact.DurationSeconds = duration
	return artifact, set, nil
}

func ensureVacant(outputPath string) error {
	_, err := os.Lstat(outputPath)
	switch {
	case err == nil:
		return services.WithHint(
			services.Wrap(services.ErrConfiguration, StageName, "produce", outputPath, ErrOutputExists),
			"move the existing artifact aside or choose another episode number",
		)
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return services.Wrap(services.ErrAssemblyFailed, StageName, "produce", "stat output", err)
	}
}
