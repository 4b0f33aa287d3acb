package videogen

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"reelcast/internal/logging"
	"reelcast/internal/services"
)

// SequenceError reports the first failed segment. Completed holds the
// segments produced before it; their files are left on disk.
type SequenceError struct {
	Index     int
	Total     int
	Completed SegmentSet
	Err       error
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("segment %d of %d: %v", e.Index, e.Total, e.Err)
}

func (e *SequenceError) Unwrap() error {
	return e.Err
}

// Sequencer runs a Generator over an ordered prompt list.
type Sequencer struct {
	generator *Generator
	logger    *slog.Logger
}

// NewSequencer wraps generator.
func NewSequencer(generator *Generator, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sequencer{generator: generator, logger: logger}
}

// SegmentPath returns the file name used for the 1-based segment index.
func SegmentPath(runDir string, index int) string {
	return filepath.Join(runDir, fmt.Sprintf("segment-%02d.mp4", index))
}

// Run generates every request in order. Segment i is not submitted until
// segment i-1 has a local file. An empty request list is a configuration
// error and never reaches the backend.
func (s *Sequencer) Run(ctx context.Context, runDir string, reqs []Request) (SegmentSet, error) {
	if len(reqs) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, StageName, "sequence", "no prompts to generate", nil)
	}
	total := len(reqs)
	set := make(SegmentSet, 0, total)
	for i, req := range reqs {
		index := i + 1
		if err := ctx.Err(); err != nil {
			return nil, &SequenceError{
				Index:     index,
				Total:     total,
				Completed: set,
				Err:       services.Wrap(services.ErrCanceled, StageName, "sequence", "", err),
			}
		}
		s.logger.Info("generating segment",
			logging.Int(logging.FieldSegmentIndex, index),
			logging.Int(logging.FieldSegmentCount, total),
			logging.String(logging.FieldEventType, "segment_start"),
		)
		segment, err := s.generator.Generate(ctx, index, req, SegmentPath(runDir, index))
		if err != nil {
			details := services.Details(err)
			logging.ErrorWithContext(s.logger, "segment generation failed", "segment_failed",
				logging.Int(logging.FieldSegmentIndex, index),
				logging.Int(logging.FieldSegmentCount, total),
				logging.String(logging.FieldErrorKind, details.Kind),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, firstNonEmpty(details.Hint, "inspect earlier segments in the run directory")),
			)
			return nil, &SequenceError{Index: index, Total: total, Completed: set, Err: err}
		}
		set = append(set, segment)
	}
	return set, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
