package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"reelcast/internal/config"
	"reelcast/internal/logging"
	"reelcast/internal/media/ffmpeg"
	"reelcast/internal/media/ffprobe"
	"reelcast/internal/services"
	"reelcast/internal/staging"
)

const stageName = "GenerateVideos"

// ConcatTool joins the files listed in a concat manifest without re-encoding.
type ConcatTool interface {
	Concat(ctx context.Context, manifestPath, outputPath string) error
}

// Prober measures media duration in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Assembler is the segment concatenation step.
type Assembler struct {
	tool   ConcatTool
	prober Prober
	logger *slog.Logger
}

// New returns an Assembler. A nil prober disables duration verification.
func New(tool ConcatTool, prober Prober, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{tool: tool, prober: prober, logger: logging.NewComponentLogger(logger, "assembly")}
}

// NewFromConfig wires ffmpeg and, when video.verify_duration is set, ffprobe.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Assembler {
	var prober Prober
	if cfg.Video.VerifyDuration {
		prober = ffprobe.NewProber(cfg.FFprobeBinary())
	}
	return New(ffmpeg.NewRunner(cfg.FFmpegBinary()), prober, logger)
}

// Tolerance is the allowed gap between the output duration and the summed
// segment durations: max(0.5s, 0.1s per segment).
func Tolerance(segments int) float64 {
	return math.Max(0.5, 0.1*float64(segments))
}

// Assemble concatenates segments in order into outputPath and returns the
// measured output duration, or 0 when verification is disabled.
func (a *Assembler) Assemble(ctx context.Context, runDir string, segments []string, outputPath string) (float64, error) {
	if len(segments) < 2 {
		return 0, services.Wrap(services.ErrAssemblyFailed, stageName, "assemble", fmt.Sprintf("need at least two segments, got %d", len(segments)), nil)
	}
	for _, seg := range segments {
		info, err := os.Stat(seg)
		if err != nil {
			return 0, services.Wrap(services.ErrAssemblyFailed, stageName, "assemble", "segment missing", err)
		}
		if info.Size() == 0 {
			return 0, services.Wrap(services.ErrAssemblyFailed, stageName, "assemble", "segment is empty: "+seg, nil)
		}
	}

	expected := 0.0
	if a.prober != nil {
		for _, seg := range segments {
			d, err := a.prober.Duration(ctx, seg)
			if err != nil {
				return 0, services.Wrap(services.ErrAssemblyFailed, stageName, "probe segment", seg, err)
			}
			expected += d
		}
	}

	manifest, err := writeManifest(runDir, segments)
	if err != nil {
		return 0, services.Wrap(services.ErrAssemblyFailed, stageName, "write manifest", "", err)
	}
	defer os.Remove(manifest)

	partial, err := reserveTemp(outputPath)
	if err != nil {
		return 0, services.Wrap(services.ErrAssemblyFailed, stageName, "reserve output", "", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(partial)
		}
	}()

	a.logger.Info("concatenating segments",
		logging.Int(logging.FieldSegmentCount, len(segments)),
		logging.String("output", outputPath),
		logging.String(logging.FieldEventType, "assembly_start"),
	)
	if err := a.tool.Concat(ctx, manifest, partial); err != nil {
		return 0, services.WithHint(
			services.Wrap(services.ErrAssemblyFailed, stageName, "concat", "", err),
			"segments must share codec parameters for stream copy",
		)
	}

	var actual float64
	if a.prober != nil {
		actual, err = a.prober.Duration(ctx, partial)
		if err != nil {
			return 0, services.Wrap(services.ErrAssemblyFailed, stageName, "probe output", "", err)
		}
		if gap := math.Abs(actual - expected); gap > Tolerance(len(segments)) {
			return 0, services.Wrap(services.ErrAssemblyFailed, stageName, "verify",
				fmt.Sprintf("output duration %.2fs differs from segment sum %.2fs", actual, expected), nil)
		}
	}

	if err := os.Rename(partial, outputPath); err != nil {
		return 0, services.Wrap(services.ErrAssemblyFailed, stageName, "commit output", "", err)
	}
	committed = true

	a.removeSegments(runDir, segments)
	a.logger.Info("assembled episode",
		logging.String("output", outputPath),
		logging.Float64("duration_seconds", actual),
		logging.String(logging.FieldEventType, "assembly_complete"),
	)
	return actual, nil
}

// writeManifest writes a concat-demuxer list into runDir.
func writeManifest(runDir string, segments []string) (string, error) {
	f, err := os.CreateTemp(runDir, "concat-*.txt")
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, seg := range segments {
		abs, err := filepath.Abs(seg)
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return "", err
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// reserveTemp creates an empty hidden file beside outputPath for ffmpeg to
// overwrite.
func reserveTemp(outputPath string) (string, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(outputPath)+".*.partial")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

func (a *Assembler) removeSegments(runDir string, segments []string) {
	for _, seg := range segments {
		if !staging.Within(runDir, seg) {
			a.logger.Debug("keeping segment outside run dir", logging.String("path", seg))
			continue
		}
		if err := os.Remove(seg); err != nil && !os.IsNotExist(err) {
			logging.WarnWithContext(a.logger, "failed to remove segment", "segment_cleanup_failed",
				logging.String("path", seg),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'reelcast cleanup' to reclaim space"),
				logging.String(logging.FieldImpact, "segment left in run directory"),
			)
		}
	}
}
