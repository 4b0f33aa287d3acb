package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// commandRunner executes an ffmpeg command line. Tests replace it.
var commandRunner = defaultCommandRunner

// SetCommandRunnerForTests overrides the ffmpeg executor and returns a restore func.
func SetCommandRunnerForTests(fn func(ctx context.Context, name string, args ...string) error) func() {
	previous := commandRunner
	commandRunner = fn
	return func() {
		commandRunner = previous
	}
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Runner invokes a fixed ffmpeg binary.
type Runner struct {
	Binary string
}

// NewRunner returns a Runner for binary ("ffmpeg" when empty).
func NewRunner(binary string) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Runner{Binary: binary}
}

// ConcatArgs builds the stream-copy concat command for a manifest.
func ConcatArgs(manifestPath, outputPath string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "concat", "-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		"-movflags", "+faststart",
		"-f", "mp4",
		outputPath,
	}
}

// Concat joins the files listed in a concat-demuxer manifest into outputPath
// without re-encoding.
func (r *Runner) Concat(ctx context.Context, manifestPath, outputPath string) error {
	if strings.TrimSpace(manifestPath) == "" || strings.TrimSpace(outputPath) == "" {
		return errors.New("ffmpeg concat: manifest and output paths are required")
	}
	if err := commandRunner(ctx, r.Binary, ConcatArgs(manifestPath, outputPath)...); err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

// PlaceholderArgs builds the lavfi command for a solid-color clip with a
// silent stereo track so synthetic segments concat cleanly with real ones.
func PlaceholderArgs(duration time.Duration, width, height int, outputPath string) []string {
	seconds := strconv.FormatFloat(duration.Seconds(), 'f', 3, 64)
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "lavfi", "-i", fmt.Sprintf("color=c=0x2b2b2b:s=%dx%d:r=24:d=%s", width, height, seconds),
		"-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=48000",
		"-shortest",
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-t", seconds,
		"-f", "mp4",
		outputPath,
	}
}

// SynthesizePlaceholder renders a placeholder clip of the given size.
func (r *Runner) SynthesizePlaceholder(ctx context.Context, duration time.Duration, width, height int, outputPath string) error {
	if duration <= 0 {
		return fmt.Errorf("ffmpeg placeholder: invalid duration %s", duration)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("ffmpeg placeholder: invalid size %dx%d", width, height)
	}
	if err := commandRunner(ctx, r.Binary, PlaceholderArgs(duration, width, height, outputPath)...); err != nil {
		return fmt.Errorf("ffmpeg placeholder: %w", err)
	}
	return nil
}

// PlaceholderSize maps an aspect ratio to the frame size used for synthetic
// clips. Portrait ratios get 720 wide frames, landscape 720 tall, square 1080.
func PlaceholderSize(ratioW, ratioH int) (int, int) {
	switch {
	case ratioW <= 0 || ratioH <= 0:
		return 720, 1280
	case ratioW == ratioH:
		return 1080, 1080
	case ratioW < ratioH:
		return 720, even(720 * ratioH / ratioW)
	default:
		return even(720 * ratioW / ratioH), 720
	}
}

func even(v int) int {
	return v - v%2
}
