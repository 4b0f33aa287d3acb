package videogen

import (
	"context"
	"time"

	"reelcast/internal/config"
	"reelcast/internal/media/ffmpeg"
)

// FFmpegSynthesizer renders placeholder clips with ffmpeg lavfi sources.
type FFmpegSynthesizer struct {
	runner *ffmpeg.Runner
}

// NewFFmpegSynthesizer returns a synthesizer backed by runner.
func NewFFmpegSynthesizer(runner *ffmpeg.Runner) *FFmpegSynthesizer {
	return &FFmpegSynthesizer{runner: runner}
}

// SynthesizePlaceholder writes a solid-color clip sized from the request's
// aspect ratio and duration.
func (s *FFmpegSynthesizer) SynthesizePlaceholder(ctx context.Context, req Request, dest string) error {
	w, h, _ := config.ParseAspectRatio(req.AspectRatio)
	width, height := ffmpeg.PlaceholderSize(w, h)
	seconds := req.DurationSeconds
	if seconds <= 0 {
		seconds = 5
	}
	return s.runner.SynthesizePlaceholder(ctx, time.Duration(seconds)*time.Second, width, height, dest)
}

// PolicyFromConfig maps the [video] section onto a Policy.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		return DefaultPolicy()
	}
	return Policy{
		PollInterval:             cfg.PollInterval(),
		MaxAttempts:              cfg.Video.PollMaxAttempts,
		ErrorTolerance:           cfg.Video.PollErrorTolerance,
		PlaceholderOnUnavailable: cfg.Video.PlaceholderOnUnavailable,
		PlaceholderOnTimeout:     cfg.Video.PlaceholderOnTimeout,
	}
}
