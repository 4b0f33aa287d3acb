package main

import (
	"context"
	"log/slog"

	"reelcast/internal/assembly"
	"reelcast/internal/config"
	"reelcast/internal/media/ffmpeg"
	"reelcast/internal/media/ffprobe"
	"reelcast/internal/notifications"
	"reelcast/internal/publish"
	"reelcast/internal/story"
	"reelcast/internal/videogen"
	"reelcast/internal/videogen/static"
	"reelcast/internal/videogen/veo"
	"reelcast/internal/workflow"
)

// Constructors for the remote collaborators. Tests replace them with doubles.
var (
	newStoryGenerator = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (workflow.StoryGenerator, error) {
		return story.NewFromConfig(ctx, cfg, logger)
	}
	newUploader = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (workflow.Publisher, error) {
		return publish.NewFromConfig(ctx, cfg.Publish, logger)
	}
)

func buildCollaborators(ctx context.Context, cfg *config.Config, store workflow.Store, opts workflow.Options, logger *slog.Logger) (workflow.Collaborators, error) {
	storyGen, err := newStoryGenerator(ctx, cfg, logger)
	if err != nil {
		return workflow.Collaborators{}, err
	}
	producer, err := newProducer(ctx, cfg, logger)
	if err != nil {
		return workflow.Collaborators{}, err
	}
	publisher, err := newPublisher(ctx, cfg, opts, logger)
	if err != nil {
		return workflow.Collaborators{}, err
	}
	return workflow.Collaborators{
		Store:     store,
		Story:     storyGen,
		Producer:  producer,
		Publisher: publisher,
		Notifier:  notifications.NewService(cfg.Notifications),
	}, nil
}

func newVideoBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (videogen.Backend, error) {
	if cfg.Video.Backend == config.VideoBackendStatic {
		return static.New(cfg.Video.StaticClipPath), nil
	}
	return veo.NewFromConfig(ctx, cfg, logger)
}

func newProducer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*videogen.Producer, error) {
	backend, err := newVideoBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	generator := videogen.NewGenerator(backend,
		videogen.WithPolicy(videogen.PolicyFromConfig(cfg)),
		videogen.WithSynthesizer(videogen.NewFFmpegSynthesizer(ffmpeg.NewRunner(cfg.FFmpegBinary()))),
		videogen.WithLogger(logger),
	)
	var prober videogen.Prober
	if cfg.Video.VerifyDuration {
		prober = ffprobe.NewProber(cfg.FFprobeBinary())
	}
	return videogen.NewProducer(videogen.NewSequencer(generator, logger), assembly.NewFromConfig(cfg, logger), prober, logger), nil
}

func newPublisher(ctx context.Context, cfg *config.Config, opts workflow.Options, logger *slog.Logger) (workflow.Publisher, error) {
	if !cfg.Publish.Enabled {
		visibility := opts.Visibility
		if visibility == "" {
			visibility = cfg.Publish.Visibility
		}
		return publish.Skipper{Visibility: visibility}, nil
	}
	return newUploader(ctx, cfg, logger)
}
