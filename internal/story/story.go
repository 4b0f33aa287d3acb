package story

import (
	"context"
	"errors"
	"log/slog"

	"reelcast/internal/config"
	"reelcast/internal/episode"
	"reelcast/internal/logging"
	"reelcast/internal/services"
)

// Generator produces the story for one episode.
type Generator struct {
	provider   Provider
	characters config.Characters
	story      config.Story
	logger     *slog.Logger
}

// NewGenerator builds a Generator around provider.
func NewGenerator(provider Provider, characters config.Characters, storyCfg config.Story, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{
		provider:   provider,
		characters: characters,
		story:      storyCfg,
		logger:     logging.NewComponentLogger(logger, "story"),
	}
}

// NewFromConfig builds a Generator using the configured provider.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Generator, error) {
	provider, err := NewProviderFromConfig(ctx, cfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "story provider", "", err)
	}
	return NewGenerator(provider, cfg.Characters, cfg.Story, logger), nil
}

// Generate asks the provider for a story. A reply that fails the schema is
// replaced by Fallback and is not an error.
func (g *Generator) Generate(ctx context.Context, in Input) (episode.Story, error) {
	system, user := BuildPrompt(in, g.characters, g.story)
	g.logger.Info("requesting story",
		logging.String(logging.FieldEventType, "story_requested"),
		logging.Int(logging.FieldEpisode, in.EpisodeNumber),
		logging.String("provider", g.provider.Name()),
		logging.Int("window_size", len(in.Window)),
	)
	raw, err := g.provider.Complete(ctx, system, user)
	if err != nil {
		return episode.Story{}, classify(err)
	}

	story, err := Parse(raw, g.story.Language)
	if err == nil {
		g.logger.Info("story generated",
			logging.String(logging.FieldEventType, "story_generated"),
			logging.Int(logging.FieldEpisode, in.EpisodeNumber),
			logging.String("title", story.Title),
			logging.String("subject", story.Subject),
			logging.Int("prompt_count", len(story.Prompts)),
		)
		return story, nil
	}
	if !errors.Is(err, services.ErrSchemaValidationFailed) {
		return episode.Story{}, err
	}
	logging.WarnWithContext(g.logger, "story reply failed validation; using fallback", "story_fallback",
		logging.Int(logging.FieldEpisode, in.EpisodeNumber),
		logging.String(logging.FieldErrorKind, services.KindSchemaValidationFailed),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the story model output format"),
		logging.String(logging.FieldImpact, "episode uses a generic title and default scenes"),
	)
	return Fallback(raw, in.EpisodeNumber, g.characters), nil
}

func classify(err error) error {
	var se *services.Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrCanceled, stageName, "complete", "", err)
	}
	return services.Wrap(services.ErrBackendUnavailable, stageName, "complete", "", err)
}
