package services

import "context"

type contextKey int

const (
	runIDKey contextKey = iota
	stageKey
	episodeKey
)

// WithRunID tags ctx with the workflow run identifier. Blank ids leave ctx unchanged.
func WithRunID(ctx context.Context, id string) context.Context {
	return withString(ctx, runIDKey, id)
}

func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, runIDKey)
}

// WithStage tags ctx with the stage currently executing.
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, stageKey)
}

// WithEpisode tags ctx with the episode number being produced. Non-positive
// numbers are ignored.
func WithEpisode(ctx context.Context, number int) context.Context {
	if number <= 0 {
		return ctx
	}
	return context.WithValue(ctx, episodeKey, number)
}

func EpisodeFromContext(ctx context.Context) (int, bool) {
	n, ok := ctx.Value(episodeKey).(int)
	return n, ok && n > 0
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
