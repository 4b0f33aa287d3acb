package logging

import (
	"context"
	"log/slog"

	"reelcast/internal/services"
)

const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldStage     = "stage"
	FieldEpisode   = "episode"
	// FieldSegmentIndex is the 1-based index of a video segment within an episode.
	FieldSegmentIndex = "segment_index"
	// FieldSegmentCount is the total number of segments requested for an episode.
	FieldSegmentCount = "segment_count"
	// FieldProvenance marks whether an artifact is real or synthetic.
	FieldProvenance = "provenance"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorKind carries the failure taxonomy kind.
	FieldErrorKind = "error_kind"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields returns run_id, stage and episode attributes for whatever ctx carries.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if n, ok := services.EpisodeFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldEpisode, n))
	}
	return fields
}

// WithContext returns logger with the ContextFields of ctx attached.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
