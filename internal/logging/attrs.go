package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"reelcast/internal/services"
)

// Attr is the attribute type accepted by every helper in this package.
type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Alert marks a line that should stand out when scanning structured logs.
func Alert(value string) Attr { return slog.String(FieldAlert, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Failure expands a classified error into kind, operation, code, hint and
// the underlying cause. Empty fields are omitted.
func Failure(err error) []Attr {
	if err == nil {
		return nil
	}
	details := services.Details(err)
	attrs := []Attr{String(FieldErrorKind, details.Kind)}
	if details.Operation != "" {
		attrs = append(attrs, String("error_operation", details.Operation))
	}
	if details.Code != "" {
		attrs = append(attrs, String("error_code", details.Code))
	}
	if details.Hint != "" {
		attrs = append(attrs, String(FieldErrorHint, details.Hint))
	}
	if msg := strings.TrimSpace(details.Message); msg != "" {
		attrs = append(attrs, String("error_message", msg))
	}
	if details.Cause != nil {
		return append(attrs, Error(details.Cause))
	}
	return append(attrs, Error(err))
}

// Args converts attrs to the variadic form accepted by slog.Logger methods.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(noopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

func hasKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// FieldImpact is the standardized key for user-facing consequence of a warning.
const FieldImpact = "impact"

// WarnWithContext logs a warning carrying event_type, error_hint and impact.
// Missing fields get defaults so every WARN line states cause, impact and
// next step.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Warn(msg, Args(withRequired(attrs, eventType, "operation completed with warnings")...)...)
}

// ErrorWithContext is WarnWithContext at error level.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Error(msg, Args(withRequired(attrs, eventType, "episode not produced")...)...)
}

func withRequired(attrs []Attr, eventType, impact string) []Attr {
	if !hasKey(attrs, FieldEventType) {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !hasKey(attrs, FieldErrorHint) {
		attrs = append(attrs, String(FieldErrorHint, "check logs for details"))
	}
	if !hasKey(attrs, FieldImpact) {
		attrs = append(attrs, String(FieldImpact, impact))
	}
	return attrs
}

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (noopHandler) Handle(context.Context, slog.Record) error { return nil }

func (noopHandler) WithAttrs([]slog.Attr) slog.Handler { return noopHandler{} }

func (noopHandler) WithGroup(string) slog.Handler { return noopHandler{} }
