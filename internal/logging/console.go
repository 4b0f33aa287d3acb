package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders one line per record:
//
//	2026-01-02T15:04:05Z INFO workflow: stage started stage=generate_videos run_id=...
//
// The component attribute becomes the line prefix instead of a key=value pair.
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     slog.Leveler
	addSource bool
	prefix    string
	fields    []field
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, out: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := h.fields
	if record.NumAttrs() > 0 {
		fields = append(make([]field, 0, len(h.fields)+record.NumAttrs()), h.fields...)
		record.Attrs(func(attr slog.Attr) bool {
			fields = appendField(fields, h.prefix, attr)
			return true
		})
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var line strings.Builder
	line.WriteString(ts.UTC().Format(time.RFC3339))
	line.WriteByte(' ')
	line.WriteString(levelLabel(record.Level))
	line.WriteByte(' ')

	component := ""
	for _, f := range fields {
		if f.key == FieldComponent {
			component = plainValue(f.value)
			break
		}
	}
	if component != "" {
		line.WriteString(component)
		line.WriteString(": ")
	}

	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	line.WriteString(msg)

	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&line, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}

	for _, f := range fields {
		if f.key == "" || f.key == FieldComponent {
			continue
		}
		line.WriteByte(' ')
		line.WriteString(f.key)
		line.WriteByte('=')
		line.WriteString(quoteIfNeeded(plainValue(f.value)))
	}
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, attr := range attrs {
		next.fields = appendField(next.fields, h.prefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = joinKey(h.prefix, name)
	return &next
}

// appendField flattens groups into dotted keys.
func appendField(dst []field, prefix string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix = joinKey(prefix, attr.Key)
		}
		for _, member := range value.Group() {
			dst = appendField(dst, groupPrefix, member)
		}
		return dst
	}
	key := attr.Key
	if prefix != "" {
		key = joinKey(prefix, attr.Key)
	}
	return append(dst, field{key: key, value: value})
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

func plainValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
