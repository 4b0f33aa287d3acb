package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"reelcast/internal/config"
)

// LogFileName is the file written under the configured log directory.
const LogFileName = "reelcast.log"

// Options describes logger construction parameters.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
	// MaxSizeMB and MaxBackups enable size-based rotation for file outputs.
	MaxSizeMB  int
	MaxBackups int
	// Stdout and Stderr back the "stdout" and "stderr" sinks. Nil selects
	// the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	addSource := opts.Development || level.Level() <= slog.LevelDebug

	var build func(io.Writer) slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		build = func(w io.Writer) slog.Handler { return newConsoleHandler(w, level, addSource) }
	case "json":
		build = func(w io.Writer) slog.Handler { return newJSONHandler(w, level, addSource) }
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	errOutputs := opts.ErrorOutputPaths
	if len(errOutputs) == 0 {
		errOutputs = []string{"stderr"}
	}
	w, err := openSinks(slices.Concat(outputs, errOutputs), opts)
	if err != nil {
		return nil, err
	}
	return slog.New(build(w)), nil
}

// NewFromConfig logs to the console streams and, when a log directory is
// configured, to <log_dir>/reelcast.log with rotation. Nil writers select the
// process streams.
func NewFromConfig(cfg *config.Config, stdout, stderr io.Writer) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console", Stdout: stdout, Stderr: stderr})
	}
	outputs := []string{"stdout"}
	errOutputs := []string{"stderr"}
	if dir := cfg.Paths.LogDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		logPath := filepath.Join(dir, LogFileName)
		outputs = append(outputs, logPath)
		errOutputs = append(errOutputs, logPath)
	}
	return New(Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      outputs,
		ErrorOutputPaths: errOutputs,
		MaxSizeMB:        cfg.Logging.MaxSizeMB,
		MaxBackups:       cfg.Logging.MaxBackups,
		Stdout:           stdout,
		Stderr:           stderr,
	})
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openSinks resolves each distinct path to a writer. stdout and stderr are
// the process streams; anything else is a file, rotated when MaxSizeMB > 0.
func openSinks(paths []string, opts Options) (io.Writer, error) {
	seen := make(map[string]bool, len(paths))
	var writers []io.Writer
	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true

		w, err := openSink(path, opts)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func openSink(path string, opts Options) (io.Writer, error) {
	switch path {
	case "stdout":
		return streamOr(opts.Stdout, os.Stdout), nil
	case "stderr":
		return streamOr(opts.Stderr, os.Stderr), nil
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory %s: %w", dir, err)
		}
	}
	if opts.MaxSizeMB > 0 {
		return &lumberjack.Logger{Filename: path, MaxSize: opts.MaxSizeMB, MaxBackups: opts.MaxBackups}, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

func streamOr(w io.Writer, fallback *os.File) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

func newJSONHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   addSource,
		ReplaceAttr: shortJSONKeys,
	})
}

func shortJSONKeys(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
		}
	case slog.LevelKey:
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return attr
}
