package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// commandOutput runs the probe binary. Tests replace it to avoid shelling out.
var commandOutput = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, binary, args...).CombinedOutput()
}

// SetCommandOutputForTests swaps the probe executor and returns a restore func.
func SetCommandOutputForTests(fn func(ctx context.Context, binary string, args ...string) ([]byte, error)) func() {
	previous := commandOutput
	commandOutput = fn
	return func() { commandOutput = previous }
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	output, err := commandOutput(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countStreams("video")
}

func (r Result) countStreams(kind string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds. When the
// container omits a duration the longest stream duration is used. NaN is
// returned for unparseable values.
func (r Result) DurationSeconds() float64 {
	if strings.TrimSpace(r.Format.Duration) != "" {
		return parseFloat(r.Format.Duration)
	}
	longest := 0.0
	for _, stream := range r.Streams {
		value := parseFloat(stream.Duration)
		if !math.IsNaN(value) && value > longest {
			longest = value
		}
	}
	return longest
}

// Prober inspects rendered files with a fixed ffprobe binary.
type Prober struct {
	Binary string
}

// NewProber returns a Prober for binary ("ffprobe" when empty).
func NewProber(binary string) *Prober {
	return &Prober{Binary: binary}
}

// Duration reports the playable duration of path in seconds. Files without a
// video stream or without a positive duration are rejected.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	binary := ""
	if p != nil {
		binary = p.Binary
	}
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return 0, err
	}
	if result.VideoStreamCount() == 0 {
		return 0, fmt.Errorf("ffprobe: %s has no video stream", path)
	}
	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return 0, fmt.Errorf("ffprobe: %s reports invalid duration %q", path, result.Format.Duration)
	}
	return duration, nil
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
