package ffprobe

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{Streams: []Stream{
		{CodecType: "video", Duration: "4.9"},
		{CodecType: "audio", Duration: "5.1"},
	}}
	if got := result.DurationSeconds(); got != 5.1 {
		t.Fatalf("expected longest stream duration 5.1, got %v", got)
	}
}

func TestDurationInvalidIsNaN(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
}

func TestProberDuration(t *testing.T) {
	var gotArgs []string
	restore := SetCommandOutputForTests(func(_ context.Context, binary string, args ...string) ([]byte, error) {
		if binary != "probe-bin" {
			t.Fatalf("unexpected binary %q", binary)
		}
		gotArgs = args
		return []byte(`{"streams":[{"codec_type":"video"}],"format":{"duration":"15.04"}}`), nil
	})
	defer restore()

	duration, err := NewProber("probe-bin").Duration(context.Background(), "/tmp/episode.mp4")
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if duration != 15.04 {
		t.Fatalf("expected 15.04, got %v", duration)
	}
	if gotArgs[len(gotArgs)-1] != "/tmp/episode.mp4" {
		t.Fatalf("expected path as last arg, got %v", gotArgs)
	}
}

func TestProberRejectsMissingVideo(t *testing.T) {
	restore := SetCommandOutputForTests(func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"streams":[{"codec_type":"audio"}],"format":{"duration":"3"}}`), nil
	})
	defer restore()

	if _, err := NewProber("").Duration(context.Background(), "a.mp4"); err == nil || !strings.Contains(err.Error(), "no video") {
		t.Fatalf("expected no video error, got %v", err)
	}
}

func TestProberPropagatesCommandFailure(t *testing.T) {
	restore := SetCommandOutputForTests(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("moov atom not found"), errors.New("exit status 1")
	})
	defer restore()

	_, err := NewProber("").Duration(context.Background(), "a.mp4")
	if err == nil || !strings.Contains(err.Error(), "moov atom") {
		t.Fatalf("expected wrapped stderr, got %v", err)
	}
}
