package ffmpeg

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestConcatUsesStreamCopy(t *testing.T) {
	var gotName string
	var gotArgs []string
	restore := SetCommandRunnerForTests(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})
	defer restore()

	if err := NewRunner("").Concat(context.Background(), "/tmp/run/concat.txt", "/out/.episode.mp4"); err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if gotName != "ffmpeg" {
		t.Fatalf("expected default binary ffmpeg, got %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-f concat", "-safe 0", "-i /tmp/run/concat.txt", "-c copy"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %q", want, joined)
		}
	}
	if gotArgs[len(gotArgs)-1] != "/out/.episode.mp4" {
		t.Fatalf("expected output last, got %v", gotArgs)
	}
}

func TestConcatWrapsFailure(t *testing.T) {
	restore := SetCommandRunnerForTests(func(context.Context, string, ...string) error {
		return errors.New("exit status 1: Invalid data")
	})
	defer restore()

	err := NewRunner("ff").Concat(context.Background(), "m.txt", "o.mp4")
	if err == nil || !strings.Contains(err.Error(), "ffmpeg concat") {
		t.Fatalf("expected wrapped concat error, got %v", err)
	}
}

func TestSynthesizePlaceholder(t *testing.T) {
	var gotArgs []string
	restore := SetCommandRunnerForTests(func(_ context.Context, _ string, args ...string) error {
		gotArgs = args
		return nil
	})
	defer restore()

	if err := NewRunner("").SynthesizePlaceholder(context.Background(), 5*time.Second, 720, 1280, "seg.mp4"); err != nil {
		t.Fatalf("SynthesizePlaceholder: %v", err)
	}
	if !slices.Contains(gotArgs, "color=c=0x2b2b2b:s=720x1280:r=24:d=5.000") {
		t.Fatalf("missing color source in %v", gotArgs)
	}
	if !slices.Contains(gotArgs, "anullsrc=channel_layout=stereo:sample_rate=48000") {
		t.Fatalf("missing silent audio source in %v", gotArgs)
	}
}

func TestSynthesizePlaceholderRejectsBadInput(t *testing.T) {
	runner := NewRunner("")
	if err := runner.SynthesizePlaceholder(context.Background(), 0, 720, 1280, "x.mp4"); err == nil {
		t.Fatal("expected duration error")
	}
	if err := runner.SynthesizePlaceholder(context.Background(), time.Second, 0, 1280, "x.mp4"); err == nil {
		t.Fatal("expected size error")
	}
}

func TestPlaceholderSize(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{9, 16, 720, 1280},
		{16, 9, 1280, 720},
		{1, 1, 1080, 1080},
		{0, 0, 720, 1280},
		{4, 5, 720, 900},
	}
	for _, tt := range tests {
		gotW, gotH := PlaceholderSize(tt.w, tt.h)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("PlaceholderSize(%d,%d) = %dx%d, want %dx%d", tt.w, tt.h, gotW, gotH, tt.wantW, tt.wantH)
		}
	}
}
