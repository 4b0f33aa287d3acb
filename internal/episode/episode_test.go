package episode_test

import (
	"testing"

	"reelcast/internal/episode"
)

func TestNextNumberIgnoresFailedRecords(t *testing.T) {
	history := []episode.Episode{
		{Number: 1, Status: episode.StatusCompleted},
		{Number: 2, Status: episode.StatusCompleted},
		{Number: 3, Status: episode.StatusFailed},
		{Number: 3, Status: episode.StatusFailed},
	}
	if got := episode.NextNumber(history); got != 3 {
		t.Fatalf("NextNumber = %d, want 3", got)
	}
	if got := episode.NextNumber(nil); got != 1 {
		t.Fatalf("cold start NextNumber = %d, want 1", got)
	}
}

func TestNewWindowKeepsMostRecentLast(t *testing.T) {
	var history []episode.Episode
	for i := 1; i <= 8; i++ {
		history = append(history, episode.Episode{Number: i})
	}
	window := episode.NewWindow(history, 5)
	if len(window) != 5 {
		t.Fatalf("window length = %d", len(window))
	}
	if window[0].Number != 4 || window[4].Number != 8 {
		t.Fatalf("unexpected window order: first=%d last=%d", window[0].Number, window[4].Number)
	}
	window[0].Number = 99
	if history[3].Number != 4 {
		t.Fatal("window must not alias history")
	}
	if got := episode.NewWindow(history[:2], 5); len(got) != 2 {
		t.Fatalf("short history window = %d", len(got))
	}
	if got := episode.NewWindow(nil, 5); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil window, got %#v", got)
	}
}

func TestDistinctSubjects(t *testing.T) {
	history := []episode.Episode{
		{Story: episode.Story{Subject: "kimchi stew"}},
		{Story: episode.Story{Subject: ""}},
		{Story: episode.Story{Subject: "bibimbap"}},
		{Story: episode.Story{Subject: "kimchi stew"}},
	}
	got := episode.DistinctSubjects(history)
	if len(got) != 2 || got[0] != "kimchi stew" || got[1] != "bibimbap" {
		t.Fatalf("DistinctSubjects = %v", got)
	}
}
