package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelcast/internal/episode"
	"reelcast/internal/services"
	"reelcast/internal/story"
	"reelcast/internal/testsupport"
)

func TestNextTransitionTable(t *testing.T) {
	tests := []struct {
		stage  Stage
		failed bool
		want   Stage
	}{
		{StageLoadHistory, false, StageGenerateStory},
		{StageGenerateStory, false, StageGenerateVideos},
		{StageGenerateVideos, false, StagePublish},
		{StagePublish, false, StageSaveHistory},
		{StageSaveHistory, false, StageDone},
		{StageLoadHistory, true, StageSaveHistory},
		{StageGenerateStory, true, StageSaveHistory},
		{StageGenerateVideos, true, StageSaveHistory},
		{StagePublish, true, StageSaveHistory},
		{StageSaveHistory, true, StageError},
		{StageDone, false, StageDone},
		{StageError, true, StageError},
	}
	for _, tt := range tests {
		if got := next(tt.stage, tt.failed); got != tt.want {
			t.Errorf("next(%s, %v) = %s, want %s", tt.stage, tt.failed, got, tt.want)
		}
	}
}

// Scenario A: cold start, one prompt, no assembly.
func TestRunColdStartSingleSegment(t *testing.T) {
	h := newHarness(t)
	run, err := h.manager().Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Stage != StageDone || !run.Recorded {
		t.Fatalf("stage=%s recorded=%v", run.Stage, run.Recorded)
	}
	if h.assembler.calls != 0 {
		t.Fatalf("assembler called %d times for a single segment", h.assembler.calls)
	}
	if h.store.appends != 1 {
		t.Fatalf("appends = %d, want 1", h.store.appends)
	}
	rec := h.store.last(t)
	if rec.Number != 1 || rec.Status != episode.StatusCompleted {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Artifact == nil || rec.Artifact.SegmentCount != 1 || rec.Artifact.Provenance != episode.ProvenanceReal {
		t.Fatalf("artifact = %+v", rec.Artifact)
	}
	wantPath := filepath.Join(h.cfg.Paths.OutputDir, "episode_0001.mp4")
	if rec.Artifact.Path != wantPath {
		t.Fatalf("artifact path = %q, want %q", rec.Artifact.Path, wantPath)
	}
	if got := readArtifact(t, wantPath); got != "[scene one]" {
		t.Fatalf("artifact = %q", got)
	}
	if len(h.story.input.Window) != 0 || h.story.input.EpisodeNumber != 1 {
		t.Fatalf("story input = %+v", h.story.input)
	}
	if len(h.notifier.started) != 1 || len(h.notifier.complete) != 1 || len(h.notifier.failed) != 0 {
		t.Fatalf("notifications started=%v complete=%v failed=%v", h.notifier.started, h.notifier.complete, h.notifier.failed)
	}
}

// Scenario B: three prior episodes, five prompts, assembled in order.
func TestRunAssemblesFiveSegmentsInOrder(t *testing.T) {
	h := newHarness(t)
	h.store.records = []episode.Episode{
		completedRecord(1, "Rice"),
		completedRecord(2, "Soup"),
		completedRecord(3, "Tacos"),
	}
	h.story.story = storyWithPrompts("s1", "s2", "s3", "s4", "s5")

	run, err := h.manager().Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec := h.store.last(t)
	if rec.Number != 4 || rec.Status != episode.StatusCompleted {
		t.Fatalf("record = %+v", rec)
	}
	if got := readArtifact(t, rec.Artifact.Path); got != "[s1][s2][s3][s4][s5]" {
		t.Fatalf("artifact order = %q", got)
	}
	if rec.Artifact.SegmentCount != 5 || rec.Artifact.DurationSeconds != 40 {
		t.Fatalf("artifact = %+v", rec.Artifact)
	}
	if strings.Join(h.backend.submits, ",") != "s1,s2,s3,s4,s5" {
		t.Fatalf("submit order = %v", h.backend.submits)
	}
	if got := strings.Join(h.story.input.UsedSubjects, ","); got != "Rice,Soup,Tacos" {
		t.Fatalf("used subjects = %q", got)
	}
	if len(h.story.input.Window) != 3 {
		t.Fatalf("window = %d", len(h.story.input.Window))
	}
	if rec.Publish == nil || rec.Publish.RemoteID != "vid1" {
		t.Fatalf("publish = %+v", rec.Publish)
	}
	if h.publisher.path != rec.Artifact.Path || h.publisher.meta.Visibility != "public" {
		t.Fatalf("publisher got path=%q meta=%+v", h.publisher.path, h.publisher.meta)
	}
	if run.Episode.Number != 4 {
		t.Fatalf("run episode = %d", run.Episode.Number)
	}
}

// Scenario C: segment 3 of 5 never finishes.
func TestRunRecordsSegmentTimeout(t *testing.T) {
	h := newHarness(t)
	h.story.story = storyWithPrompts("s1", "s2", "s3", "s4", "s5")
	h.backend = newClipBackend("s3")

	run, err := h.manager().Run(context.Background(), Options{})
	if !errors.Is(err, services.ErrJobTimeout) {
		t.Fatalf("expected job timeout, got %v", err)
	}
	if run.Stage != StageError || !run.Recorded {
		t.Fatalf("stage=%s recorded=%v", run.Stage, run.Recorded)
	}
	if polls := h.backend.polls["s3"]; polls != 60 {
		t.Fatalf("segment 3 polled %d times, want 60", polls)
	}
	if strings.Join(h.backend.submits, ",") != "s1,s2,s3" {
		t.Fatalf("submits = %v", h.backend.submits)
	}
	if h.assembler.calls != 0 {
		t.Fatal("assembler ran on a partial set")
	}
	rec := h.store.last(t)
	if rec.Status != episode.StatusFailed || rec.Artifact != nil {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Failure == nil || rec.Failure.Kind != services.KindJobTimeout || rec.Failure.Stage != string(StageGenerateVideos) {
		t.Fatalf("failure = %+v", rec.Failure)
	}
	if _, statErr := os.Stat(filepath.Join(h.cfg.Paths.OutputDir, "episode_0001.mp4")); !os.IsNotExist(statErr) {
		t.Fatalf("artifact left at canonical path: %v", statErr)
	}
	if got := segmentFiles(t, run.RunDir); strings.Join(got, ",") != "segment-01.mp4,segment-02.mp4" {
		t.Fatalf("segments kept = %v", got)
	}
	if len(run.Segments) != 2 {
		t.Fatalf("run segments = %d", len(run.Segments))
	}
	if h.publisher.calls != 0 {
		t.Fatal("publish ran after a failed video stage")
	}
	if len(h.notifier.failed) != 1 || h.notifier.failed[0] != "1|GenerateVideos|job_timeout" {
		t.Fatalf("failure notifications = %v", h.notifier.failed)
	}
}

// Scenario D: the story collaborator degraded to a fallback story.
func TestRunProceedsWithFallbackStory(t *testing.T) {
	h := newHarness(t)
	fallback := storyWithPrompts("a", "b", "c")
	fallback.Fallback = true
	fallback.Title = "Nori's Kitchen - Episode 1"
	h.story.story = fallback

	if _, err := h.manager().Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec := h.store.last(t)
	if !rec.Story.Fallback || rec.Status != episode.StatusCompleted {
		t.Fatalf("record = %+v", rec)
	}
	if len(h.backend.submits) != 3 {
		t.Fatalf("submits = %v", h.backend.submits)
	}
}

func TestRunAppendsExactlyOncePerFailure(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(h *harness)
		wantStage Stage
		wantKind  string
	}{
		{
			name:      "load",
			setup:     func(h *harness) { h.store.loadErr = errors.New("disk gone") },
			wantStage: StageLoadHistory,
			wantKind:  services.KindStoreReadFailed,
		},
		{
			name:      "story",
			setup:     func(h *harness) { h.story.err = errors.New("connection refused") },
			wantStage: StageGenerateStory,
			wantKind:  services.KindBackendUnavailable,
		},
		{
			name: "videos",
			setup: func(h *harness) {
				h.story.story = storyWithPrompts("ok", "   ")
			},
			wantStage: StageGenerateVideos,
			wantKind:  services.KindConfiguration,
		},
		{
			name: "publish",
			setup: func(h *harness) {
				h.publisher.err = services.WrapCode(services.ErrPublishFailed, "Publish", "upload", "quota", "", errors.New("quotaExceeded"))
			},
			wantStage: StagePublish,
			wantKind:  services.KindPublishFailed,
		},
		{
			name:      "publish unclassified",
			setup:     func(h *harness) { h.publisher.err = errors.New("boom") },
			wantStage: StagePublish,
			wantKind:  services.KindPublishFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)
			run, err := h.manager().Run(context.Background(), Options{})
			if err == nil {
				t.Fatal("expected failure")
			}
			if h.store.appends != 1 {
				t.Fatalf("appends = %d, want 1", h.store.appends)
			}
			if run.FailedStage != tt.wantStage || services.KindOf(err) != tt.wantKind {
				t.Fatalf("failed at %s (%s), want %s (%s): %v", run.FailedStage, services.KindOf(err), tt.wantStage, tt.wantKind, err)
			}
			rec := h.store.last(t)
			if rec.Failure == nil || rec.Failure.Kind != tt.wantKind || rec.Failure.Stage != string(tt.wantStage) {
				t.Fatalf("failure = %+v", rec.Failure)
			}
			if rec.Number < 1 {
				t.Fatalf("record number = %d", rec.Number)
			}
		})
	}
}

func TestRunPublishFailureKeepsArtifact(t *testing.T) {
	h := newHarness(t)
	h.publisher.err = services.WrapCode(services.ErrPublishFailed, "Publish", "upload", "auth", "", errors.New("401"))

	run, err := h.manager().Run(context.Background(), Options{})
	if !errors.Is(err, services.ErrPublishFailed) {
		t.Fatalf("expected publish failure, got %v", err)
	}
	rec := h.store.last(t)
	if rec.Artifact == nil || rec.Artifact.Path == "" {
		t.Fatalf("artifact dropped on publish failure: %+v", rec)
	}
	if _, statErr := os.Stat(rec.Artifact.Path); statErr != nil {
		t.Fatalf("artifact missing: %v", statErr)
	}
	if run.Episode.Story.Title != "Nori's Pancakes" {
		t.Fatalf("story lost: %+v", run.Episode.Story)
	}
}

func TestRunStoreWriteFailureIsNotRecorded(t *testing.T) {
	h := newHarness(t)
	h.store.appendErr = errors.New("database is locked")

	run, err := h.manager().Run(context.Background(), Options{})
	if !errors.Is(err, services.ErrStoreWriteFailed) {
		t.Fatalf("expected store write failure, got %v", err)
	}
	if run.Stage != StageError || run.Recorded || run.FailedStage != StageSaveHistory {
		t.Fatalf("run = stage %s recorded %v failed %s", run.Stage, run.Recorded, run.FailedStage)
	}
	if h.store.appends != 1 {
		t.Fatalf("appends = %d", h.store.appends)
	}
}

func TestRunCanceledBeforeVideosIsRecorded(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	m := h.manager()
	m.deps.Story = &cancelingStory{fakeStory: h.story, cancel: cancel}
	run, err := m.Run(ctx, Options{})
	if services.KindOf(err) != services.KindCanceled {
		t.Fatalf("kind = %q (%v)", services.KindOf(err), err)
	}
	if run.FailedStage != StageGenerateVideos {
		t.Fatalf("failed stage = %s", run.FailedStage)
	}
	if h.store.appends != 1 || h.store.appendCtx.Err() != nil {
		t.Fatalf("append count=%d ctxErr=%v", h.store.appends, h.store.appendCtx.Err())
	}
	if len(h.backend.submits) != 0 {
		t.Fatal("backend called after cancellation")
	}
	if rec := h.store.last(t); rec.Failure.Kind != services.KindCanceled {
		t.Fatalf("failure = %+v", rec.Failure)
	}
}

type cancelingStory struct {
	*fakeStory
	cancel context.CancelFunc
}

func (c *cancelingStory) Generate(ctx context.Context, in story.Input) (episode.Story, error) {
	st, err := c.fakeStory.Generate(ctx, in)
	c.cancel()
	return st, err
}

func TestRunEpisodeOverrideAndVisibility(t *testing.T) {
	h := newHarness(t)
	h.store.records = []episode.Episode{completedRecord(1, "Rice")}

	if _, err := h.manager().Run(context.Background(), Options{EpisodeNumber: 9, Visibility: "private"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec := h.store.last(t)
	if rec.Number != 9 {
		t.Fatalf("number = %d", rec.Number)
	}
	if h.publisher.meta.Visibility != "private" {
		t.Fatalf("visibility = %q", h.publisher.meta.Visibility)
	}
	if filepath.Base(rec.Artifact.Path) != "episode_0009.mp4" {
		t.Fatalf("artifact = %q", rec.Artifact.Path)
	}
}

func TestRunNumberStableAcrossFailedRetry(t *testing.T) {
	h := newHarness(t)
	h.store.records = []episode.Episode{completedRecord(1, "Rice"), completedRecord(2, "Soup")}
	h.story.err = errors.New("connection refused")

	if _, err := h.manager().Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected failure")
	}
	h.story.err = nil
	if _, err := h.manager().Run(context.Background(), Options{}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(h.store.records) != 4 {
		t.Fatalf("records = %d", len(h.store.records))
	}
	if failed, retried := h.store.records[2], h.store.records[3]; failed.Number != 3 || retried.Number != 3 {
		t.Fatalf("numbers = %d, %d", failed.Number, retried.Number)
	}
}

func TestRunNotificationFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = errors.New("ntfy down")
	if _, err := h.manager().Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunRoundTripsThroughHistoryStore(t *testing.T) {
	h := newHarness(t)
	store := testsupport.MustOpenStore(t, h.cfg)
	testsupport.MustAppend(t, store, completedRecord(1, "Rice"))
	h.story.story = storyWithPrompts("s1", "s2")

	m := h.manager()
	m.deps.Store = store
	run, err := m.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	records, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}
	got := records[1]
	if got.Number != 2 || got.RunID != run.ID || got.Artifact == nil || got.Artifact.SegmentCount != 2 {
		t.Fatalf("reloaded = %+v", got)
	}
	if !got.CreatedAt.Equal(run.Episode.CreatedAt) {
		t.Fatalf("created_at %v != %v", got.CreatedAt, run.Episode.CreatedAt)
	}
	if strings.Join(got.Story.Prompts, ",") != "s1,s2" || got.Publish == nil || got.Publish.URL == "" {
		t.Fatalf("reloaded story/publish = %+v %+v", got.Story, got.Publish)
	}
}

func TestRunRejectsOverrideOfCompletedEpisode(t *testing.T) {
	h := newHarness(t)
	store := testsupport.MustOpenStore(t, h.cfg)
	first := completedRecord(1, "Rice")
	existing := filepath.Join(h.cfg.Paths.OutputDir, ArtifactName(1))
	first.Artifact = &episode.Artifact{Path: existing, Provenance: episode.ProvenanceReal, SegmentCount: 1}
	testsupport.MustAppend(t, store, first)
	writeArtifact(t, existing, "EPISODE-ONE-ORIGINAL")

	m := h.manager()
	m.deps.Store = store
	run, err := m.Run(context.Background(), Options{EpisodeNumber: 1})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if run.FailedStage != StageLoadHistory || !run.Recorded {
		t.Fatalf("failed stage = %s recorded = %v", run.FailedStage, run.Recorded)
	}
	if h.story.calls != 0 || len(h.backend.submits) != 0 || h.publisher.calls != 0 {
		t.Fatalf("collaborators ran: story=%d submits=%d publish=%d", h.story.calls, len(h.backend.submits), h.publisher.calls)
	}
	if got := readArtifact(t, existing); got != "EPISODE-ONE-ORIGINAL" {
		t.Fatalf("completed episode artifact overwritten: %q", got)
	}
	records, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}
	rec := records[1]
	if rec.Status != episode.StatusFailed || rec.Number != 1 || rec.Failure.Kind != services.KindConfiguration {
		t.Fatalf("failure record = %+v %+v", rec, rec.Failure)
	}
}

func TestRunReplacesArtifactOfFailedAttempt(t *testing.T) {
	h := newHarness(t)
	stale := filepath.Join(h.cfg.Paths.OutputDir, ArtifactName(1))
	writeArtifact(t, stale, "stale upload attempt")
	h.store.records = []episode.Episode{{
		Number:   1,
		RunID:    "run-failed",
		Status:   episode.StatusFailed,
		Artifact: &episode.Artifact{Path: stale, SegmentCount: 1},
		Failure:  &episode.Failure{Stage: string(StagePublish), Kind: services.KindPublishFailed},
	}}

	if _, err := h.manager().Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := readArtifact(t, stale); got != "[scene one]" {
		t.Fatalf("artifact = %q", got)
	}
}

func TestRunKeepsUnownedFileAtOutputPath(t *testing.T) {
	h := newHarness(t)
	foreign := filepath.Join(h.cfg.Paths.OutputDir, ArtifactName(1))
	writeArtifact(t, foreign, "hand-placed file")

	run, err := h.manager().Run(context.Background(), Options{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if run.FailedStage != StageGenerateVideos || len(h.backend.submits) != 0 || h.publisher.calls != 0 {
		t.Fatalf("failed stage = %s submits = %d publish = %d", run.FailedStage, len(h.backend.submits), h.publisher.calls)
	}
	if got := readArtifact(t, foreign); got != "hand-placed file" {
		t.Fatalf("file overwritten: %q", got)
	}
}
