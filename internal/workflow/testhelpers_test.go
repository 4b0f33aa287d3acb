package workflow

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"reelcast/internal/config"
	"reelcast/internal/episode"
	"reelcast/internal/publish"
	"reelcast/internal/services"
	"reelcast/internal/story"
	"reelcast/internal/testsupport"
	"reelcast/internal/videogen"
)

// memStore is an in-memory continuity store that counts appends.
type memStore struct {
	mu        sync.Mutex
	records   []episode.Episode
	loadErr   error
	appendErr error
	appends   int
	appendCtx context.Context
}

func (s *memStore) Load(context.Context) ([]episode.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]episode.Episode(nil), s.records...), nil
}

func (s *memStore) Append(ctx context.Context, ep episode.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends++
	s.appendCtx = ctx
	if s.appendErr != nil {
		return s.appendErr
	}
	s.records = append(s.records, ep)
	return nil
}

func (s *memStore) last(t *testing.T) episode.Episode {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		t.Fatal("store has no records")
	}
	return s.records[len(s.records)-1]
}

func completedRecord(n int, subject string) episode.Episode {
	return episode.Episode{
		Number:    n,
		RunID:     fmt.Sprintf("run-%d", n),
		CreatedAt: time.Date(2026, 1, n, 9, 0, 0, 0, time.UTC),
		Status:    episode.StatusCompleted,
		Story:     episode.Story{Title: "Episode " + subject, Subject: subject, Prompts: []string{"p"}},
	}
}

// fakeStory returns a fixed story or error and records its input.
type fakeStory struct {
	story episode.Story
	err   error
	input story.Input
	calls int
}

func (f *fakeStory) Generate(_ context.Context, in story.Input) (episode.Story, error) {
	f.calls++
	f.input = in
	return f.story, f.err
}

func storyWithPrompts(prompts ...string) episode.Story {
	return episode.Story{
		Title:       "Nori's Pancakes",
		Subject:     "Pancakes",
		Summary:     "Nori makes pancakes.",
		Prompts:     prompts,
		Tags:        []string{"cooking"},
		Description: "Fluffy.",
	}
}

// clipBackend is a video backend whose clips name their prompt. Prompts
// listed in pending never finish.
type clipBackend struct {
	mu      sync.Mutex
	pending map[string]bool
	submits []string
	polls   map[string]int
}

func newClipBackend(pending ...string) *clipBackend {
	b := &clipBackend{pending: map[string]bool{}, polls: map[string]int{}}
	for _, p := range pending {
		b.pending[p] = true
	}
	return b
}

func (b *clipBackend) Name() string { return "clip" }

func (b *clipBackend) Submit(_ context.Context, req videogen.Request) (videogen.Submission, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submits = append(b.submits, req.Prompt)
	return videogen.Submission{Handle: req.Prompt}, nil
}

func (b *clipBackend) Poll(_ context.Context, handle string) (videogen.PollResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls[handle]++
	if b.pending[handle] {
		return videogen.PollResult{}, nil
	}
	return videogen.PollResult{Done: true, Artifact: videogen.ArtifactRef{URI: handle}}, nil
}

func (b *clipBackend) Fetch(_ context.Context, ref videogen.ArtifactRef) ([]byte, error) {
	return []byte("[" + ref.URI + "]"), nil
}

// joinAssembler concatenates segment bytes, which keeps their order visible.
type joinAssembler struct {
	calls int
}

func (a *joinAssembler) Assemble(_ context.Context, _ string, segments []string, outputPath string) (float64, error) {
	a.calls++
	var buf bytes.Buffer
	for _, path := range segments {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, services.Wrap(services.ErrAssemblyFailed, "GenerateVideos", "assemble", "", err)
		}
		buf.Write(data)
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return 0, err
	}
	return float64(len(segments)) * 8, nil
}

type fakePublisher struct {
	result episode.PublishResult
	err    error
	calls  int
	path   string
	meta   publish.Metadata
}

func (p *fakePublisher) Publish(_ context.Context, path string, meta publish.Metadata) (episode.PublishResult, error) {
	p.calls++
	p.path = path
	p.meta = meta
	return p.result, p.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	started  []int
	complete []string
	failed   []string
	err      error
}

func (n *recordingNotifier) NotifyRunStarted(_ context.Context, number int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started = append(n.started, number)
	return n.err
}

func (n *recordingNotifier) NotifyRunCompleted(_ context.Context, number int, title, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.complete = append(n.complete, fmt.Sprintf("%d|%s|%s", number, title, url))
	return n.err
}

func (n *recordingNotifier) NotifyRunFailed(_ context.Context, number int, stage, kind, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, fmt.Sprintf("%d|%s|%s", number, stage, kind))
	return n.err
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

type harness struct {
	cfg       *config.Config
	store     *memStore
	story     *fakeStory
	backend   *clipBackend
	assembler *joinAssembler
	publisher *fakePublisher
	notifier  *recordingNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Video.Style = ""
	return &harness{
		cfg:       cfg,
		store:     &memStore{},
		story:     &fakeStory{story: storyWithPrompts("scene one")},
		backend:   newClipBackend(),
		assembler: &joinAssembler{},
		publisher: &fakePublisher{result: episode.PublishResult{RemoteID: "vid1", URL: "https://www.youtube.com/watch?v=vid1", Visibility: "public"}},
		notifier:  &recordingNotifier{},
	}
}

func (h *harness) manager() *Manager {
	gen := videogen.NewGenerator(h.backend,
		videogen.WithPolicy(videogen.Policy{
			PollInterval:   time.Second,
			MaxAttempts:    videogen.DefaultMaxAttempts,
			ErrorTolerance: videogen.DefaultErrorTolerance,
		}),
		videogen.WithSleeper(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
	)
	producer := videogen.NewProducer(videogen.NewSequencer(gen, nil), h.assembler, nil, nil)
	ids := 0
	return NewManager(h.cfg, Collaborators{
		Store:     h.store,
		Story:     h.story,
		Producer:  producer,
		Publisher: h.publisher,
		Notifier:  h.notifier,
	}, nil, WithRunIDs(func() string {
		ids++
		return fmt.Sprintf("deadbeef-run-%d", ids)
	}))
}

func readArtifact(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	return string(data)
}

func segmentFiles(t *testing.T, runDir string) []string {
	t.Helper()
	entries, err := os.ReadDir(runDir)
	if err != nil {
		t.Fatalf("read run dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "segment-") {
			names = append(names, e.Name())
		}
	}
	return names
}

func writeArtifact(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}
