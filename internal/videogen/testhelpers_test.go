package videogen

import (
	"context"
	"fmt"
	"os"
	"time"

	"reelcast/internal/services"
)

type stubBackend struct {
	submits  []Request
	polls    int
	fetches  int
	submitFn func(req Request) (Submission, error)
	pollFn   func(handle string, n int) (PollResult, error)
	fetchFn  func(ref ArtifactRef) ([]byte, error)
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Submit(_ context.Context, req Request) (Submission, error) {
	b.submits = append(b.submits, req)
	if b.submitFn != nil {
		return b.submitFn(req)
	}
	return Submission{Handle: fmt.Sprintf("op-%d", len(b.submits))}, nil
}

func (b *stubBackend) Poll(_ context.Context, handle string) (PollResult, error) {
	b.polls++
	if b.pollFn != nil {
		return b.pollFn(handle, b.polls)
	}
	return PollResult{Done: true, Artifact: ArtifactRef{URI: "files/" + handle}}, nil
}

func (b *stubBackend) Fetch(_ context.Context, ref ArtifactRef) ([]byte, error) {
	b.fetches++
	if b.fetchFn != nil {
		return b.fetchFn(ref)
	}
	if len(ref.Inline) > 0 {
		return ref.Inline, nil
	}
	return []byte("clip:" + ref.URI), nil
}

// byPrompt is a synchronous backend whose clip bytes name the prompt.
func byPrompt() *stubBackend {
	return &stubBackend{submitFn: func(req Request) (Submission, error) {
		return Submission{Ready: true, Artifact: ArtifactRef{Inline: []byte("[" + req.Prompt + "]")}}, nil
	}}
}

type stubSynth struct {
	calls int
	err   error
}

func (s *stubSynth) SynthesizePlaceholder(_ context.Context, req Request, dest string) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(dest, []byte("placeholder:"+req.Prompt), 0o644)
}

type sleepRecorder struct {
	calls []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return ctx.Err()
}

func unavailable(op string) error {
	return services.Wrap(services.ErrBackendUnavailable, "GenerateVideos", op, "503 from backend", nil)
}

func jobFailed(op string) error {
	return services.Wrap(services.ErrJobFailed, "GenerateVideos", op, "content policy violation", nil)
}

func readFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "<missing: " + err.Error() + ">"
	}
	return string(data)
}
