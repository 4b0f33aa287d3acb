// Package static is a synchronous videogen.Backend that answers every prompt
// with the same local clip. It backs the test-video mode
// (video.backend = "static") so a full run can be exercised without a
// remote video service.
package static

import (
	"context"
	"os"
	"strings"

	"reelcast/internal/services"
	"reelcast/internal/videogen"
)

// Backend serves a fixed clip.
type Backend struct {
	clipPath string
}

// New returns a Backend for clipPath.
func New(clipPath string) *Backend {
	return &Backend{clipPath: strings.TrimSpace(clipPath)}
}

// Name implements videogen.Backend.
func (b *Backend) Name() string {
	return "static"
}

// Submit reports the clip as immediately ready.
func (b *Backend) Submit(_ context.Context, _ videogen.Request) (videogen.Submission, error) {
	info, err := os.Stat(b.clipPath)
	if err != nil {
		return videogen.Submission{}, services.WithHint(
			services.Wrap(services.ErrConfiguration, videogen.StageName, "submit", "static clip unavailable", err),
			"set video.static_clip_path to an existing mp4",
		)
	}
	if info.IsDir() || info.Size() == 0 {
		return videogen.Submission{}, services.Wrap(services.ErrConfiguration, videogen.StageName, "submit", "static clip is empty or a directory", nil)
	}
	return videogen.Submission{Ready: true, Artifact: videogen.ArtifactRef{URI: b.clipPath, MIMEType: "video/mp4"}}, nil
}

// Poll is never needed for a synchronous backend.
func (b *Backend) Poll(_ context.Context, handle string) (videogen.PollResult, error) {
	return videogen.PollResult{}, services.Wrap(services.ErrProtocolMismatch, videogen.StageName, "poll", "static backend has no jobs: "+handle, nil)
}

// Fetch reads the clip.
func (b *Backend) Fetch(ctx context.Context, ref videogen.ArtifactRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrCanceled, videogen.StageName, "fetch", "", err)
	}
	data, err := os.ReadFile(ref.URI)
	if err != nil {
		return nil, services.Wrap(services.ErrJobFailed, videogen.StageName, "fetch", ref.URI, err)
	}
	return data, nil
}
