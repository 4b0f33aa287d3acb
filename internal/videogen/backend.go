package videogen

import (
	"context"
)

// Request is one segment generation request.
type Request struct {
	Prompt          string
	DurationSeconds int
	AspectRatio     string
}

// ArtifactRef locates a finished clip on the backend. Backends fill whichever
// of URI or Inline they have.
type ArtifactRef struct {
	URI      string
	Inline   []byte
	MIMEType string
}

// Empty reports whether the ref carries neither a URI nor inline bytes.
func (r ArtifactRef) Empty() bool {
	return r.URI == "" && len(r.Inline) == 0
}

// Submission is the result of Submit. Synchronous backends return Ready with
// an Artifact; asynchronous backends return a Handle to poll.
type Submission struct {
	Ready    bool
	Artifact ArtifactRef
	Handle   string
}

// PollResult is the result of one Poll call.
type PollResult struct {
	Done     bool
	Artifact ArtifactRef
}

// Backend is the Segment Job Client contract. Errors are *services.Error
// tagged backend_unavailable, protocol_mismatch or job_failed.
type Backend interface {
	Name() string
	Submit(ctx context.Context, req Request) (Submission, error)
	Poll(ctx context.Context, handle string) (PollResult, error)
	Fetch(ctx context.Context, ref ArtifactRef) ([]byte, error)
}

// Synthesizer renders a local placeholder clip.
type Synthesizer interface {
	SynthesizePlaceholder(ctx context.Context, req Request, dest string) error
}
