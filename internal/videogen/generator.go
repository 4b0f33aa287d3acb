package videogen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelcast/internal/episode"
	"reelcast/internal/fileutil"
	"reelcast/internal/logging"
	"reelcast/internal/services"
)

// StageName is the workflow stage that generation errors are attributed to.
const StageName = "GenerateVideos"

// Poll loop defaults.
const (
	DefaultPollInterval   = 5 * time.Second
	DefaultMaxAttempts    = 60
	DefaultErrorTolerance = 3
)

// Policy configures the Generator's poll loop and placeholder fallback.
type Policy struct {
	PollInterval time.Duration
	MaxAttempts  int
	// ErrorTolerance is how many consecutive backend_unavailable poll errors
	// are absorbed before the job fails. Each one consumes an attempt.
	ErrorTolerance int

	PlaceholderOnUnavailable bool
	PlaceholderOnTimeout     bool
}

// DefaultPolicy returns the 5s x 60 poll loop with placeholders disabled.
func DefaultPolicy() Policy {
	return Policy{
		PollInterval:   DefaultPollInterval,
		MaxAttempts:    DefaultMaxAttempts,
		ErrorTolerance: DefaultErrorTolerance,
	}
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Generator drives one prompt at a time through a Backend.
type Generator struct {
	backend Backend
	policy  Policy
	synth   Synthesizer
	sleep   Sleeper
	logger  *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithPolicy overrides the poll and placeholder policy.
func WithPolicy(policy Policy) Option {
	return func(g *Generator) {
		g.policy = policy
	}
}

// WithSynthesizer sets the placeholder synthesizer. Without one the
// placeholder policy has no effect.
func WithSynthesizer(synth Synthesizer) Option {
	return func(g *Generator) {
		g.synth = synth
	}
}

// WithSleeper replaces the poll-interval wait. Tests use it to avoid real sleeps.
func WithSleeper(sleep Sleeper) Option {
	return func(g *Generator) {
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator constructs a Generator for backend.
func NewGenerator(backend Backend, opts ...Option) *Generator {
	g := &Generator{
		backend: backend,
		policy:  DefaultPolicy(),
		sleep:   sleepContext,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.policy.PollInterval < 0 {
		g.policy.PollInterval = 0
	}
	if g.policy.MaxAttempts <= 0 {
		g.policy.MaxAttempts = DefaultMaxAttempts
	}
	if g.policy.ErrorTolerance < 0 {
		g.policy.ErrorTolerance = 0
	}
	return g
}

// Policy returns the effective policy.
func (g *Generator) Policy() Policy {
	return g.policy
}

// Generate produces exactly one local file at dest for req, or a typed error.
// index is the 1-based position of the segment and only used for logs.
func (g *Generator) Generate(ctx context.Context, index int, req Request, dest string) (Segment, error) {
	logger := logging.WithContext(ctx, g.logger).With(
		logging.Int(logging.FieldSegmentIndex, index),
		logging.String("backend", g.backend.Name()),
	)
	job := &SegmentJob{Prompt: req.Prompt, State: JobSubmitted}

	ref, err := g.await(ctx, logger, job, req)
	if err == nil {
		err = g.download(ctx, job, ref, dest)
	}
	if err != nil {
		_ = job.transition(JobFailed)
		return g.fallback(ctx, logger, job, index, req, dest, err)
	}

	logger.Info("segment ready",
		logging.String(logging.FieldEventType, "segment_ready"),
		logging.Int("attempts", job.Attempts),
		logging.String("path", dest),
		logging.String(logging.FieldProvenance, string(episode.ProvenanceReal)),
	)
	return Segment{
		Index:      index,
		Prompt:     req.Prompt,
		Path:       job.ArtifactPath,
		Provenance: episode.ProvenanceReal,
		Attempts:   job.Attempts,
	}, nil
}

// await submits the job and polls until it is terminal.
func (g *Generator) await(ctx context.Context, logger *slog.Logger, job *SegmentJob, req Request) (ArtifactRef, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return ArtifactRef{}, services.Wrap(services.ErrConfiguration, StageName, "submit", "empty prompt", nil)
	}
	sub, err := g.backend.Submit(ctx, req)
	if err != nil {
		return ArtifactRef{}, classify(err, services.ErrBackendUnavailable, "submit")
	}
	if sub.Ready {
		if sub.Artifact.Empty() {
			return ArtifactRef{}, services.Wrap(services.ErrProtocolMismatch, StageName, "submit", "ready submission without artifact", nil)
		}
		return sub.Artifact, nil
	}
	if strings.TrimSpace(sub.Handle) == "" {
		return ArtifactRef{}, services.Wrap(services.ErrProtocolMismatch, StageName, "submit", "pending submission without handle", nil)
	}
	job.Handle = sub.Handle
	if err := job.transition(JobPolling); err != nil {
		return ArtifactRef{}, services.Wrap(services.ErrJobFailed, StageName, "poll", "", err)
	}
	logger.Debug("segment submitted", logging.String("handle", job.Handle))

	consecutiveErrors := 0
	for job.Attempts < g.policy.MaxAttempts {
		if err := g.sleep(ctx, g.policy.PollInterval); err != nil {
			return ArtifactRef{}, services.Wrap(services.ErrCanceled, StageName, "poll", "wait interrupted", err)
		}
		job.Attempts++
		result, err := g.backend.Poll(ctx, job.Handle)
		if err != nil {
			if ctx.Err() != nil {
				return ArtifactRef{}, services.Wrap(services.ErrCanceled, StageName, "poll", "", ctx.Err())
			}
			if services.KindOf(err) == services.KindBackendUnavailable && consecutiveErrors < g.policy.ErrorTolerance {
				consecutiveErrors++
				logging.WarnWithContext(logger, "segment poll failed; retrying", "segment_poll_retry",
					logging.Int("attempt", job.Attempts),
					logging.Int("consecutive_errors", consecutiveErrors),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "backend may be degraded; the poll loop will retry"),
					logging.String(logging.FieldImpact, "segment generation is delayed"),
				)
				continue
			}
			return ArtifactRef{}, classify(err, services.ErrBackendUnavailable, "poll")
		}
		consecutiveErrors = 0
		if !result.Done {
			continue
		}
		if result.Artifact.Empty() {
			return ArtifactRef{}, services.Wrap(services.ErrProtocolMismatch, StageName, "poll", "completed job without artifact", nil)
		}
		return result.Artifact, nil
	}
	return ArtifactRef{}, services.WithHint(
		services.Wrap(services.ErrJobTimeout, StageName, "poll",
			fmt.Sprintf("job %s not done after %d attempts", job.Handle, job.Attempts), nil),
		"raise video.poll_max_attempts or enable video.placeholder_on_timeout",
	)
}

func (g *Generator) download(ctx context.Context, job *SegmentJob, ref ArtifactRef, dest string) error {
	data, err := g.backend.Fetch(ctx, ref)
	if err != nil {
		return classify(err, services.ErrBackendUnavailable, "fetch")
	}
	if len(data) == 0 {
		return services.Wrap(services.ErrProtocolMismatch, StageName, "fetch", "empty artifact", nil)
	}
	if err := fileutil.WriteFileAtomic(dest, data, 0o644); err != nil {
		return services.Wrap(services.ErrJobFailed, StageName, "write segment", dest, err)
	}
	job.ArtifactPath = dest
	return job.transition(JobReady)
}

// fallback substitutes a synthetic placeholder when the policy allows it for
// the failure kind, and otherwise returns cause unchanged.
func (g *Generator) fallback(ctx context.Context, logger *slog.Logger, job *SegmentJob, index int, req Request, dest string, cause error) (Segment, error) {
	kind := services.KindOf(cause)
	allowed := (kind == services.KindBackendUnavailable && g.policy.PlaceholderOnUnavailable) ||
		(kind == services.KindJobTimeout && g.policy.PlaceholderOnTimeout)
	if !allowed || g.synth == nil || ctx.Err() != nil {
		return Segment{}, cause
	}
	if err := g.synth.SynthesizePlaceholder(ctx, req, dest); err != nil {
		logging.ErrorWithContext(logger, "placeholder synthesis failed", "placeholder_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, kind),
			logging.String(logging.FieldErrorHint, "verify ffmpeg is installed and supports lavfi"),
		)
		return Segment{}, cause
	}
	logging.WarnWithContext(logger, "substituted synthetic placeholder segment", "placeholder_substituted",
		logging.String(logging.FieldProvenance, string(episode.ProvenanceSynthetic)),
		logging.String(logging.FieldErrorKind, kind),
		logging.Error(cause),
		logging.String("path", dest),
		logging.String(logging.FieldErrorHint, "check video backend availability"),
		logging.String(logging.FieldImpact, "episode contains a synthetic segment"),
	)
	return Segment{
		Index:      index,
		Prompt:     req.Prompt,
		Path:       dest,
		Provenance: episode.ProvenanceSynthetic,
		Attempts:   job.Attempts,
	}, nil
}

// classify tags err with fallback unless it already carries a taxonomy kind.
func classify(err error, fallback error, operation string) error {
	var se *services.Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrCanceled, StageName, operation, "", err)
	}
	return services.Wrap(fallback, StageName, operation, "", err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
