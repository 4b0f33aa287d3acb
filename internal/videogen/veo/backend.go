package veo

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"

	"reelcast/internal/config"
	"reelcast/internal/logging"
	"reelcast/internal/services"
	"reelcast/internal/services/gemini"
	"reelcast/internal/videogen"
)

// videoAPI is the slice of the genai client the backend uses.
type videoAPI interface {
	GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
	Download(ctx context.Context, video *genai.Video) ([]byte, error)
}

type genaiAPI struct {
	client *genai.Client
}

func (g genaiAPI) GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return g.client.Models.GenerateVideos(ctx, model, prompt, image, cfg)
}

func (g genaiAPI) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return g.client.Operations.GetVideosOperation(ctx, op, nil)
}

func (g genaiAPI) Download(ctx context.Context, video *genai.Video) ([]byte, error) {
	return g.client.Files.Download(ctx, genai.NewDownloadURIFromVideo(video), nil)
}

// Options holds the generation settings sent with every request.
type Options struct {
	Model          string
	NegativePrompt string
	EnhancePrompt  bool
	Image          *genai.Image
}

// Backend is the asynchronous Veo video backend.
type Backend struct {
	api    videoAPI
	opts   Options
	logger *slog.Logger
}

// New builds a Backend using an existing genai client.
func New(client *genai.Client, opts Options, logger *slog.Logger) *Backend {
	return newBackend(genaiAPI{client: client}, opts, logger)
}

func newBackend(api videoAPI, opts Options, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Backend{api: api, opts: opts, logger: logging.NewComponentLogger(logger, "veo")}
}

// NewFromConfig builds a Backend from the [gemini] and [video] sections.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	client, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, videogen.StageName, gemini.ClientOptions{})
	if err != nil {
		return nil, err
	}
	opts := Options{
		Model:          cfg.Video.Model,
		NegativePrompt: cfg.Video.NegativePrompt,
		EnhancePrompt:  cfg.Video.EnhancePrompt,
	}
	if path := strings.TrimSpace(cfg.Video.CharacterImagePath); path != "" {
		image, err := LoadImage(path)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, videogen.StageName, "load character image", path, err)
		}
		opts.Image = image
	}
	return New(client, opts, logger), nil
}

// LoadImage reads a reference image for image-to-video generation.
func LoadImage(path string) (*genai.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &genai.Image{ImageBytes: data, MIMEType: mimeType}, nil
}

// Name implements videogen.Backend.
func (b *Backend) Name() string {
	return "veo"
}

// Submit starts a generation operation.
func (b *Backend) Submit(ctx context.Context, req videogen.Request) (videogen.Submission, error) {
	cfg := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    req.AspectRatio,
		NegativePrompt: b.opts.NegativePrompt,
		EnhancePrompt:  b.opts.EnhancePrompt,
	}
	if req.DurationSeconds > 0 {
		cfg.DurationSeconds = genai.Ptr(int32(req.DurationSeconds))
	}
	op, err := b.api.GenerateVideos(ctx, b.opts.Model, req.Prompt, b.opts.Image, cfg)
	if err != nil {
		return videogen.Submission{}, gemini.Classify(err, videogen.StageName, "submit")
	}
	if op == nil {
		return videogen.Submission{}, services.Wrap(services.ErrProtocolMismatch, videogen.StageName, "submit", "nil operation", nil)
	}
	if op.Done {
		ref, err := artifactFrom(op, "submit")
		if err != nil {
			return videogen.Submission{}, err
		}
		return videogen.Submission{Ready: true, Artifact: ref}, nil
	}
	b.logger.Debug("veo operation started",
		logging.String("operation", op.Name),
		logging.String("model", b.opts.Model),
	)
	return videogen.Submission{Handle: op.Name}, nil
}

// Poll refreshes the operation named by handle.
func (b *Backend) Poll(ctx context.Context, handle string) (videogen.PollResult, error) {
	op, err := b.api.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: handle})
	if err != nil {
		return videogen.PollResult{}, gemini.Classify(err, videogen.StageName, "poll")
	}
	if op == nil {
		return videogen.PollResult{}, services.Wrap(services.ErrProtocolMismatch, videogen.StageName, "poll", "nil operation", nil)
	}
	if !op.Done {
		return videogen.PollResult{}, nil
	}
	ref, err := artifactFrom(op, "poll")
	if err != nil {
		return videogen.PollResult{}, err
	}
	return videogen.PollResult{Done: true, Artifact: ref}, nil
}

// Fetch returns the clip bytes.
func (b *Backend) Fetch(ctx context.Context, ref videogen.ArtifactRef) ([]byte, error) {
	if len(ref.Inline) > 0 {
		return ref.Inline, nil
	}
	if ref.URI == "" {
		return nil, services.Wrap(services.ErrProtocolMismatch, videogen.StageName, "fetch", "artifact has no uri", nil)
	}
	data, err := b.api.Download(ctx, &genai.Video{URI: ref.URI, MIMEType: ref.MIMEType})
	if err != nil {
		return nil, gemini.Classify(err, videogen.StageName, "fetch")
	}
	return data, nil
}

// artifactFrom reads the first generated video of a finished operation.
func artifactFrom(op *genai.GenerateVideosOperation, operation string) (videogen.ArtifactRef, error) {
	if opErr := gemini.OperationError(op.Error); opErr != nil {
		return videogen.ArtifactRef{}, services.Wrap(services.ErrJobFailed, videogen.StageName, operation, op.Name, opErr)
	}
	resp := op.Response
	if resp == nil || len(resp.GeneratedVideos) == 0 {
		if resp != nil && resp.RAIMediaFilteredCount > 0 {
			return videogen.ArtifactRef{}, services.WrapCode(services.ErrJobFailed, videogen.StageName, operation, "filtered",
				fmt.Sprintf("video filtered by safety policy: %s", strings.Join(resp.RAIMediaFilteredReasons, "; ")), nil)
		}
		return videogen.ArtifactRef{}, services.Wrap(services.ErrProtocolMismatch, videogen.StageName, operation, "operation done without videos", nil)
	}
	generated := resp.GeneratedVideos[0]
	if generated == nil || generated.Video == nil {
		return videogen.ArtifactRef{}, services.Wrap(services.ErrProtocolMismatch, videogen.StageName, operation, "generated video missing", nil)
	}
	video := generated.Video
	ref := videogen.ArtifactRef{URI: video.URI, Inline: video.VideoBytes, MIMEType: video.MIMEType}
	if ref.Empty() {
		return videogen.ArtifactRef{}, services.Wrap(services.ErrProtocolMismatch, videogen.StageName, operation, "generated video has neither uri nor bytes", nil)
	}
	return ref, nil
}
