package story

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"reelcast/internal/config"
	"reelcast/internal/services/gemini"
	"reelcast/internal/services/llm"
)

// Provider completes a story prompt and returns the raw model text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// contentAPI is the slice of the genai client the Gemini provider uses.
type contentAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider asks a Gemini text model for a JSON story.
type GeminiProvider struct {
	api   contentAPI
	model string
}

// NewGeminiProvider wraps an existing genai client.
func NewGeminiProvider(client *genai.Client, model string) *GeminiProvider {
	return &GeminiProvider{api: client.Models, model: model}
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return config.StoryProviderGemini }

// Complete implements Provider.
func (p *GeminiProvider) Complete(ctx context.Context, system, user string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.9),
	}
	resp, err := p.api.GenerateContent(ctx, p.model, genai.Text(user), cfg)
	if err != nil {
		return "", gemini.Classify(err, stageName, "generate content")
	}
	if resp == nil {
		return "", errors.New("gemini returned no response")
	}
	return resp.Text(), nil
}

// OpenRouterProvider asks an OpenRouter chat model for a JSON story.
type OpenRouterProvider struct {
	client *llm.Client
}

// NewOpenRouterProvider wraps an llm client.
func NewOpenRouterProvider(client *llm.Client) *OpenRouterProvider {
	return &OpenRouterProvider{client: client}
}

// Name implements Provider.
func (p *OpenRouterProvider) Name() string { return config.StoryProviderOpenRouter }

// Complete implements Provider.
func (p *OpenRouterProvider) Complete(ctx context.Context, system, user string) (string, error) {
	return p.client.CompleteJSON(ctx, system, user)
}

// NewProviderFromConfig selects the provider named by story.provider.
func NewProviderFromConfig(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Story.Provider)) {
	case "", config.StoryProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, stageName, gemini.ClientOptions{})
		if err != nil {
			return nil, err
		}
		return NewGeminiProvider(client, cfg.Story.Model), nil
	case config.StoryProviderOpenRouter:
		llmCfg := cfg.StoryLLM()
		return NewOpenRouterProvider(llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		}, llm.WithTemperature(0.9))), nil
	default:
		return nil, fmt.Errorf("unsupported story provider %q", cfg.Story.Provider)
	}
}
