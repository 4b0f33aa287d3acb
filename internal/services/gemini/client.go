package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"reelcast/internal/services"
)

// ErrMissingAPIKey is returned when no Gemini API key is configured.
var ErrMissingAPIKey = errors.New("gemini api key not configured")

// ClientOptions customizes client construction.
type ClientOptions struct {
	// BaseURL overrides the API endpoint. Tests point it at an httptest server.
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a Gemini API client. A missing key is reported as
// backend_unavailable attributed to stage.
func NewClient(ctx context.Context, apiKey, stage string, opts ClientOptions) (*genai.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.WithHint(
			services.Wrap(services.ErrBackendUnavailable, stage, "gemini client", "", ErrMissingAPIKey),
			"set GOOGLE_API_KEY or gemini.api_key",
		)
	}
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stage, "gemini client", "", err)
	}
	return client, nil
}
