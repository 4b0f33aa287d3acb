package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout = 60 * time.Second
	healthPrompt       = `Respond with {"ok":true}`
)

// Config holds the OpenRouter endpoint, credentials and attribution headers.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

func (c Config) normalized() Config {
	out := Config{
		APIKey:         strings.TrimSpace(c.APIKey),
		BaseURL:        strings.TrimSpace(c.BaseURL),
		Model:          strings.TrimSpace(c.Model),
		Referer:        strings.TrimSpace(c.Referer),
		Title:          strings.TrimSpace(c.Title),
		TimeoutSeconds: c.TimeoutSeconds,
	}
	if out.BaseURL == "" {
		out.BaseURL = defaultBaseURL
	}
	return out
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return defaultHTTPTimeout
}

// ErrMissingAPIKey is returned before any request when no key is configured.
var ErrMissingAPIKey = errors.New("llm: api key required")

// Client issues JSON-mode chat completions against OpenRouter.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	temperature float64
	backoff     Backoff
	sleeper     func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithTemperature sets the sampling temperature used by CompleteJSON.
func WithTemperature(value float64) Option {
	return func(c *Client) { c.temperature = value }
}

func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.backoff.Attempts = attempts }
}

func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.backoff.Base = baseDelay
		c.backoff.Max = maxDelay
	}
}

// WithSleeper replaces the timer used between attempts.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) { c.sleeper = sleeper }
}

// NewClient builds a client; zero-valued fields fall back to the OpenRouter
// endpoint and a 60s HTTP timeout.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg = cfg.normalized()
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.timeout()},
		backoff:    DefaultBackoff,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) Model() string {
	return c.cfg.Model
}

// CompleteJSON sends the two prompts in JSON response mode and returns the
// raw content of the first non-empty choice.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	const op = "llm complete"
	req := c.newRequest(systemPrompt, userPrompt, c.temperature)
	if err := c.validate(req); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return c.do(ctx, req, op)
}

// HealthCheck asks the model for a fixed JSON object with a zero temperature.
func (c *Client) HealthCheck(ctx context.Context) error {
	const op = "llm health"
	if c.cfg.APIKey == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingAPIKey)
	}
	content, err := c.do(ctx, c.newRequest("You must respond with JSON only.", healthPrompt, 0), op)
	if err != nil {
		return err
	}
	var reply struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(content, &reply); err != nil {
		return fmt.Errorf("%s: parse payload: %w", op, err)
	}
	if !reply.OK {
		return fmt.Errorf("%s: model did not acknowledge", op)
	}
	return nil
}

func (c *Client) validate(req chatCompletionRequest) error {
	for _, msg := range req.Messages {
		if msg.Content == "" {
			return fmt.Errorf("%s prompt required", msg.Role)
		}
	}
	if c.cfg.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
