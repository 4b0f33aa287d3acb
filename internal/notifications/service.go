package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelcast/internal/config"
)

const (
	userAgent      = "reelcast/0.1.0"
	defaultTimeout = 10 * time.Second
	errorBodyLimit = 2048
)

// Service defines the notification surface exposed to the workflow.
type Service interface {
	NotifyRunStarted(ctx context.Context, episodeNumber int) error
	NotifyRunCompleted(ctx context.Context, episodeNumber int, title, url string) error
	NotifyRunFailed(ctx context.Context, episodeNumber int, stage, kind, message string) error
	TestNotification(ctx context.Context) error
}

// NewService returns an ntfy-backed service, or a noop when no topic is set.
// The topic is the full publish URL (https://ntfy.sh/my-topic).
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ntfyService{endpoint: topic, client: &http.Client{Timeout: timeout}}
}

// message is one ntfy publish: the body plus the Title, Tags and Priority headers.
type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

func runStarted(episode int) message {
	return message{
		title:    "reelcast - Run Started",
		body:     fmt.Sprintf("🎬 Producing episode %d", episode),
		tags:     []string{"reelcast", "run", "started"},
		priority: "low",
	}
}

func runCompleted(episode int, title, url string) message {
	body := fmt.Sprintf("✅ Episode %d complete: %s", episode, strings.TrimSpace(title))
	if url = strings.TrimSpace(url); url != "" {
		body += "\n" + url
	}
	return message{
		title: "reelcast - Episode Complete",
		body:  body,
		tags:  []string{"reelcast", "run", "completed"},
	}
}

func runFailed(episode int, stage, kind, detail string) message {
	body := fmt.Sprintf("❌ Episode %d failed", episode)
	if stage = strings.TrimSpace(stage); stage != "" {
		body += " at " + stage
	}
	if kind = strings.TrimSpace(kind); kind != "" {
		body += " (" + kind + ")"
	}
	if detail = strings.TrimSpace(detail); detail != "" {
		body += ": " + detail
	}
	return message{
		title:    "reelcast - Error",
		body:     body,
		tags:     []string{"reelcast", "error", "alert"},
		priority: "high",
	}
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, episodeNumber int) error {
	return n.publish(ctx, runStarted(episodeNumber))
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, episodeNumber int, title, url string) error {
	return n.publish(ctx, runCompleted(episodeNumber, title, url))
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, episodeNumber int, stage, kind, detail string) error {
	return n.publish(ctx, runFailed(episodeNumber, stage, kind, detail))
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.publish(ctx, message{
		title:    "reelcast - Test",
		body:     "🧪 Notification system test",
		tags:     []string{"reelcast", "test"},
		priority: "low",
	})
}

func (n *ntfyService) publish(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	headers := req.Header
	headers.Set("User-Agent", userAgent)
	headers.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		headers.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		headers.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		headers.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, int) error                        { return nil }
func (noopService) NotifyRunCompleted(context.Context, int, string, string) error      { return nil }
func (noopService) NotifyRunFailed(context.Context, int, string, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
