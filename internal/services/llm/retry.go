package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Backoff bounds the retry loop. Delays double from Base and never exceed Max.
type Backoff struct {
	Base     time.Duration
	Max      time.Duration
	Attempts int
}

// DefaultBackoff is used unless overridden by options.
var DefaultBackoff = Backoff{Base: time.Second, Max: 10 * time.Second, Attempts: 5}

// Delay returns the wait before the retry that follows attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if b.Base <= 0 {
		return 0
	}
	delay := b.Base
	for i := 1; i < attempt && (b.Max <= 0 || delay < b.Max); i++ {
		delay *= 2
	}
	return b.clamp(delay)
}

func (b Backoff) clamp(delay time.Duration) time.Duration {
	switch {
	case delay < 0:
		return 0
	case b.Max > 0 && delay > b.Max:
		return b.Max
	default:
		return delay
	}
}

// wait picks the server's Retry-After when present, else the doubling delay.
func (b Backoff) wait(err error, attempt int) time.Duration {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		return b.clamp(statusErr.RetryAfter)
	}
	return b.Delay(attempt)
}

func (c *Client) do(ctx context.Context, req chatCompletionRequest, op string) (string, error) {
	attempts := max(c.backoff.Attempts, 1)
	var lastErr error
	attempt := 0
	for attempt < attempts {
		attempt++
		content, err := c.attempt(ctx, req, op)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if attempt == attempts || ctx.Err() != nil || !Transient(err) {
			break
		}
		if err := c.pause(ctx, c.backoff.wait(err, attempt)); err != nil {
			return "", err
		}
	}
	if attempt > 1 {
		return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempt, lastErr)
	}
	return "", lastErr
}

func (c *Client) attempt(ctx context.Context, req chatCompletionRequest, op string) (string, error) {
	resp, body, err := c.post(ctx, req)
	if err != nil {
		return "", err
	}
	content, finishReason, refusal := resp.content()
	switch {
	case content != "":
		return content, nil
	case len(resp.Choices) == 0:
		return "", fmt.Errorf("%s: empty choices", op)
	default:
		return "", &emptyContentError{
			Op:           op,
			FinishReason: finishReason,
			Refusal:      refusal,
			Snippet:      summarizePayloadSnippet(string(body)),
		}
	}
}

// Transient reports whether err is worth retrying: HTTP 408/429/5xx, empty
// completions, or a network timeout. Context errors are never transient.
func Transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var emptyErr *emptyContentError
	if errors.As(err, &emptyErr) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return max(time.Duration(seconds)*time.Second, 0)
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(time.Until(when), 0)
	}
	return 0
}
