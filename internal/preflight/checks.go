package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"reelcast/internal/config"
	"reelcast/internal/deps"
	"reelcast/internal/services/llm"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckGemini verifies the Gemini API key by listing one model. An empty
// baseURL targets the public endpoint.
func CheckGemini(ctx context.Context, name, baseURL, apiKey string) Result {
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultGeminiBaseURL
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/v1beta/models?pageSize=1", nil)
	if err != nil {
		return failure(name, "auth check failed (%v)", err)
	}
	req.Header.Set("x-goog-api-key", strings.TrimSpace(apiKey))

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "API reachable"}
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	default:
		return failure(name, "auth check failed (%d)", resp.StatusCode)
	}
}

// CheckStaticClip verifies the clip used by the static video backend.
func CheckStaticClip(path string) Result {
	const name = "Static clip"
	path = strings.TrimSpace(path)
	if path == "" {
		return failure(name, "video.static_clip_path not set")
	}
	info, err := os.Stat(path)
	if err != nil {
		return failure(name, "%s (error: %v)", path, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return failure(name, "%s (error: not a non-empty file)", path)
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckYouTubeCredentials reports whether the OAuth settings are present.
// It does not contact Google.
func CheckYouTubeCredentials(cfg config.Publish) Result {
	const name = "YouTube credentials"
	fields := []struct{ key, value string }{
		{"client_id", cfg.ClientID},
		{"client_secret", cfg.ClientSecret},
		{"refresh_token", cfg.RefreshToken},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return failure(name, "missing %s", strings.Join(missing, ", "))
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return failure(name, "%s (error: does not exist)", path)
	case err != nil:
		return failure(name, "%s (error: stat: %v)", path, err)
	case !info.IsDir():
		return failure(name, "%s (error: is not a directory)", path)
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return failure(name, "%s (error: insufficient permissions: %v)", path, err)
	}
	return Result{Name: name, Passed: true, Detail: path + " (read/write ok)"}
}

// CheckSystemDeps evaluates the media binaries for the given config. ffprobe
// is only required when duration verification is enabled.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Concatenates segments and renders placeholder clips",
		},
	}
	results := deps.CheckBinaries(requirements)
	return append(results, deps.CheckFFprobe(cfg.FFmpegBinary(), cfg.FFprobeBinary(), !cfg.Video.VerifyDuration))
}

func failure(name, format string, args ...any) Result {
	return Result{Name: name, Detail: fmt.Sprintf(format, args...)}
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
