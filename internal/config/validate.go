package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStory(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStory() error {
	switch c.Story.Provider {
	case StoryProviderGemini:
		if strings.TrimSpace(c.Gemini.APIKey) == "" {
			return missingSecret("gemini.api_key", "GOOGLE_API_KEY")
		}
	case StoryProviderOpenRouter:
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			return missingSecret("llm.api_key", "OPENROUTER_API_KEY")
		}
	default:
		return fmt.Errorf("story.provider: unsupported value %q (want gemini or openrouter)", c.Story.Provider)
	}
	if c.Story.WindowSize <= 0 {
		return errors.New("story.window_size must be positive")
	}
	return nil
}

func (c *Config) validateVideo() error {
	switch c.Video.Backend {
	case VideoBackendVeo:
		if strings.TrimSpace(c.Gemini.APIKey) == "" && !c.Video.PlaceholderOnUnavailable {
			return missingSecret("gemini.api_key", "GOOGLE_API_KEY")
		}
	case VideoBackendStatic:
		if c.Video.StaticClipPath == "" {
			return errors.New("video.static_clip_path is required when video.backend is \"static\"")
		}
	default:
		return fmt.Errorf("video.backend: unsupported value %q (want veo or static)", c.Video.Backend)
	}
	if err := ensurePositiveMap(map[string]int{
		"video.duration_seconds":      c.Video.DurationSeconds,
		"video.poll_interval_seconds": c.Video.PollIntervalSeconds,
		"video.poll_max_attempts":     c.Video.PollMaxAttempts,
	}); err != nil {
		return err
	}
	if c.Video.PollErrorTolerance < 0 {
		return errors.New("video.poll_error_tolerance must be zero or positive")
	}
	if _, _, ok := ParseAspectRatio(c.Video.AspectRatio); !ok {
		return fmt.Errorf("video.aspect_ratio: invalid value %q (want W:H)", c.Video.AspectRatio)
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !ValidVisibility(c.Publish.Visibility) {
		return fmt.Errorf("publish.visibility: unsupported value %q", c.Publish.Visibility)
	}
	if !c.Publish.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Publish.ClientID) == "" {
		return missingSecret("publish.client_id", "YOUTUBE_CLIENT_ID")
	}
	if strings.TrimSpace(c.Publish.ClientSecret) == "" {
		return missingSecret("publish.client_secret", "YOUTUBE_CLIENT_SECRET")
	}
	if strings.TrimSpace(c.Publish.RefreshToken) == "" {
		return missingSecret("publish.refresh_token", "YOUTUBE_REFRESH_TOKEN")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 {
		return errors.New("logging.max_size_mb and logging.max_backups must be zero or positive")
	}
	return nil
}

// ValidVisibility reports whether value is a supported publish visibility.
func ValidVisibility(value string) bool {
	switch value {
	case VisibilityPublic, VisibilityUnlisted, VisibilityPrivate:
		return true
	default:
		return false
	}
}

// ParseAspectRatio splits a "W:H" ratio into its integer parts.
func ParseAspectRatio(value string) (int, int, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	var w, h int
	if _, err := fmt.Sscanf(parts[0]+" "+parts[1], "%d %d", &w, &h); err != nil {
		return 0, 0, false
	}
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func missingSecret(key, env string) error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("%s is required. Set %s env var or edit %s (create with 'reelcast config init')", key, env, defaultPath)
}
