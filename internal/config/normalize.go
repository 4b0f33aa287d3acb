package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStory()
	c.normalizeCredentials()
	if err := c.normalizeVideo(); err != nil {
		return err
	}
	c.normalizePublish()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStory() {
	c.Story.Provider = strings.ToLower(strings.TrimSpace(c.Story.Provider))
	if c.Story.Provider == "" {
		c.Story.Provider = defaultStoryProvider
	}
	c.Story.Model = strings.TrimSpace(c.Story.Model)
	if c.Story.Model == "" {
		c.Story.Model = defaultStoryModel
	}
	c.Story.Language = strings.TrimSpace(c.Story.Language)
	if c.Story.Language == "" {
		c.Story.Language = defaultStoryLanguage
	}
	c.Characters.MainName = strings.TrimSpace(c.Characters.MainName)
	if c.Characters.MainName == "" {
		c.Characters.MainName = defaultMainCharacterName
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
}

func (c *Config) normalizeCredentials() {
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		c.Gemini.APIKey = lookupFirst("GOOGLE_API_KEY", "GEMINI_API_KEY")
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		c.LLM.APIKey = lookupFirst("OPENROUTER_API_KEY")
	}
	if strings.TrimSpace(c.Publish.ClientID) == "" {
		c.Publish.ClientID = lookupFirst("YOUTUBE_CLIENT_ID")
	}
	if strings.TrimSpace(c.Publish.ClientSecret) == "" {
		c.Publish.ClientSecret = lookupFirst("YOUTUBE_CLIENT_SECRET")
	}
	if strings.TrimSpace(c.Publish.RefreshToken) == "" {
		c.Publish.RefreshToken = lookupFirst("YOUTUBE_REFRESH_TOKEN")
	}
	if strings.TrimSpace(c.Notifications.NtfyTopic) == "" {
		c.Notifications.NtfyTopic = lookupFirst("NTFY_TOPIC")
	}
}

func (c *Config) normalizeVideo() error {
	var err error
	c.Video.Backend = strings.ToLower(strings.TrimSpace(c.Video.Backend))
	if c.Video.Backend == "" {
		c.Video.Backend = defaultVideoBackend
	}
	c.Video.Model = strings.TrimSpace(c.Video.Model)
	if c.Video.Model == "" {
		c.Video.Model = defaultVideoModel
	}
	c.Video.AspectRatio = strings.TrimSpace(c.Video.AspectRatio)
	if c.Video.AspectRatio == "" {
		c.Video.AspectRatio = defaultVideoAspectRatio
	}
	if c.Video.CharacterImagePath, err = expandPath(strings.TrimSpace(c.Video.CharacterImagePath)); err != nil {
		return fmt.Errorf("video.character_image_path: %w", err)
	}
	if c.Video.StaticClipPath, err = expandPath(strings.TrimSpace(c.Video.StaticClipPath)); err != nil {
		return fmt.Errorf("video.static_clip_path: %w", err)
	}
	return nil
}

func (c *Config) normalizePublish() {
	c.Publish.Visibility = strings.ToLower(strings.TrimSpace(c.Publish.Visibility))
	if c.Publish.Visibility == "" {
		c.Publish.Visibility = defaultPublishVisibility
	}
	c.Publish.CategoryID = strings.TrimSpace(c.Publish.CategoryID)
	if c.Publish.CategoryID == "" {
		c.Publish.CategoryID = defaultPublishCategoryID
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func lookupFirst(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
