package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	StagingDir string `toml:"staging_dir"`
	OutputDir  string `toml:"output_dir"`
	LogDir     string `toml:"log_dir"`
}

// Story contains configuration for narrative generation.
type Story struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	WindowSize int    `toml:"window_size"`
	Language   string `toml:"language"`
	Style      string `toml:"style"`
}

// Characters describes the recurring cast written into every story prompt.
type Characters struct {
	MainName              string `toml:"main_name"`
	MainDescription       string `toml:"main_description"`
	SupportingName        string `toml:"supporting_name"`
	SupportingDescription string `toml:"supporting_description"`
}

// Gemini contains credentials for the Google Gemini API (story and Veo).
type Gemini struct {
	APIKey string `toml:"api_key"`
}

// LLM contains OpenRouter connection settings used when story.provider is "openrouter".
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Video contains configuration for segment generation and assembly.
type Video struct {
	Backend            string `toml:"backend"`
	Model              string `toml:"model"`
	DurationSeconds    int    `toml:"duration_seconds"`
	AspectRatio        string `toml:"aspect_ratio"`
	Style              string `toml:"style"`
	NegativePrompt     string `toml:"negative_prompt"`
	EnhancePrompt      bool   `toml:"enhance_prompt"`
	CharacterImagePath string `toml:"character_image_path"`
	StaticClipPath     string `toml:"static_clip_path"`

	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	PollMaxAttempts     int `toml:"poll_max_attempts"`
	PollErrorTolerance  int `toml:"poll_error_tolerance"`

	PlaceholderOnUnavailable bool `toml:"placeholder_on_unavailable"`
	PlaceholderOnTimeout     bool `toml:"placeholder_on_timeout"`

	VerifyDuration bool `toml:"verify_duration"`
}

// Publish contains configuration for the YouTube upload step.
type Publish struct {
	Enabled         bool   `toml:"enabled"`
	Visibility      string `toml:"visibility"`
	Shorts          bool   `toml:"shorts"`
	CategoryID      string `toml:"category_id"`
	DefaultLanguage string `toml:"default_language"`
	MadeForKids     bool   `toml:"made_for_kids"`
	ClientID        string `toml:"client_id"`
	ClientSecret    string `toml:"client_secret"`
	RefreshToken    string `toml:"refresh_token"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	MaxSizeMB     int    `toml:"max_size_mb"`
	MaxBackups    int    `toml:"max_backups"`
}

// Config encapsulates all configuration values for reelcast.
//
// Configuration sections by subsystem:
//   - Paths: data, run staging, output and log directories
//   - Story: narrative provider, model and continuity window
//   - Characters: recurring cast
//   - Gemini: Google API key shared by story and video generation
//   - LLM: OpenRouter settings for the alternate story provider
//   - Video: segment backend, poll loop, placeholder policy, assembly checks
//   - Publish: YouTube upload metadata and OAuth credentials
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, rotation and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Story         Story         `toml:"story"`
	Characters    Characters    `toml:"characters"`
	Gemini        Gemini        `toml:"gemini"`
	LLM           LLM           `toml:"llm"`
	Video         Video         `toml:"video"`
	Publish       Publish       `toml:"publish"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file next to the config file or in the
// working directory is loaded first; it never overrides variables already set.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loadEnvFiles(resolvedPath)

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadEnvFiles(configPath string) {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append([]string{filepath.Join(filepath.Dir(configPath), ".env")}, candidates...)
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			_ = godotenv.Load(candidate)
		}
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelcast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.StagingDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the continuity store database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// LockPath returns the single-run lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "reelcast.lock")
}

// FFmpegBinary returns the ffmpeg executable name used for assembly and placeholders.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for duration checks.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// PollInterval returns the segment poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Video.PollIntervalSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the OpenRouter settings resolved for story generation.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// StoryLLM returns the OpenRouter settings, using story.model when llm.model is unset.
func (c *Config) StoryLLM() LLMConfig {
	model := c.LLM.Model
	if strings.TrimSpace(model) == "" {
		model = c.Story.Model
	}
	return LLMConfig{
		APIKey:         c.LLM.APIKey,
		BaseURL:        c.LLM.BaseURL,
		Model:          model,
		Referer:        c.LLM.Referer,
		Title:          c.LLM.Title,
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
