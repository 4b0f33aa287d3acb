package config

const (
	defaultConfigPath = "~/.config/reelcast/config.toml"

	defaultDataDir    = "~/.local/share/reelcast"
	defaultStagingDir = "~/.local/share/reelcast/runs"
	defaultOutputDir  = "~/.local/share/reelcast/output"
	defaultLogDir     = "~/.local/state/reelcast/logs"

	StoryProviderGemini     = "gemini"
	StoryProviderOpenRouter = "openrouter"

	defaultStoryProvider   = StoryProviderGemini
	defaultStoryModel      = "gemini-2.0-flash"
	defaultStoryWindowSize = 5
	defaultStoryLanguage   = "ko"
	defaultStoryStyle      = "cozy, warm, Pixar-style 3D animation"

	defaultMainCharacterName        = "Rocky"
	defaultMainCharacterDescription = "a cheerful raccoon chef with a tiny white hat and a striped apron"
	defaultSupportingName           = "Pip"
	defaultSupportingDescription    = "a curious sparrow who tastes every dish"

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMReferer        = "https://github.com/reelcast/reelcast"
	defaultLLMTitle          = "reelcast story writer"
	defaultLLMTimeoutSeconds = 60

	VideoBackendVeo    = "veo"
	VideoBackendStatic = "static"

	defaultVideoBackend        = VideoBackendVeo
	defaultVideoModel          = "veo-3.1-fast-generate-preview"
	defaultVideoDuration       = 5
	defaultVideoAspectRatio    = "9:16"
	defaultVideoNegativePrompt = "realistic, human, scary"
	defaultPollInterval        = 5
	defaultPollMaxAttempts     = 60
	defaultPollErrorTolerance  = 3

	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"

	defaultPublishVisibility = VisibilityPublic
	defaultPublishCategoryID = "24"
	defaultPublishLanguage   = "ko"

	defaultNtfyRequestTimeout = 10

	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultLogMaxSizeMB     = 20
	defaultLogMaxBackups    = 5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
		},
		Story: Story{
			Provider:   defaultStoryProvider,
			Model:      defaultStoryModel,
			WindowSize: defaultStoryWindowSize,
			Language:   defaultStoryLanguage,
			Style:      defaultStoryStyle,
		},
		Characters: Characters{
			MainName:              defaultMainCharacterName,
			MainDescription:       defaultMainCharacterDescription,
			SupportingName:        defaultSupportingName,
			SupportingDescription: defaultSupportingDescription,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Video: Video{
			Backend:             defaultVideoBackend,
			Model:               defaultVideoModel,
			DurationSeconds:     defaultVideoDuration,
			AspectRatio:         defaultVideoAspectRatio,
			Style:               defaultStoryStyle,
			NegativePrompt:      defaultVideoNegativePrompt,
			EnhancePrompt:       true,
			PollIntervalSeconds: defaultPollInterval,
			PollMaxAttempts:     defaultPollMaxAttempts,
			PollErrorTolerance:  defaultPollErrorTolerance,
			VerifyDuration:      true,
		},
		Publish: Publish{
			Enabled:         true,
			Visibility:      defaultPublishVisibility,
			Shorts:          true,
			CategoryID:      defaultPublishCategoryID,
			DefaultLanguage: defaultPublishLanguage,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxSizeMB:     defaultLogMaxSizeMB,
			MaxBackups:    defaultLogMaxBackups,
		},
	}
}
