package videogen

import (
	"strings"

	"reelcast/internal/config"
)

// DecoratePrompt appends the configured visual style to a scene prompt.
func DecoratePrompt(prompt, style string) string {
	prompt = strings.TrimSpace(prompt)
	style = strings.TrimSpace(style)
	if style == "" {
		return prompt
	}
	return strings.TrimRight(prompt, ". ") + ". Style: " + strings.TrimRight(style, ". ") + "."
}

// RequestsFromPrompts builds one Request per prompt with the [video]
// duration, aspect ratio and style applied.
func RequestsFromPrompts(prompts []string, video config.Video) []Request {
	reqs := make([]Request, 0, len(prompts))
	for _, prompt := range prompts {
		reqs = append(reqs, Request{
			Prompt:          DecoratePrompt(prompt, video.Style),
			DurationSeconds: video.DurationSeconds,
			AspectRatio:     video.AspectRatio,
		})
	}
	return reqs
}
