package story

import (
	"fmt"
	"strings"

	"reelcast/internal/config"
	"reelcast/internal/episode"
)

const fallbackTextLimit = 500

// Fallback derives a minimal valid story from a reply that failed the schema.
// It is deterministic in its inputs.
func Fallback(raw string, number int, chars config.Characters) episode.Story {
	name := strings.TrimSpace(chars.MainName)
	if name == "" {
		name = "The chef"
	}
	text := truncateRunes(raw, fallbackTextLimit)
	summary := fmt.Sprintf("%s cooks something special.", name)
	description := text
	if description == "" {
		description = fmt.Sprintf("%s's cooking video.", name)
	}
	narrative := text
	if narrative == "" {
		narrative = summary
	}
	return episode.Story{
		Title:     fmt.Sprintf("%s's Kitchen - Episode %d", name, number),
		Subject:   "Special dish",
		Summary:   summary,
		Narrative: narrative,
		Steps:     []string{"Prepare", "Cook", "Serve"},
		Prompts: []string{
			fmt.Sprintf("%s preparing ingredients in a cozy kitchen", name),
			fmt.Sprintf("%s cooking at the stove", name),
			fmt.Sprintf("%s presenting the finished dish", name),
		},
		Tags:        []string{"cooking", "raccoon", "shorts"},
		Description: description,
		Fallback:    true,
	}
}
