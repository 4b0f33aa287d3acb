package story

import (
	"fmt"
	"strings"

	"reelcast/internal/config"
	"reelcast/internal/episode"
)

// Input is what one story request needs.
type Input struct {
	EpisodeNumber int
	Window        episode.Window
	// UsedSubjects lists every subject already produced, across all history.
	UsedSubjects []string
}

const systemPrompt = `You write short stories for a cooking channel of vertical short videos.
Cooking is the main content. A small, cute story connects naturally to the cooking steps.
Characters stay consistent across episodes. Each episode fits a video under 60 seconds.
The tone is light and fun. Respond with a single JSON object and nothing else.`

// BuildPrompt returns the system and user prompt for one episode.
func BuildPrompt(in Input, chars config.Characters, storyCfg config.Story) (string, string) {
	var b strings.Builder
	b.WriteString("Characters:\n")
	fmt.Fprintf(&b, "- Main: %s - %s\n", chars.MainName, chars.MainDescription)
	if strings.TrimSpace(chars.SupportingName) != "" {
		fmt.Fprintf(&b, "- Supporting: %s - %s\n", chars.SupportingName, chars.SupportingDescription)
	}
	if style := strings.TrimSpace(storyCfg.Style); style != "" {
		fmt.Fprintf(&b, "\nStory style: %s\n", style)
	}

	if len(in.UsedSubjects) > 0 || len(in.Window) > 0 {
		b.WriteString("\n=== Previous episodes ===\n")
		if len(in.UsedSubjects) > 0 {
			fmt.Fprintf(&b, "Dishes already made (do not repeat): %s\n", strings.Join(in.UsedSubjects, ", "))
		}
		if len(in.Window) > 0 {
			b.WriteString("Recent episodes:\n")
			for _, ep := range in.Window {
				fmt.Fprintf(&b, "- Episode %d: [%s] %s - %s", ep.Number, ep.Story.Subject, ep.Story.Title, ep.Story.Summary)
				if ep.Status == episode.StatusFailed {
					b.WriteString(" (failed, may be retried with a new dish)")
				}
				b.WriteString("\n")
			}
		}
		b.WriteString("Pick a new dish that is not in the list above.\n")
	}

	fmt.Fprintf(&b, "\nWrite the story for episode %d.", in.EpisodeNumber)
	if lang := strings.TrimSpace(storyCfg.Language); lang != "" {
		fmt.Fprintf(&b, " Write every text field in the language %q.", lang)
	}
	b.WriteString(" Video prompts are scene descriptions for a video model, one short scene each, in English.\n")
	b.WriteString(`Respond with this JSON shape:
{
  "title": "video title",
  "dish": "name of the dish",
  "summary": "one or two sentence summary",
  "story": "full story",
  "cooking_steps": ["step 1", "step 2", "step 3"],
  "video_prompts": ["scene 1", "scene 2", "scene 3"],
  "tags": ["tag1", "tag2", "tag3"],
  "description": "video description"
}
`)
	fmt.Fprintf(&b, "Keep %s", chars.MainName)
	if strings.TrimSpace(chars.SupportingName) != "" {
		fmt.Fprintf(&b, " and %s", chars.SupportingName)
	}
	b.WriteString(" in character throughout.")
	return systemPrompt, b.String()
}
