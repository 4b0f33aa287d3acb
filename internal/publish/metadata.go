package publish

import (
	"strings"
	"unicode/utf8"

	"reelcast/internal/config"
	"reelcast/internal/episode"
)

// maxTitleRunes is the YouTube title limit.
const maxTitleRunes = 100

const shortsSuffix = " #Shorts"

// Metadata is what one upload sends alongside the media.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	Visibility  string
}

// MetadataFor builds upload metadata from an episode story.
func MetadataFor(story episode.Story, visibility string) Metadata {
	return Metadata{
		Title:       story.Title,
		Description: story.Description,
		Tags:        append([]string(nil), story.Tags...),
		Visibility:  visibility,
	}
}

// decorate applies the Shorts conventions and the title limit.
func decorate(meta Metadata, cfg config.Publish) Metadata {
	title := strings.TrimSpace(meta.Title)
	tags := append([]string(nil), meta.Tags...)
	if cfg.Shorts {
		title = truncateRunes(title, maxTitleRunes-utf8.RuneCountInString(shortsSuffix)) + shortsSuffix
		if !containsFold(tags, "Shorts") {
			tags = append(tags, "Shorts")
		}
	} else {
		title = truncateRunes(title, maxTitleRunes)
	}
	visibility := strings.ToLower(strings.TrimSpace(meta.Visibility))
	if visibility == "" {
		visibility = strings.ToLower(strings.TrimSpace(cfg.Visibility))
	}
	if visibility == "" {
		visibility = config.VisibilityPublic
	}
	return Metadata{
		Title:       title,
		Description: meta.Description,
		Tags:        tags,
		Visibility:  visibility,
	}
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:limit]))
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}
