package story

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelcast/internal/episode"
	"reelcast/internal/services"
	"reelcast/internal/services/llm"
)

const stageName = "GenerateStory"

// wireStory is the JSON shape the provider must return.
type wireStory struct {
	Title        string   `json:"title" validate:"required,notblank,max=100"`
	Dish         string   `json:"dish" validate:"required,notblank"`
	Summary      string   `json:"summary"`
	Story        string   `json:"story"`
	CookingSteps []string `json:"cooking_steps" validate:"dive,notblank"`
	VideoPrompts []string `json:"video_prompts" validate:"required,min=1,max=10,dive,notblank"`
	Tags         []string `json:"tags" validate:"required,min=1,dive,notblank"`
	Description  string   `json:"description"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validateNotBlank)
	return v
}

// validateNotBlank rejects strings that are empty after trimming.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Parse decodes and validates a provider reply. Failures are tagged
// schema_validation_failed so the caller can fall back.
func Parse(raw string, lang string) (episode.Story, error) {
	var wire wireStory
	if err := llm.DecodeJSON(raw, &wire); err != nil {
		return episode.Story{}, services.Wrap(services.ErrSchemaValidationFailed, stageName, "decode", "", err)
	}
	if err := validate.Struct(wire); err != nil {
		return episode.Story{}, services.Wrap(services.ErrSchemaValidationFailed, stageName, "validate", describeValidation(err), err)
	}
	return episode.Story{
		Title:       strings.TrimSpace(wire.Title),
		Subject:     strings.TrimSpace(wire.Dish),
		Summary:     strings.TrimSpace(wire.Summary),
		Narrative:   strings.TrimSpace(wire.Story),
		Steps:       trimAll(wire.CookingSteps),
		Prompts:     trimAll(wire.VideoPrompts),
		Tags:        NormalizeTags(wire.Tags, lang),
		Description: strings.TrimSpace(wire.Description),
	}, nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace()+":"+fe.Tag())
	}
	return "invalid fields " + strings.Join(fields, ", ")
}

// NormalizeTags trims, strips leading '#', lower-cases with the rules of lang
// and removes duplicates, keeping first-seen order.
func NormalizeTags(tags []string, lang string) []string {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		tag = language.Und
	}
	lower := cases.Lower(tag)
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		cleaned := lower.String(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(raw), "#")))
		if cleaned == "" {
			continue
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func truncateRunes(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
