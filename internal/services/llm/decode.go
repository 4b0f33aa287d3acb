package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const snippetLimit = 160

// DecodeJSON unmarshals a model reply into target. When the reply is not
// plain JSON it retries once on the outermost object or array found after
// stripping a Markdown code fence.
func DecodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	err := json.Unmarshal([]byte(trimmed), target)
	if err == nil {
		return nil
	}
	extracted, ok := extractJSON(trimmed)
	if !ok || extracted == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", err, summarizePayloadSnippet(trimmed))
	}
	if err := json.Unmarshal([]byte(extracted), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, summarizePayloadSnippet(extracted))
	}
	return nil
}

func extractJSON(content string) (string, bool) {
	body := unfence(content)
	if body == "" {
		return "", false
	}
	if body[0] == '{' || body[0] == '[' {
		return body, true
	}
	for _, delims := range []string{"{}", "[]"} {
		start := strings.IndexByte(body, delims[0])
		end := strings.LastIndexByte(body, delims[1])
		if start >= 0 && end > start {
			return strings.TrimSpace(body[start : end+1]), true
		}
	}
	return body, true
}

// unfence removes a leading ``` or ```json line and the closing fence.
func unfence(content string) string {
	body, found := strings.CutPrefix(strings.TrimSpace(content), "```")
	if !found {
		return strings.TrimSpace(content)
	}
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

// summarizePayloadSnippet collapses whitespace and truncates to 160 runes.
func summarizePayloadSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	if runes := []rune(clean); len(runes) > snippetLimit {
		return string(runes[:snippetLimit]) + "..."
	}
	return clean
}
