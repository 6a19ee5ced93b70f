package extractor

import (
	"strings"
)

// extractGeminiPrompt pulls the user's prompt text out of a Gemini
// generateContent request body: {"contents": [{"role": "user", "parts": [{"text": "..."}]}]}.
// Content items with no role are treated as user turns (Gemini's REST API
// allows omitting role on a single-turn request).
func extractGeminiPrompt(doc any) string {
	root, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	contents, ok := root["contents"].([]any)
	if !ok {
		return ""
	}

	var texts []string
	for _, c := range contents {
		content, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if role, present := content["role"]; present {
			if r, _ := role.(string); r != "user" {
				continue
			}
		}
		parts, ok := content["parts"].([]any)
		if !ok {
			continue
		}
		var partTexts []string
		for _, p := range parts {
			part, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := part["text"].(string); ok {
				partTexts = append(partTexts, text)
			}
		}
		if len(partTexts) > 0 {
			texts = append(texts, strings.Join(partTexts, " "))
		}
	}
	return strings.Join(texts, "\n")
}
