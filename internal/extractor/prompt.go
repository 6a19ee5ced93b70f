// Package extractor pulls the user-facing prompt text out of an
// intercepted LLM request body, so the classifier and rule engine never
// have to parse provider-specific JSON shapes themselves.
//
// Supports OpenAI Chat Completions, Anthropic Messages, Google's
// generateContent, and a handful of generic single-field request shapes,
// falling back to a whole-body text scan for anything else — see
// ExtractPrompt.
package extractor

import (
	"encoding/json"
	"strings"
)

// PromptInfo is the extracted user-facing prompt text pulled from an
// intercepted LLM request body, along with the fields needed to attribute
// it in the audit log.
type PromptInfo struct {
	Text     string
	Service  string
	Endpoint string
}

// ExtractPrompt parses the user's prompt text out of a request body.
// host and path pick the extraction strategy; unrecognized hosts fall
// back to extractGenericPrompt, and failing that, to flattenContentBlocks
// scanning the whole decoded body so no format is silently skipped.
//
// Mirrors the Chat Completions / Messages / Generative Language detection
// order, plus a last-resort full-body text scan for hosts none of the
// three cover.
func ExtractPrompt(host, path string, body []byte, service string) (PromptInfo, bool) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return PromptInfo{}, false
	}

	host = strings.ToLower(host)
	var text string
	switch {
	case strings.Contains(host, "openai.com") || strings.Contains(host, "chatgpt.com"):
		text = extractOpenAIPrompt(doc)
	case strings.Contains(host, "anthropic.com") || strings.Contains(host, "claude.ai"):
		text = extractAnthropicPrompt(doc)
	case strings.Contains(host, "googleapis.com") || strings.Contains(host, "gemini.google.com"):
		text = extractGeminiPrompt(doc)
	default:
		text = extractGenericPrompt(doc)
	}

	if text == "" {
		text = flattenContentBlocks(doc)
	}
	if text == "" {
		return PromptInfo{}, false
	}
	return PromptInfo{Text: text, Service: service, Endpoint: path}, true
}

// flattenContentBlocks recursively walks a decoded JSON value and joins
// every string that looks like actual content, skipping metadata keys
// (IDs, tokens, timestamps) and strings that look like IDs themselves.
// This is the fallback path for request shapes none of the named API
// extractors recognize — it trades precision for never missing a prompt.
func flattenContentBlocks(v any) string {
	var texts []string
	collectText(v, &texts)
	return strings.Join(texts, " ")
}

func collectText(v any, texts *[]string) {
	switch val := v.(type) {
	case string:
		if len(val) > 10 && !looksLikeID(val) {
			*texts = append(*texts, val)
		}
	case []any:
		for _, item := range val {
			collectText(item, texts)
		}
	case map[string]any:
		for key, item := range val {
			if isMetadataKey(key) {
				continue
			}
			collectText(item, texts)
		}
	}
}

func looksLikeID(s string) bool {
	if strings.HasPrefix(s, "eyJ") {
		return true
	}
	allHexOrDash := true
	alnum := 0
	for _, c := range s {
		if !isHexDigit(c) && c != '-' {
			allHexOrDash = false
		}
		if isAlphaNumeric(c) {
			alnum++
		}
	}
	if allHexOrDash {
		return true
	}
	return alnum == len(s) && len(s) == 32
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlphaNumeric(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

var metadataKeys = map[string]bool{
	"id": true, "uuid": true, "token": true, "access_token": true,
	"model": true, "timestamp": true, "created": true, "updated": true,
	"parent_message_id": true, "conversation_id": true, "message_id": true,
	"author_id": true, "client_id": true,
}

func isMetadataKey(key string) bool { return metadataKeys[key] }

// textPartsFromArray extracts "text" strings from an array of
// {"type": "text", "text": "..."} content blocks, the shape shared by
// OpenAI multimodal messages, Anthropic content blocks, and ChatGPT's web
// "parts" array (the latter without the "type" wrapper).
func textPartsFromArray(arr []any, requireTypeText bool) []string {
	var parts []string
	for _, item := range arr {
		if s, ok := item.(string); ok {
			parts = append(parts, s)
			continue
		}
		block, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if requireTypeText {
			if t, _ := block["type"].(string); t != "text" {
				continue
			}
		}
		if text, ok := block["text"].(string); ok {
			parts = append(parts, text)
		}
	}
	return parts
}

// extractOpenAIPrompt handles {"messages": [{"role": "user", "content": ...}]},
// where content is a string, an array of {type, text} blocks (multimodal),
// or the ChatGPT web client's {"parts": [...]} shape.
func extractOpenAIPrompt(doc any) string {
	root, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	messages, ok := root["messages"].([]any)
	if !ok {
		return ""
	}

	var userMessages []string
	for _, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		role, _ := msg["role"].(string)
		if role == "" {
			if author, ok := msg["author"].(map[string]any); ok {
				role, _ = author["role"].(string)
			}
		}
		if role != "user" {
			continue
		}

		content, ok := msg["content"]
		if !ok {
			continue
		}
		if text, ok := content.(string); ok {
			userMessages = append(userMessages, text)
			continue
		}
		if arr, ok := content.([]any); ok {
			if parts := textPartsFromArray(arr, true); len(parts) > 0 {
				userMessages = append(userMessages, strings.Join(parts, " "))
				continue
			}
		}
		if obj, ok := content.(map[string]any); ok {
			if arr, ok := obj["parts"].([]any); ok {
				if parts := textPartsFromArray(arr, false); len(parts) > 0 {
					userMessages = append(userMessages, strings.Join(parts, " "))
				}
			}
		}
	}
	return strings.Join(userMessages, "\n")
}

// extractAnthropicPrompt handles {"messages": [{"role": "user", "content": ...}]}
// where content is a string or an array of {type: "text", text: "..."} blocks.
func extractAnthropicPrompt(doc any) string {
	root, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	messages, ok := root["messages"].([]any)
	if !ok {
		return ""
	}

	var userMessages []string
	for _, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		if role, _ := msg["role"].(string); role != "user" {
			continue
		}
		content, ok := msg["content"]
		if !ok {
			continue
		}
		if text, ok := content.(string); ok {
			userMessages = append(userMessages, text)
			continue
		}
		if arr, ok := content.([]any); ok {
			if parts := textPartsFromArray(arr, true); len(parts) > 0 {
				userMessages = append(userMessages, strings.Join(parts, " "))
			}
		}
	}
	return strings.Join(userMessages, "\n")
}

// extractGenericPrompt tries a handful of common single-field shapes, then
// a bare messages[].content array of plain strings, before giving up to
// the flattenContentBlocks fallback.
func extractGenericPrompt(doc any) string {
	root, ok := doc.(map[string]any)
	if !ok {
		return ""
	}
	for _, field := range []string{"prompt", "text", "query", "input", "message", "content"} {
		if text, ok := root[field].(string); ok {
			return text
		}
	}
	if messages, ok := root["messages"].([]any); ok {
		var texts []string
		for _, m := range messages {
			if msg, ok := m.(map[string]any); ok {
				if text, ok := msg["content"].(string); ok {
					texts = append(texts, text)
				}
			}
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n")
		}
	}
	return ""
}
