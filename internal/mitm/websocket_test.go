package mitm

import (
	"net/http/httptest"
	"testing"
)

func TestIsWebSocketUpgrade(t *testing.T) {
	req := httptest.NewRequest("GET", "https://chatgpt.com/backend-api/conversation", nil)
	if isWebSocketUpgrade(req) {
		t.Error("plain GET should not be detected as a WebSocket upgrade")
	}
	req.Header.Set("Upgrade", "websocket")
	if !isWebSocketUpgrade(req) {
		t.Error("request with Upgrade: websocket should be detected")
	}
	req.Header.Set("Upgrade", "WebSocket")
	if !isWebSocketUpgrade(req) {
		t.Error("Upgrade header match should be case-insensitive")
	}
}

func TestExtractWebSocketPromptMessagesArray(t *testing.T) {
	data := []byte(`{"messages":[{"content":{"parts":["hello there"]}}]}`)
	prompt, ok := extractWebSocketPrompt(data)
	if !ok || prompt != "hello there" {
		t.Fatalf("got %q, ok=%v", prompt, ok)
	}
}

func TestExtractWebSocketPromptMessagesStringContent(t *testing.T) {
	data := []byte(`{"messages":[{"content":"plain string content"}]}`)
	prompt, ok := extractWebSocketPrompt(data)
	if !ok || prompt != "plain string content" {
		t.Fatalf("got %q, ok=%v", prompt, ok)
	}
}

func TestExtractWebSocketPromptMessageSingular(t *testing.T) {
	data := []byte(`{"message":{"content":{"parts":["single message part"]}}}`)
	prompt, ok := extractWebSocketPrompt(data)
	if !ok || prompt != "single message part" {
		t.Fatalf("got %q, ok=%v", prompt, ok)
	}
}

func TestExtractWebSocketPromptSimpleFields(t *testing.T) {
	cases := map[string]string{
		`{"prompt":"p"}`:  "p",
		`{"text":"t"}`:    "t",
		`{"content":"c"}`: "c",
	}
	for body, want := range cases {
		prompt, ok := extractWebSocketPrompt([]byte(body))
		if !ok || prompt != want {
			t.Errorf("%s: got %q, ok=%v", body, prompt, ok)
		}
	}
}

func TestExtractWebSocketPromptActionNext(t *testing.T) {
	data := []byte(`{"action":"next","messages":[{"content":{"parts":["continued prompt"]}}]}`)
	prompt, ok := extractWebSocketPrompt(data)
	if !ok || prompt != "continued prompt" {
		t.Fatalf("got %q, ok=%v", prompt, ok)
	}
}

func TestExtractWebSocketPromptNoRecognizedShape(t *testing.T) {
	if _, ok := extractWebSocketPrompt([]byte(`{"unrelated":"field"}`)); ok {
		t.Error("expected no prompt extracted from an unrecognized shape")
	}
}

func TestExtractWebSocketPromptInvalidJSON(t *testing.T) {
	if _, ok := extractWebSocketPrompt([]byte("not json")); ok {
		t.Error("expected invalid JSON to yield no prompt")
	}
}
