package extractor

import "testing"

func TestExtractPromptOpenAISimple(t *testing.T) {
	body := []byte(`{"messages": [{"role": "user", "content": "Hello, world!"}]}`)
	info, ok := ExtractPrompt("api.openai.com", "/v1/chat/completions", body, "ChatGPT")
	if !ok {
		t.Fatal("expected a prompt to be extracted")
	}
	if info.Text != "Hello, world!" {
		t.Errorf("got text %q", info.Text)
	}
	if info.Service != "ChatGPT" {
		t.Errorf("got service %q", info.Service)
	}
}

func TestExtractPromptOpenAIMultimodal(t *testing.T) {
	body := []byte(`{"messages": [{"role": "user", "content": [{"type": "text", "text": "describe this"}, {"type": "image_url", "image_url": {"url": "data:..."}}]}]}`)
	info, ok := ExtractPrompt("api.openai.com", "/v1/chat/completions", body, "ChatGPT")
	if !ok || info.Text != "describe this" {
		t.Fatalf("got %+v ok=%v", info, ok)
	}
}

func TestExtractPromptAnthropicContentBlocks(t *testing.T) {
	body := []byte(`{"messages": [{"role": "user", "content": [{"type": "text", "text": "hi there"}]}]}`)
	info, ok := ExtractPrompt("api.anthropic.com", "/v1/messages", body, "Claude")
	if !ok || info.Text != "hi there" {
		t.Fatalf("got %+v ok=%v", info, ok)
	}
}

func TestExtractPromptGeminiWithRole(t *testing.T) {
	body := []byte(`{"contents": [{"role": "user", "parts": [{"text": "what is the capital of France"}]}]}`)
	info, ok := ExtractPrompt("generativelanguage.googleapis.com", "/v1/models/gemini-pro:generateContent", body, "Gemini")
	if !ok || info.Text != "what is the capital of France" {
		t.Fatalf("got %+v ok=%v", info, ok)
	}
}

func TestExtractPromptGenericField(t *testing.T) {
	body := []byte(`{"prompt": "translate this please"}`)
	info, ok := ExtractPrompt("llm.example.com", "/api/v1/complete", body, "unknown")
	if !ok || info.Text != "translate this please" {
		t.Fatalf("got %+v ok=%v", info, ok)
	}
}

func TestExtractPromptFallsBackToFlatten(t *testing.T) {
	body := []byte(`{"some_odd_field": "this is a long enough piece of content to survive the id heuristic"}`)
	info, ok := ExtractPrompt("llm.example.com", "/weird", body, "unknown")
	if !ok {
		t.Fatal("expected the flatten fallback to find content")
	}
	if info.Text == "" {
		t.Error("expected non-empty flattened text")
	}
}

func TestExtractPromptSkipsIDLikeStrings(t *testing.T) {
	body := []byte(`{"id": "a1b2c3d4-e5f6-7890-abcd-ef1234567890", "note": "genuinely meaningful user content here"}`)
	info, ok := ExtractPrompt("llm.example.com", "/weird", body, "unknown")
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if info.Text != "genuinely meaningful user content here" {
		t.Errorf("expected ID-like field to be skipped, got %q", info.Text)
	}
}

func TestExtractPromptInvalidJSON(t *testing.T) {
	if _, ok := ExtractPrompt("api.openai.com", "/v1/chat/completions", []byte("not json"), "ChatGPT"); ok {
		t.Error("expected invalid JSON to fail extraction")
	}
}
