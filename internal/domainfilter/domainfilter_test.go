package domainfilter

import "testing"

func TestDefaultMatchesKnownProviders(t *testing.T) {
	f := Default()
	cases := []string{
		"api.openai.com",
		"chatgpt.com",
		"api.anthropic.com",
		"claude.ai",
		"generativelanguage.googleapis.com",
		"content-autofill.googleapis.com",
	}
	for _, host := range cases {
		if !f.Matches(host) {
			t.Errorf("expected %q to match the default filter", host)
		}
	}
}

func TestDefaultDoesNotMatchUnrelatedHost(t *testing.T) {
	f := Default()
	if f.Matches("example.com") {
		t.Error("expected example.com to not match")
	}
}

func TestMatchesIsCaseInsensitive(t *testing.T) {
	f := Default()
	if !f.Matches("API.OpenAI.COM") {
		t.Error("expected case-insensitive match")
	}
}

func TestAddPatternExtendsMatching(t *testing.T) {
	f, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if f.Matches("llm.internal.example") {
		t.Fatal("expected no match before adding a pattern")
	}
	if err := f.AddPattern("*.internal.example"); err != nil {
		t.Fatalf("AddPattern() error = %v", err)
	}
	if !f.Matches("llm.internal.example") {
		t.Error("expected match after adding a glob pattern")
	}
}

func TestEmptyFilterMatchesNothing(t *testing.T) {
	f, _ := New(nil)
	if f.Matches("api.openai.com") {
		t.Error("expected empty filter to match nothing")
	}
}
