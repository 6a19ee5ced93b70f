package ruleengine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sujitn/aegis/internal/classifier"
)

func TestLoadParentOverridesMissingFile(t *testing.T) {
	o, err := LoadParentOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(o.Whitelist) != 0 {
		t.Error("expected empty whitelist for missing file")
	}
}

func TestLoadParentOverridesParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `
whitelist:
  - "homework"
blacklist:
  "badword": "profanity"
disabled_rules:
  - "kw-violence-1"
category_thresholds:
  violence: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	o, err := LoadParentOverrides(path)
	if err != nil {
		t.Fatalf("LoadParentOverrides: %v", err)
	}
	if _, ok := o.Whitelist["homework"]; !ok {
		t.Error("expected whitelist to contain homework")
	}
	if o.Blacklist["badword"] != classifier.CategoryProfanity {
		t.Errorf("expected blacklist category profanity, got %v", o.Blacklist["badword"])
	}
	if _, ok := o.DisabledRules["kw-violence-1"]; !ok {
		t.Error("expected disabled rule kw-violence-1")
	}
	if o.CategoryThresholds[classifier.CategoryViolence] != 0.5 {
		t.Errorf("expected violence threshold 0.5, got %v", o.CategoryThresholds[classifier.CategoryViolence])
	}
}

func TestLoadCommunityRulesMissingFile(t *testing.T) {
	rules, err := LoadCommunityRules(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if rules != nil {
		t.Error("expected nil rules for missing file")
	}
}

func TestLoadCommunityRulesParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "community.yaml")
	content := `
rules:
  - id: "surge-001"
    pattern: "badword"
    category: "profanity"
    severity: "strong"
    source: "surge-ai-profanity"
    version: "2024.1"
    enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadCommunityRules(path)
	if err != nil {
		t.Fatalf("LoadCommunityRules: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	r := rules[0]
	if r.ID != "surge-001" || r.Category != classifier.CategoryProfanity {
		t.Errorf("unexpected rule: %+v", r)
	}
	if r.Severity != SeverityStrong {
		t.Errorf("expected strong severity, got %v", r.Severity)
	}
	if r.Language != "en" {
		t.Errorf("expected default language en, got %q", r.Language)
	}
	if r.Source.Name != "surge-ai-profanity" {
		t.Errorf("expected surge-ai-profanity source, got %+v", r.Source)
	}
}
