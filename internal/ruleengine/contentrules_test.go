package ruleengine

import (
	"testing"

	"github.com/sujitn/aegis/internal/classifier"
)

func TestContentRuleClampsThreshold(t *testing.T) {
	r := NewContentRule("test", "Test", classifier.CategoryViolence, ActionBlock, 1.5)
	if r.Threshold != 1.0 {
		t.Errorf("expected threshold clamped to 1.0, got %v", r.Threshold)
	}
	r = NewContentRule("test", "Test", classifier.CategoryViolence, ActionBlock, -0.5)
	if r.Threshold != 0.0 {
		t.Errorf("expected threshold clamped to 0.0, got %v", r.Threshold)
	}
}

func TestContentRuleMatchesRespectsEnabled(t *testing.T) {
	r := BlockRule("violence_block", classifier.CategoryViolence, 0.7)
	r.Enabled = false
	if _, ok := r.Matches(classifier.CategoryViolence, 0.9); ok {
		t.Error("expected disabled rule to never match")
	}
}

func TestContentRuleSetEvaluateMostRestrictive(t *testing.T) {
	set := NewContentRuleSet()
	set.AddRule(WarnRule("v_warn", classifier.CategoryViolence, 0.5))
	set.AddRule(BlockRule("v_block", classifier.CategoryViolence, 0.8))

	result := set.Evaluate(classifier.CategoryViolence, 0.9)
	if result == nil || result.Action != ActionBlock {
		t.Fatalf("expected block to win over warn, got %+v", result)
	}
}

func TestFamilySafeDefaultsBlocksSelfHarmAtLowThreshold(t *testing.T) {
	set := FamilySafeDefaults()
	result := set.Evaluate(classifier.CategorySelfHarm, 0.55)
	if result == nil || result.Action != ActionBlock {
		t.Fatalf("expected self-harm blocked at 0.55, got %+v", result)
	}
}

func TestPermissiveDefaultsStillBlocksSelfHarm(t *testing.T) {
	set := PermissiveDefaults()
	result := set.Evaluate(classifier.CategorySelfHarm, 0.55)
	if result == nil || result.Action != ActionBlock {
		t.Fatalf("expected permissive defaults to still block self-harm, got %+v", result)
	}
	result = set.Evaluate(classifier.CategoryViolence, 0.85)
	if result == nil || result.Action != ActionWarn {
		t.Fatalf("expected permissive defaults to warn on violence, got %+v", result)
	}
}

func TestShouldBlockAcrossMultipleMatches(t *testing.T) {
	set := FamilySafeDefaults()
	matches := []categoryConfidence{
		{Category: classifier.CategoryProfanity, Confidence: 0.9},
		{Category: classifier.CategoryIllegal, Confidence: 0.8},
	}
	if !set.ShouldBlock(matches) {
		t.Error("expected illegal match to trigger a block")
	}
}
