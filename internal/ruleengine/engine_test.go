package ruleengine

import (
	"testing"

	"github.com/sujitn/aegis/internal/classifier"
)

func TestEngineTimeRuleTakesPrecedenceOverContent(t *testing.T) {
	e := WithDefaults()
	result := classifier.WithMatches([]classifier.CategoryMatch{
		{Category: classifier.CategoryProfanity, Confidence: 0.9, Tier: classifier.TierKeyword},
	}, 0)

	decision := e.Evaluate(result, Sunday, NewTimeOfDay(22, 0))
	if !decision.ShouldBlock() {
		t.Fatalf("expected time-rule block, got %+v", decision)
	}
	if !decision.Source.IsTimeRule() {
		t.Errorf("expected time rule source, got %+v", decision.Source)
	}
}

func TestEngineContentRuleWhenTimeAllows(t *testing.T) {
	e := WithDefaults()
	result := classifier.WithMatches([]classifier.CategoryMatch{
		{Category: classifier.CategoryViolence, Confidence: 0.9, Tier: classifier.TierKeyword},
	}, 0)

	decision := e.Evaluate(result, Wednesday, NewTimeOfDay(15, 0))
	if !decision.ShouldBlock() {
		t.Fatalf("expected content-rule block, got %+v", decision)
	}
	if !decision.Source.IsContentRule() {
		t.Errorf("expected content rule source, got %+v", decision.Source)
	}
	if decision.Source.ID() != "violence_block" {
		t.Errorf("expected violence_block rule id, got %q", decision.Source.ID())
	}
}

func TestEngineDefaultAllow(t *testing.T) {
	e := WithDefaults()
	result := classifier.Safe(0)
	decision := e.Evaluate(result, Wednesday, NewTimeOfDay(15, 0))
	if !decision.ShouldAllow() {
		t.Fatalf("expected default allow, got %+v", decision)
	}
	if decision.Source.HasRule() {
		t.Errorf("expected no rule source on default allow, got %+v", decision.Source)
	}
}

func TestEngineTimeOnlyIgnoresContent(t *testing.T) {
	e := TimeOnly()
	result := classifier.WithMatches([]classifier.CategoryMatch{
		{Category: classifier.CategoryViolence, Confidence: 0.99, Tier: classifier.TierKeyword},
	}, 0)
	decision := e.Evaluate(result, Wednesday, NewTimeOfDay(15, 0))
	if !decision.ShouldAllow() {
		t.Fatalf("expected allow with no content rules configured, got %+v", decision)
	}
}

func TestEngineContentOnlyIgnoresTime(t *testing.T) {
	e := ContentOnly()
	result := classifier.Safe(0)
	decision := e.Evaluate(result, Sunday, NewTimeOfDay(23, 0))
	if !decision.ShouldAllow() {
		t.Fatalf("expected allow with no time rules configured, got %+v", decision)
	}
}
