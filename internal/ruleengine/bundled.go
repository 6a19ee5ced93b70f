package ruleengine

import "github.com/sujitn/aegis/internal/classifier"

// DefaultCuratedRules returns Aegis's own curated community-tier rules.
// NewManagerWithDefaults loads them; a Manager from NewManager, which the
// Engine constructors use, starts without them. These sit at TierCurated, so they override any TierCommunity rule
// for the same pattern but can still be overridden by a TierParent rule.
func DefaultCuratedRules() []*CommunityRule {
	source := AegisCuratedSource("1.0.0")
	curated := func(id, pattern string, category classifier.Category, sev RuleSeverity) *CommunityRule {
		return &CommunityRule{
			ID: id, Pattern: pattern, IsRegex: true, Category: category,
			Severity: sev, Tier: TierCurated, Source: source, Language: "en", Enabled: true,
		}
	}
	return []*CommunityRule{
		curated("curated_jailbreak_001", `\bignore\s+(all\s+)?(previous|your)\s+(instructions?|rules?|guidelines?)\b`, classifier.CategoryJailbreak, SeverityHigh),
		curated("curated_jailbreak_002", `\bpretend\s+(you\s+are|to\s+be|you're)\s+(evil|unrestricted|unfiltered)\b`, classifier.CategoryJailbreak, SeverityHigh),
		curated("curated_jailbreak_003", `\b(dan|developer)\s*mode\b`, classifier.CategoryJailbreak, SeverityStrong),
		curated("curated_jailbreak_004", `\bjailbreak\s*(prompt|mode)?\b`, classifier.CategoryJailbreak, SeverityHigh),
		curated("curated_jailbreak_005", `\bbypass\s+(safety|content|ethical)\s*(filters?|restrictions?|guidelines?)?\b`, classifier.CategoryJailbreak, SeverityHigh),
		curated("curated_jailbreak_006", `\bforget\s+(all\s+)?(previous|your)\s+(instructions?|rules?|context)\b`, classifier.CategoryJailbreak, SeverityHigh),
	}
}

// NewManagerWithDefaults returns a Manager preloaded with the curated rule
// bundle, ready for a deployment to layer community-database and parent
// rules on top of.
func NewManagerWithDefaults() *Manager {
	m := NewManager()
	m.AddRules(DefaultCuratedRules())
	return m
}
