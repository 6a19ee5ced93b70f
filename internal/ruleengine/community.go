package ruleengine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sujitn/aegis/internal/classifier"
)

// RuleTier orders community rule precedence. Higher tiers override lower
// tiers for the same (language, pattern) pair.
type RuleTier int

const (
	TierCommunity RuleTier = iota
	TierCurated
	TierParent
)

func (t RuleTier) String() string {
	switch t {
	case TierCommunity:
		return "community"
	case TierCurated:
		return "curated"
	case TierParent:
		return "parent"
	default:
		return "community"
	}
}

// RuleSeverity maps to a fixed confidence score, matching the severity
// bands the keyword and sentiment classifiers already use.
type RuleSeverity int

const (
	SeverityMild RuleSeverity = iota
	SeverityModerate
	SeverityStrong
	SeverityHigh
)

// Confidence converts a severity band to its fixed score.
func (s RuleSeverity) Confidence() float64 {
	switch s {
	case SeverityMild:
		return 0.6
	case SeverityModerate:
		return 0.75
	case SeverityStrong:
		return 0.85
	case SeverityHigh:
		return 0.95
	default:
		return 0.75
	}
}

// RuleSource identifies the origin database a community rule came from.
type RuleSource struct {
	Name    string
	Version string
	License string
}

// SurgeAISource identifies the Surge AI profanity database.
func SurgeAISource(version string) RuleSource {
	return RuleSource{Name: "surge-ai-profanity", Version: version, License: "MIT"}
}

// LDNOOBWSource identifies the LDNOOBW bad-words list.
func LDNOOBWSource(version string) RuleSource {
	return RuleSource{Name: "ldnoobw", Version: version, License: "CC-BY-4.0"}
}

// AegisCuratedSource identifies Aegis's own curated rule set.
func AegisCuratedSource(version string) RuleSource {
	return RuleSource{Name: "aegis-curated", Version: version}
}

// ParentCustomSource identifies a parent's own rule customizations.
func ParentCustomSource() RuleSource {
	return RuleSource{Name: "parent-custom", Version: "local"}
}

// CommunityRule is a single pattern imported from an open-source safety
// database, Aegis's curated set, or a parent customization.
type CommunityRule struct {
	ID       string
	Pattern  string
	IsRegex  bool
	Category classifier.Category
	Severity RuleSeverity
	Tier     RuleTier
	Source   RuleSource
	Language string
	Enabled  bool
}

// NewCommunityRule builds a community-tier rule with moderate severity and English language, enabled.
func NewCommunityRule(id, pattern string, category classifier.Category, source RuleSource) *CommunityRule {
	return &CommunityRule{
		ID: id, Pattern: pattern, Category: category, Severity: SeverityModerate,
		Tier: TierCommunity, Source: source, Language: "en", Enabled: true,
	}
}

// Confidence returns the rule's severity-derived confidence.
func (r *CommunityRule) Confidence() float64 { return r.Severity.Confidence() }

// regexPattern returns the case-insensitive regex form of the rule: the raw
// pattern when IsRegex, or a word-boundary-escaped literal otherwise.
func (r *CommunityRule) regexPattern() string {
	if r.IsRegex {
		return "(?i)" + r.Pattern
	}
	return `(?i)\b` + regexp.QuoteMeta(r.Pattern) + `\b`
}

// ParentOverrides layers parent customizations on top of the community and
// curated tiers: whitelist suppresses matches outright, blacklist adds
// terms, disabled_rules turns specific rules off. CategoryThresholds is
// stored but not read when classifying; it changes no match.
type ParentOverrides struct {
	Whitelist          map[string]struct{}
	Blacklist          map[string]classifier.Category
	DisabledRules      map[string]struct{}
	CategoryThresholds map[classifier.Category]float64
}

// NewParentOverrides returns an empty override set.
func NewParentOverrides() *ParentOverrides {
	return &ParentOverrides{
		Whitelist:          make(map[string]struct{}),
		Blacklist:          make(map[string]classifier.Category),
		DisabledRules:      make(map[string]struct{}),
		CategoryThresholds: make(map[classifier.Category]float64),
	}
}

func (p *ParentOverrides) AddWhitelist(term string) { p.Whitelist[strings.ToLower(term)] = struct{}{} }

func (p *ParentOverrides) AddBlacklist(term string, category classifier.Category) {
	p.Blacklist[strings.ToLower(term)] = category
}

func (p *ParentOverrides) DisableRule(id string) { p.DisabledRules[id] = struct{}{} }

func (p *ParentOverrides) EnableRule(id string) bool {
	if _, ok := p.DisabledRules[id]; !ok {
		return false
	}
	delete(p.DisabledRules, id)
	return true
}

func (p *ParentOverrides) SetCategoryThreshold(category classifier.Category, threshold float64) {
	p.CategoryThresholds[category] = clampUnit(threshold)
}

func (p *ParentOverrides) IsWhitelisted(term string) bool {
	_, ok := p.Whitelist[strings.ToLower(term)]
	return ok
}

func (p *ParentOverrides) IsRuleDisabled(id string) bool {
	_, ok := p.DisabledRules[id]
	return ok
}

// RuleMatch is a single hit from the compiled community rule set.
type RuleMatch struct {
	RuleID      string
	Category    classifier.Category
	Confidence  float64
	MatchedText string
	Tier        RuleTier
	Source      string
}

// compiledRule pairs a community rule with its compiled regex.
type compiledRule struct {
	rule *CommunityRule
	re   *regexp.Regexp
}

// CompiledRuleSet is the precompiled form of a rule slice, ready to scan
// text in a single pass per rule (Go's regexp package has no equivalent
// of Rust's RegexSet pre-filter, so find_matches here runs every compiled
// rule directly rather than gating with a combined alternation first).
type CompiledRuleSet struct {
	compiled []compiledRule
}

// CompileRules compiles every rule's pattern, failing on the first bad regex.
func CompileRules(rules []*CommunityRule) (*CompiledRuleSet, error) {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.regexPattern())
		if err != nil {
			return nil, fmt.Errorf("community rule %q: %w", r.ID, err)
		}
		out = append(out, compiledRule{rule: r, re: re})
	}
	return &CompiledRuleSet{compiled: out}, nil
}

func (c *CompiledRuleSet) Len() int { return len(c.compiled) }

// FindMatches scans text against every compiled rule.
func (c *CompiledRuleSet) FindMatches(text string) []RuleMatch {
	lower := strings.ToLower(text)
	var matches []RuleMatch
	for _, cr := range c.compiled {
		if loc := cr.re.FindString(lower); loc != "" {
			matches = append(matches, RuleMatch{
				RuleID:      cr.rule.ID,
				Category:    cr.rule.Category,
				Confidence:  cr.rule.Confidence(),
				MatchedText: loc,
				Tier:        cr.rule.Tier,
				Source:      cr.rule.Source.Name,
			})
		}
	}
	return matches
}

// Manager layers community, curated, and parent rules and compiles them
// lazily into a single CompiledRuleSet, recompiling whenever rules,
// languages, or overrides change.
type Manager struct {
	rulesByTier map[RuleTier][]*CommunityRule
	compiled    *CompiledRuleSet
	overrides   *ParentOverrides
	languages   []string
}

// NewManager returns an empty manager defaulting to English.
func NewManager() *Manager {
	return &Manager{
		rulesByTier: make(map[RuleTier][]*CommunityRule),
		overrides:   NewParentOverrides(),
		languages:   []string{"en"},
	}
}

// AddRule adds a rule and invalidates the compiled cache.
func (m *Manager) AddRule(r *CommunityRule) {
	m.rulesByTier[r.Tier] = append(m.rulesByTier[r.Tier], r)
	m.compiled = nil
}

// AddRules adds several rules at once.
func (m *Manager) AddRules(rules []*CommunityRule) {
	for _, r := range rules {
		m.AddRule(r)
	}
}

// SetLanguages replaces the active language filter.
func (m *Manager) SetLanguages(langs []string) {
	m.languages = langs
	m.compiled = nil
}

// SetOverrides replaces the parent override set.
func (m *Manager) SetOverrides(o *ParentOverrides) {
	m.overrides = o
	m.compiled = nil
}

// Overrides returns the active parent overrides for direct mutation; callers
// must call InvalidateCache after mutating through the returned pointer.
func (m *Manager) Overrides() *ParentOverrides { return m.overrides }

// InvalidateCache forces recompilation on the next Classify call.
func (m *Manager) InvalidateCache() { m.compiled = nil }

func (m *Manager) languageActive(lang string) bool {
	for _, l := range m.languages {
		if l == lang {
			return true
		}
	}
	return false
}

// effectiveRules layers tiers from lowest to highest priority, keyed by
// (language, lowercased pattern) so a higher tier silently overrides a
// lower tier's rule for the identical pattern.
func (m *Manager) effectiveRules() []*CommunityRule {
	byKey := make(map[string]*CommunityRule)
	for _, tier := range []RuleTier{TierCommunity, TierCurated, TierParent} {
		for _, r := range m.rulesByTier[tier] {
			if !r.Enabled {
				continue
			}
			key := r.Language + ":" + strings.ToLower(r.Pattern)
			byKey[key] = r
		}
	}
	out := make([]*CommunityRule, 0, len(byKey))
	for _, r := range byKey {
		out = append(out, r)
	}
	return out
}

func (m *Manager) compile() error {
	rules := m.effectiveRules()

	filtered := rules[:0]
	for _, r := range rules {
		if !m.languageActive(r.Language) {
			continue
		}
		if m.overrides.IsRuleDisabled(r.ID) {
			continue
		}
		filtered = append(filtered, r)
	}

	for term, category := range m.overrides.Blacklist {
		filtered = append(filtered, &CommunityRule{
			ID: "parent_blacklist_" + term, Pattern: term, Category: category,
			Tier: TierParent, Source: ParentCustomSource(), Language: "en", Enabled: true,
			Severity: SeverityModerate,
		})
	}

	compiled, err := CompileRules(filtered)
	if err != nil {
		return err
	}
	m.compiled = compiled
	return nil
}

// Classify scans text against the layered, compiled rule set, filtering
// out any match whose matched text is parent-whitelisted.
func (m *Manager) Classify(text string) []RuleMatch {
	if m.compiled == nil {
		if err := m.compile(); err != nil {
			return nil
		}
	}
	matches := m.compiled.FindMatches(text)
	out := matches[:0]
	for _, match := range matches {
		if !m.overrides.IsWhitelisted(match.MatchedText) {
			out = append(out, match)
		}
	}
	return out
}

// RulesForTier returns the raw (uncompiled) rules registered at a tier.
func (m *Manager) RulesForTier(tier RuleTier) []*CommunityRule { return m.rulesByTier[tier] }

// RuleCount returns the total number of registered rules across all tiers.
func (m *Manager) RuleCount() int {
	n := 0
	for _, rules := range m.rulesByTier {
		n += len(rules)
	}
	return n
}
