package ruleengine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sujitn/aegis/internal/classifier"
)

// overridesFile is the on-disk shape of rules.yaml — a parent's
// whitelist/blacklist/disabled-rule/threshold customizations, loaded by
// LoadParentOverrides and hot-reloaded by internal/config.Watcher.
type overridesFile struct {
	Whitelist          []string           `yaml:"whitelist"`
	Blacklist          map[string]string  `yaml:"blacklist"` // term -> category
	DisabledRules      []string           `yaml:"disabled_rules"`
	CategoryThresholds map[string]float64 `yaml:"category_thresholds"`
}

// LoadParentOverrides reads rules.yaml into a ParentOverrides. A missing
// file is not an error — it yields an empty override set.
func LoadParentOverrides(path string) (*ParentOverrides, error) {
	o := NewParentOverrides()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return o, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, term := range f.Whitelist {
		o.Whitelist[term] = struct{}{}
	}
	for term, cat := range f.Blacklist {
		o.Blacklist[term] = classifier.Category(cat)
	}
	for _, id := range f.DisabledRules {
		o.DisabledRules[id] = struct{}{}
	}
	for cat, threshold := range f.CategoryThresholds {
		o.CategoryThresholds[classifier.Category(cat)] = threshold
	}
	return o, nil
}

// communityRuleEntry is the on-disk shape of one community.yaml rule.
type communityRuleEntry struct {
	ID       string  `yaml:"id"`
	Pattern  string  `yaml:"pattern"`
	IsRegex  bool    `yaml:"is_regex"`
	Category string  `yaml:"category"`
	Severity string  `yaml:"severity"`
	Language string  `yaml:"language"`
	Enabled  bool    `yaml:"enabled"`
	Source   string  `yaml:"source"`
	Version  string  `yaml:"version"`
}

type communityFile struct {
	Rules []communityRuleEntry `yaml:"rules"`
}

func parseSeverity(s string) RuleSeverity {
	switch s {
	case "mild":
		return SeverityMild
	case "strong":
		return SeverityStrong
	case "high":
		return SeverityHigh
	default:
		return SeverityModerate
	}
}

func ruleSourceFor(name, version string) RuleSource {
	switch name {
	case "surge-ai-profanity":
		return SurgeAISource(version)
	case "ldnoobw":
		return LDNOOBWSource(version)
	case "aegis-curated":
		return AegisCuratedSource(version)
	default:
		return ParentCustomSource()
	}
}

// LoadCommunityRules reads community.yaml into a slice of CommunityRule,
// ready to hand to Manager.AddRules. A missing file yields an empty slice.
func LoadCommunityRules(path string) ([]*CommunityRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f communityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	rules := make([]*CommunityRule, 0, len(f.Rules))
	for _, e := range f.Rules {
		language := e.Language
		if language == "" {
			language = "en"
		}
		rules = append(rules, &CommunityRule{
			ID:       e.ID,
			Pattern:  e.Pattern,
			IsRegex:  e.IsRegex,
			Category: classifier.Category(e.Category),
			Severity: parseSeverity(e.Severity),
			Tier:     TierCommunity,
			Source:   ruleSourceFor(e.Source, e.Version),
			Language: language,
			Enabled:  e.Enabled,
		})
	}
	return rules, nil
}
