package ruleengine

import (
	"sort"

	"github.com/sujitn/aegis/internal/classifier"
)

// ContentAction is the action a content rule prescribes when it matches.
type ContentAction int

const (
	// ActionBlock is the default — fail closed on an unrecognized action.
	ActionBlock ContentAction = iota
	ActionWarn
	ActionAllow
)

func (a ContentAction) String() string {
	switch a {
	case ActionBlock:
		return "block"
	case ActionWarn:
		return "warn"
	case ActionAllow:
		return "allow"
	default:
		return "block"
	}
}

func (a ContentAction) priority() int {
	switch a {
	case ActionBlock:
		return 0
	case ActionWarn:
		return 1
	default:
		return 2
	}
}

// ContentRule blocks, warns on, or allows a category once its confidence
// crosses a threshold.
type ContentRule struct {
	ID        string
	Name      string
	Category  classifier.Category
	Action    ContentAction
	Threshold float64
	Enabled   bool
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NewContentRule builds an enabled rule with a clamped threshold.
func NewContentRule(id, name string, category classifier.Category, action ContentAction, threshold float64) *ContentRule {
	return &ContentRule{ID: id, Name: name, Category: category, Action: action, Threshold: clampUnit(threshold), Enabled: true}
}

// BlockRule is a convenience constructor for a blocking content rule.
func BlockRule(id string, category classifier.Category, threshold float64) *ContentRule {
	return NewContentRule(id, id, category, ActionBlock, threshold)
}

// WarnRule is a convenience constructor for a warning content rule.
func WarnRule(id string, category classifier.Category, threshold float64) *ContentRule {
	return NewContentRule(id, id, category, ActionWarn, threshold)
}

// AllowRule never blocks or warns (threshold 0). It does not override a
// block or warn from another rule: the most restrictive matching action
// wins (block > warn > allow).
func AllowRule(id string, category classifier.Category) *ContentRule {
	return NewContentRule(id, id, category, ActionAllow, 0)
}

// Matches reports the action this rule prescribes for the given category
// match, or (_, false) if the rule doesn't apply.
func (r *ContentRule) Matches(category classifier.Category, confidence float64) (ContentAction, bool) {
	if !r.Enabled {
		return 0, false
	}
	if r.Category == category && confidence >= r.Threshold {
		return r.Action, true
	}
	return 0, false
}

// ContentRuleResult is the outcome of a rule firing against a match.
type ContentRuleResult struct {
	RuleID     string
	RuleName   string
	Category   classifier.Category
	Confidence float64
	Action     ContentAction
}

// ContentRuleSet is an evaluable, ordered collection of content rules.
type ContentRuleSet struct {
	Rules []*ContentRule
}

// NewContentRuleSet returns an empty set.
func NewContentRuleSet() *ContentRuleSet { return &ContentRuleSet{} }

// FamilySafeDefaults blocks every harmful category at conservative thresholds.
func FamilySafeDefaults() *ContentRuleSet {
	return &ContentRuleSet{Rules: []*ContentRule{
		BlockRule("violence_block", classifier.CategoryViolence, 0.7),
		BlockRule("selfharm_block", classifier.CategorySelfHarm, 0.5),
		BlockRule("adult_block", classifier.CategoryAdult, 0.7),
		BlockRule("jailbreak_block", classifier.CategoryJailbreak, 0.8),
		BlockRule("hate_block", classifier.CategoryHate, 0.7),
		BlockRule("illegal_block", classifier.CategoryIllegal, 0.7),
	}}
}

// PermissiveDefaults warns instead of blocking, except self-harm which
// always blocks regardless of profile permissiveness.
func PermissiveDefaults() *ContentRuleSet {
	return &ContentRuleSet{Rules: []*ContentRule{
		WarnRule("violence_warn", classifier.CategoryViolence, 0.8),
		BlockRule("selfharm_block", classifier.CategorySelfHarm, 0.5),
		WarnRule("adult_warn", classifier.CategoryAdult, 0.8),
		WarnRule("jailbreak_warn", classifier.CategoryJailbreak, 0.9),
		WarnRule("hate_warn", classifier.CategoryHate, 0.8),
		WarnRule("illegal_warn", classifier.CategoryIllegal, 0.8),
	}}
}

// AddRule appends a rule to the set.
func (s *ContentRuleSet) AddRule(r *ContentRule) { s.Rules = append(s.Rules, r) }

// RemoveRule removes a rule by ID, reporting whether one was found.
func (s *ContentRuleSet) RemoveRule(id string) bool {
	for i, r := range s.Rules {
		if r.ID == id {
			s.Rules = append(s.Rules[:i], s.Rules[i+1:]...)
			return true
		}
	}
	return false
}

// GetRule looks up a rule by ID.
func (s *ContentRuleSet) GetRule(id string) *ContentRule {
	for _, r := range s.Rules {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// SetRuleEnabled toggles a rule by ID, reporting whether it was found.
func (s *ContentRuleSet) SetRuleEnabled(id string, enabled bool) bool {
	if r := s.GetRule(id); r != nil {
		r.Enabled = enabled
		return true
	}
	return false
}

// SetRuleThreshold updates a rule's threshold by ID, clamping to [0,1].
func (s *ContentRuleSet) SetRuleThreshold(id string, threshold float64) bool {
	if r := s.GetRule(id); r != nil {
		r.Threshold = clampUnit(threshold)
		return true
	}
	return false
}

// RulesForCategory returns every rule targeting the given category.
func (s *ContentRuleSet) RulesForCategory(category classifier.Category) []*ContentRule {
	var out []*ContentRule
	for _, r := range s.Rules {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// Evaluate checks a single category match against every rule and returns
// the most restrictive result (Block > Warn > Allow), or nil if nothing matched.
func (s *ContentRuleSet) Evaluate(category classifier.Category, confidence float64) *ContentRuleResult {
	var results []ContentRuleResult
	for _, r := range s.Rules {
		if action, ok := r.Matches(category, confidence); ok {
			results = append(results, ContentRuleResult{
				RuleID: r.ID, RuleName: r.Name, Category: category, Confidence: confidence, Action: action,
			})
		}
	}
	if len(results) == 0 {
		return nil
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Action.priority() < results[j].Action.priority() })
	return &results[0]
}

// categoryConfidence pairs a category with the confidence to evaluate it at.
type categoryConfidence struct {
	Category   classifier.Category
	Confidence float64
}

// EvaluateAll evaluates every match and returns all firing results, sorted
// by action priority with blocks first.
func (s *ContentRuleSet) EvaluateAll(matches []categoryConfidence) []ContentRuleResult {
	var results []ContentRuleResult
	for _, m := range matches {
		if r := s.Evaluate(m.Category, m.Confidence); r != nil {
			results = append(results, *r)
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Action.priority() < results[j].Action.priority() })
	return results
}

// MostRestrictiveAction returns the highest-priority action across all
// matches, or nil if nothing fired.
func (s *ContentRuleSet) MostRestrictiveAction(matches []categoryConfidence) *ContentAction {
	results := s.EvaluateAll(matches)
	if len(results) == 0 {
		return nil
	}
	return &results[0].Action
}

// ShouldBlock reports whether any match resolves to a block.
func (s *ContentRuleSet) ShouldBlock(matches []categoryConfidence) bool {
	a := s.MostRestrictiveAction(matches)
	return a != nil && *a == ActionBlock
}
