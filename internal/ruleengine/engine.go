package ruleengine

import (
	"time"

	"github.com/sujitn/aegis/internal/classifier"
)

// Action is the unified decision the engine produces after evaluating
// time rules, then content rules, against a classification result.
type Action int

const (
	Allow Action = iota
	Warn
	Block
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Warn:
		return "warn"
	case Block:
		return "block"
	default:
		return "allow"
	}
}

// SourceKind distinguishes which rule family produced a Result.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceTimeRule
	SourceContentRule
)

// Source records which specific rule triggered a Result, if any.
type Source struct {
	Kind          SourceKind
	RuleID        string
	RuleName      string
	ContentResult *ContentRuleResult
}

func (s Source) HasRule() bool         { return s.Kind != SourceNone }
func (s Source) IsTimeRule() bool      { return s.Kind == SourceTimeRule }
func (s Source) IsContentRule() bool   { return s.Kind == SourceContentRule }

// ID returns the triggering rule's ID, or "" if none fired.
func (s Source) ID() string {
	if s.Kind == SourceContentRule && s.ContentResult != nil {
		return s.ContentResult.RuleID
	}
	return s.RuleID
}

// Name returns the triggering rule's name, or "" if none fired.
func (s Source) Name() string {
	if s.Kind == SourceContentRule && s.ContentResult != nil {
		return s.ContentResult.RuleName
	}
	return s.RuleName
}

// Result is the outcome of evaluating the rule engine against a
// classification at a point in time.
type Result struct {
	Action Action
	Source Source
}

// AllowResult is the default outcome when nothing fires.
func AllowResult() Result { return Result{Action: Allow, Source: Source{Kind: SourceNone}} }

// blockedByTime builds a Result from a firing time rule.
func blockedByTime(r *TimeRule) Result {
	return Result{Action: Block, Source: Source{Kind: SourceTimeRule, RuleID: r.ID, RuleName: r.Name}}
}

// fromContentResult builds a Result from a firing content rule.
func fromContentResult(r ContentRuleResult) Result {
	var action Action
	switch r.Action {
	case ActionBlock:
		action = Block
	case ActionWarn:
		action = Warn
	default:
		action = Allow
	}
	return Result{Action: action, Source: Source{Kind: SourceContentRule, ContentResult: &r}}
}

func (r Result) ShouldBlock() bool { return r.Action == Block }
func (r Result) ShouldWarn() bool  { return r.Action == Warn }
func (r Result) ShouldAllow() bool { return r.Action == Allow }

// Engine combines time-based and content-based rules into one decision.
type Engine struct {
	TimeRules    *TimeRuleSet
	ContentRules *ContentRuleSet
	Community    *Manager
}

// New returns an empty engine (default allow on everything).
func New() *Engine {
	return &Engine{TimeRules: NewTimeRuleSet(), ContentRules: NewContentRuleSet(), Community: NewManager()}
}

// WithDefaults seeds the bedtime time rules and family-safe content rules.
func WithDefaults() *Engine {
	return &Engine{TimeRules: DefaultTimeRuleSet(), ContentRules: FamilySafeDefaults(), Community: NewManager()}
}

// WithPermissiveContent seeds the bedtime time rules with warn-only content rules.
func WithPermissiveContent() *Engine {
	return &Engine{TimeRules: DefaultTimeRuleSet(), ContentRules: PermissiveDefaults(), Community: NewManager()}
}

// TimeOnly seeds only the bedtime time rules, with no content filtering.
func TimeOnly() *Engine {
	return &Engine{TimeRules: DefaultTimeRuleSet(), ContentRules: NewContentRuleSet(), Community: NewManager()}
}

// ContentOnly seeds only family-safe content rules, with no time restriction.
func ContentOnly() *Engine {
	return &Engine{TimeRules: NewTimeRuleSet(), ContentRules: FamilySafeDefaults(), Community: NewManager()}
}

// Evaluate applies the three-step evaluation order against a
// classification at the given day/time:
//
//  1. Time rules — if any blocks, return immediately.
//  2. Content rules — evaluated against every category match.
//  3. Default allow.
func (e *Engine) Evaluate(result classifier.ClassificationResult, day Weekday, t TimeOfDay) Result {
	if blocking := e.TimeRules.BlockingRules(day, t); len(blocking) > 0 {
		return blockedByTime(blocking[0])
	}

	if len(result.Matches) > 0 {
		matches := make([]categoryConfidence, 0, len(result.Matches))
		for _, m := range result.Matches {
			matches = append(matches, categoryConfidence{Category: m.Category, Confidence: m.Confidence})
		}
		if results := e.ContentRules.EvaluateAll(matches); len(results) > 0 {
			return fromContentResult(results[0])
		}
	}

	return AllowResult()
}

// EvaluateNow evaluates at the current local time.
func (e *Engine) EvaluateNow(result classifier.ClassificationResult) Result {
	now := time.Now()
	return e.Evaluate(result, FromTime(now.Weekday()), FromClock(now))
}

// IsTimeBlocked reports whether time rules alone (ignoring content) block
// at the given day/time.
func (e *Engine) IsTimeBlocked(day Weekday, t TimeOfDay) bool {
	return e.TimeRules.IsBlocked(day, t)
}

// IsTimeBlockedNow reports whether time rules block right now.
func (e *Engine) IsTimeBlockedNow() bool {
	return e.TimeRules.IsBlockedNow()
}
