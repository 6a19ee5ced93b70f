package ruleengine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/sujitn/aegis/internal/classifier"
)

// celEvalTimeout bounds a single predicate evaluation so a pathological
// expression can't stall the proxy's decision path.
const celEvalTimeout = 200 * time.Millisecond

// celCostLimit caps the CEL runtime cost budget per evaluation.
const celCostLimit = 10_000

// CELRule is a parent-authored custom predicate over a category match,
// evaluated by a CELRuleSet; Engine.Evaluate does not consult CEL rules,
// only its time rules and ContentRule set. Lets a parent
// express conditions the built-in rule shape can't, e.g. combining two
// categories or checking the hour without a time rule.
type CELRule struct {
	ID         string
	Name       string
	Action     ContentAction
	Expression string
	Enabled    bool

	program cel.Program
}

// celEnv declares the variables a CEL expression may reference: the
// category name, its confidence, and the current hour of day.
func celEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("category", cel.StringType),
		cel.Variable("confidence", cel.DoubleType),
		cel.Variable("hour", cel.IntType),
	)
}

// NewCELRule compiles expression against the fixed policy environment.
// Example expression: `category == "adult" && confidence > 0.6`.
func NewCELRule(id, name string, action ContentAction, expression string) (*CELRule, error) {
	env, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cel rule %q: compile: %w", id, issues.Err())
	}
	prg, err := env.Program(ast, cel.EvalOptions(cel.OptOptimize), cel.CostLimit(celCostLimit))
	if err != nil {
		return nil, fmt.Errorf("cel rule %q: program: %w", id, err)
	}
	return &CELRule{ID: id, Name: name, Action: action, Expression: expression, Enabled: true, program: prg}, nil
}

// Evaluate runs the predicate against a single category match at a given
// hour of day, returning the rule's action if the predicate is true.
func (r *CELRule) Evaluate(category classifier.Category, confidence float64, hour int) (ContentAction, bool, error) {
	if !r.Enabled {
		return 0, false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), celEvalTimeout)
	defer cancel()

	out, _, err := r.program.ContextEval(ctx, map[string]any{
		"category":   string(category),
		"confidence": confidence,
		"hour":       hour,
	})
	if err != nil {
		return 0, false, fmt.Errorf("cel rule %q: eval: %w", r.ID, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return 0, false, fmt.Errorf("cel rule %q: expression did not return bool, got %T", r.ID, out.Value())
	}
	if !matched {
		return 0, false, nil
	}
	return r.Action, true, nil
}

// CELRuleSet evaluates a collection of custom predicate rules, falling
// back to the caller's fixed-threshold evaluation when none matches.
type CELRuleSet struct {
	Rules []*CELRule
}

// Evaluate runs every enabled CEL rule and returns the first match, in
// registration order. A malformed rule logs nothing here — compile errors
// are caught at NewCELRule time, so only runtime errors surface, and those
// are treated as non-matches to keep the fail-open-at-the-predicate-level
// contract (a broken predicate never silently blocks).
func (s *CELRuleSet) Evaluate(category classifier.Category, confidence float64, hour int) (*ContentAction, string) {
	for _, r := range s.Rules {
		action, matched, err := r.Evaluate(category, confidence, hour)
		if err != nil || !matched {
			continue
		}
		return &action, r.ID
	}
	return nil, ""
}
