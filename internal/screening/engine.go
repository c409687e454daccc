// Package screening provides a CEL-based rule layer evaluated alongside
// the classifier. Matches contribute reasons to flagged-transaction events
// but never override the classifier verdict.
package screening

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/samarth3301/payment-simulator/internal/domain"
)

// Engine compiles and evaluates screening rules.
type Engine struct {
	mu       sync.RWMutex
	env      *cel.Env
	compiled map[string]*compiledRule
}

type compiledRule struct {
	rule    *domain.ScreeningRule
	program cel.Program
}

// Input is the transaction view exposed to rule expressions.
type Input struct {
	Amount        float64
	Hour          int
	SenderUPI     string
	ReceiverUPI   string
	VelocityCount int64
}

// NewEngine creates a screening engine with the transaction variables
// rules may reference.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("hour", cel.IntType),
		cel.Variable("sender_upi", cel.StringType),
		cel.Variable("receiver_upi", cel.StringType),
		cel.Variable("velocity_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		compiled: make(map[string]*compiledRule),
	}, nil
}

// LoadRule compiles and loads a rule. Expressions must produce a bool.
func (e *Engine) LoadRule(rule *domain.ScreeningRule) error {
	compiled, err := e.compile(rule)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled[rule.ID] = compiled
	return nil
}

// ReloadRules replaces all loaded rules with the given set. Disabled
// rules are skipped.
func (e *Engine) ReloadRules(rules []*domain.ScreeningRule) error {
	next := make(map[string]*compiledRule, len(rules))
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		compiled, err := e.compile(rule)
		if err != nil {
			return err
		}
		next[rule.ID] = compiled
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled = next
	return nil
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// Evaluate runs every loaded rule against the input and returns the
// matches. A rule that errors at evaluation time is logged and skipped;
// screening is advisory and must not fail the transition.
func (e *Engine) Evaluate(in *Input) []domain.ScreeningMatch {
	e.mu.RLock()
	rules := make([]*compiledRule, 0, len(e.compiled))
	for _, r := range e.compiled {
		rules = append(rules, r)
	}
	e.mu.RUnlock()

	activation := map[string]any{
		"amount":         in.Amount,
		"hour":           in.Hour,
		"sender_upi":     in.SenderUPI,
		"receiver_upi":   in.ReceiverUPI,
		"velocity_count": in.VelocityCount,
	}

	var matches []domain.ScreeningMatch
	for _, r := range rules {
		out, _, err := r.program.Eval(activation)
		if err != nil {
			slog.Warn("screening rule evaluation failed", "rule_id", r.rule.ID, "error", err)
			continue
		}
		if b, ok := out.(types.Bool); ok && bool(b) {
			matches = append(matches, domain.ScreeningMatch{
				RuleID: r.rule.ID,
				Reason: r.rule.Reason,
			})
		}
	}

	return matches
}

func (e *Engine) compile(rule *domain.ScreeningRule) (*compiledRule, error) {
	if rule == nil || rule.ID == "" || rule.Expression == "" {
		return nil, fmt.Errorf("rule id and expression are required")
	}

	ast, issues := e.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", rule.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", rule.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.ID, err)
	}

	return &compiledRule{rule: rule, program: program}, nil
}
