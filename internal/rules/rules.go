// Package rules compiles provider-scoped categorisation rules into matchers.
package rules

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/jask/jaskbills/internal/database/repository"
)

// Input is what a rule sees of a bill.
type Input struct {
	Description string
	AmountCents int64
	Date        time.Time
}

// Matcher reports whether a bill satisfies a rule.
type Matcher interface {
	Match(in Input) (bool, error)
}

type exactMatcher string

func (m exactMatcher) Match(in Input) (bool, error) {
	return strings.EqualFold(strings.TrimSpace(in.Description), string(m)), nil
}

type containsMatcher string

func (m containsMatcher) Match(in Input) (bool, error) {
	return strings.Contains(strings.ToUpper(in.Description), string(m)), nil
}

type exprMatcher struct {
	program *vm.Program
}

func (m exprMatcher) Match(in Input) (bool, error) {
	out, err := expr.Run(m.program, env(in))
	if err != nil {
		return false, err
	}
	b, _ := out.(bool)
	return b, nil
}

// env exposes amount in dollars and cents, the description and the bill date.
func env(in Input) map[string]any {
	return map[string]any{
		"description": in.Description,
		"amount":      float64(in.AmountCents) / 100,
		"cents":       in.AmountCents,
		"date":        in.Date,
	}
}

// Compile builds the matcher for r.
func Compile(r repository.Rule) (Matcher, error) {
	pattern := strings.TrimSpace(r.Pattern)
	if pattern == "" {
		return nil, fmt.Errorf("rule %q: pattern is empty", r.Name)
	}
	switch r.PatternType {
	case repository.PatternExact:
		return exactMatcher(pattern), nil
	case repository.PatternContains:
		return containsMatcher(strings.ToUpper(pattern)), nil
	case repository.PatternExpr:
		program, err := expr.Compile(pattern, expr.Env(env(Input{})), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		return exprMatcher{program: program}, nil
	default:
		return nil, fmt.Errorf("rule %q: unknown pattern type %q", r.Name, r.PatternType)
	}
}

type compiledRule struct {
	rule    repository.Rule
	matcher Matcher
}

// Set is a provider's rules compiled once, kept in priority order.
type Set struct {
	rules []compiledRule
}

// NewSet compiles the enabled rules in rs, which is expected in priority
// order. Rules that fail to compile are logged and left out.
func NewSet(rs []repository.Rule) Set {
	var set Set
	for _, r := range rs {
		if !r.Enabled {
			continue
		}
		m, err := Compile(r)
		if err != nil {
			slog.Warn("rules: skip rule", "rule", r.Name, "err", err)
			continue
		}
		set.rules = append(set.rules, compiledRule{rule: r, matcher: m})
	}
	return set
}

// Len reports how many rules compiled.
func (s Set) Len() int { return len(s.rules) }

// First returns the first rule that matches in. Rules that fail to evaluate are skipped.
func (s Set) First(in Input) *repository.Rule {
	for i := range s.rules {
		c := &s.rules[i]
		ok, err := c.matcher.Match(in)
		if err != nil {
			slog.Warn("rules: evaluate", "rule", c.rule.Name, "err", err)
			continue
		}
		if ok {
			r := c.rule
			return &r
		}
	}
	return nil
}
