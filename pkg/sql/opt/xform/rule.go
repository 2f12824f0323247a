// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import "github.com/cockroachdb/relopt/pkg/sql/opt/pattern"

// Rule is a transformation of operator trees. A rule names the shape of the
// subtree it applies to with a pattern; when the pattern matches, Matches is
// consulted, and OnMatch reports zero or more equivalent alternatives through
// Call.TransformTo.
//
// Rules are stateless and may be fired concurrently by independent planning
// sessions. Producing no alternative is a normal outcome, not an error.
type Rule interface {
	// Name identifies the rule in logs, metrics and configuration.
	Name() string

	// Pattern returns the operand tree that a node must match for the rule
	// to fire.
	Pattern() *pattern.Operand

	// Matches is a pre-check run after a successful pattern match and before
	// OnMatch. Returning false skips the rule for this match.
	Matches(call *Call) bool

	// OnMatch transforms the bound operands, reporting alternatives with
	// call.TransformTo.
	OnMatch(call *Call)
}

// RuleBase supplies the name and pattern of a rule, and a Matches method
// that accepts every match. Rules embed it and implement OnMatch.
type RuleBase struct {
	name    string
	pattern *pattern.Operand
}

// MakeRuleBase returns a RuleBase with the given name and pattern.
func MakeRuleBase(name string, p *pattern.Operand) RuleBase {
	return RuleBase{name: name, pattern: p}
}

// Name is part of the Rule interface.
func (r RuleBase) Name() string { return r.name }

// Pattern is part of the Rule interface.
func (r RuleBase) Pattern() *pattern.Operand { return r.pattern }

// Matches is part of the Rule interface.
func (r RuleBase) Matches(*Call) bool { return true }

func (r RuleBase) String() string { return r.name }

// funcRule is a rule built from functions.
type funcRule struct {
	RuleBase
	guard     func(call *Call) bool
	transform func(call *Call)
}

// NewRule returns a rule that fires transform on every match of the pattern
// for which guard returns true. A nil guard accepts every match.
func NewRule(
	name string, p *pattern.Operand, guard func(call *Call) bool, transform func(call *Call),
) Rule {
	return &funcRule{RuleBase: MakeRuleBase(name, p), guard: guard, transform: transform}
}

// Matches is part of the Rule interface.
func (r *funcRule) Matches(call *Call) bool {
	return r.guard == nil || r.guard(call)
}

// OnMatch is part of the Rule interface.
func (r *funcRule) OnMatch(call *Call) {
	r.transform(call)
}
