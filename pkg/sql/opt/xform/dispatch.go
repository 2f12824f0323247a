// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"context"

	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/norm"
	"github.com/cockroachdb/relopt/pkg/sql/opt/pattern"
	"github.com/cockroachdb/relopt/pkg/util/log"
)

// Dispatcher fires the rules of a registry on individual nodes. Every
// candidate rule whose pattern matches is fired; there is no first-match
// selection, and the order of the returned alternatives follows the order in
// which the rules were registered.
//
// A Dispatcher belongs to one planning session. Its factory hands out
// correlation ids that are unique within the session.
type Dispatcher struct {
	ctx     context.Context
	reg     *Registry
	f       *norm.Factory
	funcs   CustomFuncs
	metrics *Metrics

	// matchedRule, if set, is called when a rule's pattern and pre-check
	// have matched. If it returns false, the rule is not run.
	matchedRule MatchedRuleFunc

	// appliedRule, if set, is called after a rule has run.
	appliedRule AppliedRuleFunc
}

// MatchedRuleFunc defines the callback function for the NotifyOnMatchedRule
// event supported by the dispatcher and optimizer. It is invoked each time a
// rule has matched a node. If it returns false, the rule is skipped.
type MatchedRuleFunc func(rule string) bool

// AppliedRuleFunc defines the callback function for the NotifyOnAppliedRule
// event supported by the dispatcher and optimizer. It is invoked each time a
// rule has run, with the node it matched and the alternatives it produced.
type AppliedRuleFunc func(rule string, source memo.RelExpr, alts []memo.RelExpr)

// Init prepares the dispatcher. metrics may be nil.
func (d *Dispatcher) Init(ctx context.Context, reg *Registry, f *norm.Factory, metrics *Metrics) {
	// This initialization pattern ensures that fields are not unwittingly
	// reused. Field reuse must be explicit.
	*d = Dispatcher{ctx: ctx, reg: reg, f: f, metrics: metrics}
	d.funcs.Init(f)
}

// NotifyOnMatchedRule sets a callback that is invoked each time a rule
// matches. It can be used to disable rules or to record which rules ran.
func (d *Dispatcher) NotifyOnMatchedRule(fn MatchedRuleFunc) {
	d.matchedRule = fn
}

// NotifyOnAppliedRule sets a callback that is invoked each time a rule has
// run, including runs that produced no alternatives.
func (d *Dispatcher) NotifyOnAppliedRule(fn AppliedRuleFunc) {
	d.appliedRule = fn
}

// Fire matches one rule against node and, if the pattern matches and the
// rule's pre-check passes, runs the rule. It returns the alternatives the
// rule produced, which may be none.
func (d *Dispatcher) Fire(rule Rule, node memo.RelExpr) []memo.RelExpr {
	bindings, ok := pattern.Match(rule.Pattern(), node)
	if !ok {
		return nil
	}
	d.metrics.recordMatch(rule.Name())

	var call Call
	call.init(d.ctx, rule, bindings, d.f, &d.funcs)
	if !rule.Matches(&call) {
		log.VEventf(d.ctx, 3, "rule %s: pre-check rejected %s", log.Safe(rule.Name()), log.Safe(node.Op()))
		return nil
	}
	if d.matchedRule != nil && !d.matchedRule(rule.Name()) {
		return nil
	}
	rule.OnMatch(&call)

	alts := call.Alternatives()
	if d.appliedRule != nil {
		d.appliedRule(rule.Name(), node, alts)
	}
	d.metrics.recordFire(rule.Name(), len(alts))
	if len(alts) == 0 {
		log.VEventf(d.ctx, 2, "rule %s declined %s", log.Safe(rule.Name()), log.Safe(node.Op()))
	} else {
		log.VEventf(d.ctx, 2, "rule %s produced %d alternatives for %s",
			log.Safe(rule.Name()), len(alts), log.Safe(node.Op()))
	}
	return alts
}

// FireApplicable fires every candidate rule on node and returns all the
// alternatives produced, in registration order. The node itself is not
// part of the result.
func (d *Dispatcher) FireApplicable(node memo.RelExpr) []memo.RelExpr {
	var res []memo.RelExpr
	for _, rule := range d.reg.Candidates(node.Op()) {
		res = append(res, d.Fire(rule, node)...)
	}
	return res
}

// FireApplicable fires the rules of reg on a single node, outside of any
// planning session. Correlation ids are drawn from a fresh factory, above
// any id already used by the node.
func FireApplicable(ctx context.Context, reg *Registry, node memo.RelExpr) []memo.RelExpr {
	var f norm.Factory
	f.Init(ctx)
	f.ReserveCorrelationIDs(node)
	var d Dispatcher
	d.Init(ctx, reg, &f, nil /* metrics */)
	return d.FireApplicable(node)
}
