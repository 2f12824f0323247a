// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/norm"
	"github.com/cockroachdb/relopt/pkg/sql/opt/optconfig"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/relopt/pkg/util/log"
)

// sessionCounter numbers planning sessions for log tags.
var sessionCounter int64

// stoppedEarlyEvery limits how often sessions that ran out of exploration
// passes are reported as warnings.
var stoppedEarlyEvery = log.Every(10 * time.Second)

// Optimizer drives a planning session. It records an operator tree in a
// memo, fires the registered rules on every expression of the memo until no
// new expression appears, and then extracts the cheapest plan that provides
// the required convention.
//
// Rules only see the concrete input trees of the expressions they match;
// alternatives of an input are reached because every alternative is itself
// explored. An Optimizer is not safe for concurrent use.
type Optimizer struct {
	ctx     context.Context
	reg     *Registry
	cfg     *optconfig.Config
	f       norm.Factory
	mem     memo.Memo
	d       Dispatcher
	coster  Coster
	metrics *Metrics

	matchedRule MatchedRuleFunc
	appliedRule AppliedRuleFunc

	// optState stores the best expression of each (group, convention) pair
	// costed so far.
	optState

	// explored records the expressions that every candidate rule has already
	// been fired on.
	explored map[memo.RelExpr]bool
}

// Init initializes the Optimizer with a new, blank memo structure inside.
// This must be called before the optimizer can be used (or reused). Rules
// named by cfg.DisabledRules are left out of the registry; a nil cfg means
// the default configuration.
func (o *Optimizer) Init(ctx context.Context, reg *Registry, cfg *optconfig.Config) error {
	if cfg == nil {
		cfg = optconfig.Default()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	filtered, err := reg.Filtered(cfg.DisabledRules)
	if err != nil {
		return err
	}
	ctx = logtags.AddTag(ctx, "opt", atomic.AddInt64(&sessionCounter, 1))

	// This initialization pattern ensures that fields are not unwittingly
	// reused. Field reuse must be explicit.
	*o = Optimizer{
		ctx:      ctx,
		reg:      filtered,
		cfg:      cfg,
		coster:   DefaultCoster{},
		explored: make(map[memo.RelExpr]bool),
	}
	o.f.Init(ctx)
	o.mem.Init()
	o.optState.init()
	o.initDispatcher()
	return nil
}

func (o *Optimizer) initDispatcher() {
	o.d.Init(o.ctx, o.reg, &o.f, o.metrics)
	o.d.NotifyOnMatchedRule(o.matchedRule)
	o.d.NotifyOnAppliedRule(o.appliedRule)
}

// SetCoster overrides the default coster.
func (o *Optimizer) SetCoster(coster Coster) {
	o.coster = coster
}

// SetMetrics makes the optimizer count rule firings in m.
func (o *Optimizer) SetMetrics(m *Metrics) {
	o.metrics = m
	o.initDispatcher()
}

// NotifyOnMatchedRule sets a callback that is invoked each time a rule
// matches during exploration. If the callback returns false, the rule is
// not run. This can be used to disable rules or to record which rules ran.
func (o *Optimizer) NotifyOnMatchedRule(fn MatchedRuleFunc) {
	o.matchedRule = fn
	o.d.NotifyOnMatchedRule(fn)
}

// NotifyOnAppliedRule sets a callback that is invoked each time a rule has
// run during exploration.
func (o *Optimizer) NotifyOnAppliedRule(fn AppliedRuleFunc) {
	o.appliedRule = fn
	o.d.NotifyOnAppliedRule(fn)
}

// Memo returns the memo of the planning session.
func (o *Optimizer) Memo() *memo.Memo {
	return &o.mem
}

// Factory returns the factory that builds the expressions of the session.
func (o *Optimizer) Factory() *norm.Factory {
	return &o.f
}

// Explore records root in the memo and fires the registered rules until no
// rule adds an expression, or until the configured number of passes has
// run. It returns the group of root.
func (o *Optimizer) Explore(root memo.RelExpr) (_ memo.GroupID, err error) {
	// Rules signal invariant violations by panicking.
	defer func() {
		if r := recover(); r != nil {
			err = opt.CatchOptimizerError(r)
		}
	}()
	return o.explore(root), nil
}

func (o *Optimizer) explore(root memo.RelExpr) memo.GroupID {
	o.f.ReserveCorrelationIDs(root)
	rootGroup := o.mem.Memoize(root)

	maxPasses := o.cfg.Iterations()
	for pass := 1; ; pass++ {
		var pending []memo.RelExpr
		for _, grp := range o.mem.Groups() {
			for _, e := range o.mem.Exprs(grp) {
				if !o.explored[e] {
					pending = append(pending, e)
				}
			}
		}
		if len(pending) == 0 {
			log.VEventf(o.ctx, 1, "exploration converged after %d passes", pass-1)
			break
		}
		if pass > maxPasses {
			if stoppedEarlyEvery.ShouldLog() {
				log.Warningf(o.ctx, "exploration stopped after %d passes with %d expressions unexplored",
					maxPasses, len(pending))
			} else {
				log.VEventf(o.ctx, 1, "exploration stopped after %d passes with %d expressions unexplored",
					maxPasses, len(pending))
			}
			break
		}

		before := o.mem.NumExprs()
		for _, e := range pending {
			o.explored[e] = true
			for _, alt := range o.d.FireApplicable(e) {
				o.mem.RegisterEquivalent(e, alt)
			}
		}
		log.VEventf(o.ctx, 2, "exploration pass %d: %d expressions explored, %d added",
			pass, len(pending), o.mem.NumExprs()-before)
	}
	return rootGroup
}

// Optimize explores root and returns the cheapest equivalent plan whose
// root provides the required convention. Each input of the plan is in the
// convention its parent requires of it.
//
// An error is returned if no such plan exists, or if a rule violated an
// invariant of the memo.
func (o *Optimizer) Optimize(
	root memo.RelExpr, required physical.Convention,
) (_ memo.RelExpr, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = opt.CatchOptimizerError(r)
		}
	}()

	rootGroup := o.explore(root)
	state := o.optimizeGroup(rootGroup, required)
	if state.best == nil {
		return nil, errors.WithHint(
			errors.Newf("no plan for %s provides convention %s", root.Op(), required),
			"register rules that implement the operators of the tree in that convention",
		)
	}
	log.VEventf(o.ctx, 1, "best plan for G%d in %s costs %.2f",
		rootGroup, required, float64(state.cost))
	return o.extract(rootGroup, required, make(map[groupStateKey]bool)), nil
}

// optimizeGroup finds the cheapest expression of the group that provides
// the required convention. The group's state is returned even if no
// expression qualifies, in which case its best expression is nil.
func (o *Optimizer) optimizeGroup(grp memo.GroupID, required physical.Convention) *groupState {
	state := o.ensureOptState(grp, required)
	if state.fullyOptimized {
		return state
	}
	if state.inProgress {
		// The group requires itself, through the inputs of one of its
		// expressions. Use the best expression found so far.
		o.cycles++
		return state
	}

	state.inProgress = true
	cycles := o.cycles
	for _, e := range o.mem.Exprs(grp) {
		if !canProvideConvention(e, required) {
			continue
		}
		if cost, ok := o.optimizeExpr(e); ok {
			o.ratchetCost(state, e, cost)
		}
	}
	state.inProgress = false

	// A group that consulted an in-progress group may have been costed
	// against an estimate that was not final yet.
	if o.cycles == cycles {
		state.markFullyOptimized()
	}
	return state
}

// optimizeExpr returns the cost of e plus the costs of the best expressions
// of its input groups. It returns false if some input group cannot provide
// the convention e requires of it.
func (o *Optimizer) optimizeExpr(e memo.RelExpr) (Cost, bool) {
	cost := o.coster.ComputeCost(e)
	for i, input := range e.Inputs() {
		grp, ok := o.mem.Group(input)
		if !ok {
			panic(errors.AssertionFailedf("input %d of %s is not in the memo", i, e.Op()))
		}
		childState := o.optimizeGroup(grp, buildChildConvention(e, i))
		if childState.best == nil {
			return 0, false
		}
		cost += childState.cost
	}
	return cost, true
}

// extract builds the best plan of the group from the best expressions of the
// groups it requires, recursively.
func (o *Optimizer) extract(
	grp memo.GroupID, required physical.Convention, visiting map[groupStateKey]bool,
) memo.RelExpr {
	key := groupStateKey{group: grp, required: required}
	state := o.lookupOptState(grp, required)
	if state == nil || state.best == nil {
		panic(errors.AssertionFailedf("no best expression for G%d in %s", grp, required))
	}
	if visiting[key] {
		panic(errors.AssertionFailedf("best plan for G%d in %s requires itself", grp, required))
	}
	visiting[key] = true
	defer delete(visiting, key)

	best := state.best
	inputs := best.Inputs()
	if len(inputs) == 0 {
		return best
	}
	newInputs := make([]memo.RelExpr, len(inputs))
	changed := false
	for i, input := range inputs {
		inputGroup, _ := o.mem.Group(input)
		newInputs[i] = o.extract(inputGroup, buildChildConvention(best, i), visiting)
		if newInputs[i] != input {
			changed = true
		}
	}
	if !changed {
		return best
	}
	return best.WithChildren(newInputs)
}
