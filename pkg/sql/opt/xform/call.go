// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/norm"
	"github.com/cockroachdb/relopt/pkg/sql/opt/pattern"
)

// Call is one invocation of a rule: the rule, the nodes bound by its
// pattern, and the alternatives the rule has produced so far. A Call lives
// for the duration of a single OnMatch.
type Call struct {
	ctx      context.Context
	rule     Rule
	bindings pattern.Bindings
	f        *norm.Factory
	funcs    *CustomFuncs
	results  []memo.RelExpr
}

func (c *Call) init(
	ctx context.Context,
	rule Rule,
	bindings pattern.Bindings,
	f *norm.Factory,
	funcs *CustomFuncs,
) {
	// This initialization pattern ensures that fields are not unwittingly
	// reused. Field reuse must be explicit.
	*c = Call{ctx: ctx, rule: rule, bindings: bindings, f: f, funcs: funcs}
}

// Context returns the context of the planning session.
func (c *Call) Context() context.Context {
	return c.ctx
}

// Rule returns the rule being fired.
func (c *Call) Rule() Rule {
	return c.rule
}

// Node returns the node that the root operand of the pattern matched.
func (c *Call) Node() memo.RelExpr {
	return c.bindings[0]
}

// Rel returns the node bound by the ith operand of the pattern, counting in
// pre-order from the root.
func (c *Call) Rel(i int) memo.RelExpr {
	if i < 0 || i >= len(c.bindings) {
		panic(errors.AssertionFailedf(
			"rule %s: operand %d out of range, pattern binds %d", c.rule.Name(), i, len(c.bindings),
		))
	}
	return c.bindings[i]
}

// NumRels returns the number of bound operands.
func (c *Call) NumRels() int {
	return len(c.bindings)
}

// Factory returns the builder of replacement subtrees.
func (c *Call) Factory() *norm.Factory {
	return c.f
}

// CustomFuncs returns the helpers shared by the rules.
func (c *Call) CustomFuncs() *CustomFuncs {
	return c.funcs
}

// TransformTo reports alternatives that compute the same rows as the
// matched node. An alternative with a different row type is an assertion
// failure: the rule that built it is broken.
func (c *Call) TransformTo(alts ...memo.RelExpr) {
	node := c.Node()
	for _, alt := range alts {
		if !alt.RowType().Equals(node.RowType()) {
			panic(errors.AssertionFailedf(
				"rule %s produced %s with row type %s, expected %s",
				c.rule.Name(), alt.Op(), alt.RowType(), node.RowType(),
			))
		}
		c.results = append(c.results, alt)
	}
}

// Alternatives returns the alternatives reported so far.
func (c *Call) Alternatives() []memo.RelExpr {
	return c.results
}
