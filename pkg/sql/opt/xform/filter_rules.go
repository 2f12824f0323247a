// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/pattern"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
)

// RemoveTrivialFilter replaces a Filter whose condition is the constant true
// by its input.
var RemoveTrivialFilter = NewRule(
	"RemoveTrivialFilter",
	pattern.Any(opt.FilterOp).
		WithConvention(physical.None).
		WithGuard(func(e memo.RelExpr) bool {
			return memo.IsTrue(e.(*memo.FilterExpr).Condition)
		}),
	nil, /* guard */
	func(call *Call) {
		call.TransformTo(call.Node().(*memo.FilterExpr).Input)
	},
)

// ReduceFilterExpressions folds the constant subexpressions of a Filter
// condition. A condition that folds to true leaves the input; one that can
// never be true yields an empty relation. The rule produces nothing when no
// subexpression folds, which is always the case for a condition that is
// already a constant.
var ReduceFilterExpressions = NewRule(
	"ReduceFilterExpressions",
	pattern.Any(opt.FilterOp).WithConvention(physical.None),
	nil, /* guard */
	func(call *Call) {
		c := call.CustomFuncs()
		f := call.Factory()
		filter := call.Node().(*memo.FilterExpr)

		folded, ok := c.FoldConstants(filter.Condition)
		if !ok {
			return
		}
		switch {
		case memo.IsTrue(folded):
			call.TransformTo(filter.Input)
		case c.IsEmptyCondition(folded):
			call.TransformTo(f.ConstructValues(filter.RowType(), nil /* rows */))
		default:
			call.TransformTo(f.ConstructFilter(filter.Input, folded))
		}
	},
)
