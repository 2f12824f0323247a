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

// unionToDistinct implements a Union that removes duplicates as an
// Aggregate that groups the rows of the corresponding Union All by every
// field.
type unionToDistinct struct {
	RuleBase
}

// UnionToDistinct is the rule that rewrites Union (distinct) into an
// Aggregate over Union All.
var UnionToDistinct Rule = &unionToDistinct{
	RuleBase: MakeRuleBase("UnionToDistinct", pattern.Any(opt.UnionOp).WithConvention(physical.None)),
}

// OnMatch is part of the Rule interface.
func (r *unionToDistinct) OnMatch(call *Call) {
	union := call.Node().(*memo.UnionExpr)
	if union.All {
		return
	}
	f := call.Factory()
	all := f.ConstructUnion(union.Branches, true /* all */)
	groupBy := call.CustomFuncs().AllFields(all.RowType())
	call.TransformTo(f.ConstructAggregate(all, groupBy, nil /* aggs */))
}
