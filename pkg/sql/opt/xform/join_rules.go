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

// joinToCorrelate turns a join into a correlation: the right input is
// evaluated once per left row, filtered by the join condition in which the
// references to the left row have become field accesses on the correlation
// variable.
//
// Right and full joins are not converted, since a correlation cannot
// produce the right rows that have no match.
type joinToCorrelate struct {
	RuleBase
}

// JoinToCorrelate is the rule that converts inner and left joins into
// Correlate operators.
var JoinToCorrelate Rule = &joinToCorrelate{
	RuleBase: MakeRuleBase("JoinToCorrelate", pattern.Any(opt.JoinOp).WithConvention(physical.None)),
}

// Matches is part of the Rule interface.
func (r *joinToCorrelate) Matches(call *Call) bool {
	switch call.Node().(*memo.JoinExpr).JoinType {
	case memo.InnerJoin, memo.LeftJoin:
		return true
	}
	return false
}

// OnMatch is part of the Rule interface.
func (r *joinToCorrelate) OnMatch(call *Call) {
	f := call.Factory()
	join := call.Node().(*memo.JoinExpr)

	id := f.NewCorrelationID()
	condition := call.CustomFuncs().CorrelateLeftRefs(join.Condition, join.Left.RowType(), id)
	right := f.ConstructFilterOrInput(join.Right, condition)
	call.TransformTo(f.ConstructCorrelate(join.Left, right, id, join.JoinType))
}
