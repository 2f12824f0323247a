// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package xform contains the rule engine: the rule registry, the dispatcher
// that fires rules on operator trees, the built-in transformation rules and
// the search driver that explores a memo and extracts the cheapest plan.
package xform

import (
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/norm"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/relopt/pkg/sql/opt/splitter"
)

// CustomFuncs contains the match and replace helpers used by the
// transformation rules. The unnamed norm.CustomFuncs allows CustomFuncs to
// provide a clean interface for calling functions from both the xform and
// norm packages using the same struct.
type CustomFuncs struct {
	norm.CustomFuncs
	f *norm.Factory
}

// Init initializes a new CustomFuncs with the given factory.
func (c *CustomFuncs) Init(f *norm.Factory) {
	// This initialization pattern ensures that fields are not unwittingly
	// reused. Field reuse must be explicit.
	*c = CustomFuncs{
		f: f,
	}
	c.CustomFuncs.Init(f)
}

// ----------------------------------------------------------------------
//
// Window functions
//   Helpers used to move windowed aggregates into Window operators.
//
// ----------------------------------------------------------------------

// HasWindowCalls returns true if any of the expressions contains a windowed
// aggregate call.
func (c *CustomFuncs) HasWindowCalls(exprs []opt.ScalarExpr) bool {
	for _, e := range exprs {
		if memo.ContainsWindowCall(e) {
			return true
		}
	}
	return false
}

// SplitWindowedCalc splits a Calc whose program evaluates windowed
// aggregates into a stack of Calc and Window operators. If handle is not nil
// it is applied to every stage operator as it is built. The result is nil if
// the program cannot be split.
func (c *CustomFuncs) SplitWindowedCalc(
	calc *memo.CalcExpr, handle func(memo.RelExpr) memo.RelExpr,
) (memo.RelExpr, error) {
	s := splitter.New(splitter.CalcRelType, splitter.WindowedAggRelType)
	s.Handle = handle
	return s.Execute(calc)
}

// CalcToFilterProject re-expresses a Calc operator as a Project over a
// Filter, dropping either when it would be a no-op. Other operators are
// returned unchanged.
func (c *CustomFuncs) CalcToFilterProject(rel memo.RelExpr) memo.RelExpr {
	calc, ok := rel.(*memo.CalcExpr)
	if !ok {
		return rel
	}
	p := calc.Program
	input := calc.Input
	if p.HasCondition() {
		input = c.f.ConstructFilterOrInput(input, p.ExpandLocalRefs(p.Condition()))
	}
	projections := make([]opt.ScalarExpr, len(p.Projects()))
	for i, item := range p.Projects() {
		projections[i] = p.ExpandLocalRefs(item.Index)
	}
	return c.f.ConstructProjectOrInput(input, projections, p.OutputType().FieldNames())
}

// ----------------------------------------------------------------------
//
// Implementation functions
//   Helpers used to implement logical operators in a convention.
//
// ----------------------------------------------------------------------

// ProgramOf returns a normalized program that evaluates the projections, and
// the condition if it is not nil, over the input row type.
func (c *CustomFuncs) ProgramOf(
	input opt.RowType, projections []opt.ScalarExpr, names []string, condition opt.ScalarExpr,
) *memo.Program {
	return memo.BuildProgram(input, projections, names, condition).Normalize()
}

// CanImplementEnumerable returns true if the logical operator has an
// enumerable implementation. Windowed aggregates are only evaluated by
// Window operators.
func (c *CustomFuncs) CanImplementEnumerable(e memo.RelExpr) bool {
	switch t := e.(type) {
	case *memo.ProjectExpr:
		return !c.HasWindowCalls(t.Projections)
	case *memo.CalcExpr:
		return !t.Program.ContainsWindowCalls()
	case *memo.ScanExpr:
		return t.Table.Convention == physical.None
	}
	return true
}

// IsPassthrough returns true if the projections pass the input through
// unchanged, in order.
func (c *CustomFuncs) IsPassthrough(projections []opt.ScalarExpr, input opt.RowType) bool {
	fields, ok := c.ProjectedFields(projections)
	if !ok || len(fields) != len(input) {
		return false
	}
	for i, f := range fields {
		if f != i {
			return false
		}
	}
	return true
}

// AllFields returns the ordinals of every field of a row type.
func (c *CustomFuncs) AllFields(rowType opt.RowType) []int {
	res := make([]int, len(rowType))
	for i := range res {
		res[i] = i
	}
	return res
}

// IsEmptyCondition returns true if the condition can never be true: it is
// the constant false or NULL.
func (c *CustomFuncs) IsEmptyCondition(condition opt.ScalarExpr) bool {
	if memo.IsFalse(condition) {
		return true
	}
	lit, ok := condition.(*memo.LiteralExpr)
	return ok && lit.IsNull()
}
