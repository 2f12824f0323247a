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

// FilterToCalc implements an enumerable Filter as an enumerable Calc whose
// program passes every input field through and has the filter condition.
var FilterToCalc = NewRule(
	"FilterToCalc",
	pattern.Any(opt.FilterOp).WithConvention(physical.Enumerable),
	nil, /* guard */
	func(call *Call) {
		c := call.CustomFuncs()
		filter := call.Node().(*memo.FilterExpr)
		inputType := filter.Input.RowType()
		program := c.ProgramOf(
			inputType, c.IdentityProjections(inputType), c.FieldNames(inputType), filter.Condition,
		)
		calc := call.Factory().ConstructCalc(filter.Input, program)
		call.TransformTo(call.Factory().ConstructInConvention(calc, physical.Enumerable))
	},
)

// ProjectToCalc implements an enumerable Project as an enumerable Calc.
var ProjectToCalc = NewRule(
	"ProjectToCalc",
	pattern.Any(opt.ProjectOp).WithConvention(physical.Enumerable),
	func(call *Call) bool {
		return !call.CustomFuncs().HasWindowCalls(call.Node().(*memo.ProjectExpr).Projections)
	},
	func(call *Call) {
		c := call.CustomFuncs()
		project := call.Node().(*memo.ProjectExpr)
		program := c.ProgramOf(project.Input.RowType(), project.Projections, project.Names, nil /* condition */)
		calc := call.Factory().ConstructCalc(project.Input, program)
		call.TransformTo(call.Factory().ConstructInConvention(calc, physical.Enumerable))
	},
)

// EnumerableConverters implements logical operators in the enumerable
// convention. The inputs are left alone; the search requires them in the
// enumerable convention as well.
var EnumerableConverters = NewRule(
	"EnumerableConverters",
	pattern.Any(
		opt.ScanOp, opt.ValuesOp, opt.FilterOp, opt.ProjectOp, opt.CalcOp, opt.JoinOp,
		opt.CorrelateOp, opt.AggregateOp, opt.SortOp, opt.WindowOp, opt.UnionOp,
	).WithConvention(physical.None),
	func(call *Call) bool {
		return call.CustomFuncs().CanImplementEnumerable(call.Node())
	},
	func(call *Call) {
		call.TransformTo(call.Factory().ConstructInConvention(call.Node(), physical.Enumerable))
	},
)
