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
	"github.com/cockroachdb/relopt/pkg/util/log"
)

// ProjectToWindow splits a logical Calc whose program evaluates windowed
// aggregates into Window operators, which evaluate the windowed calls, and
// Calc operators, which evaluate everything else.
var ProjectToWindow = NewRule(
	"ProjectToWindow",
	pattern.Any(opt.CalcOp).
		WithConvention(physical.None).
		WithGuard(func(e memo.RelExpr) bool {
			return e.(*memo.CalcExpr).Program.ContainsWindowCalls()
		}).
		WithDescription("calc with windowed calls"),
	nil, /* guard */
	func(call *Call) {
		calc := call.Node().(*memo.CalcExpr)
		res, err := call.CustomFuncs().SplitWindowedCalc(calc, nil /* handle */)
		if err != nil {
			log.VEventf(call.Context(), 1, "%s: %v", log.Safe(call.Rule().Name()), err)
			return
		}
		if res != memo.RelExpr(calc) {
			call.TransformTo(res)
		}
	},
)

// ProjectToWindowProject splits a logical Project whose projections contain
// windowed aggregates. The projections are flattened into a temporary
// program, which is split like a Calc; the Calc stages are then expressed as
// Filter and Project operators.
var ProjectToWindowProject = NewRule(
	"ProjectToWindowProject",
	pattern.Any(opt.ProjectOp).
		WithConvention(physical.None).
		WithGuard(func(e memo.RelExpr) bool {
			for _, p := range e.(*memo.ProjectExpr).Projections {
				if memo.ContainsWindowCall(p) {
					return true
				}
			}
			return false
		}).
		WithDescription("project with windowed calls"),
	nil, /* guard */
	func(call *Call) {
		c := call.CustomFuncs()
		project := call.Node().(*memo.ProjectExpr)
		program := memo.BuildProgram(
			project.Input.RowType(), project.Projections, project.Names, nil, /* condition */
		)
		calc := memo.NewCalc(project.Input, program)
		res, err := c.SplitWindowedCalc(calc, c.CalcToFilterProject)
		if err != nil {
			log.VEventf(call.Context(), 1, "%s: %v", log.Safe(call.Rule().Name()), err)
			return
		}
		call.TransformTo(res)
	},
)
