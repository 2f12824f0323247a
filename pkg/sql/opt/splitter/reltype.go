// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package splitter

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
)

// RelType is a capability class: a kind of relational operator that can
// evaluate some subset of scalar expressions. The splitter assigns every
// expression of a program to a stage of some class.
type RelType struct {
	Name string

	// CanImplement returns true if the class can evaluate the given node. It
	// is asked about every node of an expression tree except local
	// references, which are always available.
	CanImplement func(e opt.ScalarExpr) bool

	// SupportsCondition is true if a stage of this class can discard rows.
	SupportsCondition bool

	// NestedRefs is true if an expression of this class may refer to another
	// expression computed in the same stage. When false, the expression's
	// operands must come from the stage's input.
	NestedRefs bool

	// MakeRel builds the operator of a stage. The program's input type is
	// the row type of input, and its first expressions are references to
	// every input field, in order. The result must have the program's output
	// type.
	MakeRel func(input memo.RelExpr, program *memo.Program) memo.RelExpr
}

func (t *RelType) String() string { return t.Name }

// canImplementTree returns true if the class can evaluate every node of the
// expression tree, stopping at local references.
func (t *RelType) canImplementTree(e opt.ScalarExpr) bool {
	if e.Op() == opt.LocalRefOp {
		return true
	}
	if !t.CanImplement(e) {
		return false
	}
	for i, n := 0, e.ChildCount(); i < n; i++ {
		if !t.canImplementTree(e.Child(i).(opt.ScalarExpr)) {
			return false
		}
	}
	return true
}

// CalcRelType evaluates ordinary scalar expressions with a Calc operator.
var CalcRelType = &RelType{
	Name: "calc",
	CanImplement: func(e opt.ScalarExpr) bool {
		return e.Op() != opt.WindowCallOp
	},
	SupportsCondition: true,
	NestedRefs:        true,
	MakeRel: func(input memo.RelExpr, program *memo.Program) memo.RelExpr {
		if program.ContainsWindowCalls() {
			panic(errors.AssertionFailedf("calc stage contains windowed calls"))
		}
		return memo.NewCalc(input, program.Normalize())
	},
}

// WindowedAggRelType evaluates windowed aggregate calls with a Window
// operator. It cannot discard rows, and the operands and window keys of its
// calls must be input fields.
var WindowedAggRelType = &RelType{
	Name: "window",
	CanImplement: func(e opt.ScalarExpr) bool {
		return e.Op() == opt.WindowCallOp
	},
	MakeRel: makeWindow,
}

// makeWindow builds a Window operator that appends the windowed calls of the
// program to its input, followed by a Project if the program's projection is
// not the window's output as is.
func makeWindow(input memo.RelExpr, program *memo.Program) memo.RelExpr {
	if program.HasCondition() {
		panic(errors.AssertionFailedf("window stage cannot accept a condition"))
	}
	width := len(input.RowType())
	var calls []*memo.WindowCallExpr
	for i, e := range program.Exprs() {
		if i < width {
			if ref, ok := e.(*memo.InputRefExpr); !ok || ref.Index != i {
				panic(errors.AssertionFailedf("window stage expression %d is %s, expected $%d", i, e, i))
			}
			continue
		}
		call, ok := e.(*memo.WindowCallExpr)
		if !ok {
			panic(errors.AssertionFailedf("window stage expression %d is not a windowed call: %s", i, e))
		}
		var replace memo.ReplaceFunc
		replace = func(e opt.ScalarExpr) opt.ScalarExpr {
			if ref, ok := e.(*memo.LocalRefExpr); ok {
				if ref.Index >= width {
					panic(errors.AssertionFailedf("windowed call %s refers to another windowed call", call))
				}
				return memo.InputRef(input.RowType(), ref.Index)
			}
			return memo.ReplaceChildren(e, replace)
		}
		calls = append(calls, replace(call).(*memo.WindowCallExpr))
	}
	window := memo.NewWindow(input, calls, nil /* names */)

	// The window's output field i is program expression i.
	outputType := program.OutputType()
	projections := make([]opt.ScalarExpr, len(program.Projects()))
	names := make([]string, len(projections))
	for i, item := range program.Projects() {
		projections[i] = memo.InputRef(window.RowType(), item.Index)
		names[i] = outputType[i].Name
	}
	project := memo.NewProject(window, projections, names)
	if project.IsIdentity() {
		return window
	}
	return project
}

// DefaultRelTypes are the classes used to split programs with windowed
// calls.
var DefaultRelTypes = []*RelType{CalcRelType, WindowedAggRelType}
