// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package splitter_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/splitter"
	"github.com/cockroachdb/relopt/pkg/sql/opt/testutils/progparse"
	"github.com/cockroachdb/relopt/pkg/sql/types"
	"github.com/cockroachdb/relopt/pkg/util/log"
	"github.com/stretchr/testify/require"
)

// calcOver returns a Calc operator that evaluates the program over a scan of
// a table with the program's input type.
func calcOver(p *memo.Program) *memo.CalcExpr {
	scan := memo.NewScan(&memo.Table{Name: "t", Columns: p.InputType()}, nil /* fields */)
	return memo.NewCalc(scan, p)
}

// shape renders the operators of a tree, for example calc(window(scan)).
func shape(e memo.RelExpr) string {
	var sb strings.Builder
	sb.WriteString(e.Op().String())
	if inputs := e.Inputs(); len(inputs) > 0 {
		sb.WriteByte('(')
		for i, in := range inputs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(shape(in))
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

func formatGraph(g *splitter.Graph) string {
	var sb strings.Builder
	for i := 0; i < g.NumNodes(); i++ {
		if succ := g.Successors(i); len(succ) > 0 {
			fmt.Fprintf(&sb, "%d -> %s\n", i, strings.Trim(fmt.Sprint(succ), "[]"))
		}
	}
	fmt.Fprintf(&sb, "rank: %s\n", strings.Trim(fmt.Sprint(g.Rank()), "[]"))
	return sb.String()
}

func TestSplitterDataDriven(t *testing.T) {
	defer log.Scope(t).Close(t)

	datadriven.RunTest(t, "testdata/split", func(t *testing.T, d *datadriven.TestData) string {
		p, err := progparse.ParseProgram(d.Input)
		if err != nil {
			return "error: " + err.Error() + "\n"
		}

		switch d.Cmd {
		case "graph":
			return formatGraph(splitter.BuildGraph(p))

		case "cohorts":
			var sb strings.Builder
			for _, c := range splitter.Cohorts(p, splitter.BuildGraph(p)) {
				fmt.Fprintf(&sb, "%s over %s\n", c, c.Window)
			}
			return sb.String()

		case "split":
			s := splitter.New(splitter.DefaultRelTypes...)
			if d.HasArg("classes") {
				var names []string
				d.ScanArgs(t, "classes", &names)
				s.RelTypes = nil
				for _, name := range names {
					switch name {
					case "calc":
						s.RelTypes = append(s.RelTypes, splitter.CalcRelType)
					case "window":
						s.RelTypes = append(s.RelTypes, splitter.WindowedAggRelType)
					default:
						d.Fatalf(t, "unknown class %q", name)
					}
				}
			}

			pl, err := s.Plan(p)
			if err != nil {
				return "error: " + err.Error() + "\n"
			}
			calc := calcOver(p)
			res, err := s.Execute(calc)
			require.NoError(t, err)
			require.True(t, res.RowType().Equals(calc.RowType()))

			var sb strings.Builder
			sb.WriteString(pl.String())
			switch res {
			case memo.RelExpr(calc):
				sb.WriteString("result: original\n")
			case calc.Input:
				sb.WriteString("result: input\n")
			default:
				fmt.Fprintf(&sb, "result: %s\n", shape(res))
			}
			return sb.String()

		default:
			d.Fatalf(t, "unsupported command: %s", d.Cmd)
			return ""
		}
	})
}

// The windowed aggregates of a program share a Window stage, and the
// arithmetic over their results is left to a Calc stage above it.
func TestSplitWindowedAggregates(t *testing.T) {
	defer log.Scope(t).Close(t)

	p := progparse.MustParseProgram(`
input: a int
window w1: partition @0
expr: $0
expr: sum(@0) over w1
expr: avg(@0) over w1
expr: plus(@1, @2)
project: @3 as total
`)
	calc := calcOver(p)
	res, err := splitter.New(splitter.DefaultRelTypes...).Execute(calc)
	require.NoError(t, err)
	require.Equal(t, "(total:float)", res.RowType().String())

	top, ok := res.(*memo.CalcExpr)
	require.True(t, ok, "expected calc, got %s", res.Op())
	require.False(t, top.Program.ContainsWindowCalls())

	project, ok := top.Input.(*memo.ProjectExpr)
	require.True(t, ok, "expected project, got %s", top.Input.Op())
	window, ok := project.Input.(*memo.WindowExpr)
	require.True(t, ok, "expected window, got %s", project.Input.Op())
	require.Len(t, window.Calls, 2)
	require.Len(t, window.Groups(), 1)
	require.Equal(t, opt.SumOp, window.Calls[0].Func)
	require.Equal(t, opt.AvgOp, window.Calls[1].Func)
	require.Same(t, calc.Input, window.Input)
}

func TestSplitNoOp(t *testing.T) {
	defer log.Scope(t).Close(t)
	s := splitter.New(splitter.DefaultRelTypes...)

	// A program without windowed calls fits in a single Calc.
	calc := calcOver(progparse.MustParseProgram(`
input: a int, b int null
expr: $0
expr: $1
expr: coalesce(@1, @0)
expr: gt(@2, 3)
project: @2 as c
where: @3
`))
	res, err := s.Execute(calc)
	require.NoError(t, err)
	require.Same(t, calc, res)

	// An identity program is replaced by its input.
	calc = calcOver(progparse.MustParseProgram(`
input: a int, b int null
expr: $0
expr: $1
project: @0 as a, @1 as b
`))
	res, err = s.Execute(calc)
	require.NoError(t, err)
	require.Same(t, calc.Input, res)
}

func TestSplitHandle(t *testing.T) {
	defer log.Scope(t).Close(t)

	p := progparse.MustParseProgram(`
input: a int, b int
window w: partition @1
expr: $0
expr: $1
expr: sum(@0) over w
expr: sum(@2) over w
expr: plus(@3, 1)
project: @4 as r
`)
	var stages []string
	s := splitter.New(splitter.DefaultRelTypes...)
	s.Handle = func(rel memo.RelExpr) memo.RelExpr {
		stages = append(stages, rel.Op().String())
		return rel
	}
	res, err := s.Execute(calcOver(p))
	require.NoError(t, err)
	require.Equal(t, []string{"project", "project", "calc"}, stages)
	require.Equal(t, "calc(project(window(project(window(scan)))))", shape(res))
}

func TestSplitUnsupported(t *testing.T) {
	defer log.Scope(t).Close(t)

	p := progparse.MustParseProgram(`
input: a int
window w: partition @0
expr: $0
expr: sum(@0) over w
expr: gt(@1, 0)
project: @1 as s
where: @2
`)
	// Only the Window class is available: it can evaluate neither the
	// comparison nor the condition.
	s := splitter.New(splitter.WindowedAggRelType)
	_, err := s.Execute(calcOver(p))
	require.Error(t, err)
	require.True(t, splitter.IsUnsupportedPartition(err))
	require.EqualError(t, err,
		"cannot split program: no class can implement expressions [2]: gt(@1, 0) (condition)")

	var upe *splitter.UnsupportedPartitionError
	require.ErrorAs(t, err, &upe)
	require.Equal(t, []int{2}, upe.Ordinals)
}

// A condition computed below a Window stage is applied by a trailing Calc
// stage, so that the windowed aggregates see every row.
func TestSplitTrailingFilterStage(t *testing.T) {
	defer log.Scope(t).Close(t)

	p := progparse.MustParseProgram(`
input: a int, b int
window w: partition @0
expr: $0
expr: $1
expr: gt(@1, 5)
expr: sum(@1) over w
project: @3 as s
where: @2
`)
	s := splitter.New(splitter.DefaultRelTypes...)
	pl, err := s.Plan(p)
	require.NoError(t, err)
	require.Len(t, pl.Stages, 3)
	require.Same(t, splitter.CalcRelType, pl.Stages[2].Type)
	require.Empty(t, pl.Stages[2].Exprs)

	res, err := s.Execute(calcOver(p))
	require.NoError(t, err)
	require.Equal(t, "calc(project(window(calc(scan))))", shape(res))
	top := res.(*memo.CalcExpr)
	require.True(t, top.Program.HasCondition())
	below := top.Input.(*memo.ProjectExpr).Input.(*memo.WindowExpr).Input.(*memo.CalcExpr)
	require.False(t, below.Program.HasCondition())

	// A class that cannot discard rows cannot compute the condition either.
	anything := &splitter.RelType{
		Name:         "anything",
		CanImplement: func(opt.ScalarExpr) bool { return true },
		NestedRefs:   true,
		MakeRel: func(input memo.RelExpr, program *memo.Program) memo.RelExpr {
			return memo.NewCalc(input, program)
		},
	}
	_, err = splitter.New(anything).Plan(p)
	require.True(t, splitter.IsUnsupportedPartition(err))
}

// Windowed calls with literal operands, or nested inside other calls, are
// pulled out into their own expressions before the program is split.
func TestSplitNestedWindowCalls(t *testing.T) {
	defer log.Scope(t).Close(t)

	input := opt.RowType{{Name: "a", Type: types.Int}}
	local := &memo.LocalRefExpr{Index: 0, Typ: types.Int}
	w := &memo.WindowSpec{PartitionBy: []opt.ScalarExpr{local}, Frame: memo.DefaultFrame}
	one := memo.Literal(int64(1), types.Int)

	testCases := []struct {
		name  string
		expr  opt.ScalarExpr
		shape string
	}{
		{
			name:  "literal operand",
			expr:  memo.WindowCall(opt.CountOp, w, one),
			shape: "project(window(calc(scan)))",
		},
		{
			name:  "nested in call",
			expr:  memo.Call(opt.PlusOp, memo.WindowCall(opt.SumOp, w, local), one),
			shape: "calc(project(window(scan)))",
		},
		{
			name:  "nested operand",
			expr:  memo.WindowCall(opt.SumOp, w, memo.Call(opt.PlusOp, local, one)),
			shape: "project(window(calc(scan)))",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := memo.MakeProgram(
				input,
				[]opt.ScalarExpr{memo.InputRef(input, 0), tc.expr},
				[]memo.ProjectItem{{Index: 1, Name: "r"}},
				memo.NoCondition,
			)
			calc := calcOver(p)
			res, err := splitter.New(splitter.DefaultRelTypes...).Execute(calc)
			require.NoError(t, err)
			require.True(t, res.RowType().Equals(calc.RowType()))
			require.Equal(t, tc.shape, shape(res))
		})
	}
}
