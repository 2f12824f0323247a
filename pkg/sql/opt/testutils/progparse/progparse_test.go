// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package progparse_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/testutils/progparse"
	"github.com/stretchr/testify/require"
)

func TestParseProgram(t *testing.T) {
	p, err := progparse.ParseProgram(`
input: a int, b int null
window w1: partition @1 order @0 desc rows unbounded preceding current row
expr: $0
expr: $1
expr: sum(@0) over w1
expr: plus(@2, 1)
project: @0 as a, @3 as total
where: @4
`)
	require.Error(t, err, "condition @4 does not exist")

	p, err = progparse.ParseProgram(`
input: a int, b int null
window w1: partition @1 order @0 desc rows unbounded preceding current row
expr: $0
expr: $1
expr: sum(@0) over w1
expr: plus(@2, 1)
expr: gt(@3, 10)
project: @0 as a, @3 as total
where: @4
`)
	require.NoError(t, err)
	require.Equal(t, 5, p.NumExprs())
	require.Equal(t, 4, p.Condition())
	require.Equal(t, "(a:int!, total:int)", p.OutputType().String())
	require.Equal(t,
		"sum(@0) over (partition by @1 order by @0 desc rows unbounded preceding and current row)",
		p.Expr(2).String(),
	)
	require.True(t, p.ContainsWindowCalls())
	require.True(t, p.IsFlat())
}

func TestParseProgramErrors(t *testing.T) {
	testCases := []struct {
		text string
		err  string
	}{
		{text: "expr: $0", err: "the input row type must come first"},
		{text: "input: a int\nexpr: $1", err: "input reference $1 out of range"},
		{text: "input: a int\nexpr: @0", err: "local reference @0 does not refer to an earlier expression"},
		{text: "input: a int\nexpr: sum($0) over w9", err: "unknown window"},
		{text: "input: a int\nexpr: frob($0)", err: "unknown function"},
		{text: "input: a blob", err: "unknown type"},
		{text: "input: a int\nbogus: 1", err: "unknown item"},
	}
	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			_, err := progparse.ParseProgram(tc.text)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestParseProgramAssertion(t *testing.T) {
	// The where item is not checked by the parser; the program constructor
	// reports the bad reference as an assertion failure.
	_, err := progparse.ParseProgram("input: a int\nexpr: $0\nwhere: @3")
	require.Error(t, err)
	require.True(t, errors.IsAssertionFailure(err))
}

func TestParseScalar(t *testing.T) {
	input, err := progparse.ParseColumns("a int, b float null, c string")
	require.NoError(t, err)

	e, err := progparse.ParseScalar(`and(gt(plus($0, $1), -1.5), eq($2, "x"))`, input)
	require.NoError(t, err)
	require.Equal(t, opt.AndOp, e.Op())
	require.Equal(t, `and(gt(plus($0, $1), -1.5), eq($2, "x"))`, e.String())
	plus := e.Child(0).Child(0).(opt.ScalarExpr)
	require.Equal(t, "float", plus.DataType().String())
	require.True(t, memo.IsNullable(plus, input, nil))

	_, err = progparse.ParseScalar("plus($0, $1) $2", input)
	require.Error(t, err)

	e, err = progparse.ParseScalar(`plus($0, decimal("0.10"))`, input)
	require.NoError(t, err)
	require.Equal(t, `plus($0, decimal("0.10"))`, e.String())
	require.Equal(t, "decimal", e.DataType().String())

	_, err = progparse.ParseScalar(`decimal("ten")`, input)
	require.ErrorContains(t, err, `invalid decimal "ten"`)
}

func TestParseRel(t *testing.T) {
	cat := progparse.NewCatalog()
	_, err := cat.AddTable("t: a int, b int null, c string")
	require.NoError(t, err)
	_, err = cat.AddTable("s: x int, y int")
	require.NoError(t, err)
	_, err = cat.AddTable("t: z int")
	require.Error(t, err)

	e, err := cat.ParseRel(`
(project
  (sort
    (filter (join left (scan t) (scan s) eq($0, $3)) gt($4, 1))
    +0,-1 fetch 10)
  [$0 as a, plus($1, $4) as total])
`)
	require.NoError(t, err)
	require.Equal(t, opt.ProjectOp, e.Op())
	require.Equal(t, "(a:int!, total:int)", e.RowType().String())

	sort := e.Child(0).(*memo.SortExpr)
	require.Equal(t, "+0,-1", sort.Ordering.String())
	require.Equal(t, int64(10), sort.Fetch)
	require.True(t, sort.HasLimit())

	join := sort.Input.(*memo.FilterExpr).Input.(*memo.JoinExpr)
	require.Equal(t, memo.LeftJoin, join.JoinType)
	require.Equal(t, "(a:int!, b:int, c:string!, x:int, y:int)", join.RowType().String())

	e, err = cat.ParseRel(`(aggregate (union (scan s) (scan s)) (0) [count($1) as n, sum(distinct $1)])`)
	require.NoError(t, err)
	require.Equal(t, "(x:int!, n:int!, $f2:int)", e.RowType().String())

	_, err = cat.ParseRel(`(scan nope)`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown table")
}
