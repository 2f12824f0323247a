// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm_test

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/norm"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/relopt/pkg/sql/opt/testutils/progparse"
	"github.com/cockroachdb/relopt/pkg/sql/types"
	"github.com/cockroachdb/relopt/pkg/util/log"
	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"
)

func newFactory() *norm.Factory {
	var f norm.Factory
	f.Init(context.Background())
	return &f
}

// TestFoldConstants tests CustomFuncs.FoldConstants on conditions over the
// row (a int, b int null, s string).
func TestFoldConstants(t *testing.T) {
	defer log.Scope(t).Close(t)

	input, err := progparse.ParseColumns("a int, b int null, s string")
	require.NoError(t, err)

	testCases := []struct {
		expr     string
		expected string
	}{
		{expr: "and(gt($0, 1), true)", expected: "gt($0, 1)"},
		{expr: "and(gt($0, 1), false)", expected: "false"},
		{expr: "and(true, true)", expected: "true"},
		{expr: "or(gt($0, 1), true)", expected: "true"},
		{expr: "or(false, gt($0, 1), lt($0, 0))", expected: "or(gt($0, 1), lt($0, 0))"},
		{expr: "not(false)", expected: "true"},
		{expr: "not(eq(1, 2))", expected: "true"},
		{expr: "gt(plus(1, 2), 2)", expected: "true"},
		{expr: "eq(mult(3, 4), plus($0, 12))", expected: "eq(12, plus($0, 12))"},
		{expr: "lt(1.5, 2)", expected: "true"},
		{expr: `eq("x", "x")`, expected: "true"},
		{expr: "eq($1, null)", expected: "eq($1, null)"},
		{expr: "eq(1, null)", expected: "null"},
		{expr: "is-null(null)", expected: "true"},
		{expr: "is-not-null(3)", expected: "true"},
		{expr: "gt(coalesce(null, 4), $0)", expected: "gt(4, $0)"},
		{expr: "gt(coalesce(null, $1, 4), 0)", expected: "gt(coalesce($1, 4), 0)"},
		{expr: "eq(div(1, 0), 1)", expected: "eq(div(1, 0), 1)"},
		{expr: "eq(minus(0, 1), unary-minus(1))", expected: "true"},
		{expr: "and(null, false)", expected: "false"},
		{expr: "and(null, true)", expected: "null"},
		{expr: `plus(decimal("1.25"), 2)`, expected: `decimal("3.25")`},
		{expr: `mult(decimal("1.5"), decimal("2"))`, expected: `decimal("3.0")`},
		{expr: `unary-minus(decimal("1.5"))`, expected: `decimal("-1.5")`},
		{expr: `gt(decimal("2.5"), 2)`, expected: "true"},
		{expr: `eq(decimal("2.50"), decimal("2.5"))`, expected: "true"},
		{expr: `eq(div(decimal("1"), decimal("0")), 1)`, expected: `eq(div(decimal("1"), decimal("0")), 1)`},
	}

	f := newFactory()
	for _, tc := range testCases {
		t.Run(tc.expr, func(t *testing.T) {
			e, err := progparse.ParseScalar(tc.expr, input)
			require.NoError(t, err)
			folded, ok := f.CustomFuncs().FoldConstants(e)
			require.Equal(t, tc.expected, folded.String())
			require.Equal(t, tc.expected != tc.expr, ok)
			require.True(t, folded.DataType().Identical(e.DataType()),
				"folding changed type from %s to %s", e.DataType(), folded.DataType())
		})
	}
}

func TestFoldOverflow(t *testing.T) {
	defer log.Scope(t).Close(t)

	f := newFactory()
	for _, op := range []opt.Operator{opt.PlusOp, opt.MultOp} {
		call := memo.Call(op, memo.Literal(int64(math.MaxInt64), types.Int), memo.Literal(int64(4), types.Int))
		_, ok := f.CustomFuncs().FoldConstants(call)
		require.False(t, ok, "overflowing %s must not fold", op)
	}
	call := memo.Call(opt.MinusOp, memo.Literal(int64(math.MinInt64), types.Int), memo.Literal(int64(1), types.Int))
	_, ok := f.CustomFuncs().FoldConstants(call)
	require.False(t, ok)
}

func TestNewCorrelationID(t *testing.T) {
	defer log.Scope(t).Close(t)

	cat := progparse.NewCatalog()
	_, err := cat.AddTable("t: a int, b int")
	require.NoError(t, err)

	f := newFactory()
	require.Equal(t, memo.CorrelationID(0), f.NewCorrelationID())

	left := cat.MustParseRel("(scan t)")
	right := cat.MustParseRel("(scan t)")
	corr := memo.NewCorrelate(left, right, 7, memo.InnerJoin)
	f.ReserveCorrelationIDs(corr)
	require.Equal(t, memo.CorrelationID(8), f.NewCorrelationID())
	require.Equal(t, memo.CorrelationID(9), f.NewCorrelationID())
}

func TestPruneScan(t *testing.T) {
	defer log.Scope(t).Close(t)

	cat := progparse.NewCatalog()
	_, err := cat.AddTable("t: a int, b int null, c string")
	require.NoError(t, err)
	f := newFactory()
	c := f.CustomFuncs()

	// Plain field references under the scan's names become a narrowed scan.
	project := cat.MustParseRel("(project (scan t) [$2 as c, $0 as a])").(*memo.ProjectExpr)
	scan := project.Input.(*memo.ScanExpr)
	require.True(t, c.CanPruneScan(scan, project.Projections))
	res := c.PruneScan(scan, project.Projections, project.Names)
	require.Equal(t, opt.ScanOp, res.Op())
	require.Equal(t, []int{2, 0}, res.(*memo.ScanExpr).Fields)
	require.True(t, res.RowType().Equals(project.RowType()))

	// Computed projections keep a projection over the narrowed scan.
	project = cat.MustParseRel("(project (scan t) [plus($1, 1) as x])").(*memo.ProjectExpr)
	scan = project.Input.(*memo.ScanExpr)
	res = c.PruneScan(scan, project.Projections, project.Names)
	require.Equal(t, opt.ProjectOp, res.Op())
	require.Equal(t, []int{1}, res.Inputs()[0].(*memo.ScanExpr).Fields)
	require.Equal(t, "plus($0, 1)", res.(*memo.ProjectExpr).Projections[0].String())
	require.True(t, res.RowType().Equals(project.RowType()))

	// Nothing to prune when every field is used.
	project = cat.MustParseRel("(project (scan t) [$0, $1, $2])").(*memo.ProjectExpr)
	require.False(t, c.CanPruneScan(project.Input.(*memo.ScanExpr), project.Projections))
}

func TestRemapOrdering(t *testing.T) {
	defer log.Scope(t).Close(t)

	cat := progparse.NewCatalog()
	_, err := cat.AddTable("t: a int, b int, c int")
	require.NoError(t, err)
	f := newFactory()

	project := cat.MustParseRel("(project (scan t) [$2, plus($0, 1), $0])").(*memo.ProjectExpr)
	ordering := physical.Ordering{{Field: 0, Descending: true}, {Field: 2}}
	remapped, ok := f.CustomFuncs().RemapOrdering(ordering, project.Projections)
	require.True(t, ok)
	require.Equal(t, "-2,+0", remapped.String())
	expected := physical.Ordering{{Field: 2, Descending: true}, {Field: 0}}
	if diff := pretty.Diff(expected, remapped); len(diff) > 0 {
		t.Errorf("unexpected ordering:\n%s", strings.Join(diff, "\n"))
	}

	_, ok = f.CustomFuncs().RemapOrdering(physical.Ordering{{Field: 1}}, project.Projections)
	require.False(t, ok)
}

func TestCorrelateLeftRefs(t *testing.T) {
	defer log.Scope(t).Close(t)

	left, err := progparse.ParseColumns("a int, b int")
	require.NoError(t, err)
	right, err := progparse.ParseColumns("x int")
	require.NoError(t, err)
	cond, err := progparse.ParseScalar("and(eq($0, $2), gt($1, 3))", left.Concat(right))
	require.NoError(t, err)

	f := newFactory()
	res := f.CustomFuncs().CorrelateLeftRefs(cond, left, 3)
	require.Equal(t, "and(eq($cor3.a, $0), gt($cor3.b, 3))", res.String())
	require.True(t, memo.ContainsCorrelVar(res, 3))
}
