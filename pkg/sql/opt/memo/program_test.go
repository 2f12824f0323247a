// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

var intInput = opt.RowType{
	{Name: "a", Type: types.Int},
	{Name: "b", Type: types.Int, Nullable: true},
}

// catchAssertion runs fn and returns the assertion failure it panics with.
func catchAssertion(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			err = opt.CatchOptimizerError(r)
		}
	}()
	fn()
	return nil
}

func TestMakeProgramInvariant(t *testing.T) {
	local := func(i int) opt.ScalarExpr { return &memo.LocalRefExpr{Index: i, Typ: types.Int} }

	testCases := []struct {
		name     string
		exprs    []opt.ScalarExpr
		projects []memo.ProjectItem
		cond     int
		err      string
	}{
		{
			name:  "self reference",
			exprs: []opt.ScalarExpr{memo.InputRef(intInput, 0), memo.Call(opt.PlusOp, local(1), local(0))},
			cond:  memo.NoCondition,
			err:   "expression 1 contains forward or cyclic reference @1",
		},
		{
			name:  "forward reference",
			exprs: []opt.ScalarExpr{memo.Call(opt.PlusOp, local(1), local(1)), memo.InputRef(intInput, 0)},
			cond:  memo.NoCondition,
			err:   "expression 0 contains forward or cyclic reference @1",
		},
		{
			name:     "projection out of range",
			exprs:    []opt.ScalarExpr{memo.InputRef(intInput, 0)},
			projects: []memo.ProjectItem{{Index: 1}},
			cond:     memo.NoCondition,
			err:      "projection references @1 of 1 expressions",
		},
		{
			name:  "condition not boolean",
			exprs: []opt.ScalarExpr{memo.InputRef(intInput, 0)},
			cond:  0,
			err:   "condition @0 has type int",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := catchAssertion(t, func() {
				memo.MakeProgram(intInput, tc.exprs, tc.projects, tc.cond)
			})
			require.Error(t, err)
			require.True(t, errors.IsAssertionFailure(err))
			require.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestProgramNormalize(t *testing.T) {
	input := opt.RowType{{Name: "a", Type: types.Int}}
	local := func(i int) opt.ScalarExpr { return &memo.LocalRefExpr{Index: i, Typ: types.Int} }
	one := memo.Literal(int64(1), types.Int)

	p := memo.MakeProgram(input, []opt.ScalarExpr{
		memo.InputRef(input, 0),
		memo.Call(opt.PlusOp, local(0), one),
		memo.Call(opt.PlusOp, local(0), one),
		memo.Call(opt.MultOp, local(1), local(2)),
		memo.Literal(int64(5), types.Int),
	}, []memo.ProjectItem{{Index: 3}}, memo.NoCondition)

	require.True(t, p.IsFlat())
	norm := p.Normalize()
	require.Equal(t, `input: (a:int!)
@0: $0
@1: 1
@2: plus(@0, @1)
@3: mult(@2, @2)
project: @3 as $f0
`, norm.String())
	require.True(t, norm.OutputType().Equals(p.OutputType()))
	require.Equal(t, "mult(plus($0, 1), plus($0, 1))", norm.ExpandLocalRefs(3).String())
	require.Equal(t, "mult(plus($0, 1), plus($0, 1))", p.ExpandLocalRefs(3).String())
}

func TestProgramFlatten(t *testing.T) {
	p := memo.MakeProgram(intInput, []opt.ScalarExpr{
		memo.Call(opt.PlusOp, memo.InputRef(intInput, 1), memo.InputRef(intInput, 0)),
	}, []memo.ProjectItem{{Index: 0, Name: "s"}}, memo.NoCondition)
	require.False(t, p.IsFlat())

	norm := p.Normalize()
	require.True(t, norm.IsFlat())
	require.Equal(t, `input: (a:int!, b:int)
@0: $0
@1: $1
@2: plus(@1, @0)
project: @2 as s
`, norm.String())
	require.Equal(t, "(s:int)", norm.OutputType().String())
}

func TestBuildProgram(t *testing.T) {
	a, b := memo.InputRef(intInput, 0), memo.InputRef(intInput, 1)

	p := memo.BuildProgram(intInput,
		[]opt.ScalarExpr{a, memo.Call(opt.PlusOp, a, b)},
		[]string{"a", "s"},
		memo.Call(opt.GtOp, b, memo.Literal(int64(10), types.Int)),
	)
	require.Equal(t, `input: (a:int!, b:int)
@0: $0
@1: $1
@2: plus(@0, @1)
@3: 10
@4: gt(@1, @3)
project: @0 as a, @2 as s
where: @4
`, p.String())
	require.True(t, p.IsFlat())
	require.False(t, p.IsIdentity())
	require.False(t, p.ContainsWindowCalls())

	identity := memo.BuildProgram(intInput, []opt.ScalarExpr{a, b}, []string{"a", "b"}, nil)
	require.True(t, identity.IsIdentity())

	renamed := memo.BuildProgram(intInput, []opt.ScalarExpr{a, b}, []string{"a", "c"}, nil)
	require.False(t, renamed.IsIdentity())

	swapped := memo.BuildProgram(intInput, []opt.ScalarExpr{b, a}, []string{"b", "a"}, nil)
	require.False(t, swapped.IsIdentity())
}

func TestContainsWindowCall(t *testing.T) {
	a := memo.InputRef(intInput, 0)
	w := &memo.WindowSpec{PartitionBy: []opt.ScalarExpr{a}, Frame: memo.DefaultFrame}
	call := memo.WindowCall(opt.SumOp, w, memo.InputRef(intInput, 1))

	require.True(t, memo.ContainsWindowCall(call))
	require.True(t, memo.ContainsWindowCall(memo.Call(opt.PlusOp, a, call)))
	require.False(t, memo.ContainsWindowCall(memo.Call(opt.PlusOp, a, a)))

	// Replacing children of a window call rewrites its window too.
	shifted := memo.ShiftInputRefs(call, 0, 2)
	require.Equal(t, "sum($3) over (partition by $2 range unbounded preceding and current row)", shifted.String())
}
