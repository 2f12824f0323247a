// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package randgen

import (
	"math/rand"
	"strconv"

	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/types"
)

// ProgramOptions configures Program.
type ProgramOptions struct {
	// Exprs is the number of expressions computed after the input references.
	Exprs int
	// Windows allows windowed aggregate calls.
	Windows bool
	// Specs is the number of distinct windows to choose from.
	Specs int
	// Condition adds a condition.
	Condition bool
	// Nested allows windowed calls whose operands are literals or calls, and
	// windowed calls nested inside arithmetic. Such programs are not flat.
	Nested bool
}

// Program returns a random program over the input row: every input field
// first, then opts.Exprs computed expressions referring to earlier ones
// through local references. Unless opts.Nested is set, every call operates
// on local references only.
func Program(rng *rand.Rand, input opt.RowType, opts ProgramOptions) *memo.Program {
	var exprs []opt.ScalarExpr
	var ints []int
	for i := range input {
		exprs = append(exprs, memo.InputRef(input, i))
		if input[i].Type.Family() == types.IntFamily {
			ints = append(ints, i)
		}
	}
	local := func(i int) opt.ScalarExpr {
		return &memo.LocalRefExpr{Index: i, Typ: exprs[i].DataType()}
	}
	anyInt := func() opt.ScalarExpr {
		if len(ints) == 0 {
			return memo.Literal(int64(rng.Intn(10)), types.Int)
		}
		return local(ints[rng.Intn(len(ints))])
	}
	operand := anyInt
	if opts.Nested {
		operand = func() opt.ScalarExpr {
			switch rng.Intn(3) {
			case 0:
				return memo.Literal(int64(rng.Intn(10)), types.Int)
			case 1:
				return memo.Call(opt.PlusOp, anyInt(), memo.Literal(int64(rng.Intn(10)), types.Int))
			}
			return anyInt()
		}
	}

	// Windows only reference input fields, so that they are valid wherever
	// a call uses them.
	specs := make([]*memo.WindowSpec, max(opts.Specs, 1))
	for i := range specs {
		w := &memo.WindowSpec{Frame: memo.DefaultFrame}
		if len(input) > 0 {
			w.PartitionBy = []opt.ScalarExpr{local(rng.Intn(len(input)))}
			if rng.Intn(2) == 0 {
				w.OrderBy = []memo.OrderKey{{Expr: local(rng.Intn(len(input))), Descending: i%2 == 1}}
			}
		}
		if i > 0 && len(w.OrderBy) == 0 {
			w.Frame = memo.WindowFrame{
				Mode:  memo.RowsMode,
				Start: memo.FrameBound{Type: memo.OffsetPreceding, Offset: int64(i)},
				End:   memo.FrameBound{Type: memo.CurrentRow},
			}
		}
		specs[i] = w
	}

	for n := 0; n < opts.Exprs; n++ {
		var e opt.ScalarExpr
		switch r := rng.Intn(6); {
		case opts.Windows && r < 2:
			aggs := []opt.Operator{opt.SumOp, opt.CountOp, opt.MinOp, opt.MaxOp, opt.RankOp}
			fn := aggs[rng.Intn(len(aggs))]
			spec := specs[rng.Intn(len(specs))]
			if opt.IsRankingOp(fn) {
				e = memo.WindowCall(fn, spec)
			} else {
				e = memo.WindowCall(fn, spec, operand())
			}
			if opts.Nested && e.DataType().Family() == types.IntFamily && rng.Intn(3) == 0 {
				e = memo.Call(opt.MinusOp, e, operand())
			}

		case r < 5:
			ops := []opt.Operator{opt.PlusOp, opt.MinusOp, opt.MultOp}
			e = memo.Call(ops[rng.Intn(len(ops))], anyInt(), anyInt())

		default:
			e = memo.Literal(int64(rng.Intn(100)), types.Int)
		}
		exprs = append(exprs, e)
		if e.DataType().Family() == types.IntFamily {
			ints = append(ints, len(exprs)-1)
		}
	}

	cond := memo.NoCondition
	if opts.Condition {
		exprs = append(exprs, memo.Call(opt.GtOp, anyInt(), memo.Literal(int64(rng.Intn(100)), types.Int)))
		cond = len(exprs) - 1
	}

	var projects []memo.ProjectItem
	for i := range exprs {
		if i == cond || rng.Intn(3) == 0 {
			continue
		}
		projects = append(projects, memo.ProjectItem{Index: i, Name: "o" + strconv.Itoa(len(projects))})
	}
	if len(projects) == 0 {
		projects = append(projects, memo.ProjectItem{Index: len(exprs) - 1, Name: "o0"})
	}
	return memo.MakeProgram(input, exprs, projects, cond)
}
