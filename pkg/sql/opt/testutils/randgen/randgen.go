// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package randgen generates random operator trees and programs for property
// tests. Generation is deterministic for a given random source.
package randgen

import (
	"math/rand"
	"strconv"

	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/relopt/pkg/sql/types"
)

// Tables are the tables that random trees scan. Both have the same column
// types, so that they can be combined by unions.
var Tables = []*memo.Table{
	{Name: "t", Columns: opt.RowType{
		{Name: "a", Type: types.Int},
		{Name: "b", Type: types.Int, Nullable: true},
		{Name: "c", Type: types.Int},
	}},
	{Name: "u", Columns: opt.RowType{
		{Name: "x", Type: types.Int},
		{Name: "y", Type: types.Int, Nullable: true},
		{Name: "z", Type: types.Int},
	}},
}

// Rel returns a random operator tree of at most the given depth.
func Rel(rng *rand.Rand, depth int) memo.RelExpr {
	if depth <= 1 {
		return memo.NewScan(Tables[rng.Intn(len(Tables))], nil)
	}
	input := Rel(rng, depth-1)
	inputType := input.RowType()

	switch rng.Intn(8) {
	case 0:
		return memo.NewFilter(input, Condition(rng, inputType))

	case 1:
		n := 1 + rng.Intn(3)
		projections := make([]opt.ScalarExpr, n)
		names := make([]string, n)
		for i := range projections {
			projections[i] = Scalar(rng, inputType, 2)
			names[i] = "p" + strconv.Itoa(i)
		}
		return memo.NewProject(input, projections, names)

	case 2:
		ordering := physical.Ordering{{Field: rng.Intn(len(inputType)), Descending: rng.Intn(2) == 0}}
		fetch := int64(memo.NoFetch)
		if rng.Intn(4) == 0 {
			fetch = int64(1 + rng.Intn(10))
		}
		return memo.NewSort(input, ordering, 0, fetch)

	case 3:
		right := Rel(rng, depth-1)
		joinType := memo.JoinType(rng.Intn(4))
		combined := inputType.Concat(right.RowType())
		cond := memo.Call(opt.EqOp,
			memo.InputRef(combined, rng.Intn(len(inputType))),
			memo.InputRef(combined, len(inputType)+rng.Intn(len(right.RowType()))),
		)
		return memo.NewJoin(input, right, cond, joinType)

	case 4:
		other := Rel(rng, depth-1)
		if !sameTypes(inputType, other.RowType()) {
			return memo.NewUnion([]memo.RelExpr{input, input}, rng.Intn(2) == 0)
		}
		return memo.NewUnion([]memo.RelExpr{input, other}, rng.Intn(2) == 0)

	case 5:
		group := []int{rng.Intn(len(inputType))}
		aggs := []memo.AggCall{{Func: opt.SumOp, Args: []int{rng.Intn(len(inputType))}, Name: "s"}}
		return memo.NewAggregate(input, group, aggs)

	case 6:
		window := &memo.WindowSpec{
			PartitionBy: []opt.ScalarExpr{memo.InputRef(inputType, rng.Intn(len(inputType)))},
			Frame:       memo.DefaultFrame,
		}
		call := memo.WindowCall(opt.SumOp, window, memo.InputRef(inputType, rng.Intn(len(inputType))))
		return memo.NewProject(input,
			[]opt.ScalarExpr{memo.InputRef(inputType, 0), call},
			[]string{"k", "w"},
		)

	default:
		projections := []opt.ScalarExpr{Scalar(rng, inputType, 2)}
		return memo.NewCalc(input, memo.BuildProgram(inputType, projections, []string{"v"}, Condition(rng, inputType)))
	}
}

// Scalar returns a random integer-valued expression over the input row.
func Scalar(rng *rand.Rand, input opt.RowType, depth int) opt.ScalarExpr {
	intFields := fieldsOf(input, types.IntFamily)
	if depth <= 1 || rng.Intn(3) == 0 {
		if len(intFields) == 0 || rng.Intn(4) == 0 {
			return memo.Literal(int64(rng.Intn(100)), types.Int)
		}
		return memo.InputRef(input, intFields[rng.Intn(len(intFields))])
	}
	ops := []opt.Operator{opt.PlusOp, opt.MinusOp, opt.MultOp}
	return memo.Call(ops[rng.Intn(len(ops))], Scalar(rng, input, depth-1), Scalar(rng, input, depth-1))
}

// Condition returns a random boolean expression over the input row.
func Condition(rng *rand.Rand, input opt.RowType) opt.ScalarExpr {
	switch rng.Intn(5) {
	case 0:
		return memo.TrueLiteral
	case 1:
		return memo.Call(opt.AndOp, memo.TrueLiteral, Condition(rng, input))
	}
	ops := []opt.Operator{opt.EqOp, opt.LtOp, opt.GtOp}
	return memo.Call(ops[rng.Intn(len(ops))], Scalar(rng, input, 2), Scalar(rng, input, 1))
}

func fieldsOf(input opt.RowType, family types.Family) []int {
	var res []int
	for i := range input {
		if input[i].Type.Family() == family {
			res = append(res, i)
		}
	}
	return res
}

func sameTypes(a, b opt.RowType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Type.Identical(b[i].Type) {
			return false
		}
	}
	return true
}
