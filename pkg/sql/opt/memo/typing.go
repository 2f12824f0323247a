// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/types"
)

// InferType derives the result type of a scalar function or aggregate
// applied to the given arguments. Argument types are assumed to have been
// checked by whoever built the expression; the core only propagates them.
func InferType(fn opt.Operator, args []opt.ScalarExpr) *types.T {
	switch {
	case opt.IsBooleanOp(fn):
		return types.Bool

	case fn == opt.CountOp || opt.IsRankingOp(fn):
		return types.Int

	case fn == opt.AvgOp:
		if len(args) > 0 && args[0].DataType().Family() == types.DecimalFamily {
			return types.Decimal
		}
		return types.Float
	}

	if len(args) == 0 {
		return types.Unknown
	}
	if fn == opt.PlusOp || fn == opt.MinusOp || fn == opt.MultOp || fn == opt.DivOp {
		return numericResultType(args)
	}
	// Unary minus, coalesce, sum, min and max keep the type of their first
	// typed argument.
	for _, arg := range args {
		if arg.DataType().Family() != types.UnknownFamily {
			return arg.DataType()
		}
	}
	return types.Unknown
}

// numericResultType widens int to decimal to float across the arguments.
func numericResultType(args []opt.ScalarExpr) *types.T {
	res := types.Unknown
	for _, arg := range args {
		typ := arg.DataType()
		switch {
		case typ.Family() == types.FloatFamily:
			return types.Float
		case typ.Family() == types.DecimalFamily:
			res = types.Decimal
		case res.Family() == types.UnknownFamily:
			res = typ
		}
	}
	return res
}
