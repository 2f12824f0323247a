// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"strconv"

	"github.com/cockroachdb/relopt/pkg/sql/opt"
)

// IsNullable returns true if the scalar expression can evaluate to NULL when
// applied to rows of the given input type. Inside a program, locals holds the
// nullability of the earlier program expressions; outside, it is nil.
func IsNullable(e opt.ScalarExpr, input opt.RowType, locals []bool) bool {
	switch t := e.(type) {
	case *InputRefExpr:
		return t.Index >= len(input) || input[t.Index].Nullable

	case *LocalRefExpr:
		return t.Index >= len(locals) || locals[t.Index]

	case *LiteralExpr:
		return t.IsNull()

	case *CorrelVarExpr:
		return false

	case *FieldAccessExpr:
		if cv, ok := t.Input.(*CorrelVarExpr); ok && t.Field < len(cv.Row) {
			return cv.Row[t.Field].Nullable
		}
		return true

	case *WindowCallExpr:
		return aggNullable(t.Func)

	case *CallExpr:
		switch t.Func {
		case opt.IsNullOp, opt.IsNotNullOp:
			return false

		case opt.CoalesceOp:
			for _, arg := range t.Args {
				if !IsNullable(arg, input, locals) {
					return false
				}
			}
			return true
		}
		for _, arg := range t.Args {
			if IsNullable(arg, input, locals) {
				return true
			}
		}
		return false
	}
	return true
}

// aggNullable returns true if the aggregate can produce NULL, which is the
// case for every aggregate except counting and ranking functions.
func aggNullable(fn opt.Operator) bool {
	return fn != opt.CountOp && !opt.IsRankingOp(fn)
}

// fieldName returns names[i] if it is set, and otherwise the generated name
// of the field at output position pos.
func fieldName(names []string, i, pos int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return "$f" + strconv.Itoa(pos)
}
