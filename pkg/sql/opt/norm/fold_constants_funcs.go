// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm

import (
	"math"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/types"
)

// FoldConstants folds the constant subexpressions of e, bottom-up. It
// returns ok=false if nothing could be folded, in which case e is returned
// unchanged.
//
// Folding never changes the type of an expression: a boolean expression
// folds to a boolean literal, and NULL results are typed like the expression
// they replace.
func (c *CustomFuncs) FoldConstants(e opt.ScalarExpr) (_ opt.ScalarExpr, ok bool) {
	var replace memo.ReplaceFunc
	replace = func(e opt.ScalarExpr) opt.ScalarExpr {
		e = memo.ReplaceChildren(e, replace)
		call, isCall := e.(*memo.CallExpr)
		if !isCall {
			return e
		}
		if folded, ok := c.foldCall(call); ok {
			return folded
		}
		return e
	}
	res := replace(e)
	return res, res != e
}

// foldCall folds a call whose arguments have already been folded.
func (c *CustomFuncs) foldCall(call *memo.CallExpr) (opt.ScalarExpr, bool) {
	switch {
	case call.Func == opt.AndOp:
		return c.FoldAnd(call.Args)

	case call.Func == opt.OrOp:
		return c.FoldOr(call.Args)

	case call.Func == opt.CoalesceOp:
		return c.FoldCoalesce(call)

	case call.Func == opt.IsNullOp, call.Func == opt.IsNotNullOp:
		if !c.IsConstValue(call.Args[0]) {
			return nil, false
		}
		isNull := call.Args[0].(*memo.LiteralExpr).IsNull()
		return boolLiteral(isNull == (call.Func == opt.IsNullOp)), true
	}

	if !c.AllConstValues(call.Args) {
		return nil, false
	}
	if c.HasNullArg(call.Args) {
		return c.FoldNullCall(call), true
	}
	switch {
	case call.Func == opt.NotOp, call.Func == opt.UnaryMinusOp:
		return c.FoldUnary(call.Func, call.Args[0], call.Typ)

	case opt.IsComparisonOp(call.Func):
		return c.FoldComparison(call.Func, call.Args[0], call.Args[1])

	case len(call.Args) == 2:
		return c.FoldBinary(call.Func, call.Args[0], call.Args[1], call.Typ)
	}
	return nil, false
}

// IsConstValue returns true if the expression is a literal.
func (c *CustomFuncs) IsConstValue(e opt.ScalarExpr) bool {
	return e.Op() == opt.LiteralOp
}

// AllConstValues returns true if every expression is a literal.
func (c *CustomFuncs) AllConstValues(exprs []opt.ScalarExpr) bool {
	for _, e := range exprs {
		if !c.IsConstValue(e) {
			return false
		}
	}
	return true
}

// HasNullArg returns true if one of the arguments is the NULL literal.
func (c *CustomFuncs) HasNullArg(args []opt.ScalarExpr) bool {
	for _, a := range args {
		if lit, ok := a.(*memo.LiteralExpr); ok && lit.IsNull() {
			return true
		}
	}
	return false
}

// FoldNullCall replaces a call that has a NULL argument by a NULL of the
// call's type. This is only valid for functions that return NULL on NULL
// input, which is every function except AND, OR, COALESCE and the null
// tests.
func (c *CustomFuncs) FoldNullCall(call *memo.CallExpr) opt.ScalarExpr {
	return memo.Literal(nil, call.Typ)
}

// FoldAnd simplifies a conjunction: a false operand makes it false, true
// operands are dropped. NULL operands are kept, since NULL AND false is
// false but NULL AND true is NULL.
func (c *CustomFuncs) FoldAnd(args []opt.ScalarExpr) (opt.ScalarExpr, bool) {
	return c.foldLogical(opt.AndOp, args, false /* absorbing */)
}

// FoldOr simplifies a disjunction: a true operand makes it true, false
// operands are dropped.
func (c *CustomFuncs) FoldOr(args []opt.ScalarExpr) (opt.ScalarExpr, bool) {
	return c.foldLogical(opt.OrOp, args, true /* absorbing */)
}

func (c *CustomFuncs) foldLogical(
	op opt.Operator, args []opt.ScalarExpr, absorbing bool,
) (opt.ScalarExpr, bool) {
	var kept []opt.ScalarExpr
	for _, a := range args {
		lit, ok := a.(*memo.LiteralExpr)
		if !ok || lit.IsNull() {
			kept = append(kept, a)
			continue
		}
		if lit.Value == absorbing {
			return boolLiteral(absorbing), true
		}
	}
	switch {
	case len(kept) == len(args):
		return nil, false
	case len(kept) == 0:
		return boolLiteral(!absorbing), true
	case len(kept) == 1:
		if lit, ok := kept[0].(*memo.LiteralExpr); ok && lit.IsNull() {
			return memo.Literal(nil, types.Bool), true
		}
		return kept[0], true
	}
	return memo.Call(op, kept...), true
}

// FoldCoalesce drops leading NULL arguments and returns the first argument
// if it is a non-NULL constant.
func (c *CustomFuncs) FoldCoalesce(call *memo.CallExpr) (opt.ScalarExpr, bool) {
	args := call.Args
	for len(args) > 1 {
		lit, ok := args[0].(*memo.LiteralExpr)
		if !ok || !lit.IsNull() {
			break
		}
		args = args[1:]
	}
	if lit, ok := args[0].(*memo.LiteralExpr); ok && !lit.IsNull() {
		return retype(lit, call.Typ), true
	}
	if len(args) == 1 {
		if lit, ok := args[0].(*memo.LiteralExpr); ok {
			return retype(lit, call.Typ), true
		}
		if args[0].DataType().Identical(call.Typ) {
			return args[0], true
		}
	}
	if len(args) == len(call.Args) {
		return nil, false
	}
	return &memo.CallExpr{Func: opt.CoalesceOp, Args: args, Typ: call.Typ}, true
}

// FoldUnary evaluates a unary expression with a constant, non-NULL input. It
// returns ok=false if the operand has an unexpected type.
func (c *CustomFuncs) FoldUnary(
	op opt.Operator, input opt.ScalarExpr, typ *types.T,
) (_ opt.ScalarExpr, ok bool) {
	v := input.(*memo.LiteralExpr).Value
	switch op {
	case opt.NotOp:
		if b, isBool := v.(bool); isBool {
			return boolLiteral(!b), true
		}
	case opt.UnaryMinusOp:
		switch t := v.(type) {
		case int64:
			if t == math.MinInt64 {
				return nil, false
			}
			return memo.Literal(-t, typ), true
		case float64:
			return memo.Literal(-t, typ), true
		case *apd.Decimal:
			return memo.Literal(new(apd.Decimal).Neg(t), typ), true
		}
	}
	return nil, false
}

// FoldBinary evaluates an arithmetic expression with constant, non-NULL
// inputs. It returns ok=false if the evaluation would fail at run time
// (division by zero, integer overflow), so that the error is raised when
// the expression is evaluated rather than while planning.
func (c *CustomFuncs) FoldBinary(
	op opt.Operator, left, right opt.ScalarExpr, typ *types.T,
) (_ opt.ScalarExpr, ok bool) {
	lv, rv := left.(*memo.LiteralExpr).Value, right.(*memo.LiteralExpr).Value
	switch typ.Family() {
	case types.IntFamily:
		l, lok := lv.(int64)
		r, rok := rv.(int64)
		if !lok || !rok {
			return nil, false
		}
		res, ok := evalIntBinary(op, l, r)
		if !ok {
			return nil, false
		}
		return memo.Literal(res, typ), true

	case types.FloatFamily:
		l, lok := toFloat(lv)
		r, rok := toFloat(rv)
		if !lok || !rok {
			return nil, false
		}
		res, ok := evalFloatBinary(op, l, r)
		if !ok {
			return nil, false
		}
		return memo.Literal(res, typ), true

	case types.DecimalFamily:
		l, lok := toDecimal(lv)
		r, rok := toDecimal(rv)
		if !lok || !rok {
			return nil, false
		}
		res, ok := evalDecimalBinary(op, l, r)
		if !ok {
			return nil, false
		}
		return memo.Literal(res, typ), true
	}
	return nil, false
}

// FoldComparison evaluates a comparison with constant, non-NULL inputs of
// comparable types.
func (c *CustomFuncs) FoldComparison(
	op opt.Operator, left, right opt.ScalarExpr,
) (_ opt.ScalarExpr, ok bool) {
	cmp, ok := compareValues(left.(*memo.LiteralExpr).Value, right.(*memo.LiteralExpr).Value)
	if !ok {
		return nil, false
	}
	var res bool
	switch op {
	case opt.EqOp:
		res = cmp == 0
	case opt.NeOp:
		res = cmp != 0
	case opt.LtOp:
		res = cmp < 0
	case opt.LeOp:
		res = cmp <= 0
	case opt.GtOp:
		res = cmp > 0
	case opt.GeOp:
		res = cmp >= 0
	default:
		return nil, false
	}
	return boolLiteral(res), true
}

func evalIntBinary(op opt.Operator, l, r int64) (int64, bool) {
	switch op {
	case opt.PlusOp:
		res := l + r
		if (res > l) != (r > 0) {
			return 0, false
		}
		return res, true
	case opt.MinusOp:
		res := l - r
		if (res < l) != (r > 0) {
			return 0, false
		}
		return res, true
	case opt.MultOp:
		if l == 0 || r == 0 {
			return 0, true
		}
		res := l * r
		if res/r != l || (l == -1 && r == math.MinInt64) || (r == -1 && l == math.MinInt64) {
			return 0, false
		}
		return res, true
	case opt.DivOp:
		if r == 0 || (l == math.MinInt64 && r == -1) {
			return 0, false
		}
		return l / r, true
	}
	return 0, false
}

func evalFloatBinary(op opt.Operator, l, r float64) (float64, bool) {
	switch op {
	case opt.PlusOp:
		return l + r, true
	case opt.MinusOp:
		return l - r, true
	case opt.MultOp:
		return l * r, true
	case opt.DivOp:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	}
	return 0, false
}

// decimalCtx is the context of decimal arithmetic. A trapped condition,
// such as an overflow, leaves the expression unfolded.
var decimalCtx = apd.BaseContext.WithPrecision(20)

func evalDecimalBinary(op opt.Operator, l, r *apd.Decimal) (*apd.Decimal, bool) {
	res := new(apd.Decimal)
	var err error
	switch op {
	case opt.PlusOp:
		_, err = decimalCtx.Add(res, l, r)
	case opt.MinusOp:
		_, err = decimalCtx.Sub(res, l, r)
	case opt.MultOp:
		_, err = decimalCtx.Mul(res, l, r)
	case opt.DivOp:
		if r.IsZero() {
			return nil, false
		}
		_, err = decimalCtx.Quo(res, l, r)
	default:
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	return res, true
}

// toDecimal converts an integer or decimal value. Floats are not converted,
// since their binary value has no exact decimal representation.
func toDecimal(v interface{}) (*apd.Decimal, bool) {
	switch t := v.(type) {
	case int64:
		return apd.New(t, 0), true
	case *apd.Decimal:
		return t, t.Form == apd.Finite
	}
	return nil, false
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case *apd.Decimal:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// compareValues compares two non-NULL literal values. Numbers compare with
// numbers, strings with strings and booleans with booleans (false < true).
// Decimals compare exactly with integers and decimals.
func compareValues(l, r interface{}) (int, bool) {
	if isDecimal(l) || isDecimal(r) {
		ld, lok := toDecimal(l)
		rd, rok := toDecimal(r)
		if lok && rok {
			return ld.Cmp(rd), true
		}
	}
	switch lt := l.(type) {
	case int64:
		if rt, ok := r.(int64); ok {
			return compareOrdered(lt, rt), true
		}
	case string:
		if rt, ok := r.(string); ok {
			return compareOrdered(lt, rt), true
		}
		return 0, false
	case bool:
		if rt, ok := r.(bool); ok {
			switch {
			case lt == rt:
				return 0, true
			case rt:
				return -1, true
			}
			return 1, true
		}
		return 0, false
	}
	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok || math.IsNaN(lf) || math.IsNaN(rf) {
		return 0, false
	}
	return compareOrdered(lf, rf), true
}

func isDecimal(v interface{}) bool {
	_, ok := v.(*apd.Decimal)
	return ok
}

func compareOrdered[T int64 | float64 | string](l, r T) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

func boolLiteral(b bool) *memo.LiteralExpr {
	if b {
		return memo.TrueLiteral
	}
	return memo.FalseLiteral
}

// retype returns the literal with the given type. A literal whose type is
// unknown (the untyped NULL) takes the type of the expression it replaces.
func retype(lit *memo.LiteralExpr, typ *types.T) *memo.LiteralExpr {
	if lit.Typ.Identical(typ) {
		return lit
	}
	return memo.Literal(lit.Value, typ)
}
