// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/types"
)

// InputRefExpr references a field of the input row by ordinal. It is
// rendered as "$n".
type InputRefExpr struct {
	Index int
	Typ   *types.T
}

var _ opt.ScalarExpr = &InputRefExpr{}

// Op is part of the opt.Expr interface.
func (e *InputRefExpr) Op() opt.Operator { return opt.InputRefOp }

// ChildCount is part of the opt.Expr interface.
func (e *InputRefExpr) ChildCount() int { return 0 }

// Child is part of the opt.Expr interface.
func (e *InputRefExpr) Child(nth int) opt.Expr { panic(errors.AssertionFailedf("no children")) }

// DataType is part of the opt.ScalarExpr interface.
func (e *InputRefExpr) DataType() *types.T { return e.Typ }

func (e *InputRefExpr) String() string { return "$" + strconv.Itoa(e.Index) }

// LiteralExpr is a constant. Value holds nil (NULL), a bool, an int64, a
// float64, an *apd.Decimal or a string. Decimals print as decimal("1.50"),
// so that their text round trips through the test syntax.
type LiteralExpr struct {
	Value interface{}
	Typ   *types.T
}

var _ opt.ScalarExpr = &LiteralExpr{}

// Op is part of the opt.Expr interface.
func (e *LiteralExpr) Op() opt.Operator { return opt.LiteralOp }

// ChildCount is part of the opt.Expr interface.
func (e *LiteralExpr) ChildCount() int { return 0 }

// Child is part of the opt.Expr interface.
func (e *LiteralExpr) Child(nth int) opt.Expr { panic(errors.AssertionFailedf("no children")) }

// DataType is part of the opt.ScalarExpr interface.
func (e *LiteralExpr) DataType() *types.T { return e.Typ }

func (e *LiteralExpr) String() string {
	switch v := e.Value.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case *apd.Decimal:
		return "decimal(" + strconv.Quote(v.String()) + ")"
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// IsNull returns true if the literal is the NULL constant.
func (e *LiteralExpr) IsNull() bool { return e.Value == nil }

// LocalRefExpr references an earlier expression of the enclosing program by
// index. It is rendered as "@n".
type LocalRefExpr struct {
	Index int
	Typ   *types.T
}

var _ opt.ScalarExpr = &LocalRefExpr{}

// Op is part of the opt.Expr interface.
func (e *LocalRefExpr) Op() opt.Operator { return opt.LocalRefOp }

// ChildCount is part of the opt.Expr interface.
func (e *LocalRefExpr) ChildCount() int { return 0 }

// Child is part of the opt.Expr interface.
func (e *LocalRefExpr) Child(nth int) opt.Expr { panic(errors.AssertionFailedf("no children")) }

// DataType is part of the opt.ScalarExpr interface.
func (e *LocalRefExpr) DataType() *types.T { return e.Typ }

func (e *LocalRefExpr) String() string { return "@" + strconv.Itoa(e.Index) }

// CallExpr applies a scalar function operator to its arguments.
type CallExpr struct {
	Func opt.Operator
	Args []opt.ScalarExpr
	Typ  *types.T
}

var _ opt.ScalarExpr = &CallExpr{}

// Op is part of the opt.Expr interface. It returns the function operator,
// so that patterns and classifiers can switch on it directly.
func (e *CallExpr) Op() opt.Operator { return e.Func }

// ChildCount is part of the opt.Expr interface.
func (e *CallExpr) ChildCount() int { return len(e.Args) }

// Child is part of the opt.Expr interface.
func (e *CallExpr) Child(nth int) opt.Expr { return e.Args[nth] }

// DataType is part of the opt.ScalarExpr interface.
func (e *CallExpr) DataType() *types.T { return e.Typ }

func (e *CallExpr) String() string {
	var sb strings.Builder
	formatCall(&sb, e.Func, false /* distinct */, e.Args)
	return sb.String()
}

func formatCall(sb *strings.Builder, fn opt.Operator, distinct bool, args []opt.ScalarExpr) {
	sb.WriteString(fn.String())
	sb.WriteByte('(')
	if distinct {
		sb.WriteString("distinct ")
	}
	for i, arg := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(arg.String())
	}
	sb.WriteByte(')')
}

// WindowCallExpr is an aggregate function evaluated over a window of rows
// defined by Window. The expressions of the window specification are
// children of the call, following the arguments, so that generic traversals
// see every reference the call makes.
type WindowCallExpr struct {
	Func     opt.Operator
	Args     []opt.ScalarExpr
	Window   *WindowSpec
	Distinct bool
	Typ      *types.T
}

var _ opt.ScalarExpr = &WindowCallExpr{}

// Op is part of the opt.Expr interface.
func (e *WindowCallExpr) Op() opt.Operator { return opt.WindowCallOp }

// ChildCount is part of the opt.Expr interface.
func (e *WindowCallExpr) ChildCount() int {
	return len(e.Args) + len(e.Window.PartitionBy) + len(e.Window.OrderBy)
}

// Child is part of the opt.Expr interface.
func (e *WindowCallExpr) Child(nth int) opt.Expr {
	if nth < len(e.Args) {
		return e.Args[nth]
	}
	nth -= len(e.Args)
	if nth < len(e.Window.PartitionBy) {
		return e.Window.PartitionBy[nth]
	}
	return e.Window.OrderBy[nth-len(e.Window.PartitionBy)].Expr
}

// DataType is part of the opt.ScalarExpr interface.
func (e *WindowCallExpr) DataType() *types.T { return e.Typ }

func (e *WindowCallExpr) String() string {
	var sb strings.Builder
	formatCall(&sb, e.Func, e.Distinct, e.Args)
	sb.WriteString(" over ")
	sb.WriteString(e.Window.String())
	return sb.String()
}

// CorrelationID identifies the row bound by a Correlate operator.
type CorrelationID int

func (id CorrelationID) String() string { return "$cor" + strconv.Itoa(int(id)) }

// CorrelVarExpr references the current left row of the enclosing Correlate
// that binds ID. Its value is a row of type Row.
type CorrelVarExpr struct {
	ID  CorrelationID
	Row opt.RowType
}

var _ opt.ScalarExpr = &CorrelVarExpr{}

// Op is part of the opt.Expr interface.
func (e *CorrelVarExpr) Op() opt.Operator { return opt.CorrelVarOp }

// ChildCount is part of the opt.Expr interface.
func (e *CorrelVarExpr) ChildCount() int { return 0 }

// Child is part of the opt.Expr interface.
func (e *CorrelVarExpr) Child(nth int) opt.Expr { panic(errors.AssertionFailedf("no children")) }

// DataType is part of the opt.ScalarExpr interface.
func (e *CorrelVarExpr) DataType() *types.T { return types.Tuple }

func (e *CorrelVarExpr) String() string { return e.ID.String() }

// FieldAccessExpr extracts field Field of the row computed by Input.
type FieldAccessExpr struct {
	Input opt.ScalarExpr
	Field int
	Name  string
	Typ   *types.T
}

var _ opt.ScalarExpr = &FieldAccessExpr{}

// Op is part of the opt.Expr interface.
func (e *FieldAccessExpr) Op() opt.Operator { return opt.FieldAccessOp }

// ChildCount is part of the opt.Expr interface.
func (e *FieldAccessExpr) ChildCount() int { return 1 }

// Child is part of the opt.Expr interface.
func (e *FieldAccessExpr) Child(nth int) opt.Expr {
	if nth != 0 {
		panic(errors.AssertionFailedf("child %d out of range", nth))
	}
	return e.Input
}

// DataType is part of the opt.ScalarExpr interface.
func (e *FieldAccessExpr) DataType() *types.T { return e.Typ }

func (e *FieldAccessExpr) String() string {
	return e.Input.String() + "." + e.Name
}

// InputRef returns a reference to the given field of the input row type.
func InputRef(input opt.RowType, index int) *InputRefExpr {
	if index < 0 || index >= len(input) {
		panic(errors.AssertionFailedf("input reference $%d out of range for %s", index, input))
	}
	return &InputRefExpr{Index: index, Typ: input[index].Type}
}

// Literal constructs a constant of the given type.
func Literal(value interface{}, typ *types.T) *LiteralExpr {
	return &LiteralExpr{Value: value, Typ: typ}
}

// TrueLiteral and FalseLiteral are the shared boolean constants.
var (
	TrueLiteral  = &LiteralExpr{Value: true, Typ: types.Bool}
	FalseLiteral = &LiteralExpr{Value: false, Typ: types.Bool}
)

// IsTrue returns true if the expression is the literal true.
func IsTrue(e opt.ScalarExpr) bool {
	lit, ok := e.(*LiteralExpr)
	return ok && lit.Value == true
}

// IsFalse returns true if the expression is the literal false.
func IsFalse(e opt.ScalarExpr) bool {
	lit, ok := e.(*LiteralExpr)
	return ok && lit.Value == false
}

// Call constructs a scalar function call, inferring its result type from the
// operator and arguments.
func Call(fn opt.Operator, args ...opt.ScalarExpr) *CallExpr {
	if !opt.IsScalarFuncOp(fn) {
		panic(errors.AssertionFailedf("%s is not a scalar function", fn))
	}
	return &CallExpr{Func: fn, Args: args, Typ: InferType(fn, args)}
}

// WindowCall constructs a windowed aggregate call, inferring its result type
// from the aggregate and arguments.
func WindowCall(fn opt.Operator, window *WindowSpec, args ...opt.ScalarExpr) *WindowCallExpr {
	if !opt.IsAggregateOp(fn) {
		panic(errors.AssertionFailedf("%s is not an aggregate function", fn))
	}
	return &WindowCallExpr{Func: fn, Args: args, Window: window, Typ: InferType(fn, args)}
}

// ScalarEqual returns true if the two expressions compute the same value.
// Scalar expressions are compared by their canonical rendering.
func ScalarEqual(a, b opt.ScalarExpr) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Op() == b.Op() && a.DataType().Identical(b.DataType()) && a.String() == b.String()
}

// ContainsWindowCall returns true if the expression tree contains a windowed
// aggregate call. The search stops at the first one found.
func ContainsWindowCall(e opt.Expr) bool {
	if e.Op() == opt.WindowCallOp {
		return true
	}
	for i, n := 0, e.ChildCount(); i < n; i++ {
		if ContainsWindowCall(e.Child(i)) {
			return true
		}
	}
	return false
}

// ContainsCorrelVar returns true if the expression references the given
// correlation variable.
func ContainsCorrelVar(e opt.Expr, id CorrelationID) bool {
	if cv, ok := e.(*CorrelVarExpr); ok && cv.ID == id {
		return true
	}
	for i, n := 0, e.ChildCount(); i < n; i++ {
		if ContainsCorrelVar(e.Child(i), id) {
			return true
		}
	}
	return false
}
