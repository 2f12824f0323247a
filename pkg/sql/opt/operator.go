// Copyright 2017 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import "fmt"

// Operator describes the type of operation that an expression performs. The
// set of operators is closed: code that switches over operators should handle
// every case, and adding an operator requires visiting every such switch.
type Operator uint16

const (
	// UnknownOp is the zero value and is never attached to an expression.
	UnknownOp Operator = iota

	// -- Relational operators --

	// ScanOp reads the rows of a table, possibly through an adapter.
	ScanOp
	// ValuesOp produces a constant set of rows.
	ValuesOp
	// FilterOp discards input rows that do not satisfy its condition.
	FilterOp
	// ProjectOp computes a list of scalar expressions over each input row.
	ProjectOp
	// CalcOp evaluates a program: a projection and an optional condition.
	CalcOp
	// JoinOp joins two inputs on a condition.
	JoinOp
	// CorrelateOp evaluates its right input once for every left row, with the
	// left row bound to a correlation variable.
	CorrelateOp
	// AggregateOp groups its input and computes aggregates per group.
	AggregateOp
	// SortOp orders its input, optionally skipping and limiting rows.
	SortOp
	// WindowOp appends windowed aggregates to every input row.
	WindowOp
	// UnionOp concatenates its inputs, removing duplicates unless ALL.
	UnionOp
	// ConverterOp changes the calling convention of its input.
	ConverterOp

	// -- Scalar leaf and reference operators --

	// InputRefOp references a field of the input row.
	InputRefOp
	// LiteralOp is a constant.
	LiteralOp
	// LocalRefOp references an earlier expression of the same program.
	LocalRefOp
	// CorrelVarOp references the row bound by an enclosing Correlate.
	CorrelVarOp
	// FieldAccessOp extracts one field of a row-valued expression.
	FieldAccessOp
	// WindowCallOp is an aggregate evaluated over a window.
	WindowCallOp

	// -- Scalar function operators --

	PlusOp
	MinusOp
	MultOp
	DivOp
	UnaryMinusOp
	EqOp
	NeOp
	LtOp
	LeOp
	GtOp
	GeOp
	AndOp
	OrOp
	NotOp
	IsNullOp
	IsNotNullOp
	CoalesceOp

	// -- Aggregate functions --

	SumOp
	AvgOp
	CountOp
	MinOp
	MaxOp
	RowNumberOp
	RankOp

	// NumOperators tracks the total count of operators. This should be last.
	NumOperators
)

var opNames = [NumOperators]string{
	UnknownOp:     "unknown",
	ScanOp:        "scan",
	ValuesOp:      "values",
	FilterOp:      "filter",
	ProjectOp:     "project",
	CalcOp:        "calc",
	JoinOp:        "join",
	CorrelateOp:   "correlate",
	AggregateOp:   "aggregate",
	SortOp:        "sort",
	WindowOp:      "window",
	UnionOp:       "union",
	ConverterOp:   "converter",
	InputRefOp:    "input-ref",
	LiteralOp:     "literal",
	LocalRefOp:    "local-ref",
	CorrelVarOp:   "correl-var",
	FieldAccessOp: "field-access",
	WindowCallOp:  "window-call",
	PlusOp:        "plus",
	MinusOp:       "minus",
	MultOp:        "mult",
	DivOp:         "div",
	UnaryMinusOp:  "unary-minus",
	EqOp:          "eq",
	NeOp:          "ne",
	LtOp:          "lt",
	LeOp:          "le",
	GtOp:          "gt",
	GeOp:          "ge",
	AndOp:         "and",
	OrOp:          "or",
	NotOp:         "not",
	IsNullOp:      "is-null",
	IsNotNullOp:   "is-not-null",
	CoalesceOp:    "coalesce",
	SumOp:         "sum",
	AvgOp:         "avg",
	CountOp:       "count",
	MinOp:         "min",
	MaxOp:         "max",
	RowNumberOp:   "row-number",
	RankOp:        "rank",
}

func (op Operator) String() string {
	if op >= NumOperators {
		return fmt.Sprintf("operator(%d)", op)
	}
	return opNames[op]
}

// SafeValue implements the redact.SafeValue interface.
func (Operator) SafeValue() {}

// OperatorByName returns the operator with the given name, as printed by
// String.
func OperatorByName(name string) (Operator, bool) {
	for op := Operator(1); op < NumOperators; op++ {
		if opNames[op] == name {
			return op, true
		}
	}
	return UnknownOp, false
}

// IsRelationalOp returns true if the operator produces a set of rows.
func IsRelationalOp(op Operator) bool {
	return op >= ScanOp && op <= ConverterOp
}

// IsScalarOp returns true if the operator produces a single value.
func IsScalarOp(op Operator) bool {
	return op >= InputRefOp && op < NumOperators
}

// IsScalarFuncOp returns true if the operator is a scalar function applied
// by a call expression.
func IsScalarFuncOp(op Operator) bool {
	return op >= PlusOp && op <= CoalesceOp
}

// IsAggregateOp returns true if the operator is an aggregate function. An
// aggregate function is either applied by an Aggregate operator or evaluated
// over a window by a window call.
func IsAggregateOp(op Operator) bool {
	return op >= SumOp && op <= RankOp
}

// IsComparisonOp returns true if the operator compares two values.
func IsComparisonOp(op Operator) bool {
	return op >= EqOp && op <= GeOp
}

// IsBooleanOp returns true if the operator always produces a boolean.
func IsBooleanOp(op Operator) bool {
	return IsComparisonOp(op) || (op >= AndOp && op <= IsNotNullOp)
}

// IsRankingOp returns true for aggregates that take no arguments and depend
// only on the window ordering.
func IsRankingOp(op Operator) bool {
	return op == RowNumberOp || op == RankOp
}
