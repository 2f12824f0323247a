// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import "github.com/cockroachdb/relopt/pkg/sql/types"

// Expr is a node in an expression tree. It offers methods to traverse and
// inspect the tree. Each node in the tree has an enumerated operator type, 0
// or more children, and an optional private value. The entire tree can be
// easily visited using a pattern like this:
//
//	var visit func(e Expr)
//	visit = func(e Expr) {
//	  for i, n := 0, e.ChildCount(); i < n; i++ {
//	    visit(e.Child(i))
//	  }
//	}
type Expr interface {
	// Op returns the operator type of the expression.
	Op() Operator

	// ChildCount returns the number of children of the expression.
	ChildCount() int

	// Child returns the nth child of the expression.
	Child(nth int) Expr
}

// ScalarExpr is a scalar expression, which is an expression that returns a
// primitive-typed value like boolean or string rather than rows.
type ScalarExpr interface {
	Expr

	// DataType is the SQL type of the expression.
	DataType() *types.T

	// String returns a canonical rendering of the expression. Two scalar
	// expressions with the same rendering compute the same value.
	String() string
}
