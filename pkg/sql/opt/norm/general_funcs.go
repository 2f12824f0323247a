// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm

import (
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/relopt/pkg/sql/types"
	"golang.org/x/tools/container/intsets"
)

// CustomFuncs contains the match and replace helpers shared by the
// transformation rules.
type CustomFuncs struct {
	f *Factory
}

// Init initializes a new CustomFuncs with the given factory.
func (c *CustomFuncs) Init(f *Factory) {
	// This initialization pattern ensures that fields are not unwittingly
	// reused. Field reuse must be explicit.
	*c = CustomFuncs{
		f: f,
	}
}

// ----------------------------------------------------------------------
//
// Typing functions
//   General functions used to test and construct expression data types.
//
// ----------------------------------------------------------------------

// HasType returns true if the given scalar expression has a static type
// that's identical to the requested type.
func (c *CustomFuncs) HasType(scalar opt.ScalarExpr, typ *types.T) bool {
	return scalar.DataType().Identical(typ)
}

// IsBool returns true if the scalar expression is of boolean type.
func (c *CustomFuncs) IsBool(scalar opt.ScalarExpr) bool {
	return scalar.DataType().Family() == types.BoolFamily
}

// ----------------------------------------------------------------------
//
// Field functions
//   General functions related to input fields and field references.
//
// ----------------------------------------------------------------------

// IdentityProjections returns one input reference per field of the row
// type, in order.
func (c *CustomFuncs) IdentityProjections(rowType opt.RowType) []opt.ScalarExpr {
	res := make([]opt.ScalarExpr, len(rowType))
	for i := range rowType {
		res[i] = memo.InputRef(rowType, i)
	}
	return res
}

// ProjectedFields returns, for projections that are all plain input
// references, the referenced field of every projection. It returns ok=false
// if some projection computes a value.
func (c *CustomFuncs) ProjectedFields(projections []opt.ScalarExpr) (fields []int, ok bool) {
	fields = make([]int, len(projections))
	for i, p := range projections {
		ref, isRef := p.(*memo.InputRefExpr)
		if !isRef {
			return nil, false
		}
		fields[i] = ref.Index
	}
	return fields, true
}

// ReferencedFields returns the set of input fields referenced by any of the
// given expressions.
func (c *CustomFuncs) ReferencedFields(exprs ...opt.ScalarExpr) *intsets.Sparse {
	var s intsets.Sparse
	for _, e := range exprs {
		for _, f := range memo.InputRefsUsed(e) {
			s.Insert(f)
		}
	}
	return &s
}

// FieldsBoundBy returns true if every input reference of e is below n.
func (c *CustomFuncs) FieldsBoundBy(e opt.ScalarExpr, n int) bool {
	for _, f := range memo.InputRefsUsed(e) {
		if f >= n {
			return false
		}
	}
	return true
}

// RemapOrdering re-expresses an ordering on the input of a projection as an
// ordering on its output. Every ordering field must be passed through by
// some projection as a plain input reference; otherwise ok=false. When a
// field is projected more than once, the first projection is used.
func (c *CustomFuncs) RemapOrdering(
	ordering physical.Ordering, projections []opt.ScalarExpr,
) (_ physical.Ordering, ok bool) {
	outputOf := make(map[int]int, len(projections))
	for i, p := range projections {
		if ref, isRef := p.(*memo.InputRefExpr); isRef {
			if _, seen := outputOf[ref.Index]; !seen {
				outputOf[ref.Index] = i
			}
		}
	}
	return ordering.Remap(func(field int) (int, bool) {
		out, found := outputOf[field]
		return out, found
	})
}

// FieldNames returns the names of the fields of a row type.
func (c *CustomFuncs) FieldNames(rowType opt.RowType) []string {
	return rowType.FieldNames()
}

// ----------------------------------------------------------------------
//
// Correlation functions
//   General functions used to decorrelate and correlate expressions.
//
// ----------------------------------------------------------------------

// CorrelateLeftRefs rewrites a join condition so that references to the
// fields of the left input become field accesses on the
// correlation variable id, and references to the remaining fields are
// shifted down to address the right input on its own.
func (c *CustomFuncs) CorrelateLeftRefs(
	condition opt.ScalarExpr, left opt.RowType, id memo.CorrelationID,
) opt.ScalarExpr {
	row := &memo.CorrelVarExpr{ID: id, Row: left}
	var replace memo.ReplaceFunc
	replace = func(e opt.ScalarExpr) opt.ScalarExpr {
		if ref, ok := e.(*memo.InputRefExpr); ok {
			if ref.Index < len(left) {
				return &memo.FieldAccessExpr{
					Input: row,
					Field: ref.Index,
					Name:  left[ref.Index].Name,
					Typ:   ref.Typ,
				}
			}
			return &memo.InputRefExpr{Index: ref.Index - len(left), Typ: ref.Typ}
		}
		return memo.ReplaceChildren(e, replace)
	}
	return replace(condition)
}
