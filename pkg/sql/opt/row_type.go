// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import (
	"strings"

	"github.com/cockroachdb/relopt/pkg/sql/types"
)

// Column describes one field of a row type.
type Column struct {
	Name     string
	Type     *types.T
	Nullable bool
}

// Equals returns true if the two columns have the same name, type and
// nullability.
func (c Column) Equals(other Column) bool {
	return c.Name == other.Name && c.Type.Identical(other.Type) && c.Nullable == other.Nullable
}

func (c Column) String() string {
	var sb strings.Builder
	c.format(&sb)
	return sb.String()
}

func (c Column) format(sb *strings.Builder) {
	sb.WriteString(c.Name)
	sb.WriteByte(':')
	sb.WriteString(c.Type.String())
	if !c.Nullable {
		sb.WriteByte('!')
	}
}

// RowType is the ordered list of fields produced by a relational expression.
// Row types are never mutated once attached to an expression; functions that
// derive a new row type always allocate.
type RowType []Column

// Equals returns true if the two row types have the same fields in the same
// order, comparing names, types and nullability.
func (r RowType) Equals(other RowType) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if !r[i].Equals(other[i]) {
			return false
		}
	}
	return true
}

// EqualsIgnoreNames is like Equals, but ignores field names. Set operations
// require their inputs to be compatible in this sense.
func (r RowType) EqualsIgnoreNames(other RowType) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if !r[i].Type.Identical(other[i].Type) || r[i].Nullable != other[i].Nullable {
			return false
		}
	}
	return true
}

// FieldNames returns the names of the fields, in order.
func (r RowType) FieldNames() []string {
	names := make([]string, len(r))
	for i := range r {
		names[i] = r[i].Name
	}
	return names
}

// Concat returns a new row type with the fields of r followed by the fields
// of other.
func (r RowType) Concat(other RowType) RowType {
	res := make(RowType, 0, len(r)+len(other))
	res = append(res, r...)
	return append(res, other...)
}

// WithNullable returns a copy of the row type in which every field is
// nullable. The right side of a left outer join produces such a row type.
func (r RowType) WithNullable() RowType {
	res := make(RowType, len(r))
	for i := range r {
		res[i] = r[i]
		res[i].Nullable = true
	}
	return res
}

// Rename returns a copy of the row type with the given field names.
func (r RowType) Rename(names []string) RowType {
	res := make(RowType, len(r))
	copy(res, r)
	for i := range res {
		if i < len(names) && names[i] != "" {
			res[i].Name = names[i]
		}
	}
	return res
}

// String formats the row type as "(a:int!, b:string)"; a "!" suffix marks a
// field that cannot be NULL.
func (r RowType) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i := range r {
		if i > 0 {
			sb.WriteString(", ")
		}
		r[i].format(&sb)
	}
	sb.WriteByte(')')
	return sb.String()
}
