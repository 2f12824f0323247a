// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package physical

import (
	"strconv"
	"strings"
)

// OrderingColumn is one key of an ordering (collation): the ordinal of a field
// of the expression's row type and its sort direction.
type OrderingColumn struct {
	Field      int
	Descending bool
	NullsFirst bool
}

// String formats the column as "+3" (ascending) or "-3" (descending), with a
// " nulls-first" suffix when applicable.
func (c OrderingColumn) String() string {
	var sb strings.Builder
	c.format(&sb)
	return sb.String()
}

func (c OrderingColumn) format(sb *strings.Builder) {
	if c.Descending {
		sb.WriteByte('-')
	} else {
		sb.WriteByte('+')
	}
	sb.WriteString(strconv.Itoa(c.Field))
	if c.NullsFirst {
		sb.WriteString(" nulls-first")
	}
}

// Ordering is the collation of an expression's rows: a sequence of fields by
// which rows are sorted. The empty ordering means no particular order.
type Ordering []OrderingColumn

// Empty returns true if the ordering imposes no order.
func (o Ordering) Empty() bool {
	return len(o) == 0
}

// Equals returns true if the two orderings are identical.
func (o Ordering) Equals(other Ordering) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// Satisfies returns true if rows sorted by o are also sorted by required,
// which holds when required is a prefix of o.
func (o Ordering) Satisfies(required Ordering) bool {
	if len(required) > len(o) {
		return false
	}
	for i := range required {
		if o[i] != required[i] {
			return false
		}
	}
	return true
}

// Remap returns the ordering with every field ordinal mapped through fn. If
// any field cannot be mapped, Remap returns false.
func (o Ordering) Remap(fn func(field int) (int, bool)) (Ordering, bool) {
	if o.Empty() {
		return nil, true
	}
	res := make(Ordering, len(o))
	for i, c := range o {
		field, ok := fn(c.Field)
		if !ok {
			return nil, false
		}
		res[i] = c
		res[i].Field = field
	}
	return res, true
}

func (o Ordering) String() string {
	var sb strings.Builder
	for i := range o {
		if i > 0 {
			sb.WriteByte(',')
		}
		o[i].format(&sb)
	}
	return sb.String()
}
