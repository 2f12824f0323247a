// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package types contains the resolved scalar types that flow through the
// optimizer. Types are assigned by the validator before a query reaches the
// optimizer; the optimizer only compares and propagates them.
package types

import "fmt"

// Family is the broad category of a type. Two types of the same family are
// union-compatible.
type Family uint8

const (
	// UnknownFamily is the type of an untyped NULL literal.
	UnknownFamily Family = iota
	BoolFamily
	IntFamily
	FloatFamily
	DecimalFamily
	StringFamily
	TimestampFamily
	// TupleFamily is the type of a correlation variable, which refers to an
	// entire row of the outer relation.
	TupleFamily
)

var familyNames = [...]string{
	UnknownFamily:   "unknown",
	BoolFamily:      "bool",
	IntFamily:       "int",
	FloatFamily:     "float",
	DecimalFamily:   "decimal",
	StringFamily:    "string",
	TimestampFamily: "timestamp",
	TupleFamily:     "tuple",
}

func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return fmt.Sprintf("family(%d)", f)
}

// T is a resolved type. T values are immutable and are shared by pointer; the
// package-level singletons below should be used for the scalar families.
type T struct {
	family Family
}

var (
	// Unknown is the type of NULL.
	Unknown = &T{family: UnknownFamily}
	// Bool is the boolean type.
	Bool = &T{family: BoolFamily}
	// Int is the 64-bit integer type.
	Int = &T{family: IntFamily}
	// Float is the 64-bit floating point type.
	Float = &T{family: FloatFamily}
	// Decimal is the arbitrary precision decimal type.
	Decimal = &T{family: DecimalFamily}
	// String is the variable length string type.
	String = &T{family: StringFamily}
	// Timestamp is the timestamp without time zone type.
	Timestamp = &T{family: TimestampFamily}
	// Tuple is the type of a whole-row reference.
	Tuple = &T{family: TupleFamily}
)

// Family returns the type's family.
func (t *T) Family() Family {
	return t.family
}

// Identical returns true if the two types are the same type.
func (t *T) Identical(other *T) bool {
	return t.family == other.family
}

// IsNumeric returns true for the int, float and decimal families.
func (t *T) IsNumeric() bool {
	switch t.family {
	case IntFamily, FloatFamily, DecimalFamily:
		return true
	}
	return false
}

func (t *T) String() string {
	return t.family.String()
}

// FromString returns the type with the given family name, or false if there
// is none.
func FromString(s string) (*T, bool) {
	for _, typ := range []*T{Unknown, Bool, Int, Float, Decimal, String, Timestamp, Tuple} {
		if typ.String() == s {
			return typ, true
		}
	}
	return nil, false
}
