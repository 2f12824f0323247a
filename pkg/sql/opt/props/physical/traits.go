// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package physical

import "strings"

// TraitSet is the set of physical properties provided by a relational
// expression: the convention that implements it, the collation of its rows
// and their distribution.
type TraitSet struct {
	Convention   Convention
	Ordering     Ordering
	Distribution Distribution
}

// LogicalTraits is the trait set of a freshly built logical expression.
var LogicalTraits = TraitSet{}

// WithConvention returns a copy of the trait set with the given convention.
func (t TraitSet) WithConvention(c Convention) TraitSet {
	t.Convention = c
	return t
}

// WithOrdering returns a copy of the trait set with the given ordering.
func (t TraitSet) WithOrdering(o Ordering) TraitSet {
	t.Ordering = o
	return t
}

// WithDistribution returns a copy of the trait set with the given
// distribution.
func (t TraitSet) WithDistribution(d Distribution) TraitSet {
	t.Distribution = d
	return t
}

// Equals returns true if the two trait sets are identical.
func (t TraitSet) Equals(other TraitSet) bool {
	return t.Convention == other.Convention &&
		t.Ordering.Equals(other.Ordering) &&
		t.Distribution.Equals(other.Distribution)
}

// Satisfies returns true if an expression providing t can be used where the
// required traits are needed.
func (t TraitSet) Satisfies(required TraitSet) bool {
	return t.Convention == required.Convention &&
		t.Ordering.Satisfies(required.Ordering) &&
		t.Distribution.Satisfies(required.Distribution)
}

// String formats the trait set, omitting the parts that impose nothing.
func (t TraitSet) String() string {
	var sb strings.Builder
	sb.WriteString(t.Convention.String())
	if !t.Ordering.Empty() {
		sb.WriteString(" ordering=")
		sb.WriteString(t.Ordering.String())
	}
	if !t.Distribution.Any() {
		sb.WriteString(" distribution=")
		sb.WriteString(t.Distribution.String())
	}
	return sb.String()
}
