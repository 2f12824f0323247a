// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package physical

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Convention identifies the execution engine (calling convention) that
// implements a relational expression. Logical expressions have the None
// convention; they must be converted to an implementing convention before the
// tree can be executed.
type Convention uint8

const (
	// None is the convention of logical, unimplemented expressions.
	None Convention = iota
	// Enumerable is the row-at-a-time engine of the host process.
	Enumerable

	numBuiltinConventions
)

// conventionNames holds the names of every registered convention, indexed by
// Convention. Adapters append to it from init functions; after
// initialization the slice is only read.
var conventionNames = []string{
	None:       "none",
	Enumerable: "enumerable",
}

// RegisterConvention adds an adapter convention with the given name and
// returns its tag. It must be called from an init function.
func RegisterConvention(name string) Convention {
	if _, ok := ConventionByName(name); ok {
		panic(errors.AssertionFailedf("convention %q registered twice", name))
	}
	if len(conventionNames) > 255 {
		panic(errors.AssertionFailedf("too many conventions"))
	}
	conventionNames = append(conventionNames, name)
	return Convention(len(conventionNames) - 1)
}

// ConventionByName returns the convention with the given name.
func ConventionByName(name string) (Convention, bool) {
	for i, n := range conventionNames {
		if n == name {
			return Convention(i), true
		}
	}
	return None, false
}

// IsAdapter returns true for conventions registered by adapters, as opposed to
// the built-in logical and enumerable conventions.
func (c Convention) IsAdapter() bool {
	return c >= numBuiltinConventions
}

func (c Convention) String() string {
	if int(c) < len(conventionNames) {
		return conventionNames[c]
	}
	return fmt.Sprintf("convention(%d)", c)
}

// SafeValue implements the redact.SafeValue interface.
func (Convention) SafeValue() {}
