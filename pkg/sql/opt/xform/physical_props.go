// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
)

// canProvideConvention returns true if the given expression can provide the
// required convention. The optimizer calls it to determine whether an
// expression of a group can be the best expression for a required
// convention. There are no enforcers: a group can only provide a convention
// if some rule has implemented one of its expressions in it, or has added a
// Converter to it.
//
// The logical convention is provided by every logical expression, so a plan
// can always be extracted without implementing it.
func canProvideConvention(e memo.RelExpr, required physical.Convention) bool {
	return e.Traits().Convention == required
}

// buildChildConvention returns the convention required of the nth input of
// the parent expression. Converters require their input in the convention
// they convert from; every other operator requires its inputs in its own
// convention.
func buildChildConvention(parent memo.RelExpr, nth int) physical.Convention {
	return memo.RequiredInputConvention(parent, nth)
}
