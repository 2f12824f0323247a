// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import "github.com/cockroachdb/relopt/pkg/sql/opt/memo"

// Cost is the best-effort cost estimate of an expression. Costs of an
// expression and of its inputs are added together.
type Cost float64

// Less returns true if c is cheaper than other.
func (c Cost) Less(other Cost) bool {
	return c < other
}

// Coster estimates the cost of an expression, not counting its inputs. The
// optimizer adds the costs of the best expressions of the input groups.
//
// Costs must be positive: an expression that requires its own group then
// always costs more than the group's best expression, which keeps extracted
// plans acyclic.
type Coster interface {
	ComputeCost(e memo.RelExpr) Cost
}

// UnitCoster charges one unit per operator, preferring the plan with the
// fewest operators.
type UnitCoster struct{}

var _ Coster = UnitCoster{}

// ComputeCost is part of the Coster interface.
func (UnitCoster) ComputeCost(e memo.RelExpr) Cost {
	return 1
}

// adapterCostFactor is the cost of an operator evaluated by an adapter,
// relative to the same operator evaluated by the enumerable engine.
const adapterCostFactor = 0.5

// DefaultCoster charges one unit per operator, and half as much for
// operators evaluated inside an adapter. Work pushed into the source of the
// rows is therefore preferred over the same work done by the enumerable
// engine.
type DefaultCoster struct{}

var _ Coster = DefaultCoster{}

// ComputeCost is part of the Coster interface.
func (DefaultCoster) ComputeCost(e memo.RelExpr) Cost {
	if e.Traits().Convention.IsAdapter() {
		return adapterCostFactor
	}
	return 1
}
