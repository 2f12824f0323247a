// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
)

// optState contains all the relevant information about the states
// of the different groups in the memo.
type optState struct {
	// stateMap allocates temporary storage that's used to speed up optimization.
	// This state could be discarded once optimization is complete.
	stateMap   map[groupStateKey]*groupState
	stateAlloc groupStateAlloc

	// cycles counts the lookups that found a group whose optimization was
	// still in progress. A group whose optimization consulted such a group
	// is not marked as fully optimized.
	cycles int
}

func (o *optState) init() {
	o.stateMap = make(map[groupStateKey]*groupState)
	o.stateAlloc = groupStateAlloc{}
	o.cycles = 0
}

// lookupOptState looks up the state associated with the given group and
// required convention. If no state exists yet, then lookupOptState returns
// nil.
func (o *optState) lookupOptState(grp memo.GroupID, required physical.Convention) *groupState {
	return o.stateMap[groupStateKey{group: grp, required: required}]
}

// ensureOptState looks up the state associated with the given group and
// required convention. If none is associated yet, then ensureOptState
// allocates new state and returns it.
func (o *optState) ensureOptState(grp memo.GroupID, required physical.Convention) *groupState {
	key := groupStateKey{group: grp, required: required}
	state, ok := o.stateMap[key]
	if !ok {
		state = o.stateAlloc.allocate()
		state.required = required
		o.stateMap[key] = state
	}
	return state
}

// ratchetCost checks whether the cost of the candidate expression is lower
// than the cost of the existing best expression in the group. If so, then
// the candidate becomes the new lowest cost expression. Ties keep the
// earlier candidate.
func (o *optState) ratchetCost(state *groupState, candidate memo.RelExpr, cost Cost) {
	if state.best == nil || cost.Less(state.cost) {
		state.best = candidate
		state.cost = cost
	}
}

// groupStateKey associates groupState with a group that is being optimized
// with respect to a required convention.
type groupStateKey struct {
	group    memo.GroupID
	required physical.Convention
}

// groupState is temporary storage that's associated with each group that's
// optimized (or same group with different required conventions). The
// optimizer stores various flags here that allow it to short-circuit already
// traversed parts of the memo.
type groupState struct {
	// best identifies the lowest cost expression in the memo group for a
	// given required convention. It is nil if no expression of the group can
	// be implemented in that convention.
	best memo.RelExpr

	// required is the convention that must be provided by this lowest cost
	// expression. An expression that cannot provide it cannot be the best
	// expression, no matter how low its cost.
	required physical.Convention

	// cost is the estimated cost of the best expression, including the best
	// expressions of its inputs.
	cost Cost

	// fullyOptimized is set to true once the lowest cost expression has been
	// found for a memo group, with respect to the required convention. A
	// lower cost expression will never be found.
	fullyOptimized bool

	// inProgress is set while the alternatives of the group are being costed.
	// An expression that requires its own group, directly or through other
	// groups, finds the group in progress and is costed against the best
	// expression found so far.
	inProgress bool
}

// markFullyOptimized records that the best expression will not improve.
func (os *groupState) markFullyOptimized() {
	if os.fullyOptimized {
		panic(errors.AssertionFailedf("best expression is already fully optimized"))
	}
	os.fullyOptimized = true
}

// groupStateAlloc allocates pages of groupState structs. This is preferable to
// a slice of groupState structs because pointers are not invalidated when a
// resize occurs, and because there's no need to retain a stable index.
type groupStateAlloc struct {
	page []groupState
}

// allocate returns a pointer to a new, empty groupState struct. The pointer is
// stable, meaning that its location won't change as other groupState structs
// are allocated.
func (a *groupStateAlloc) allocate() *groupState {
	if len(a.page) == 0 {
		a.page = make([]groupState, 8)
	}
	state := &a.page[0]
	a.page = a.page[1:]
	return state
}
