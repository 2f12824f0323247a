// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/pattern"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
)

// ProjectSortTranspose moves a Project below the Sort it consumes, so that
// the sort orders the narrower projected rows. The sort fields must be
// passed through by the projection, and the sort must not skip or limit
// rows.
var ProjectSortTranspose = NewRule(
	"ProjectSortTranspose",
	pattern.Node(opt.ProjectOp,
		pattern.Any(opt.SortOp).WithGuard(func(e memo.RelExpr) bool {
			return !e.(*memo.SortExpr).HasLimit()
		}),
	).WithConvention(physical.None),
	nil, /* guard */
	func(call *Call) {
		project := call.Rel(0).(*memo.ProjectExpr)
		sort := call.Rel(1).(*memo.SortExpr)

		ordering, ok := call.CustomFuncs().RemapOrdering(sort.Ordering, project.Projections)
		if !ok {
			return
		}
		f := call.Factory()
		newProject := f.ConstructProject(sort.Input, project.Projections, project.Names)
		call.TransformTo(f.ConstructSort(newProject, ordering, 0 /* offset */, memo.NoFetch))
	},
)
