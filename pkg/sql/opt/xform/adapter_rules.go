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

// AdapterSortPushdown evaluates a Sort inside the adapter that produces its
// input, when the adapter can sort.
var AdapterSortPushdown = NewRule(
	"AdapterSortPushdown",
	pattern.Node(opt.SortOp,
		pattern.Any().WithGuard(func(e memo.RelExpr) bool {
			return adapterCanSort(e.Traits().Convention)
		}),
	).WithConvention(physical.None),
	func(call *Call) bool {
		return !call.Rel(0).(*memo.SortExpr).HasLimit()
	},
	func(call *Call) {
		conv := call.Rel(1).Traits().Convention
		call.TransformTo(call.Factory().ConstructInConvention(call.Rel(0), conv))
	},
)

// AdapterProjectScan replaces a Project that only selects and reorders the
// fields of an adapter scan by a scan of just those fields.
var AdapterProjectScan = NewRule(
	"AdapterProjectScan",
	pattern.Node(opt.ProjectOp,
		pattern.Leaf(opt.ScanOp).WithGuard(func(e memo.RelExpr) bool {
			return adapterCanPruneScan(e.Traits().Convention)
		}),
	).WithConvention(physical.None),
	func(call *Call) bool {
		c := call.CustomFuncs()
		project := call.Rel(0).(*memo.ProjectExpr)
		scan := call.Rel(1).(*memo.ScanExpr)
		if _, ok := c.ProjectedFields(project.Projections); !ok {
			return false
		}
		return !c.IsPassthrough(project.Projections, scan.RowType())
	},
	func(call *Call) {
		project := call.Rel(0).(*memo.ProjectExpr)
		scan := call.Rel(1).(*memo.ScanExpr)
		res := call.CustomFuncs().PruneScan(scan, project.Projections, project.Names)
		if res.Op() != opt.ScanOp {
			// The projection renames fields: keep it, as a logical operator
			// over the narrowed scan.
			res = res.WithTraits(physical.LogicalTraits)
		}
		call.TransformTo(res)
	},
)

// AdapterToEnumerable makes the rows of an operator implemented by an
// adapter available to the enumerable convention through a Converter.
var AdapterToEnumerable = NewRule(
	"AdapterToEnumerable",
	pattern.Any().WithGuard(func(e memo.RelExpr) bool {
		return e.Traits().Convention.IsAdapter()
	}),
	nil, /* guard */
	func(call *Call) {
		call.TransformTo(call.Factory().ConstructConverter(call.Node(), physical.Enumerable))
	},
)
