// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm

import (
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
)

// NeededFields returns the input fields needed by the given projections, in
// increasing order.
func (c *CustomFuncs) NeededFields(projections []opt.ScalarExpr) []int {
	s := c.ReferencedFields(projections...)
	return s.AppendTo(nil)
}

// CanPruneScan returns true if a projection over a scan does not use every
// field the scan produces, so that a narrower scan could feed it.
func (c *CustomFuncs) CanPruneScan(scan *memo.ScanExpr, projections []opt.ScalarExpr) bool {
	return len(c.NeededFields(projections)) < len(scan.RowType())
}

// scanTableFields returns the table ordinal of every field a scan produces.
func scanTableFields(scan *memo.ScanExpr) []int {
	if scan.Fields != nil {
		return scan.Fields
	}
	res := make([]int, len(scan.Table.Columns))
	for i := range res {
		res[i] = i
	}
	return res
}

// PruneScan replaces a projection over a scan by a scan that reads only the
// fields the projection needs. If every projection is a plain field
// reference and the names agree, the narrowed scan alone is returned;
// otherwise a projection remapped onto the narrowed scan is kept on top.
// The narrowed scan keeps the traits of the original scan.
func (c *CustomFuncs) PruneScan(
	scan *memo.ScanExpr, projections []opt.ScalarExpr, names []string,
) memo.RelExpr {
	tableFields := scanTableFields(scan)
	needed := c.NeededFields(projections)

	mapping := make([]int, len(scan.RowType()))
	for i := range mapping {
		mapping[i] = -1
	}
	fields := make([]int, len(needed))
	for i, f := range needed {
		fields[i] = tableFields[f]
		mapping[f] = i
	}

	if refs, ok := c.ProjectedFields(projections); ok {
		direct := make([]int, len(refs))
		for i, f := range refs {
			direct[i] = tableFields[f]
		}
		narrowed := c.f.ConstructScan(scan.Table, direct)
		project := c.f.ConstructProject(scan, projections, names)
		if narrowed.RowType().Equals(project.RowType()) {
			return narrowed.WithTraits(scan.Traits())
		}
	}

	narrowed := c.f.ConstructScan(scan.Table, fields).WithTraits(scan.Traits())
	remapped := make([]opt.ScalarExpr, len(projections))
	for i, p := range projections {
		remapped[i], _ = memo.RemapInputRefs(p, mapping)
	}
	return c.f.ConstructProject(narrowed, remapped, names).WithTraits(scan.Traits())
}
