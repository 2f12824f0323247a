// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import "github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"

// Adapter conventions. Tables served by an adapter are scanned in its
// convention, and the adapter rules push work into the adapter before its
// rows are converted to the enumerable convention.
var (
	// SearchConvention is the convention of a search engine adapter that
	// can evaluate sorts.
	SearchConvention = physical.RegisterConvention("search")

	// CSVConvention is the convention of the flat file adapter, which can
	// read a subset of the columns of a file.
	CSVConvention = physical.RegisterConvention("csv")
)

// adapterCanSort returns true if the adapter convention can evaluate sorts
// without a limit.
func adapterCanSort(conv physical.Convention) bool {
	return conv == SearchConvention
}

// adapterCanPruneScan returns true if the adapter convention can read a
// subset of the columns of a table.
func adapterCanPruneScan(conv physical.Convention) bool {
	return conv == CSVConvention || conv == SearchConvention
}
