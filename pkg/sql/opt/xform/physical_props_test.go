// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"testing"

	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/relopt/pkg/sql/opt/testutils/progparse"
	"github.com/cockroachdb/relopt/pkg/util/log"
	"github.com/stretchr/testify/require"
)

func TestConventions(t *testing.T) {
	defer log.Scope(t).Close(t)

	catalog := progparse.NewCatalog()
	_, err := catalog.AddTable("docs@search: id int, body string")
	require.NoError(t, err)

	scan := catalog.MustParseRel("(scan docs)")
	require.True(t, canProvideConvention(scan, SearchConvention))
	require.False(t, canProvideConvention(scan, physical.Enumerable))

	// A converter provides its target convention and requires its input in
	// the convention it converts from.
	conv := memo.NewConverter(scan, physical.Enumerable)
	require.True(t, canProvideConvention(conv, physical.Enumerable))
	require.Equal(t, SearchConvention, buildChildConvention(conv, 0))

	sort := catalog.MustParseRel("(sort (scan docs) +0)")
	require.True(t, canProvideConvention(sort, physical.None))
	require.Equal(t, physical.None, buildChildConvention(sort, 0))

	sort = sort.WithTraits(sort.Traits().WithConvention(SearchConvention))
	require.Equal(t, SearchConvention, buildChildConvention(sort, 0))
}

func TestAdapterConventions(t *testing.T) {
	defer log.Scope(t).Close(t)

	require.True(t, SearchConvention.IsAdapter())
	require.True(t, CSVConvention.IsAdapter())
	require.False(t, physical.Enumerable.IsAdapter())

	require.True(t, adapterCanSort(SearchConvention))
	require.False(t, adapterCanSort(CSVConvention))
	require.True(t, adapterCanPruneScan(CSVConvention))

	conv, ok := physical.ConventionByName("csv")
	require.True(t, ok)
	require.Equal(t, CSVConvention, conv)
}

func TestCosters(t *testing.T) {
	defer log.Scope(t).Close(t)

	catalog := progparse.NewCatalog()
	_, err := catalog.AddTable("docs@search: id int, body string")
	require.NoError(t, err)
	_, err = catalog.AddTable("s: x int, y int")
	require.NoError(t, err)

	adapterScan := catalog.MustParseRel("(scan docs)")
	scan := catalog.MustParseRel("(scan s)")
	require.Equal(t, Cost(0.5), DefaultCoster{}.ComputeCost(adapterScan))
	require.Equal(t, Cost(1), DefaultCoster{}.ComputeCost(scan))
	require.Equal(t, Cost(1), UnitCoster{}.ComputeCost(adapterScan))
	require.True(t, Cost(0.5).Less(1))
	require.False(t, Cost(1).Less(1))
}
