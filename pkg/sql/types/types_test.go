// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	testCases := []struct {
		name string
		typ  *T
		ok   bool
	}{
		{"int", Int, true},
		{"string", String, true},
		{"decimal", Decimal, true},
		{"bigint", nil, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			typ, ok := FromString(tc.name)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.typ, typ)
		})
	}
}

func TestIdentical(t *testing.T) {
	require.True(t, Int.Identical(Int))
	require.False(t, Int.Identical(Float))
	require.True(t, Decimal.IsNumeric())
	require.False(t, String.IsNumeric())
}
