// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/stretchr/testify/require"
)

func catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = opt.CatchOptimizerError(r)
		}
	}()
	fn()
	return nil
}

func TestCatchOptimizerError(t *testing.T) {
	err := catch(func() {
		panic(errors.AssertionFailedf("row type mismatch"))
	})
	require.Error(t, err)
	require.True(t, errors.HasAssertionFailure(err))

	err = catch(func() {
		var s []int
		_ = s[3]
	})
	require.Error(t, err)
	require.True(t, errors.HasAssertionFailure(err))

	require.NoError(t, catch(func() {}))

	require.Panics(t, func() {
		_ = catch(func() { panic("not an error") })
	})
}

func TestOperator(t *testing.T) {
	require.Equal(t, "filter", opt.FilterOp.String())
	op, ok := opt.OperatorByName("row-number")
	require.True(t, ok)
	require.Equal(t, opt.RowNumberOp, op)
	require.True(t, opt.IsRelationalOp(opt.UnionOp))
	require.False(t, opt.IsRelationalOp(opt.InputRefOp))
	require.True(t, opt.IsAggregateOp(opt.AvgOp))
	require.True(t, opt.IsBooleanOp(opt.IsNullOp))
	require.False(t, opt.IsBooleanOp(opt.PlusOp))
}
