// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/stretchr/testify/require"
)

func TestContextTags(t *testing.T) {
	sc := Scope(t)
	defer sc.Close(t)

	ctx := logtags.AddTag(context.Background(), "opt", 7)
	Infof(ctx, "explored %d groups", 3)
	require.Contains(t, sc.String(), "[opt=7] explored 3 groups")
	require.Equal(t, "[opt=7] hello", FormatWithContextTags(ctx, "hello"))
}

func TestVerbosity(t *testing.T) {
	sc := Scope(t)
	defer sc.Close(t)
	defer SetVerbosity(0)

	ctx := context.Background()
	VEventf(ctx, 2, "hidden")
	require.NotContains(t, sc.String(), "hidden")

	SetVerbosity(2)
	require.True(t, V(2))
	VEventf(ctx, 2, "shown")
	require.Contains(t, sc.String(), "shown")
}

func TestRedaction(t *testing.T) {
	sc := Scope(t)
	defer sc.Close(t)
	defer SetRedactable(false)

	ctx := context.Background()
	Warningf(ctx, "rule %s declined on %s", Safe("JoinToCorrelate"), "secret")
	require.Contains(t, sc.String(), "rule JoinToCorrelate declined on secret")

	SetRedactable(true)
	Warningf(ctx, "rule %s declined on %s", Safe("JoinToCorrelate"), "secret")
	require.Contains(t, sc.String(), "rule JoinToCorrelate declined on ‹secret›")
}

func TestEveryN(t *testing.T) {
	e := Every(time.Minute)
	now := time.Now()
	require.True(t, e.shouldLog(now))
	require.False(t, e.shouldLog(now.Add(time.Second)))
	require.True(t, e.shouldLog(now.Add(2*time.Minute)))
}

func TestFatalExitOverride(t *testing.T) {
	sc := Scope(t)
	defer sc.Close(t)

	var code int
	SetExitFunc(true /* hideStack */, func(c int) { code = c })
	defer ResetExitFunc()

	Fatalf(context.Background(), "boom")
	require.Equal(t, 1, code)
	require.Contains(t, sc.String(), "boom")
}
