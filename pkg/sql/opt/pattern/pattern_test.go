// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package pattern_test

import (
	"math/rand"
	"testing"

	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/pattern"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/relopt/pkg/sql/opt/testutils/progparse"
	"github.com/cockroachdb/relopt/pkg/sql/opt/testutils/randgen"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) *progparse.Catalog {
	cat := progparse.NewCatalog()
	for _, def := range []string{"t: a int, b int null", "s: x int, y int"} {
		_, err := cat.AddTable(def)
		require.NoError(t, err)
	}
	return cat
}

func TestMatch(t *testing.T) {
	cat := newCatalog(t)
	tree := cat.MustParseRel(`
(project
  (sort
    (union (scan t) (filter (scan s) gt($0, 1)))
    +0)
  [$1 as b])`)

	isDistinct := func(e memo.RelExpr) bool { return !e.(*memo.UnionExpr).All }

	testCases := []struct {
		name    string
		pattern *pattern.Operand
		ops     []opt.Operator
	}{
		{
			name:    "root any",
			pattern: pattern.Any(opt.ProjectOp),
			ops:     []opt.Operator{opt.ProjectOp},
		},
		{
			name:    "exact two levels",
			pattern: pattern.Node(opt.ProjectOp, pattern.Any(opt.SortOp)),
			ops:     []opt.Operator{opt.ProjectOp, opt.SortOp},
		},
		{
			name: "exact down to leaves",
			pattern: pattern.Node(opt.ProjectOp,
				pattern.Node(opt.SortOp,
					pattern.Node(opt.UnionOp, pattern.Leaf(opt.ScanOp), pattern.Any(opt.FilterOp)),
				),
			),
			ops: []opt.Operator{opt.ProjectOp, opt.SortOp, opt.UnionOp, opt.ScanOp, opt.FilterOp},
		},
		{
			name: "unordered",
			pattern: pattern.Node(opt.ProjectOp,
				pattern.Node(opt.SortOp,
					pattern.Unordered(opt.UnionOp, pattern.Any(opt.FilterOp), pattern.Leaf()),
				),
			),
			ops: []opt.Operator{opt.ProjectOp, opt.SortOp, opt.UnionOp, opt.FilterOp, opt.ScanOp},
		},
		{
			name:    "guard accepts",
			pattern: pattern.Node(opt.ProjectOp, pattern.Node(opt.SortOp, pattern.Any(opt.UnionOp).WithGuard(isDistinct))),
			ops:     []opt.Operator{opt.ProjectOp, opt.SortOp, opt.UnionOp},
		},
		{
			name:    "wrong root",
			pattern: pattern.Any(opt.FilterOp),
		},
		{
			name:    "wrong arity",
			pattern: pattern.Node(opt.ProjectOp),
		},
		{
			name:    "leaf with children",
			pattern: pattern.Leaf(opt.ProjectOp),
		},
		{
			name:    "convention mismatch",
			pattern: pattern.Any(opt.ProjectOp).WithConvention(physical.Enumerable),
		},
		{
			name: "guard rejects",
			pattern: pattern.Node(opt.ProjectOp, pattern.Node(opt.SortOp,
				pattern.Any(opt.UnionOp).WithGuard(func(e memo.RelExpr) bool { return !isDistinct(e) }),
			)),
		},
		{
			name: "unordered needs distinct children",
			pattern: pattern.Node(opt.ProjectOp, pattern.Node(opt.SortOp,
				pattern.Unordered(opt.UnionOp, pattern.Any(opt.FilterOp), pattern.Any(opt.FilterOp)),
			)),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, ok := pattern.Match(tc.pattern, tree)
			if tc.ops == nil {
				require.False(t, ok)
				require.Nil(t, b)
				return
			}
			require.True(t, ok)
			require.Len(t, b, pattern.CaptureCount(tc.pattern))
			ops := make([]opt.Operator, len(b))
			for i := range b {
				ops[i] = b[i].Op()
			}
			require.Equal(t, tc.ops, ops)
			require.Same(t, tree, b[0])
		})
	}
}

func TestUnorderedBacktracks(t *testing.T) {
	cat := newCatalog(t)
	tree := cat.MustParseRel(`(union (filter (scan t) true) (filter (scan t) false))`)

	// The first operand accepts either filter, the second only the first
	// one; the assignment tried first must be undone.
	isTrue := func(e memo.RelExpr) bool { return memo.IsTrue(e.(*memo.FilterExpr).Condition) }
	p := pattern.Unordered(opt.UnionOp, pattern.Any(opt.FilterOp), pattern.Any(opt.FilterOp).WithGuard(isTrue))

	b, ok := pattern.Match(p, tree)
	require.True(t, ok)
	require.Len(t, b, 3)
	require.Same(t, tree.Child(1), b[1])
	require.Same(t, tree.Child(0), b[2])

	p = pattern.Unordered(opt.UnionOp, pattern.Any(opt.FilterOp).WithGuard(isTrue), pattern.Any(opt.FilterOp))
	b, ok = pattern.Match(p, tree)
	require.True(t, ok)
	require.Same(t, tree.Child(0), b[1])
	require.Same(t, tree.Child(1), b[2])
}

func TestOperandString(t *testing.T) {
	p := pattern.Node(opt.ProjectOp,
		pattern.Any(opt.SortOp, opt.FilterOp).WithConvention(physical.Enumerable).WithDescription("input"),
		pattern.Leaf(),
	)
	require.Equal(t, `(project (filter|sort [enumerable] "input" *) (any !))`, p.String())
	require.Equal(t, 3, pattern.CaptureCount(p))
	require.Len(t, pattern.Operands(p), 3)
}

// randomPattern returns a pattern that mirrors the shape of e near its root,
// widened or narrowed at random so that it sometimes fails to match.
func randomPattern(rng *rand.Rand, e memo.RelExpr, depth int) *pattern.Operand {
	op := e.Op()
	if rng.Intn(6) == 0 {
		op = opt.Operator(1 + rng.Intn(int(opt.ConverterOp)))
	}
	if depth == 0 || rng.Intn(4) == 0 {
		if rng.Intn(2) == 0 {
			return pattern.Leaf(op)
		}
		return pattern.Any(op, opt.Operator(1+rng.Intn(int(opt.ConverterOp))))
	}
	inputs := e.Inputs()
	children := make([]*pattern.Operand, len(inputs))
	for i, in := range inputs {
		children[i] = randomPattern(rng, in, depth-1)
	}
	if rng.Intn(8) == 0 && len(children) > 0 {
		children = children[1:]
	}
	if rng.Intn(3) == 0 {
		return pattern.Unordered(op, children...)
	}
	return pattern.Node(op, children...)
}

func TestMatchProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("bindings are sound", prop.ForAll(
		func(seed int64) bool {
			rng := rand.New(rand.NewSource(seed))
			tree := randgen.Rel(rng, 1+rng.Intn(4))
			p := randomPattern(rng, tree, 3)
			b, ok := pattern.Match(p, tree)
			if !ok {
				return b == nil
			}
			operands := pattern.Operands(p)
			if len(b) != pattern.CaptureCount(p) || len(b) != len(operands) {
				return false
			}
			for i := range b {
				if !operands[i].Ops().Contains(b[i].Op()) || !operands[i].Accepts(b[i]) {
					return false
				}
			}
			return b[0] == tree
		},
		gen.Int64(),
	))

	properties.Property("exact shape always matches", prop.ForAll(
		func(seed int64) bool {
			rng := rand.New(rand.NewSource(seed))
			tree := randgen.Rel(rng, 1+rng.Intn(4))
			var shape func(e memo.RelExpr) *pattern.Operand
			shape = func(e memo.RelExpr) *pattern.Operand {
				var children []*pattern.Operand
				for _, in := range e.Inputs() {
					children = append(children, shape(in))
				}
				return pattern.Node(e.Op(), children...)
			}
			b, ok := pattern.Match(shape(tree), tree)
			return ok && len(b) == pattern.CaptureCount(shape(tree))
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
