// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform_test

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/optconfig"
	"github.com/cockroachdb/relopt/pkg/sql/opt/pattern"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/relopt/pkg/sql/opt/testutils/progparse"
	"github.com/cockroachdb/relopt/pkg/sql/opt/testutils/randgen"
	"github.com/cockroachdb/relopt/pkg/sql/opt/xform"
	"github.com/cockroachdb/relopt/pkg/util/log"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestCatalog(t *testing.T) *progparse.Catalog {
	catalog := progparse.NewCatalog()
	for _, def := range []string{
		"s: x int, y int",
		"t: a int, b int null",
		"docs@search: id int, body string",
	} {
		if _, err := catalog.AddTable(def); err != nil {
			t.Fatal(err)
		}
	}
	return catalog
}

func newOptimizer(t *testing.T, reg *xform.Registry, cfg *optconfig.Config) *xform.Optimizer {
	var o xform.Optimizer
	require.NoError(t, o.Init(context.Background(), reg, cfg))
	return &o
}

func walk(e memo.RelExpr, fn func(e memo.RelExpr)) {
	fn(e)
	for _, input := range e.Inputs() {
		walk(input, fn)
	}
}

// emptyFilter replaces a filter that can never pass a row by an empty
// relation.
var emptyFilter = xform.NewRule(
	"EmptyFilter",
	pattern.Any(opt.FilterOp).WithConvention(physical.None),
	func(call *xform.Call) bool {
		return memo.IsFalse(call.Node().(*memo.FilterExpr).Condition)
	},
	func(call *xform.Call) {
		call.TransformTo(call.Factory().ConstructValues(call.Node().RowType(), nil /* rows */))
	},
)

func TestOptimizerCustomRegistry(t *testing.T) {
	defer log.Scope(t).Close(t)
	catalog := newTestCatalog(t)

	reg := xform.NewRegistry()
	reg.Register(emptyFilter, xform.EnumerableConverters)
	reg.Freeze()

	o := newOptimizer(t, reg, nil /* cfg */)
	plan, err := o.Optimize(catalog.MustParseRel("(filter (scan s) false)"), physical.Enumerable)
	require.NoError(t, err)
	require.Equal(t,
		"values [enumerable]\n └── columns: (x:int!, y:int!)",
		strings.TrimSpace(memo.FormatExpr(plan, memo.ExprFmtShowAll)),
	)

	// Without the custom rule the filter is kept.
	o = newOptimizer(t, xform.DefaultRegistry(), nil /* cfg */)
	plan, err = o.Optimize(catalog.MustParseRel("(filter (scan s) false)"), physical.Enumerable)
	require.NoError(t, err)
	require.NotEqual(t, opt.ValuesOp, plan.Op())
}

func TestOptimizerInvariantViolation(t *testing.T) {
	defer log.Scope(t).Close(t)
	catalog := newTestCatalog(t)

	// The alternative drops a field, so it does not compute the same rows.
	broken := xform.NewRule(
		"DropField",
		pattern.Any(opt.ScanOp).WithConvention(physical.None),
		nil, /* guard */
		func(call *xform.Call) {
			scan := call.Node()
			call.TransformTo(call.Factory().ConstructProject(
				scan, []opt.ScalarExpr{memo.InputRef(scan.RowType(), 0)}, []string{"x"},
			))
		},
	)
	reg := xform.NewRegistry()
	reg.Register(broken)
	reg.Freeze()

	o := newOptimizer(t, reg, nil /* cfg */)
	_, err := o.Optimize(catalog.MustParseRel("(scan s)"), physical.None)
	require.Error(t, err)
	require.True(t, errors.IsAssertionFailure(err))
	require.Contains(t, err.Error(), "rule DropField produced project")

	o = newOptimizer(t, reg, nil /* cfg */)
	_, err = o.Explore(catalog.MustParseRel("(scan s)"))
	require.True(t, errors.IsAssertionFailure(err))
}

func TestOptimizerNoPlan(t *testing.T) {
	defer log.Scope(t).Close(t)
	catalog := newTestCatalog(t)

	cfg := optconfig.Default()
	cfg.DisabledRules = []string{"EnumerableConverters"}
	o := newOptimizer(t, xform.DefaultRegistry(), cfg)
	_, err := o.Optimize(catalog.MustParseRel("(scan s)"), physical.Enumerable)
	require.EqualError(t, err, "no plan for scan provides convention enumerable")
	require.Contains(t, errors.FlattenHints(err), "register rules")

	// The logical tree is always a plan in the logical convention.
	o = newOptimizer(t, xform.DefaultRegistry(), cfg)
	plan, err := o.Optimize(catalog.MustParseRel("(scan s)"), physical.None)
	require.NoError(t, err)
	require.Equal(t, opt.ScanOp, plan.Op())
}

func TestOptimizerConfig(t *testing.T) {
	defer log.Scope(t).Close(t)

	var o xform.Optimizer
	cfg := optconfig.Default()
	cfg.DisabledRules = []string{"NoSuchRule"}
	err := o.Init(context.Background(), xform.DefaultRegistry(), cfg)
	require.ErrorContains(t, err, `unknown rule "NoSuchRule"`)
	require.Contains(t, errors.FlattenHints(err), "JoinToCorrelate")

	cfg = optconfig.Default()
	cfg.MaxIterations = -1
	require.Error(t, o.Init(context.Background(), xform.DefaultRegistry(), cfg))
}

func TestOptimizerMaxIterations(t *testing.T) {
	scope := log.Scope(t)
	defer scope.Close(t)
	catalog := newTestCatalog(t)

	cfg := optconfig.Default()
	cfg.MaxIterations = 1
	o := newOptimizer(t, xform.DefaultRegistry(), cfg)
	plan, err := o.Optimize(catalog.MustParseRel("(filter (scan s) gt($0, 1))"), physical.Enumerable)
	require.NoError(t, err)

	// The first pass implements the scan and the filter; the calc that the
	// second pass would add is never built.
	require.Equal(t, 4, o.Memo().NumExprs())
	require.Equal(t, opt.FilterOp, plan.Op())
	require.Equal(t, physical.Enumerable, plan.Inputs()[0].Traits().Convention)
	require.Contains(t, scope.String(), "exploration stopped after 1 passes")
}

func TestOptimizerHooks(t *testing.T) {
	defer log.Scope(t).Close(t)
	catalog := newTestCatalog(t)
	root := "(join inner (scan t) (scan s) eq($0, $2))"

	applied := make(map[string]int)
	o := newOptimizer(t, xform.DefaultRegistry(), nil /* cfg */)
	o.NotifyOnMatchedRule(func(rule string) bool {
		return rule != "JoinToCorrelate"
	})
	o.NotifyOnAppliedRule(func(rule string, source memo.RelExpr, alts []memo.RelExpr) {
		applied[rule]++
		for _, alt := range alts {
			require.True(t, alt.RowType().Equals(source.RowType()))
		}
	})
	grp, err := o.Explore(catalog.MustParseRel(root))
	require.NoError(t, err)
	require.Zero(t, applied["JoinToCorrelate"])
	require.Equal(t, 3, applied["EnumerableConverters"])
	for _, e := range o.Memo().Exprs(grp) {
		require.NotEqual(t, opt.CorrelateOp, e.Op())
	}

	// Init drops the hooks of the previous session.
	require.NoError(t, o.Init(context.Background(), xform.DefaultRegistry(), nil /* cfg */))
	applied = make(map[string]int)
	grp, err = o.Explore(catalog.MustParseRel(root))
	require.NoError(t, err)
	require.Empty(t, applied)
	var correlates int
	for _, e := range o.Memo().Exprs(grp) {
		if e.Op() == opt.CorrelateOp {
			correlates++
		}
	}
	require.Equal(t, 2, correlates)
}

func TestOptimizerMetrics(t *testing.T) {
	defer log.Scope(t).Close(t)
	catalog := newTestCatalog(t)

	m := xform.NewMetrics()
	promReg := prometheus.NewPedanticRegistry()
	require.NoError(t, m.Register(promReg))
	require.Error(t, m.Register(promReg))

	o := newOptimizer(t, xform.DefaultRegistry(), nil /* cfg */)
	o.SetMetrics(m)
	_, err := o.Optimize(catalog.MustParseRel("(union (scan s) (scan s))"), physical.Enumerable)
	require.NoError(t, err)

	// The rule fires on the union and on the union all it adds, and declines
	// the latter.
	require.Equal(t, 2.0, testutil.ToFloat64(m.Matches.WithLabelValues("UnionToDistinct")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.Fired.WithLabelValues("UnionToDistinct")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Declined.WithLabelValues("UnionToDistinct")))
	require.Equal(t, 4.0, testutil.ToFloat64(m.Fired.WithLabelValues("EnumerableConverters")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.Fired.WithLabelValues("AdapterToEnumerable")))
}

func TestOptimizerWindowSplit(t *testing.T) {
	defer log.Scope(t).Close(t)
	catalog := newTestCatalog(t)

	checkNoWindowCalls := func(t *testing.T, plan memo.RelExpr) (windows int) {
		walk(plan, func(e memo.RelExpr) {
			switch t2 := e.(type) {
			case *memo.WindowExpr:
				windows++
			case *memo.ProjectExpr:
				for _, p := range t2.Projections {
					require.False(t, memo.ContainsWindowCall(p), "%s", memo.FormatExpr(plan, 0))
				}
			case *memo.CalcExpr:
				require.False(t, t2.Program.ContainsWindowCalls(), "%s", memo.FormatExpr(plan, 0))
			}
		})
		return windows
	}

	testCases := []struct {
		rule string
		rel  string
	}{
		{
			rule: "ProjectToWindowProject",
			rel:  "(project (scan s) [$0 as x, sum($1) over (partition by $0) as w])",
		},
		{
			rule: "ProjectToWindowProject",
			rel:  "(project (scan s) [plus(sum($1) over (partition by $0), 1) as w, rank() over (order by $1) as r])",
		},
		{
			rule: "ProjectToWindow",
			rel:  "(calc (scan s) [$0 as x, sum($1) over (partition by $0) as w] where gt($0, 1))",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.rel, func(t *testing.T) {
			root := catalog.MustParseRel(tc.rel)
			rule, ok := xform.DefaultRegistry().Lookup(tc.rule)
			require.True(t, ok)
			reg := xform.NewRegistry()
			reg.Register(rule)
			reg.Freeze()

			alts := xform.FireApplicable(context.Background(), reg, root)
			require.Len(t, alts, 1)
			require.True(t, alts[0].RowType().Equals(root.RowType()))
			require.Positive(t, checkNoWindowCalls(t, alts[0]))

			// The whole rule set finds an enumerable plan.
			o := newOptimizer(t, xform.DefaultRegistry(), nil /* cfg */)
			plan, err := o.Optimize(root, physical.Enumerable)
			require.NoError(t, err)
			require.True(t, plan.RowType().Equals(root.RowType()))
			require.Positive(t, checkNoWindowCalls(t, plan))
			walk(plan, func(e memo.RelExpr) {
				require.Equal(t, physical.Enumerable, e.Traits().Convention)
			})
		})
	}
}

// TestOptimizerConcurrentSessions plans the same trees in concurrent
// sessions that share the default registry.
func TestOptimizerConcurrentSessions(t *testing.T) {
	defer log.Scope(t).Close(t)
	catalog := newTestCatalog(t)

	trees := []string{
		"(filter (scan s) gt($0, 1))",
		"(join inner (scan t) (scan s) eq($0, $2))",
		"(union (scan s) (scan s))",
		"(sort (scan docs) +0)",
		"(project (scan s) [$0 as x, sum($1) over (partition by $0) as w])",
	}
	expected := make([]string, len(trees))
	for i, tree := range trees {
		plan, err := newOptimizer(t, xform.DefaultRegistry(), nil /* cfg */).
			Optimize(catalog.MustParseRel(tree), physical.Enumerable)
		require.NoError(t, err)
		expected[i] = memo.FormatExpr(plan, memo.ExprFmtShowAll)
	}

	var g errgroup.Group
	for session := 0; session < 8; session++ {
		for i := range trees {
			root := catalog.MustParseRel(trees[i])
			want := expected[i]
			g.Go(func() error {
				var o xform.Optimizer
				if err := o.Init(context.Background(), xform.DefaultRegistry(), nil /* cfg */); err != nil {
					return err
				}
				plan, err := o.Optimize(root, physical.Enumerable)
				if err != nil {
					return err
				}
				if got := memo.FormatExpr(plan, memo.ExprFmtShowAll); got != want {
					return errors.Newf("expected:\n%s\ngot:\n%s", want, got)
				}
				return nil
			})
		}
	}
	require.NoError(t, g.Wait())
}

// TestOptimizerProperties explores random trees with every built-in rule:
// every group must keep a single row type, and extracted plans must compute
// the rows of the original tree in the required convention.
func TestOptimizerProperties(t *testing.T) {
	defer log.Scope(t).Close(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("groups keep their row type", prop.ForAll(
		func(seed int64, depth int) bool {
			root := randgen.Rel(rand.New(rand.NewSource(seed)), depth)
			var o xform.Optimizer
			if err := o.Init(context.Background(), xform.DefaultRegistry(), nil /* cfg */); err != nil {
				return false
			}
			if _, err := o.Explore(root); err != nil {
				t.Log(err)
				return false
			}
			m := o.Memo()
			for _, grp := range m.Groups() {
				for _, e := range m.Exprs(grp) {
					if !e.RowType().Equals(m.RowType(grp)) {
						return false
					}
				}
			}
			return true
		},
		gen.Int64(), gen.IntRange(1, 4),
	))

	properties.Property("plans provide the required convention", prop.ForAll(
		func(seed int64, depth int, logical bool) bool {
			root := randgen.Rel(rand.New(rand.NewSource(seed)), depth)
			required := physical.Enumerable
			if logical {
				required = physical.None
			}
			var o xform.Optimizer
			if err := o.Init(context.Background(), xform.DefaultRegistry(), nil /* cfg */); err != nil {
				return false
			}
			plan, err := o.Optimize(root, required)
			if err != nil {
				t.Log(err)
				return false
			}
			if !plan.RowType().Equals(root.RowType()) || plan.Traits().Convention != required {
				return false
			}
			ok := true
			walk(plan, func(e memo.RelExpr) {
				for i, input := range e.Inputs() {
					if input.Traits().Convention != memo.RequiredInputConvention(e, i) {
						ok = false
					}
				}
			})
			return ok
		},
		gen.Int64(), gen.IntRange(1, 4), gen.Bool(),
	))

	properties.TestingRun(t)
}
