// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package opttester runs data-driven tests of the rule engine.
package opttester

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"
	"text/tabwriter"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/optconfig"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/relopt/pkg/sql/opt/testutils/progparse"
	"github.com/cockroachdb/relopt/pkg/sql/opt/xform"
)

// OptTester is a helper for testing the rule engine. It contains the
// boiler-plate code for the following useful tasks:
//   - Parse and format an operator tree
//   - Fire rules on the root of a tree
//   - Explore a tree and format the memo
//   - Build the cheapest plan in a required convention
//   - Trace and count rule applications
//
// The OptTester is used by tests in various sub-packages of the opt package.
type OptTester struct {
	Flags Flags

	catalog   *progparse.Catalog
	text      string
	ctx       context.Context
	seenRules map[string]bool

	builder strings.Builder
}

// Flags are control knobs for tests. Note that specific testcases can
// override these defaults.
type Flags struct {
	// ExprFormat controls the output detail of build / fire / opt command
	// directives.
	ExprFormat memo.ExprFmtFlags

	// Verbose indicates whether verbose test debugging information will be
	// output to stdout when commands run. Only certain commands support this.
	Verbose bool

	// DisableRules is a set of rules that are not allowed to run.
	DisableRules []string

	// Rule names the rule fired by the fire command, and restricts the
	// exploretrace output to the effects of that rule.
	Rule string

	// ExpectedRules is a set of rules which must be exercised for the test to
	// pass.
	ExpectedRules []string

	// UnexpectedRules is a set of rules which must not be exercised for the
	// test to pass.
	UnexpectedRules []string

	// Convention names the convention required of the root by the opt
	// command. Empty means enumerable.
	Convention string

	// MaxIterations bounds exploration passes. Zero means the default.
	MaxIterations int

	// UnitCost makes the optimizer charge one unit per operator, regardless
	// of its convention.
	UnitCost bool
}

// New constructs a new instance of the OptTester for the given operator
// tree. Tables scanned by the tree are looked up in the catalog.
func New(catalog *progparse.Catalog, text string) *OptTester {
	return &OptTester{
		catalog:   catalog,
		text:      text,
		ctx:       context.Background(),
		seenRules: make(map[string]bool),
	}
}

// RunCommand implements commands that are used by most tests:
//
//   - table
//
//     Adds a table to the test catalog, for example:
//     t: a int, b int null
//     docs@search: id int, body string
//
//   - build [flags]
//
//     Parses an operator tree and outputs it without any rules applied.
//
//   - fire rule=<name> [flags]
//
//     Fires a single rule on the root of the tree and outputs the
//     alternatives it produced.
//
//   - fire-all [flags]
//
//     Fires every registered rule on the root of the tree and outputs all
//     the alternatives produced, in registration order.
//
//   - memo [flags]
//
//     Explores the tree and outputs the memo containing every alternative.
//
//   - opt [flags]
//
//     Explores the tree and outputs the cheapest plan that provides the
//     required convention.
//
//   - exploretrace [flags]
//
//     Outputs information about each rule application during exploration.
//
//   - rulestats [flags]
//
//     Explores the tree and outputs statistics about applied rules.
//
// Supported flags:
//
//   - format: controls the formatting of expressions. Possible values:
//     show-all, hide-columns, hide-traits.
//
//   - disable: disables rules by name.
//
//   - rule: the rule fired by fire, or the rule shown by exploretrace.
//
//   - expect: fail the test if the rules specified by name do not match.
//
//   - expect-not: fail the test if the rules specified by name match.
//
//   - convention: the convention required of the root by opt.
//
//   - max-iterations: bounds the number of exploration passes.
//
//   - unit-cost: charge one unit per operator.
func (ot *OptTester) RunCommand(tb testing.TB, d *datadriven.TestData) string {
	// Allow testcases to override the flags.
	for _, a := range d.CmdArgs {
		if err := ot.Flags.Set(a); err != nil {
			d.Fatalf(tb, "%s", err)
		}
	}

	ot.Flags.Verbose = testing.Verbose()

	switch d.Cmd {
	case "table":
		if _, err := ot.catalog.AddTable(strings.TrimSpace(ot.text)); err != nil {
			d.Fatalf(tb, "%v", err)
		}
		return ""

	case "build":
		e, err := ot.catalog.ParseRel(ot.text)
		if err != nil {
			return formatError(err)
		}
		return memo.FormatExpr(e, ot.Flags.ExprFormat)

	case "fire":
		result, err := ot.Fire()
		if err != nil {
			return formatError(err)
		}
		return result

	case "fire-all":
		result, err := ot.FireAll()
		if err != nil {
			return formatError(err)
		}
		return result

	case "opt":
		e, err := ot.Optimize()
		if err != nil {
			return formatError(err)
		}
		if err := ot.checkRules(); err != nil {
			tb.Fatal(err)
		}
		return memo.FormatExpr(e, ot.Flags.ExprFormat)

	case "memo":
		result, err := ot.Memo()
		if err != nil {
			return formatError(err)
		}
		if err := ot.checkRules(); err != nil {
			tb.Fatal(err)
		}
		return result

	case "exploretrace":
		result, err := ot.ExploreTrace()
		if err != nil {
			d.Fatalf(tb, "%v", err)
		}
		return result

	case "rulestats":
		result, err := ot.RuleStats()
		if err != nil {
			d.Fatalf(tb, "%v", err)
		}
		return result

	default:
		d.Fatalf(tb, "unsupported command: %s", d.Cmd)
		return ""
	}
}

func formatError(err error) string {
	return fmt.Sprintf("error: %s\n", strings.TrimSpace(err.Error()))
}

func formatRuleSet(r map[string]bool) string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func (ot *OptTester) checkRules() error {
	unseen := make(map[string]bool)
	for _, name := range ot.Flags.ExpectedRules {
		if !ot.seenRules[name] {
			unseen[name] = true
		}
	}
	if len(unseen) > 0 {
		return errors.Newf("expected to see %s, but was not triggered. Did see %s",
			formatRuleSet(unseen), formatRuleSet(ot.seenRules))
	}

	seen := make(map[string]bool)
	for _, name := range ot.Flags.UnexpectedRules {
		if ot.seenRules[name] {
			seen[name] = true
		}
	}
	if len(seen) > 0 {
		return errors.Newf("expected not to see %s, but it was triggered", formatRuleSet(seen))
	}
	return nil
}

// Set parses an argument that refers to a flag.
// See OptTester.RunCommand for supported flags.
func (f *Flags) Set(arg datadriven.CmdArg) error {
	switch arg.Key {
	case "format":
		f.ExprFormat = 0
		if len(arg.Vals) == 0 {
			return errors.Newf("format flag requires value(s)")
		}
		for _, v := range arg.Vals {
			m := map[string]memo.ExprFmtFlags{
				"show-all":     memo.ExprFmtShowAll,
				"hide-columns": memo.ExprFmtHideColumns,
				"hide-traits":  memo.ExprFmtHideTraits,
			}
			if val, ok := m[v]; ok {
				f.ExprFormat |= val
			} else {
				return errors.Newf("unknown format value %s", v)
			}
		}

	case "disable":
		if len(arg.Vals) == 0 {
			return errors.Newf("disable requires arguments")
		}
		f.DisableRules = append(f.DisableRules, arg.Vals...)

	case "rule":
		if len(arg.Vals) != 1 {
			return errors.Newf("rule requires one argument")
		}
		f.Rule = arg.Vals[0]

	case "expect":
		f.ExpectedRules = arg.Vals

	case "expect-not":
		f.UnexpectedRules = arg.Vals

	case "convention":
		if len(arg.Vals) != 1 {
			return errors.Newf("convention requires one argument")
		}
		if _, ok := physical.ConventionByName(arg.Vals[0]); !ok {
			return errors.Newf("unknown convention %s", arg.Vals[0])
		}
		f.Convention = arg.Vals[0]

	case "max-iterations":
		if len(arg.Vals) != 1 {
			return errors.Newf("max-iterations requires one argument")
		}
		n, err := strconv.Atoi(arg.Vals[0])
		if err != nil {
			return errors.Wrap(err, "max-iterations")
		}
		f.MaxIterations = n

	case "unit-cost":
		f.UnitCost = true

	default:
		return errors.Newf("unknown argument: %s", arg.Key)
	}
	return nil
}

// Fire fires the rule named by the rule flag on the root of the tree, and
// formats the alternatives it produced.
func (ot *OptTester) Fire() (string, error) {
	if ot.Flags.Rule == "" {
		return "", errors.Newf("fire requires a rule")
	}
	rule, ok := xform.DefaultRegistry().Lookup(ot.Flags.Rule)
	if !ok {
		return "", errors.Newf("rule %s does not exist", ot.Flags.Rule)
	}
	reg := xform.NewRegistry()
	reg.Register(rule)
	reg.Freeze()
	return ot.fire(reg)
}

// FireAll fires every registered rule on the root of the tree, and formats
// the alternatives they produced.
func (ot *OptTester) FireAll() (string, error) {
	reg, err := xform.DefaultRegistry().Filtered(ot.Flags.DisableRules)
	if err != nil {
		return "", err
	}
	return ot.fire(reg)
}

func (ot *OptTester) fire(reg *xform.Registry) (string, error) {
	root, err := ot.catalog.ParseRel(ot.text)
	if err != nil {
		return "", err
	}
	alts, err := fireApplicable(ot.ctx, reg, root)
	if err != nil {
		return "", err
	}
	ot.builder.Reset()
	ot.formatAlternatives(alts)
	return ot.builder.String(), nil
}

// fireApplicable converts an invariant violation raised by a rule into an
// error.
func fireApplicable(
	ctx context.Context, reg *xform.Registry, root memo.RelExpr,
) (alts []memo.RelExpr, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = opt.CatchOptimizerError(r)
		}
	}()
	return xform.FireApplicable(ctx, reg, root), nil
}

// Optimize builds the cheapest plan of the tree that provides the required
// convention.
func (ot *OptTester) Optimize() (memo.RelExpr, error) {
	o, root, err := ot.makeOptimizer()
	if err != nil {
		return nil, err
	}
	required := physical.Enumerable
	if ot.Flags.Convention != "" {
		required, _ = physical.ConventionByName(ot.Flags.Convention)
	}
	return o.Optimize(root, required)
}

// Memo returns a string that shows the memo data structure that is
// constructed by exploring the tree.
func (ot *OptTester) Memo() (string, error) {
	o, root, err := ot.makeOptimizer()
	if err != nil {
		return "", err
	}
	if _, err := o.Explore(root); err != nil {
		return "", err
	}
	return o.Memo().String(), nil
}

// RuleStats explores the tree and returns statistics about how many rules
// were applied.
func (ot *OptTester) RuleStats() (string, error) {
	type ruleStats struct {
		rule       string
		numApplied int
		numAdded   int
	}
	stats := make(map[string]*ruleStats)

	o, root, err := ot.makeOptimizer()
	if err != nil {
		return "", err
	}
	o.NotifyOnAppliedRule(func(rule string, source memo.RelExpr, alts []memo.RelExpr) {
		s, ok := stats[rule]
		if !ok {
			s = &ruleStats{rule: rule}
			stats[rule] = s
		}
		s.numApplied++
		s.numAdded += len(alts)
	})
	if _, err := o.Explore(root); err != nil {
		return "", err
	}

	var all ruleStats
	sorted := make([]*ruleStats, 0, len(stats))
	for _, s := range stats {
		all.numApplied += s.numApplied
		all.numAdded += s.numAdded
		sorted = append(sorted, s)
	}
	// Sort with most applied rules first.
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].numApplied != sorted[j].numApplied {
			return sorted[i].numApplied > sorted[j].numApplied
		}
		return sorted[i].rule < sorted[j].rule
	})

	var res strings.Builder
	fmt.Fprintf(&res, "Rules applied %d times, added %d expressions.\n", all.numApplied, all.numAdded)
	fmt.Fprintf(&res, "Memo has %d groups, %d expressions.\n", len(o.Memo().Groups()), o.Memo().NumExprs())
	if len(sorted) > 0 {
		tw := tabwriter.NewWriter(&res, 1 /* minwidth */, 1 /* tabwidth */, 1 /* padding */, ' ', 0)
		for _, s := range sorted {
			fmt.Fprintf(tw, "  %s\tapplied\t%d\ttimes, added\t%d\texpressions.\n", s.rule, s.numApplied, s.numAdded)
		}
		_ = tw.Flush()
	}
	return res.String(), nil
}

// ExploreTrace steps through the rule applications performed during
// exploration, one-by-one. The output of each step is the expression on
// which the rule was applied, and the expressions that were generated by the
// rule.
func (ot *OptTester) ExploreTrace() (string, error) {
	ot.builder.Reset()

	o, root, err := ot.makeOptimizer()
	if err != nil {
		return "", err
	}
	o.NotifyOnAppliedRule(func(rule string, source memo.RelExpr, alts []memo.RelExpr) {
		if ot.Flags.Rule != "" && rule != ot.Flags.Rule {
			return
		}
		ot.separator("=")
		ot.output("%s\n", rule)
		ot.separator("=")
		ot.output("Source expression:\n")
		ot.indent(memo.FormatExpr(source, ot.Flags.ExprFormat))
		ot.formatAlternatives(alts)
	})
	if _, err := o.Explore(root); err != nil {
		return "", err
	}
	return ot.builder.String(), nil
}

func (ot *OptTester) formatAlternatives(alts []memo.RelExpr) {
	if len(alts) == 0 {
		ot.output("No new expressions.\n")
	}
	for i := range alts {
		ot.output("New expression %d of %d:\n", i+1, len(alts))
		ot.indent(memo.FormatExpr(alts[i], ot.Flags.ExprFormat))
	}
}

func (ot *OptTester) makeOptimizer() (*xform.Optimizer, memo.RelExpr, error) {
	root, err := ot.catalog.ParseRel(ot.text)
	if err != nil {
		return nil, nil, err
	}
	cfg := optconfig.Default()
	cfg.DisabledRules = ot.Flags.DisableRules
	if ot.Flags.MaxIterations != 0 {
		cfg.MaxIterations = ot.Flags.MaxIterations
	}

	var o xform.Optimizer
	if err := o.Init(ot.ctx, xform.DefaultRegistry(), cfg); err != nil {
		return nil, nil, err
	}
	if ot.Flags.UnitCost {
		o.SetCoster(xform.UnitCoster{})
	}
	o.NotifyOnMatchedRule(func(rule string) bool {
		ot.seenRules[rule] = true
		return true
	})
	return &o, root, nil
}

func (ot *OptTester) output(format string, args ...interface{}) {
	fmt.Fprintf(&ot.builder, format, args...)
	if ot.Flags.Verbose {
		fmt.Printf(format, args...)
	}
}

func (ot *OptTester) separator(sep string) {
	ot.output("%s\n", strings.Repeat(sep, 80))
}

func (ot *OptTester) indent(str string) {
	str = strings.TrimRight(str, " \n\t\r")
	lines := strings.Split(str, "\n")
	for _, line := range lines {
		ot.output("  %s\n", line)
	}
}
