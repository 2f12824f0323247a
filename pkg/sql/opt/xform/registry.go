// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
)

// Registry holds the rules known to a planner, indexed by the operators
// their patterns can match at the root. Rules are registered during
// startup; once the registry is frozen it is read-only and may be shared by
// concurrent planning sessions without locking.
type Registry struct {
	rules  []Rule
	byOp   [opt.NumOperators][]Rule
	frozen bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends rules to the registry. Registering the same rule twice
// makes it fire twice. Register panics if the registry is frozen.
func (r *Registry) Register(rules ...Rule) {
	if r.frozen {
		panic(errors.AssertionFailedf("cannot register rules in a frozen registry"))
	}
	for _, rule := range rules {
		p := rule.Pattern()
		if p == nil {
			panic(errors.AssertionFailedf("rule %s has no pattern", rule.Name()))
		}
		r.rules = append(r.rules, rule)
		p.Ops().ForEach(func(op opt.Operator) {
			r.byOp[op] = append(r.byOp[op], rule)
		})
	}
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen returns true if the registry is read-only.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Rules returns every registered rule, in registration order.
func (r *Registry) Rules() []Rule {
	return r.rules
}

// Candidates returns the rules whose pattern root accepts op, in
// registration order.
func (r *Registry) Candidates(op opt.Operator) []Rule {
	return r.byOp[op]
}

// Lookup returns the first rule with the given name.
func (r *Registry) Lookup(name string) (Rule, bool) {
	for _, rule := range r.rules {
		if rule.Name() == name {
			return rule, true
		}
	}
	return nil, false
}

// Filtered returns a frozen registry holding the rules of r except the
// disabled ones. Naming a rule that r does not have is an error.
func (r *Registry) Filtered(disabled []string) (*Registry, error) {
	skip := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		if _, ok := r.Lookup(name); !ok {
			return nil, errors.WithHintf(
				errors.Newf("unknown rule %q", name),
				"known rules: %s", strings.Join(r.names(), ", "),
			)
		}
		skip[name] = true
	}
	res := NewRegistry()
	for _, rule := range r.rules {
		if !skip[rule.Name()] {
			res.Register(rule)
		}
	}
	res.Freeze()
	return res, nil
}

// names returns the distinct rule names, sorted.
func (r *Registry) names() []string {
	seen := make(map[string]bool, len(r.rules))
	var names []string
	for _, rule := range r.rules {
		if !seen[rule.Name()] {
			seen[rule.Name()] = true
			names = append(names, rule.Name())
		}
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

func init() {
	defaultRegistry.Register(
		ProjectToWindow,
		ProjectToWindowProject,
		JoinToCorrelate,
		UnionToDistinct,
		ProjectSortTranspose,
		RemoveTrivialFilter,
		ReduceFilterExpressions,
		FilterToCalc,
		ProjectToCalc,
		EnumerableConverters,
		AdapterSortPushdown,
		AdapterProjectScan,
		AdapterToEnumerable,
	)
	defaultRegistry.Freeze()
}

// DefaultRegistry returns the frozen registry of every built-in rule.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
