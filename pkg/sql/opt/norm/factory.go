// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package norm

import (
	"context"

	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
)

// Factory constructs relational and scalar expressions on behalf of rules.
// Rules never call the memo constructors directly: going through the factory
// gives one place to hand out correlation ids and to fold constants.
//
// A Factory is owned by a single planning session and is not safe for
// concurrent use.
type Factory struct {
	ctx context.Context

	funcs CustomFuncs

	// nextCorrelID is the id handed out by the next call to
	// NewCorrelationID.
	nextCorrelID memo.CorrelationID
}

// Init initializes a Factory structure with a new, blank memo structure
// inside. This must be called before the factory can be used (or reused).
func (f *Factory) Init(ctx context.Context) {
	// This initialization pattern ensures that fields are not unwittingly
	// reused. Field reuse must be explicit.
	*f = Factory{ctx: ctx}
	f.funcs.Init(f)
}

// Context returns the context of the planning session.
func (f *Factory) Context() context.Context {
	return f.ctx
}

// CustomFuncs returns the helper functions shared by the rules.
func (f *Factory) CustomFuncs() *CustomFuncs {
	return &f.funcs
}

// NewCorrelationID returns a correlation variable id that has not been used
// in this planning session.
func (f *Factory) NewCorrelationID() memo.CorrelationID {
	id := f.nextCorrelID
	f.nextCorrelID++
	return id
}

// ReserveCorrelationIDs makes sure that ids already present in an input tree
// are never handed out again.
func (f *Factory) ReserveCorrelationIDs(e memo.RelExpr) {
	var visit func(e opt.Expr)
	visit = func(e opt.Expr) {
		switch t := e.(type) {
		case *memo.CorrelateExpr:
			if t.ID >= f.nextCorrelID {
				f.nextCorrelID = t.ID + 1
			}
		case *memo.CorrelVarExpr:
			if t.ID >= f.nextCorrelID {
				f.nextCorrelID = t.ID + 1
			}
			return
		}
		for i, n := 0, e.ChildCount(); i < n; i++ {
			visit(e.Child(i))
		}
		for _, s := range scalarsOf(e) {
			visit(s)
		}
	}
	visit(e)
}

// scalarsOf returns the scalar payload of a relational expression.
func scalarsOf(e opt.Expr) []opt.ScalarExpr {
	switch t := e.(type) {
	case *memo.FilterExpr:
		return []opt.ScalarExpr{t.Condition}
	case *memo.ProjectExpr:
		return t.Projections
	case *memo.CalcExpr:
		return t.Program.Exprs()
	case *memo.JoinExpr:
		return []opt.ScalarExpr{t.Condition}
	}
	return nil
}

// ConstructScan constructs a scan of the given fields of a table.
func (f *Factory) ConstructScan(table *memo.Table, fields []int) memo.RelExpr {
	return memo.NewScan(table, fields)
}

// ConstructValues constructs a constant relation.
func (f *Factory) ConstructValues(rowType opt.RowType, rows [][]*memo.LiteralExpr) memo.RelExpr {
	return memo.NewValues(rowType, rows)
}

// ConstructFilter constructs a Filter operator.
func (f *Factory) ConstructFilter(input memo.RelExpr, condition opt.ScalarExpr) memo.RelExpr {
	return memo.NewFilter(input, condition)
}

// ConstructProject constructs a Project operator.
func (f *Factory) ConstructProject(
	input memo.RelExpr, projections []opt.ScalarExpr, names []string,
) memo.RelExpr {
	return memo.NewProject(input, projections, names)
}

// ConstructCalc constructs a Calc operator.
func (f *Factory) ConstructCalc(input memo.RelExpr, program *memo.Program) memo.RelExpr {
	return memo.NewCalc(input, program)
}

// ConstructJoin constructs a Join operator.
func (f *Factory) ConstructJoin(
	left, right memo.RelExpr, condition opt.ScalarExpr, joinType memo.JoinType,
) memo.RelExpr {
	return memo.NewJoin(left, right, condition, joinType)
}

// ConstructCorrelate constructs a Correlate operator.
func (f *Factory) ConstructCorrelate(
	left, right memo.RelExpr, id memo.CorrelationID, joinType memo.JoinType,
) memo.RelExpr {
	return memo.NewCorrelate(left, right, id, joinType)
}

// ConstructAggregate constructs an Aggregate operator.
func (f *Factory) ConstructAggregate(
	input memo.RelExpr, groupBy []int, aggs []memo.AggCall,
) memo.RelExpr {
	return memo.NewAggregate(input, groupBy, aggs)
}

// ConstructSort constructs a Sort operator.
func (f *Factory) ConstructSort(
	input memo.RelExpr, ordering physical.Ordering, offset, fetch int64,
) memo.RelExpr {
	return memo.NewSort(input, ordering, offset, fetch)
}

// ConstructWindow constructs a Window operator.
func (f *Factory) ConstructWindow(
	input memo.RelExpr, calls []*memo.WindowCallExpr, names []string,
) memo.RelExpr {
	return memo.NewWindow(input, calls, names)
}

// ConstructUnion constructs a Union operator.
func (f *Factory) ConstructUnion(inputs []memo.RelExpr, all bool) memo.RelExpr {
	return memo.NewUnion(inputs, all)
}

// ConstructConverter constructs a converter of input to the given
// convention. If the input already has that convention it is returned
// unchanged.
func (f *Factory) ConstructConverter(input memo.RelExpr, to physical.Convention) memo.RelExpr {
	if input.Traits().Convention == to {
		return input
	}
	return memo.NewConverter(input, to)
}

// ConstructProjectOrInput constructs a Project operator, or returns the
// input if the projection would pass it through unchanged.
func (f *Factory) ConstructProjectOrInput(
	input memo.RelExpr, projections []opt.ScalarExpr, names []string,
) memo.RelExpr {
	p := memo.NewProject(input, projections, names)
	if p.IsIdentity() {
		return input
	}
	return p
}

// ConstructFilterOrInput constructs a Filter operator, or returns the input
// if the condition is the constant true.
func (f *Factory) ConstructFilterOrInput(input memo.RelExpr, condition opt.ScalarExpr) memo.RelExpr {
	if memo.IsTrue(condition) {
		return input
	}
	return memo.NewFilter(input, condition)
}

// ConstructInConvention returns a copy of e whose convention is replaced.
// The rest of the traits are kept.
func (f *Factory) ConstructInConvention(e memo.RelExpr, conv physical.Convention) memo.RelExpr {
	if e.Traits().Convention == conv {
		return e
	}
	return e.WithTraits(e.Traits().WithConvention(conv))
}
