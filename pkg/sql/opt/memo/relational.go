// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/relopt/pkg/sql/types"
)

// RelExpr is implemented by every relational operator node. The set of
// implementations in this package is closed; code that needs
// operator-specific behavior type-switches over them.
//
// The children of a RelExpr, as returned by ChildCount and Child, are its
// relational inputs only. Scalar payload (conditions, projections) is held in
// operator-specific fields.
//
// RelExprs are immutable. Subtrees are freely shared between alternative
// parents, and every transformation builds new nodes.
type RelExpr interface {
	opt.Expr

	// RowType returns the fields produced by the expression.
	RowType() opt.RowType

	// Traits returns the physical properties provided by the expression.
	Traits() physical.TraitSet

	// Inputs returns the relational inputs of the expression.
	Inputs() []RelExpr

	// WithChildren returns a copy of the expression with its inputs replaced.
	// The row type is recomputed and checked; the traits are kept.
	WithChildren(inputs []RelExpr) RelExpr

	// WithTraits returns a copy of the expression with different traits.
	WithTraits(traits physical.TraitSet) RelExpr

	relExpr()
}

// relBase holds the properties shared by all relational nodes.
type relBase struct {
	rowType opt.RowType
	traits  physical.TraitSet
}

// RowType is part of the RelExpr interface.
func (r *relBase) RowType() opt.RowType { return r.rowType }

// Traits is part of the RelExpr interface.
func (r *relBase) Traits() physical.TraitSet { return r.traits }

func (r *relBase) relExpr() {}

func checkInputCount(op opt.Operator, inputs []RelExpr, n int) {
	if len(inputs) != n {
		panic(errors.AssertionFailedf("%s expects %d inputs, got %d", op, n, len(inputs)))
	}
}

func childOf(inputs []RelExpr, nth int) opt.Expr {
	if nth < 0 || nth >= len(inputs) {
		panic(errors.AssertionFailedf("child %d out of range", nth))
	}
	return inputs[nth]
}

// Table describes a table known to the catalog. Tables served by an adapter
// are scanned in the adapter's convention.
type Table struct {
	Name       string
	Columns    opt.RowType
	Convention physical.Convention
}

// ScanExpr reads a table. If Fields is non-nil, only the listed columns are
// produced, in that order.
type ScanExpr struct {
	relBase
	Table  *Table
	Fields []int
}

// NewScan constructs a scan of the given fields of a table; nil fields means
// every column.
func NewScan(table *Table, fields []int) *ScanExpr {
	e := &ScanExpr{Table: table, Fields: fields}
	if fields == nil {
		e.rowType = table.Columns
	} else {
		e.rowType = make(opt.RowType, len(fields))
		for i, f := range fields {
			if f < 0 || f >= len(table.Columns) {
				panic(errors.AssertionFailedf("scan of %s: field %d out of range", table.Name, f))
			}
			e.rowType[i] = table.Columns[f]
		}
	}
	e.traits = physical.LogicalTraits.WithConvention(table.Convention)
	return e
}

// Op is part of the opt.Expr interface.
func (e *ScanExpr) Op() opt.Operator { return opt.ScanOp }

// ChildCount is part of the opt.Expr interface.
func (e *ScanExpr) ChildCount() int { return 0 }

// Child is part of the opt.Expr interface.
func (e *ScanExpr) Child(nth int) opt.Expr { return childOf(nil, nth) }

// Inputs is part of the RelExpr interface.
func (e *ScanExpr) Inputs() []RelExpr { return nil }

// WithChildren is part of the RelExpr interface.
func (e *ScanExpr) WithChildren(inputs []RelExpr) RelExpr {
	checkInputCount(opt.ScanOp, inputs, 0)
	return e
}

// WithTraits is part of the RelExpr interface.
func (e *ScanExpr) WithTraits(traits physical.TraitSet) RelExpr {
	c := *e
	c.traits = traits
	return &c
}

// ValuesExpr produces a constant list of rows.
type ValuesExpr struct {
	relBase
	Rows [][]*LiteralExpr
}

// NewValues constructs a Values operator with the given row type.
func NewValues(rowType opt.RowType, rows [][]*LiteralExpr) *ValuesExpr {
	for _, row := range rows {
		if len(row) != len(rowType) {
			panic(errors.AssertionFailedf("values row has %d fields, expected %d", len(row), len(rowType)))
		}
	}
	e := &ValuesExpr{Rows: rows}
	e.rowType = rowType
	return e
}

// Op is part of the opt.Expr interface.
func (e *ValuesExpr) Op() opt.Operator { return opt.ValuesOp }

// ChildCount is part of the opt.Expr interface.
func (e *ValuesExpr) ChildCount() int { return 0 }

// Child is part of the opt.Expr interface.
func (e *ValuesExpr) Child(nth int) opt.Expr { return childOf(nil, nth) }

// Inputs is part of the RelExpr interface.
func (e *ValuesExpr) Inputs() []RelExpr { return nil }

// WithChildren is part of the RelExpr interface.
func (e *ValuesExpr) WithChildren(inputs []RelExpr) RelExpr {
	checkInputCount(opt.ValuesOp, inputs, 0)
	return e
}

// WithTraits is part of the RelExpr interface.
func (e *ValuesExpr) WithTraits(traits physical.TraitSet) RelExpr {
	c := *e
	c.traits = traits
	return &c
}

// FilterExpr discards the input rows for which Condition is not true. Its row
// type is the row type of its input.
type FilterExpr struct {
	relBase
	Input     RelExpr
	Condition opt.ScalarExpr
}

// NewFilter constructs a Filter operator.
func NewFilter(input RelExpr, condition opt.ScalarExpr) *FilterExpr {
	if fam := condition.DataType().Family(); fam != types.BoolFamily && fam != types.UnknownFamily {
		panic(errors.AssertionFailedf("filter condition %s has type %s", condition, condition.DataType()))
	}
	e := &FilterExpr{Input: input, Condition: condition}
	e.rowType = input.RowType()
	e.traits = physical.LogicalTraits
	return e
}

// Op is part of the opt.Expr interface.
func (e *FilterExpr) Op() opt.Operator { return opt.FilterOp }

// ChildCount is part of the opt.Expr interface.
func (e *FilterExpr) ChildCount() int { return 1 }

// Child is part of the opt.Expr interface.
func (e *FilterExpr) Child(nth int) opt.Expr { return childOf(e.Inputs(), nth) }

// Inputs is part of the RelExpr interface.
func (e *FilterExpr) Inputs() []RelExpr { return []RelExpr{e.Input} }

// WithChildren is part of the RelExpr interface.
func (e *FilterExpr) WithChildren(inputs []RelExpr) RelExpr {
	checkInputCount(opt.FilterOp, inputs, 1)
	c := NewFilter(inputs[0], e.Condition)
	c.traits = e.traits
	return c
}

// WithTraits is part of the RelExpr interface.
func (e *FilterExpr) WithTraits(traits physical.TraitSet) RelExpr {
	c := *e
	c.traits = traits
	return &c
}

// ProjectExpr computes one output field per projection. Names gives the
// output field names; a missing or empty name is replaced by "$fN".
type ProjectExpr struct {
	relBase
	Input       RelExpr
	Projections []opt.ScalarExpr
	Names       []string
}

// NewProject constructs a Project operator.
func NewProject(input RelExpr, projections []opt.ScalarExpr, names []string) *ProjectExpr {
	e := &ProjectExpr{Input: input, Projections: projections, Names: names}
	inputType := input.RowType()
	e.rowType = make(opt.RowType, len(projections))
	for i, p := range projections {
		e.rowType[i] = opt.Column{
			Name:     fieldName(names, i, i),
			Type:     p.DataType(),
			Nullable: IsNullable(p, inputType, nil /* locals */),
		}
	}
	e.traits = physical.LogicalTraits
	return e
}

// Op is part of the opt.Expr interface.
func (e *ProjectExpr) Op() opt.Operator { return opt.ProjectOp }

// ChildCount is part of the opt.Expr interface.
func (e *ProjectExpr) ChildCount() int { return 1 }

// Child is part of the opt.Expr interface.
func (e *ProjectExpr) Child(nth int) opt.Expr { return childOf(e.Inputs(), nth) }

// Inputs is part of the RelExpr interface.
func (e *ProjectExpr) Inputs() []RelExpr { return []RelExpr{e.Input} }

// WithChildren is part of the RelExpr interface.
func (e *ProjectExpr) WithChildren(inputs []RelExpr) RelExpr {
	checkInputCount(opt.ProjectOp, inputs, 1)
	c := NewProject(inputs[0], e.Projections, e.Names)
	c.traits = e.traits
	return c
}

// WithTraits is part of the RelExpr interface.
func (e *ProjectExpr) WithTraits(traits physical.TraitSet) RelExpr {
	c := *e
	c.traits = traits
	return &c
}

// IsIdentity returns true if the projection passes its input through
// unchanged, including field names.
func (e *ProjectExpr) IsIdentity() bool {
	inputType := e.Input.RowType()
	if len(e.Projections) != len(inputType) {
		return false
	}
	for i, p := range e.Projections {
		ref, ok := p.(*InputRefExpr)
		if !ok || ref.Index != i {
			return false
		}
	}
	return e.rowType.Equals(inputType)
}

// CalcExpr evaluates a program over every input row: rows for which the
// program's condition is not true are discarded, the others are projected.
type CalcExpr struct {
	relBase
	Input   RelExpr
	Program *Program
}

// NewCalc constructs a Calc operator. The program's input row type must be
// the row type of input.
func NewCalc(input RelExpr, program *Program) *CalcExpr {
	if !program.InputType().Equals(input.RowType()) {
		panic(errors.AssertionFailedf(
			"calc program expects input %s, got %s", program.InputType(), input.RowType(),
		))
	}
	e := &CalcExpr{Input: input, Program: program}
	e.rowType = program.OutputType()
	e.traits = physical.LogicalTraits
	return e
}

// Op is part of the opt.Expr interface.
func (e *CalcExpr) Op() opt.Operator { return opt.CalcOp }

// ChildCount is part of the opt.Expr interface.
func (e *CalcExpr) ChildCount() int { return 1 }

// Child is part of the opt.Expr interface.
func (e *CalcExpr) Child(nth int) opt.Expr { return childOf(e.Inputs(), nth) }

// Inputs is part of the RelExpr interface.
func (e *CalcExpr) Inputs() []RelExpr { return []RelExpr{e.Input} }

// WithChildren is part of the RelExpr interface.
func (e *CalcExpr) WithChildren(inputs []RelExpr) RelExpr {
	checkInputCount(opt.CalcOp, inputs, 1)
	c := NewCalc(inputs[0], e.Program)
	c.traits = e.traits
	return c
}

// WithTraits is part of the RelExpr interface.
func (e *CalcExpr) WithTraits(traits physical.TraitSet) RelExpr {
	c := *e
	c.traits = traits
	return &c
}

// JoinType is the kind of a join.
type JoinType uint8

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
)

var joinTypeNames = [...]string{
	InnerJoin: "inner",
	LeftJoin:  "left",
	RightJoin: "right",
	FullJoin:  "full",
}

func (t JoinType) String() string { return joinTypeNames[t] }

// joinRowType returns the row type of a join of the given type: the left
// fields followed by the right fields, made nullable on the side that can be
// null-extended.
func joinRowType(left, right opt.RowType, joinType JoinType) opt.RowType {
	if joinType == RightJoin || joinType == FullJoin {
		left = left.WithNullable()
	}
	if joinType == LeftJoin || joinType == FullJoin {
		right = right.WithNullable()
	}
	return left.Concat(right)
}

// JoinExpr joins its inputs on Condition. In the condition, fields of the
// left input are referenced first, followed by fields of the right input.
type JoinExpr struct {
	relBase
	Left      RelExpr
	Right     RelExpr
	Condition opt.ScalarExpr
	JoinType  JoinType
}

// NewJoin constructs a Join operator.
func NewJoin(left, right RelExpr, condition opt.ScalarExpr, joinType JoinType) *JoinExpr {
	e := &JoinExpr{Left: left, Right: right, Condition: condition, JoinType: joinType}
	e.rowType = joinRowType(left.RowType(), right.RowType(), joinType)
	e.traits = physical.LogicalTraits
	return e
}

// Op is part of the opt.Expr interface.
func (e *JoinExpr) Op() opt.Operator { return opt.JoinOp }

// ChildCount is part of the opt.Expr interface.
func (e *JoinExpr) ChildCount() int { return 2 }

// Child is part of the opt.Expr interface.
func (e *JoinExpr) Child(nth int) opt.Expr { return childOf(e.Inputs(), nth) }

// Inputs is part of the RelExpr interface.
func (e *JoinExpr) Inputs() []RelExpr { return []RelExpr{e.Left, e.Right} }

// WithChildren is part of the RelExpr interface.
func (e *JoinExpr) WithChildren(inputs []RelExpr) RelExpr {
	checkInputCount(opt.JoinOp, inputs, 2)
	c := NewJoin(inputs[0], inputs[1], e.Condition, e.JoinType)
	c.traits = e.traits
	return c
}

// WithTraits is part of the RelExpr interface.
func (e *JoinExpr) WithTraits(traits physical.TraitSet) RelExpr {
	c := *e
	c.traits = traits
	return &c
}

// CorrelateExpr evaluates Right once per row of Left, with the left row bound
// to the correlation variable ID. Only inner and left correlation is
// supported.
type CorrelateExpr struct {
	relBase
	Left     RelExpr
	Right    RelExpr
	ID       CorrelationID
	JoinType JoinType
}

// NewCorrelate constructs a Correlate operator.
func NewCorrelate(left, right RelExpr, id CorrelationID, joinType JoinType) *CorrelateExpr {
	if joinType != InnerJoin && joinType != LeftJoin {
		panic(errors.AssertionFailedf("correlate does not support %s joins", joinType))
	}
	e := &CorrelateExpr{Left: left, Right: right, ID: id, JoinType: joinType}
	e.rowType = joinRowType(left.RowType(), right.RowType(), joinType)
	e.traits = physical.LogicalTraits
	return e
}

// Op is part of the opt.Expr interface.
func (e *CorrelateExpr) Op() opt.Operator { return opt.CorrelateOp }

// ChildCount is part of the opt.Expr interface.
func (e *CorrelateExpr) ChildCount() int { return 2 }

// Child is part of the opt.Expr interface.
func (e *CorrelateExpr) Child(nth int) opt.Expr { return childOf(e.Inputs(), nth) }

// Inputs is part of the RelExpr interface.
func (e *CorrelateExpr) Inputs() []RelExpr { return []RelExpr{e.Left, e.Right} }

// WithChildren is part of the RelExpr interface.
func (e *CorrelateExpr) WithChildren(inputs []RelExpr) RelExpr {
	checkInputCount(opt.CorrelateOp, inputs, 2)
	c := NewCorrelate(inputs[0], inputs[1], e.ID, e.JoinType)
	c.traits = e.traits
	return c
}

// WithTraits is part of the RelExpr interface.
func (e *CorrelateExpr) WithTraits(traits physical.TraitSet) RelExpr {
	c := *e
	c.traits = traits
	return &c
}

// AggCall is one aggregate computed by an Aggregate operator. Args are
// ordinals of input fields.
type AggCall struct {
	Func     opt.Operator
	Args     []int
	Distinct bool
	Name     string
}

// AggregateExpr groups its input by the GroupBy fields and computes Aggs for
// every group. The output holds the grouping fields followed by one field per
// aggregate.
type AggregateExpr struct {
	relBase
	Input   RelExpr
	GroupBy []int
	Aggs    []AggCall
}

// NewAggregate constructs an Aggregate operator.
func NewAggregate(input RelExpr, groupBy []int, aggs []AggCall) *AggregateExpr {
	e := &AggregateExpr{Input: input, GroupBy: groupBy, Aggs: aggs}
	inputType := input.RowType()
	e.rowType = make(opt.RowType, 0, len(groupBy)+len(aggs))
	for _, g := range groupBy {
		if g < 0 || g >= len(inputType) {
			panic(errors.AssertionFailedf("grouping field %d out of range for %s", g, inputType))
		}
		e.rowType = append(e.rowType, inputType[g])
	}
	for i, agg := range aggs {
		if !opt.IsAggregateOp(agg.Func) {
			panic(errors.AssertionFailedf("%s is not an aggregate function", agg.Func))
		}
		args := make([]opt.ScalarExpr, len(agg.Args))
		for j, a := range agg.Args {
			args[j] = InputRef(inputType, a)
		}
		e.rowType = append(e.rowType, opt.Column{
			Name:     fieldName([]string{agg.Name}, 0, len(groupBy)+i),
			Type:     InferType(agg.Func, args),
			Nullable: aggNullable(agg.Func),
		})
	}
	e.traits = physical.LogicalTraits
	return e
}

// Op is part of the opt.Expr interface.
func (e *AggregateExpr) Op() opt.Operator { return opt.AggregateOp }

// ChildCount is part of the opt.Expr interface.
func (e *AggregateExpr) ChildCount() int { return 1 }

// Child is part of the opt.Expr interface.
func (e *AggregateExpr) Child(nth int) opt.Expr { return childOf(e.Inputs(), nth) }

// Inputs is part of the RelExpr interface.
func (e *AggregateExpr) Inputs() []RelExpr { return []RelExpr{e.Input} }

// WithChildren is part of the RelExpr interface.
func (e *AggregateExpr) WithChildren(inputs []RelExpr) RelExpr {
	checkInputCount(opt.AggregateOp, inputs, 1)
	c := NewAggregate(inputs[0], e.GroupBy, e.Aggs)
	c.traits = e.traits
	return c
}

// WithTraits is part of the RelExpr interface.
func (e *AggregateExpr) WithTraits(traits physical.TraitSet) RelExpr {
	c := *e
	c.traits = traits
	return &c
}

// NoFetch is the Fetch value of a sort that does not limit its output.
const NoFetch = -1

// SortExpr orders its input by Ordering, then skips Offset rows and returns
// at most Fetch rows.
type SortExpr struct {
	relBase
	Input    RelExpr
	Ordering physical.Ordering
	Offset   int64
	Fetch    int64
}

// NewSort constructs a Sort operator. Its traits carry the ordering.
func NewSort(input RelExpr, ordering physical.Ordering, offset, fetch int64) *SortExpr {
	for _, c := range ordering {
		if c.Field < 0 || c.Field >= len(input.RowType()) {
			panic(errors.AssertionFailedf("sort field %d out of range for %s", c.Field, input.RowType()))
		}
	}
	e := &SortExpr{Input: input, Ordering: ordering, Offset: offset, Fetch: fetch}
	e.rowType = input.RowType()
	e.traits = physical.LogicalTraits.WithOrdering(ordering)
	return e
}

// Op is part of the opt.Expr interface.
func (e *SortExpr) Op() opt.Operator { return opt.SortOp }

// ChildCount is part of the opt.Expr interface.
func (e *SortExpr) ChildCount() int { return 1 }

// Child is part of the opt.Expr interface.
func (e *SortExpr) Child(nth int) opt.Expr { return childOf(e.Inputs(), nth) }

// Inputs is part of the RelExpr interface.
func (e *SortExpr) Inputs() []RelExpr { return []RelExpr{e.Input} }

// WithChildren is part of the RelExpr interface.
func (e *SortExpr) WithChildren(inputs []RelExpr) RelExpr {
	checkInputCount(opt.SortOp, inputs, 1)
	c := NewSort(inputs[0], e.Ordering, e.Offset, e.Fetch)
	c.traits = e.traits
	return c
}

// WithTraits is part of the RelExpr interface.
func (e *SortExpr) WithTraits(traits physical.TraitSet) RelExpr {
	c := *e
	c.traits = traits
	return &c
}

// HasLimit returns true if the sort skips or limits rows.
func (e *SortExpr) HasLimit() bool {
	return e.Offset != 0 || e.Fetch != NoFetch
}

// WindowExpr appends one field per windowed call to every input row. The
// arguments and window keys of the calls reference input fields.
type WindowExpr struct {
	relBase
	Input RelExpr
	Calls []*WindowCallExpr
	Names []string
}

// NewWindow constructs a Window operator.
func NewWindow(input RelExpr, calls []*WindowCallExpr, names []string) *WindowExpr {
	e := &WindowExpr{Input: input, Calls: calls, Names: names}
	inputType := input.RowType()
	e.rowType = make(opt.RowType, len(inputType), len(inputType)+len(calls))
	copy(e.rowType, inputType)
	for i, call := range calls {
		VisitLocalRefs(call, func(ref *LocalRefExpr) {
			panic(errors.AssertionFailedf("window call %s contains local reference %s", call, ref))
		})
		e.rowType = append(e.rowType, opt.Column{
			Name:     fieldName(names, i, len(inputType)+i),
			Type:     call.Typ,
			Nullable: aggNullable(call.Func),
		})
	}
	e.traits = physical.LogicalTraits
	return e
}

// Op is part of the opt.Expr interface.
func (e *WindowExpr) Op() opt.Operator { return opt.WindowOp }

// ChildCount is part of the opt.Expr interface.
func (e *WindowExpr) ChildCount() int { return 1 }

// Child is part of the opt.Expr interface.
func (e *WindowExpr) Child(nth int) opt.Expr { return childOf(e.Inputs(), nth) }

// Inputs is part of the RelExpr interface.
func (e *WindowExpr) Inputs() []RelExpr { return []RelExpr{e.Input} }

// WithChildren is part of the RelExpr interface.
func (e *WindowExpr) WithChildren(inputs []RelExpr) RelExpr {
	checkInputCount(opt.WindowOp, inputs, 1)
	c := NewWindow(inputs[0], e.Calls, e.Names)
	c.traits = e.traits
	return c
}

// WithTraits is part of the RelExpr interface.
func (e *WindowExpr) WithTraits(traits physical.TraitSet) RelExpr {
	c := *e
	c.traits = traits
	return &c
}

// WindowGroup is a set of calls of a Window operator that share one window.
type WindowGroup struct {
	Window *WindowSpec
	// Calls are ordinals into WindowExpr.Calls.
	Calls []int
}

// Groups partitions the calls by window, in order of first appearance.
func (e *WindowExpr) Groups() []WindowGroup {
	var groups []WindowGroup
	for i, call := range e.Calls {
		found := false
		for g := range groups {
			if groups[g].Window.Equals(call.Window) {
				groups[g].Calls = append(groups[g].Calls, i)
				found = true
				break
			}
		}
		if !found {
			groups = append(groups, WindowGroup{Window: call.Window, Calls: []int{i}})
		}
	}
	return groups
}

// UnionExpr concatenates the rows of its inputs. Unless All is set,
// duplicate rows are removed. The field names are those of the first input.
type UnionExpr struct {
	relBase
	Branches []RelExpr
	All      bool
}

// NewUnion constructs a Union operator. The inputs must have the same number
// of fields with identical types.
func NewUnion(inputs []RelExpr, all bool) *UnionExpr {
	if len(inputs) < 1 {
		panic(errors.AssertionFailedf("union requires at least one input"))
	}
	rowType := make(opt.RowType, len(inputs[0].RowType()))
	copy(rowType, inputs[0].RowType())
	for _, in := range inputs[1:] {
		other := in.RowType()
		if len(other) != len(rowType) {
			panic(errors.AssertionFailedf("union inputs %s and %s are not compatible", rowType, other))
		}
		for i := range other {
			if !other[i].Type.Identical(rowType[i].Type) {
				panic(errors.AssertionFailedf("union inputs %s and %s are not compatible", rowType, other))
			}
			rowType[i].Nullable = rowType[i].Nullable || other[i].Nullable
		}
	}
	e := &UnionExpr{Branches: inputs, All: all}
	e.rowType = rowType
	e.traits = physical.LogicalTraits
	return e
}

// Op is part of the opt.Expr interface.
func (e *UnionExpr) Op() opt.Operator { return opt.UnionOp }

// ChildCount is part of the opt.Expr interface.
func (e *UnionExpr) ChildCount() int { return len(e.Branches) }

// Child is part of the opt.Expr interface.
func (e *UnionExpr) Child(nth int) opt.Expr { return childOf(e.Branches, nth) }

// Inputs is part of the RelExpr interface.
func (e *UnionExpr) Inputs() []RelExpr { return e.Branches }

// WithChildren is part of the RelExpr interface.
func (e *UnionExpr) WithChildren(inputs []RelExpr) RelExpr {
	c := NewUnion(inputs, e.All)
	c.traits = e.traits
	return c
}

// WithTraits is part of the RelExpr interface.
func (e *UnionExpr) WithTraits(traits physical.TraitSet) RelExpr {
	c := *e
	c.traits = traits
	return &c
}

// ConverterExpr makes the rows of an input implemented in convention From
// available in the converter's own convention.
type ConverterExpr struct {
	relBase
	Input RelExpr
	From  physical.Convention
}

// NewConverter constructs a converter from the input's convention to the
// given one.
func NewConverter(input RelExpr, to physical.Convention) *ConverterExpr {
	from := input.Traits().Convention
	if from == to {
		panic(errors.AssertionFailedf("converter from %s to itself", from))
	}
	e := &ConverterExpr{Input: input, From: from}
	e.rowType = input.RowType()
	e.traits = input.Traits().WithConvention(to)
	return e
}

// Op is part of the opt.Expr interface.
func (e *ConverterExpr) Op() opt.Operator { return opt.ConverterOp }

// ChildCount is part of the opt.Expr interface.
func (e *ConverterExpr) ChildCount() int { return 1 }

// Child is part of the opt.Expr interface.
func (e *ConverterExpr) Child(nth int) opt.Expr { return childOf(e.Inputs(), nth) }

// Inputs is part of the RelExpr interface.
func (e *ConverterExpr) Inputs() []RelExpr { return []RelExpr{e.Input} }

// WithChildren is part of the RelExpr interface.
func (e *ConverterExpr) WithChildren(inputs []RelExpr) RelExpr {
	checkInputCount(opt.ConverterOp, inputs, 1)
	c := *e
	c.Input = inputs[0]
	c.rowType = inputs[0].RowType()
	return &c
}

// WithTraits is part of the RelExpr interface.
func (e *ConverterExpr) WithTraits(traits physical.TraitSet) RelExpr {
	c := *e
	c.traits = traits
	return &c
}

// RequiredInputConvention returns the convention that the nth input of e must
// be implemented in. Converters bridge conventions; every other operator
// requires its inputs in its own convention.
func RequiredInputConvention(e RelExpr, nth int) physical.Convention {
	if conv, ok := e.(*ConverterExpr); ok {
		return conv.From
	}
	return e.Traits().Convention
}
