// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package splitter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
)

// Splitter partitions the program of a Calc operator into a pipeline of
// stages. Every stage is evaluated by one capability class, and feeds its
// output row to the next stage.
//
// An expression is placed in the lowest stage at or above the stages of its
// operands whose class can evaluate it. When no existing stage fits, a new
// stage is appended, using the first class in RelTypes that can evaluate the
// expression. The windowed calls of a cohort are always placed in the same
// stage. Rows are discarded only by the last stage, so that every windowed
// call sees the rows the original program would have seen.
type Splitter struct {
	// RelTypes are the available classes, in order of preference. The first
	// one is the class of the unsplit operator: a program that fits in a
	// single stage of that class is left alone.
	RelTypes []*RelType

	// Handle, if set, is applied to the operator built for every stage. It
	// must return an operator with the same row type.
	Handle func(rel memo.RelExpr) memo.RelExpr
}

// New returns a splitter for the given classes.
func New(relTypes ...*RelType) *Splitter {
	return &Splitter{RelTypes: relTypes}
}

// Stage is one step of a split program.
type Stage struct {
	Type *RelType
	// Exprs are the ordinals of the program expressions evaluated by the
	// stage, in increasing order.
	Exprs []int
}

// Plan describes how a program is split. It is computed by Splitter.Plan
// and turned into operators by Build.
type Plan struct {
	// Program is the program that was split. It is the original program
	// unless that one needed flattening, in which case it is its normalized
	// form.
	Program *memo.Program
	Graph   *Graph
	Rank    []int
	Cohorts []Cohort
	Stages  []Stage

	// ExprStages holds the stage of every expression. References to input
	// fields are in stage -1: they are available to every stage.
	ExprStages []int
}

// Plan computes the stages of a program. It returns an
// *UnsupportedPartitionError if some expression cannot be evaluated by any
// class.
func (s *Splitter) Plan(p *memo.Program) (*Plan, error) {
	if needsFlattening(p) {
		p = p.Normalize()
	}
	g := BuildGraph(p)
	pl := &Plan{
		Program:    p,
		Graph:      g,
		Rank:       g.Rank(),
		Cohorts:    Cohorts(p, g),
		ExprStages: make([]int, p.NumExprs()),
	}
	for i, e := range p.Exprs() {
		if e.Op() == opt.InputRefOp {
			pl.ExprStages[i] = -1
		}
	}
	for _, unit := range schedule(p, g, pl.Cohorts) {
		if err := s.place(pl, unit); err != nil {
			return nil, err
		}
	}

	// The condition is applied by the last stage.
	if p.HasCondition() && len(pl.Stages) > 0 && !pl.lastStage().Type.SupportsCondition {
		var filterType *RelType
		for _, t := range s.RelTypes {
			if t.SupportsCondition {
				filterType = t
				break
			}
		}
		if filterType == nil {
			return nil, &UnsupportedPartitionError{
				Ordinals: []int{p.Condition()},
				Reason:   "no class can discard rows after stage " + pl.lastStage().Type.Name,
			}
		}
		pl.Stages = append(pl.Stages, Stage{Type: filterType})
	}
	return pl, nil
}

// needsFlattening returns true if some expression must be decomposed before
// the program can be split: an input reference nested in a call, a windowed
// call nested in another expression, or a windowed call whose operands or
// window keys are not local references. Each windowed call must be a whole
// program expression so that it can be placed on its own.
func needsFlattening(p *memo.Program) bool {
	if !p.IsFlat() {
		return true
	}
	for _, e := range p.Exprs() {
		call, ok := e.(*memo.WindowCallExpr)
		if !ok {
			if memo.ContainsWindowCall(e) {
				return true
			}
			continue
		}
		for i, n := 0, call.ChildCount(); i < n; i++ {
			if call.Child(i).Op() != opt.LocalRefOp {
				return true
			}
		}
	}
	return false
}

func (pl *Plan) lastStage() *Stage {
	return &pl.Stages[len(pl.Stages)-1]
}

// schedule returns the order in which expressions are placed. Input
// references are not placed. The members of a cohort are placed together,
// after every expression any of them refers to. If two cohorts refer to
// each other's members, no such order exists; the cohort with the lowest
// first member is then dissolved into single expressions.
func schedule(p *memo.Program, g *Graph, cohorts []Cohort) [][]int {
	n := p.NumExprs()
	done := make([]bool, n)
	grouped := make([]bool, n)
	var pending [][]int
	for _, c := range cohorts {
		if len(c.Members) > 1 {
			pending = append(pending, c.Members)
			for _, m := range c.Members {
				grouped[m] = true
			}
		}
	}
	for i, e := range p.Exprs() {
		if e.Op() == opt.InputRefOp {
			done[i] = true
		} else if !grouped[i] {
			pending = append(pending, []int{i})
		}
	}
	sortUnits(pending)

	var order [][]int
	for len(pending) > 0 {
		next := -1
		for u, unit := range pending {
			if unitReady(g, unit, done) {
				next = u
				break
			}
		}
		if next == -1 {
			// Dissolve the first cohort that is waiting on another cohort.
			for u, unit := range pending {
				if len(unit) > 1 {
					pending = append(pending[:u:u], pending[u+1:]...)
					for _, m := range unit {
						pending = append(pending, []int{m})
					}
					break
				}
			}
			sortUnits(pending)
			continue
		}
		unit := pending[next]
		pending = append(pending[:next:next], pending[next+1:]...)
		for _, m := range unit {
			done[m] = true
		}
		order = append(order, unit)
	}
	return order
}

func sortUnits(units [][]int) {
	sort.Slice(units, func(i, j int) bool { return units[i][0] < units[j][0] })
}

// unitReady returns true if every expression that a member of the unit
// refers to, other than the members themselves, has been placed.
func unitReady(g *Graph, unit []int, done []bool) bool {
	for _, m := range unit {
		for _, p := range g.Predecessors(m) {
			if !done[p] && !contains(unit, p) {
				return false
			}
		}
	}
	return true
}

func contains(s []int, x int) bool {
	for _, v := range s {
		if v == x {
			return true
		}
	}
	return false
}

// place assigns a stage to the expressions of a unit.
func (s *Splitter) place(pl *Plan, unit []int) error {
	stage := 0
	for _, m := range unit {
		for _, p := range pl.Graph.Predecessors(m) {
			if pl.ExprStages[p] > stage {
				stage = pl.ExprStages[p]
			}
		}
	}
	for ; ; stage++ {
		if stage < len(pl.Stages) {
			if s.accepts(pl, pl.Stages[stage].Type, unit, stage) {
				break
			}
			continue
		}
		var t *RelType
		for _, candidate := range s.RelTypes {
			if s.accepts(pl, candidate, unit, stage) {
				t = candidate
				break
			}
		}
		if t == nil {
			return &UnsupportedPartitionError{Ordinals: unit, Reason: s.rejection(pl, unit)}
		}
		pl.Stages = append(pl.Stages, Stage{Type: t})
		break
	}
	for _, m := range unit {
		pl.ExprStages[m] = stage
	}
	st := &pl.Stages[stage]
	st.Exprs = append(st.Exprs, unit...)
	sort.Ints(st.Exprs)
	return nil
}

// accepts returns true if a stage of class t at the given position can
// evaluate every expression of the unit.
func (s *Splitter) accepts(pl *Plan, t *RelType, unit []int, stage int) bool {
	for _, m := range unit {
		if !t.canImplementTree(pl.Program.Expr(m)) {
			return false
		}
		if m == pl.Program.Condition() && !t.SupportsCondition {
			return false
		}
		if !t.NestedRefs {
			for _, p := range pl.Graph.Predecessors(m) {
				if pl.ExprStages[p] == stage && pl.Program.Expr(p).Op() != opt.InputRefOp {
					return false
				}
			}
		}
	}
	return true
}

func (s *Splitter) rejection(pl *Plan, unit []int) string {
	var sb strings.Builder
	for i, m := range unit {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(pl.Program.Expr(m).String())
	}
	if contains(unit, pl.Program.Condition()) {
		sb.WriteString(" (condition)")
	}
	return sb.String()
}

// Execute splits the program of a Calc operator and returns the pipeline of
// stage operators, whose row type is the row type of calc. An identity
// program yields the input of calc. If the program fits in a single stage of
// the first class, calc itself is returned.
func (s *Splitter) Execute(calc *memo.CalcExpr) (memo.RelExpr, error) {
	if calc.Program.IsIdentity() {
		return calc.Input, nil
	}
	pl, err := s.Plan(calc.Program)
	if err != nil {
		return nil, err
	}
	if len(pl.Stages) == 0 || (len(pl.Stages) == 1 && pl.Stages[0].Type == s.RelTypes[0]) {
		return calc, nil
	}
	return pl.Build(calc.Input, s.Handle), nil
}

// Build assembles the stages of the plan over the given input, whose row
// type must be the program's input type. If handle is not nil it is applied
// to every stage operator.
func (pl *Plan) Build(input memo.RelExpr, handle func(memo.RelExpr) memo.RelExpr) memo.RelExpr {
	p := pl.Program
	n := p.NumExprs()
	last := len(pl.Stages) - 1

	// lastUse is the highest stage that reads an expression. The projection
	// and the condition are read by the last stage.
	lastUse := make([]int, n)
	for i := range lastUse {
		lastUse[i] = -2
	}
	for j := 0; j < n; j++ {
		for _, i := range pl.Graph.Predecessors(j) {
			if pl.ExprStages[j] > lastUse[i] {
				lastUse[i] = pl.ExprStages[j]
			}
		}
	}
	for _, item := range p.Projects() {
		lastUse[item.Index] = last
	}
	if p.HasCondition() {
		lastUse[p.Condition()] = last
	}

	// inputPos is the position of an expression in the input row of the
	// stage being built, or -1 if the stage does not receive it.
	inputPos := make([]int, n)
	for i, e := range p.Exprs() {
		inputPos[i] = -1
		if ref, ok := e.(*memo.InputRefExpr); ok {
			inputPos[i] = ref.Index
		}
	}

	rel := input
	for stage := 0; stage <= last; stage++ {
		inputType := rel.RowType()
		b := stageBuilder{input: inputType, localOf: make([]int, n)}
		for k := range inputType {
			b.exprs = append(b.exprs, memo.InputRef(inputType, k))
		}
		for _, i := range pl.Stages[stage].Exprs {
			b.localOf[i] = len(b.exprs)
			b.exprs = append(b.exprs, b.remap(p.Expr(i), pl.ExprStages, inputPos, stage))
		}
		local := func(i int) int {
			if pl.ExprStages[i] == stage {
				return b.localOf[i]
			}
			if inputPos[i] < 0 {
				panic(errors.AssertionFailedf("expression %d is not available to stage %d", i, stage))
			}
			return inputPos[i]
		}

		var projects []memo.ProjectItem
		condition := memo.NoCondition
		var outputs []int
		if stage == last {
			outputType := p.OutputType()
			for k, item := range p.Projects() {
				projects = append(projects, memo.ProjectItem{Index: local(item.Index), Name: outputType[k].Name})
			}
			if p.HasCondition() {
				condition = local(p.Condition())
			}
		} else {
			// Fields passed through keep their name; computed fields get a
			// generated one.
			for i := 0; i < n; i++ {
				if pl.ExprStages[i] <= stage && lastUse[i] > stage {
					item := memo.ProjectItem{Index: local(i)}
					if pl.ExprStages[i] != stage {
						item.Name = inputType[item.Index].Name
					}
					projects = append(projects, item)
					outputs = append(outputs, i)
				}
			}
		}

		program := memo.MakeProgram(inputType, b.exprs, projects, condition)
		next := pl.Stages[stage].Type.MakeRel(rel, program)
		if handle != nil {
			next = handle(next)
		}
		if !next.RowType().Equals(program.OutputType()) {
			panic(errors.AssertionFailedf(
				"stage %d (%s) produced %s, expected %s",
				stage, pl.Stages[stage].Type.Name, next.RowType(), program.OutputType(),
			))
		}
		rel = next

		for i := range inputPos {
			inputPos[i] = -1
		}
		for pos, i := range outputs {
			inputPos[i] = pos
		}
	}
	return rel
}

// stageBuilder accumulates the program of one stage.
type stageBuilder struct {
	input   opt.RowType
	exprs   []opt.ScalarExpr
	localOf []int
}

// remap rewrites the local references of a program expression to refer to
// the stage program: to the stage's own expressions or to its input fields.
func (b *stageBuilder) remap(
	e opt.ScalarExpr, exprStages []int, inputPos []int, stage int,
) opt.ScalarExpr {
	var replace memo.ReplaceFunc
	replace = func(e opt.ScalarExpr) opt.ScalarExpr {
		if ref, ok := e.(*memo.LocalRefExpr); ok {
			idx := inputPos[ref.Index]
			if exprStages[ref.Index] == stage {
				idx = b.localOf[ref.Index]
			}
			if idx < 0 {
				panic(errors.AssertionFailedf("stage %d refers to unavailable expression @%d", stage, ref.Index))
			}
			return &memo.LocalRefExpr{Index: idx, Typ: ref.Typ}
		}
		return memo.ReplaceChildren(e, replace)
	}
	return replace(e)
}

// String renders the stages of the plan:
//
//	cohorts: {1, 2}
//	stage 0 (window): @1, @2
//	stage 1 (calc): @3
func (pl *Plan) String() string {
	var sb strings.Builder
	sb.WriteString("cohorts:")
	if len(pl.Cohorts) == 0 {
		sb.WriteString(" none")
	}
	for i, c := range pl.Cohorts {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte(' ')
		sb.WriteString(c.String())
	}
	sb.WriteByte('\n')
	for i, st := range pl.Stages {
		sb.WriteString("stage ")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(" (")
		sb.WriteString(st.Type.Name)
		sb.WriteString("):")
		for j, e := range st.Exprs {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(" @")
			sb.WriteString(strconv.Itoa(e))
		}
		if i == len(pl.Stages)-1 && pl.Program.HasCondition() {
			sb.WriteString(" where @")
			sb.WriteString(strconv.Itoa(pl.Program.Condition()))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
