// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/types"
)

// NoCondition is the condition index of a program without a condition.
const NoCondition = -1

// ProjectItem selects program expression Index as an output field. An empty
// Name produces the generated name "$fN".
type ProjectItem struct {
	Index int
	Name  string
}

// Program is a list of scalar expressions evaluated in order over an input
// row, a projection selecting which of them form the output row, and an
// optional condition. The expressions form a DAG: an expression refers to
// earlier ones through local references (@n).
//
// The local-reference invariant holds for every Program: a local reference
// inside expression i refers to an index below i, and the projection and
// condition refer to indexes below the number of expressions. Programs are
// immutable.
type Program struct {
	input     opt.RowType
	exprs     []opt.ScalarExpr
	projects  []ProjectItem
	condition int

	// nullable[i] is true if expression i can be NULL.
	nullable   []bool
	outputType opt.RowType
}

// MakeProgram constructs a program from a flat expression list. It panics
// with an assertion failure if the local-reference invariant does not hold
// or if a reference is out of range.
func MakeProgram(
	input opt.RowType, exprs []opt.ScalarExpr, projects []ProjectItem, condition int,
) *Program {
	p := &Program{input: input, exprs: exprs, projects: projects, condition: condition}
	p.nullable = make([]bool, len(exprs))
	for i, e := range exprs {
		p.checkExpr(i, e)
		p.nullable[i] = IsNullable(e, input, p.nullable[:i])
	}
	for _, item := range projects {
		if item.Index < 0 || item.Index >= len(exprs) {
			panic(errors.AssertionFailedf("projection references @%d of %d expressions", item.Index, len(exprs)))
		}
	}
	if condition != NoCondition {
		if condition < 0 || condition >= len(exprs) {
			panic(errors.AssertionFailedf("condition references @%d of %d expressions", condition, len(exprs)))
		}
		if fam := exprs[condition].DataType().Family(); fam != types.BoolFamily && fam != types.UnknownFamily {
			panic(errors.AssertionFailedf("condition @%d has type %s", condition, exprs[condition].DataType()))
		}
	}

	p.outputType = make(opt.RowType, len(projects))
	for i, item := range projects {
		name := item.Name
		if name == "" {
			name = "$f" + strconv.Itoa(i)
		}
		p.outputType[i] = opt.Column{
			Name:     name,
			Type:     exprs[item.Index].DataType(),
			Nullable: p.nullable[item.Index],
		}
	}
	return p
}

// checkExpr verifies the references made by expression i.
func (p *Program) checkExpr(i int, e opt.ScalarExpr) {
	var visit func(e opt.Expr)
	visit = func(e opt.Expr) {
		switch t := e.(type) {
		case *LocalRefExpr:
			if t.Index < 0 || t.Index >= i {
				panic(errors.AssertionFailedf(
					"expression %d contains forward or cyclic reference @%d", i, t.Index,
				))
			}
			if !t.Typ.Identical(p.exprs[t.Index].DataType()) {
				panic(errors.AssertionFailedf(
					"expression %d references @%d as %s, but it has type %s",
					i, t.Index, t.Typ, p.exprs[t.Index].DataType(),
				))
			}
			return

		case *InputRefExpr:
			if t.Index < 0 || t.Index >= len(p.input) {
				panic(errors.AssertionFailedf("expression %d references missing input field $%d", i, t.Index))
			}
		}
		for c, n := 0, e.ChildCount(); c < n; c++ {
			visit(e.Child(c))
		}
	}
	visit(e)
}

// InputType returns the row type of the program's input.
func (p *Program) InputType() opt.RowType { return p.input }

// OutputType returns the row type produced by the projection.
func (p *Program) OutputType() opt.RowType { return p.outputType }

// Exprs returns the program's expressions. The slice must not be modified.
func (p *Program) Exprs() []opt.ScalarExpr { return p.exprs }

// Expr returns the ith expression.
func (p *Program) Expr(i int) opt.ScalarExpr { return p.exprs[i] }

// NumExprs returns the number of expressions.
func (p *Program) NumExprs() int { return len(p.exprs) }

// Projects returns the projection list. The slice must not be modified.
func (p *Program) Projects() []ProjectItem { return p.projects }

// Condition returns the index of the condition expression, or NoCondition.
func (p *Program) Condition() int { return p.condition }

// HasCondition returns true if the program filters rows.
func (p *Program) HasCondition() bool { return p.condition != NoCondition }

// IsNullable returns true if expression i can evaluate to NULL.
func (p *Program) IsNullable(i int) bool { return p.nullable[i] }

// LocalRef returns a local reference to expression i.
func (p *Program) LocalRef(i int) *LocalRefExpr {
	return &LocalRefExpr{Index: i, Typ: p.exprs[i].DataType()}
}

// IsIdentity returns true if the program passes its input through
// unchanged: it has no condition and projects every input field, in order,
// under its original name.
func (p *Program) IsIdentity() bool {
	if p.HasCondition() || len(p.projects) != len(p.input) {
		return false
	}
	for i, item := range p.projects {
		ref, ok := p.exprs[item.Index].(*InputRefExpr)
		if !ok || ref.Index != i {
			return false
		}
	}
	return p.outputType.Equals(p.input)
}

// ContainsWindowCalls returns true if any expression of the program contains
// a windowed aggregate call.
func (p *Program) ContainsWindowCalls() bool {
	for _, e := range p.exprs {
		if ContainsWindowCall(e) {
			return true
		}
	}
	return false
}

// IsFlat returns true if input references only appear as whole program
// expressions, never nested inside another expression. Programs produced by
// BuildProgram and Normalize are flat.
func (p *Program) IsFlat() bool {
	for _, e := range p.exprs {
		if e.Op() == opt.InputRefOp {
			continue
		}
		if len(InputRefsUsed(e)) > 0 {
			return false
		}
	}
	return true
}

// ExpandLocalRefs returns expression i as a tree in which every local
// reference has been replaced by the expression it refers to.
func (p *Program) ExpandLocalRefs(i int) opt.ScalarExpr {
	expanded := make([]opt.ScalarExpr, i+1)
	var expand func(i int) opt.ScalarExpr
	expand = func(i int) opt.ScalarExpr {
		if expanded[i] != nil {
			return expanded[i]
		}
		var replace ReplaceFunc
		replace = func(e opt.ScalarExpr) opt.ScalarExpr {
			if ref, ok := e.(*LocalRefExpr); ok {
				return expand(ref.Index)
			}
			return ReplaceChildren(e, replace)
		}
		expanded[i] = replace(p.exprs[i])
		return expanded[i]
	}
	return expand(i)
}

// Normalize returns an equivalent flat program in which common
// subexpressions are shared and expressions unreachable from the projection
// and condition are removed. Input references to every input field are kept
// as the first expressions.
func (p *Program) Normalize() *Program {
	b := newProgramBuilder(p.input, true /* dedup */)
	mapped := make([]int, len(p.exprs))
	for i := range mapped {
		mapped[i] = -1
	}
	var register func(i int) int
	register = func(i int) int {
		if mapped[i] == -1 {
			mapped[i] = b.addTree(p.exprs[i])
		}
		return mapped[i]
	}
	b.mapLocal = register

	projects := make([]ProjectItem, len(p.projects))
	for i, item := range p.projects {
		projects[i] = ProjectItem{Index: register(item.Index), Name: p.outputType[i].Name}
	}
	condition := NoCondition
	if p.HasCondition() {
		condition = register(p.condition)
	}
	return MakeProgram(p.input, b.exprs, projects, condition)
}

// BuildProgram flattens expression trees over the input row into a program.
// Every input field is registered first, as expressions 0 to len(input)-1.
// The trees are decomposed so that every call operates on local references.
// No subexpression sharing is done; Normalize does that. A nil condition
// means none.
func BuildProgram(
	input opt.RowType, projections []opt.ScalarExpr, names []string, condition opt.ScalarExpr,
) *Program {
	b := newProgramBuilder(input, false /* dedup */)
	projects := make([]ProjectItem, len(projections))
	for i, e := range projections {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		projects[i] = ProjectItem{Index: b.addTree(e), Name: name}
	}
	cond := NoCondition
	if condition != nil {
		cond = b.addTree(condition)
	}
	return MakeProgram(input, b.exprs, projects, cond)
}

// programBuilder accumulates the expressions of a program under
// construction.
type programBuilder struct {
	input opt.RowType
	exprs []opt.ScalarExpr
	dedup bool
	index map[string]int

	// mapLocal translates local references found in the trees passed to
	// addTree. It is only set when rebuilding an existing program.
	mapLocal func(i int) int
}

func newProgramBuilder(input opt.RowType, dedup bool) *programBuilder {
	b := &programBuilder{input: input, dedup: dedup, index: make(map[string]int)}
	for i := range input {
		b.register(InputRef(input, i))
	}
	return b
}

func (b *programBuilder) register(e opt.ScalarExpr) int {
	b.exprs = append(b.exprs, e)
	idx := len(b.exprs) - 1
	if _, ok := b.index[e.String()]; !ok {
		b.index[e.String()] = idx
	}
	return idx
}

// add appends e, whose children are already local references, unless an
// identical expression can be reused.
func (b *programBuilder) add(e opt.ScalarExpr) int {
	if ref, ok := e.(*InputRefExpr); ok {
		return ref.Index
	}
	if b.dedup {
		if idx, ok := b.index[e.String()]; ok && b.exprs[idx].DataType().Identical(e.DataType()) {
			return idx
		}
	}
	return b.register(e)
}

// addTree flattens an expression tree bottom-up and returns the index of
// its root.
func (b *programBuilder) addTree(e opt.ScalarExpr) int {
	if ref, ok := e.(*InputRefExpr); ok {
		return ref.Index
	}
	if ref, ok := e.(*LocalRefExpr); ok {
		if b.mapLocal == nil {
			panic(errors.AssertionFailedf("expression tree contains local reference %s", e))
		}
		return b.mapLocal(ref.Index)
	}
	var replace ReplaceFunc
	replace = func(child opt.ScalarExpr) opt.ScalarExpr {
		return b.localRef(b.addTree(child))
	}
	return b.add(ReplaceChildren(e, replace))
}

func (b *programBuilder) localRef(i int) *LocalRefExpr {
	return &LocalRefExpr{Index: i, Typ: b.exprs[i].DataType()}
}

// String renders the program one expression per line, followed by the
// projection and condition.
func (p *Program) String() string {
	var sb strings.Builder
	sb.WriteString("input: ")
	sb.WriteString(p.input.String())
	sb.WriteByte('\n')
	for i, e := range p.exprs {
		sb.WriteString("@")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(": ")
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	sb.WriteString("project:")
	for i, item := range p.projects {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(" @")
		sb.WriteString(strconv.Itoa(item.Index))
		sb.WriteString(" as ")
		sb.WriteString(p.outputType[i].Name)
	}
	sb.WriteByte('\n')
	if p.HasCondition() {
		sb.WriteString("where: @")
		sb.WriteString(strconv.Itoa(p.condition))
		sb.WriteByte('\n')
	}
	return sb.String()
}
