// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package pattern matches operand patterns against operator trees. A pattern
// describes the shape of the subtree a rule can transform: the operator
// expected at each position, optional guards over the bound node, and how
// the children of each node must look. For example, the pattern of a rule
// that moves a projection below a sort is:
//
//	pattern.Node(opt.ProjectOp, pattern.Any(opt.SortOp))
//
// Patterns are immutable and are built once per rule. Matching is pure: it
// never modifies the tree and never panics on a mismatch.
package pattern

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
)

// ChildMode determines how the children of a node are matched.
type ChildMode uint8

const (
	// Exact requires the node to have exactly as many children as the operand
	// has child operands, each matching the operand at the same position.
	Exact ChildMode = iota

	// AnyChildren accepts the node regardless of its children.
	AnyChildren

	// NoChildren requires the node to be a leaf.
	NoChildren

	// UnorderedChildren requires every child operand to match a distinct child of the
	// node, in any order. The node may have additional children.
	UnorderedChildren
)

var childModeNames = [...]string{
	Exact:             "exact",
	AnyChildren:       "any",
	NoChildren:        "leaf",
	UnorderedChildren: "unordered",
}

func (m ChildMode) String() string { return childModeNames[m] }

// Operand is one node of a pattern.
type Operand struct {
	ops         OpSet
	guard       func(memo.RelExpr) bool
	convention  physical.Convention
	hasConv     bool
	mode        ChildMode
	children    []*Operand
	description string
}

func newOperand(mode ChildMode, ops []opt.Operator, children []*Operand) *Operand {
	o := &Operand{mode: mode, children: children}
	if len(ops) == 0 {
		o.ops = RelationalOps()
	} else {
		for _, op := range ops {
			if !opt.IsRelationalOp(op) {
				panic(errors.AssertionFailedf("operand over non-relational operator %s", op))
			}
			o.ops.Add(op)
		}
	}
	return o
}

// Node returns an operand matching op whose children must match children
// exactly, in order.
func Node(op opt.Operator, children ...*Operand) *Operand {
	return newOperand(Exact, []opt.Operator{op}, children)
}

// Unordered returns an operand matching op where each of children must match
// a distinct child of the node, in any order.
func Unordered(op opt.Operator, children ...*Operand) *Operand {
	return newOperand(UnorderedChildren, []opt.Operator{op}, children)
}

// Any returns an operand matching any of ops, regardless of children. With
// no ops, it matches every relational operator.
func Any(ops ...opt.Operator) *Operand {
	return newOperand(AnyChildren, ops, nil)
}

// Leaf returns an operand matching any of ops that has no children. With no
// ops, it matches every relational leaf.
func Leaf(ops ...opt.Operator) *Operand {
	return newOperand(NoChildren, ops, nil)
}

// WithGuard returns a copy of the operand that only matches nodes for which
// guard returns true. Guards must be pure.
func (o *Operand) WithGuard(guard func(memo.RelExpr) bool) *Operand {
	c := *o
	c.guard = guard
	return &c
}

// WithConvention returns a copy of the operand that only matches nodes
// implemented in the given convention.
func (o *Operand) WithConvention(conv physical.Convention) *Operand {
	c := *o
	c.convention = conv
	c.hasConv = true
	return &c
}

// WithDescription returns a copy of the operand with a description, shown
// when the pattern is formatted.
func (o *Operand) WithDescription(desc string) *Operand {
	c := *o
	c.description = desc
	return &c
}

// Ops returns the operators the operand accepts.
func (o *Operand) Ops() OpSet { return o.ops }

// Mode returns the child matching mode of the operand.
func (o *Operand) Mode() ChildMode { return o.mode }

// Children returns the child operands.
func (o *Operand) Children() []*Operand { return o.children }

// Convention returns the convention required by the operand, if any.
func (o *Operand) Convention() (physical.Convention, bool) {
	return o.convention, o.hasConv
}

// matchesNode checks the node itself, ignoring its children.
func (o *Operand) matchesNode(e memo.RelExpr) bool {
	if !o.ops.Contains(e.Op()) {
		return false
	}
	if o.hasConv && e.Traits().Convention != o.convention {
		return false
	}
	return o.guard == nil || o.guard(e)
}

// String formats the pattern as an s-expression, for example
// "(project (sort *))", where "*" marks an operand that accepts any
// children and "!" one that accepts only leaves.
func (o *Operand) String() string {
	var sb strings.Builder
	o.format(&sb)
	return sb.String()
}

func (o *Operand) format(sb *strings.Builder) {
	sb.WriteByte('(')
	sb.WriteString(o.ops.String())
	if o.hasConv {
		sb.WriteString(" [")
		sb.WriteString(o.convention.String())
		sb.WriteByte(']')
	}
	if o.guard != nil {
		sb.WriteString(" ?")
	}
	if o.description != "" {
		sb.WriteString(" \"")
		sb.WriteString(o.description)
		sb.WriteByte('"')
	}
	switch o.mode {
	case AnyChildren:
		sb.WriteString(" *")
	case NoChildren:
		sb.WriteString(" !")
	case UnorderedChildren:
		sb.WriteString(" unordered")
	}
	for _, c := range o.children {
		sb.WriteByte(' ')
		c.format(sb)
	}
	sb.WriteByte(')')
}
