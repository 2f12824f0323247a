// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package pattern

import "github.com/cockroachdb/relopt/pkg/sql/opt/memo"

// Bindings are the nodes bound by a successful match, one per operand of the
// pattern, in pattern-declaration (pre-)order. Bindings[0] is the node the
// root operand matched.
type Bindings []memo.RelExpr

// Match matches the pattern against the tree rooted at node. On success it
// returns one binding per operand of the pattern; on failure it returns
// false. Match is pure and never panics on a mismatch.
func Match(p *Operand, node memo.RelExpr) (Bindings, bool) {
	b := make(Bindings, 0, CaptureCount(p))
	b, ok := match(p, node, b)
	if !ok {
		return nil, false
	}
	return b, true
}

// match appends the bindings of p matched against e to b.
func match(p *Operand, e memo.RelExpr, b Bindings) (Bindings, bool) {
	if !p.matchesNode(e) {
		return b, false
	}
	b = append(b, e)
	inputs := e.Inputs()

	switch p.mode {
	case AnyChildren:
		return b, true

	case NoChildren:
		return b, len(inputs) == 0

	case Exact:
		if len(inputs) != len(p.children) {
			return b, false
		}
		for i, c := range p.children {
			var ok bool
			if b, ok = match(c, inputs[i], b); !ok {
				return b, false
			}
		}
		return b, true

	case UnorderedChildren:
		used := make([]bool, len(inputs))
		return matchUnordered(p.children, inputs, used, b)
	}
	return b, false
}

// matchUnordered assigns each operand to a distinct unused input, trying the
// inputs in order and backtracking when a later operand cannot be placed.
// Fan-out is small, so the exhaustive search is acceptable.
func matchUnordered(
	operands []*Operand, inputs []memo.RelExpr, used []bool, b Bindings,
) (Bindings, bool) {
	if len(operands) == 0 {
		return b, true
	}
	mark := len(b)
	for i, in := range inputs {
		if used[i] {
			continue
		}
		nb, ok := match(operands[0], in, b)
		if ok {
			used[i] = true
			if res, ok := matchUnordered(operands[1:], inputs, used, nb); ok {
				return res, true
			}
			used[i] = false
		}
		b = b[:mark]
	}
	return b, false
}

// CaptureCount returns the number of operands of the pattern, which is the
// number of bindings a successful match produces.
func CaptureCount(p *Operand) int {
	n := 1
	for _, c := range p.children {
		n += CaptureCount(c)
	}
	return n
}

// Operands returns the operands of the pattern in pre-order, the order of the
// bindings produced by Match.
func Operands(p *Operand) []*Operand {
	res := []*Operand{p}
	for _, c := range p.children {
		res = append(res, Operands(c)...)
	}
	return res
}

// Accepts returns true if the operand accepts node itself: its operator,
// convention and guard. Children are not examined.
func (o *Operand) Accepts(node memo.RelExpr) bool {
	return o.matchesNode(node)
}
