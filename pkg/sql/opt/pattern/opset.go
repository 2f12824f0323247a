// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package pattern

import (
	"math/bits"
	"strings"

	"github.com/cockroachdb/relopt/pkg/sql/opt"
)

const opSetWords = (int(opt.NumOperators) + 63) / 64

// OpSet is a set of operators.
type OpSet struct {
	words [opSetWords]uint64
}

// MakeOpSet returns the set of the given operators.
func MakeOpSet(ops ...opt.Operator) OpSet {
	var s OpSet
	for _, op := range ops {
		s.Add(op)
	}
	return s
}

// RelationalOps returns the set of every relational operator.
func RelationalOps() OpSet {
	var s OpSet
	for op := opt.Operator(1); op < opt.NumOperators; op++ {
		if opt.IsRelationalOp(op) {
			s.Add(op)
		}
	}
	return s
}

// Add adds op to the set.
func (s *OpSet) Add(op opt.Operator) {
	s.words[op/64] |= 1 << (op % 64)
}

// Contains returns true if op is in the set.
func (s OpSet) Contains(op opt.Operator) bool {
	if op >= opt.NumOperators {
		return false
	}
	return s.words[op/64]&(1<<(op%64)) != 0
}

// Len returns the number of operators in the set.
func (s OpSet) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// ForEach calls fn for every operator in the set, in increasing order.
func (s OpSet) ForEach(fn func(op opt.Operator)) {
	for op := opt.Operator(0); op < opt.NumOperators; op++ {
		if s.Contains(op) {
			fn(op)
		}
	}
}

// String formats the set as "filter|project", or "any" for the set of all
// relational operators.
func (s OpSet) String() string {
	if s == RelationalOps() {
		return "any"
	}
	var sb strings.Builder
	s.ForEach(func(op opt.Operator) {
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(op.String())
	})
	return sb.String()
}
