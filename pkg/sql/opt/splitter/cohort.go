// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package splitter

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"golang.org/x/tools/container/intsets"
)

// Cohort is a set of windowed calls of a program that are evaluated together
// by one Window operator: they share a window, and none depends on another.
type Cohort struct {
	Window *memo.WindowSpec
	// Members are expression ordinals, in increasing order.
	Members []int
}

func (c Cohort) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, m := range c.Members {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(m))
	}
	sb.WriteByte('}')
	return sb.String()
}

// Cohorts groups the windowed calls of a program. The calls are visited in
// ordinal order, and each joins the first existing cohort that has an
// identical window and none of whose members it depends on or feeds. A call
// that fits no cohort starts a new one. The grouping is greedy: it depends
// on the order of the expressions, and a call never moves to a later
// cohort once placed.
func Cohorts(p *memo.Program, g *Graph) []Cohort {
	rank := g.Rank()
	var cohorts []Cohort
	var members []*intsets.Sparse
	for i, e := range p.Exprs() {
		call, ok := e.(*memo.WindowCallExpr)
		if !ok {
			continue
		}
		found := false
		for c := range cohorts {
			if !cohorts[c].Window.Equals(call.Window) {
				continue
			}
			if dependsOnAny(g, rank, i, members[c]) {
				continue
			}
			cohorts[c].Members = append(cohorts[c].Members, i)
			members[c].Insert(i)
			found = true
			break
		}
		if !found {
			cohorts = append(cohorts, Cohort{Window: call.Window, Members: []int{i}})
			s := &intsets.Sparse{}
			s.Insert(i)
			members = append(members, s)
		}
	}
	return cohorts
}

func dependsOnAny(g *Graph, rank []int, i int, members *intsets.Sparse) bool {
	for _, m := range members.AppendTo(nil) {
		if g.Dependent(rank, m, i) {
			return true
		}
	}
	return false
}
