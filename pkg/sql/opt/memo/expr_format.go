// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/relopt/pkg/util/treeprinter"
)

// ExprFmtFlags controls which properties of the expression are shown in
// formatted output.
type ExprFmtFlags int

const (
	// ExprFmtShowAll shows all properties of the expression.
	ExprFmtShowAll ExprFmtFlags = 0

	// ExprFmtHideColumns does not show the row type of each operator.
	ExprFmtHideColumns ExprFmtFlags = 1 << (iota - 1)

	// ExprFmtHideTraits does not show the convention and distribution of
	// each operator.
	ExprFmtHideTraits
)

// HasFlags tests whether the given flags are all set.
func (f ExprFmtFlags) HasFlags(subset ExprFmtFlags) bool {
	return f&subset == subset
}

// FormatExpr returns a multi-line rendering of the operator tree rooted at
// e, for example:
//
//	filter
//	 ├── columns: (a:int!, b:int)
//	 ├── scan t
//	 │    └── columns: (a:int!, b:int)
//	 └── condition: gt($1, 10)
func FormatExpr(e RelExpr, flags ExprFmtFlags) string {
	tp := treeprinter.New()
	formatExpr(tp, e, flags)
	return tp.String()
}

func formatExpr(tp treeprinter.Node, e RelExpr, flags ExprFmtFlags) {
	var sb strings.Builder
	formatHead(&sb, e)
	if !flags.HasFlags(ExprFmtHideTraits) {
		formatTraits(&sb, e.Traits())
	}
	n := tp.Child(sb.String())
	if !flags.HasFlags(ExprFmtHideColumns) {
		n.Childf("columns: %s", e.RowType())
	}

	// Payload that precedes the inputs.
	switch t := e.(type) {
	case *ValuesExpr:
		for _, row := range t.Rows {
			n.Child(formatLiterals(row))
		}

	case *CalcExpr:
		formatProgram(n.Child("program"), t.Program)

	case *WindowExpr:
		for _, g := range t.Groups() {
			w := n.Childf("window %s", g.Window)
			for _, c := range g.Calls {
				w.Childf("%s: %s", t.rowType[len(t.Input.RowType())+c].Name, formatCallHead(t.Calls[c]))
			}
		}
	}

	for _, input := range e.Inputs() {
		formatExpr(n, input, flags)
	}

	// Payload that follows the inputs.
	switch t := e.(type) {
	case *FilterExpr:
		n.Childf("condition: %s", t.Condition)

	case *ProjectExpr:
		p := n.Child("projections")
		for i, proj := range t.Projections {
			p.Childf("%s: %s", t.rowType[i].Name, proj)
		}

	case *JoinExpr:
		n.Childf("condition: %s", t.Condition)

	case *AggregateExpr:
		if len(t.Aggs) > 0 {
			a := n.Child("aggregations")
			for i, agg := range t.Aggs {
				a.Childf("%s: %s", t.rowType[len(t.GroupBy)+i].Name, formatAggCall(agg))
			}
		}
	}
}

// formatHead writes the operator name and the payload that fits on one line.
func formatHead(sb *strings.Builder, e RelExpr) {
	sb.WriteString(e.Op().String())
	switch t := e.(type) {
	case *ScanExpr:
		sb.WriteByte(' ')
		sb.WriteString(t.Table.Name)
		if t.Fields != nil {
			sb.WriteString(" fields=")
			formatInts(sb, t.Fields)
		}

	case *JoinExpr:
		sb.WriteByte(' ')
		sb.WriteString(t.JoinType.String())

	case *CorrelateExpr:
		fmt.Fprintf(sb, " %s %s", t.JoinType, t.ID)

	case *AggregateExpr:
		sb.WriteString(" group=")
		formatInts(sb, t.GroupBy)

	case *SortExpr:
		if !t.Ordering.Empty() {
			sb.WriteString(" ordering=")
			sb.WriteString(t.Ordering.String())
		}
		if t.Offset != 0 {
			fmt.Fprintf(sb, " offset=%d", t.Offset)
		}
		if t.Fetch != NoFetch {
			fmt.Fprintf(sb, " fetch=%d", t.Fetch)
		}

	case *UnionExpr:
		if t.All {
			sb.WriteString(" all")
		}

	case *ConverterExpr:
		fmt.Fprintf(sb, " from=%s", t.From)
	}
}

// formatTraits writes the convention, followed by ordering and distribution
// if they impose anything. Sort operators already show their ordering.
func formatTraits(sb *strings.Builder, traits physical.TraitSet) {
	if traits.Convention != physical.None {
		sb.WriteString(" [")
		sb.WriteString(traits.Convention.String())
		sb.WriteByte(']')
	}
	if !traits.Distribution.Any() {
		sb.WriteString(" distribution=")
		sb.WriteString(traits.Distribution.String())
	}
}

func formatProgram(n treeprinter.Node, p *Program) {
	for i, e := range p.Exprs() {
		n.Childf("@%d: %s", i, e)
	}
	var sb strings.Builder
	sb.WriteString("project:")
	for i, item := range p.Projects() {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, " @%d as %s", item.Index, p.OutputType()[i].Name)
	}
	n.Child(sb.String())
	if p.HasCondition() {
		n.Childf("where: @%d", p.Condition())
	}
}

func formatCallHead(c *WindowCallExpr) string {
	var sb strings.Builder
	formatCall(&sb, c.Func, c.Distinct, c.Args)
	return sb.String()
}

func formatAggCall(agg AggCall) string {
	var sb strings.Builder
	sb.WriteString(agg.Func.String())
	sb.WriteByte('(')
	if agg.Distinct {
		sb.WriteString("distinct ")
	}
	for i, a := range agg.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(a))
	}
	sb.WriteByte(')')
	return sb.String()
}

func formatLiterals(row []*LiteralExpr) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, lit := range row {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(lit.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

func formatInts(sb *strings.Builder, ints []int) {
	sb.WriteByte('(')
	for i, v := range ints {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	sb.WriteByte(')')
}

// Digest returns a single-line rendering of the whole tree rooted at e that
// identifies it: two trees with the same digest are interchangeable.
func Digest(e RelExpr) string {
	var sb strings.Builder
	digest(&sb, e, nil /* childFn */)
	return sb.String()
}

// digest writes the operator, its traits and its full payload. Inputs are
// written by childFn if it is set, and recursively otherwise.
func digest(sb *strings.Builder, e RelExpr, childFn func(sb *strings.Builder, input RelExpr)) {
	sb.WriteByte('(')
	formatHead(sb, e)
	formatTraits(sb, e.Traits())
	if o := e.Traits().Ordering; !o.Empty() && e.Op() != opt.SortOp {
		sb.WriteString(" ordering=")
		sb.WriteString(o.String())
	}

	switch t := e.(type) {
	case *ValuesExpr:
		sb.WriteString(" ")
		sb.WriteString(t.rowType.String())
		for _, row := range t.Rows {
			sb.WriteByte(' ')
			sb.WriteString(formatLiterals(row))
		}

	case *FilterExpr:
		fmt.Fprintf(sb, " condition=%s", t.Condition)

	case *ProjectExpr:
		sb.WriteString(" projections=[")
		for i, p := range t.Projections {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%s as %s", p, t.rowType[i].Name)
		}
		sb.WriteByte(']')

	case *CalcExpr:
		sb.WriteString(" program=[")
		sb.WriteString(strings.ReplaceAll(strings.TrimSpace(t.Program.String()), "\n", "; "))
		sb.WriteByte(']')

	case *JoinExpr:
		fmt.Fprintf(sb, " condition=%s", t.Condition)

	case *AggregateExpr:
		sb.WriteString(" aggs=[")
		for i, agg := range t.Aggs {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%s as %s", formatAggCall(agg), t.rowType[len(t.GroupBy)+i].Name)
		}
		sb.WriteByte(']')

	case *WindowExpr:
		sb.WriteString(" calls=[")
		for i, c := range t.Calls {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%s as %s", c, t.rowType[len(t.Input.RowType())+i].Name)
		}
		sb.WriteByte(']')
	}

	for _, input := range e.Inputs() {
		sb.WriteByte(' ')
		if childFn != nil {
			childFn(sb, input)
		} else {
			digest(sb, input, nil)
		}
	}
	sb.WriteByte(')')
}
