// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/relopt/pkg/sql/opt"
)

// OrderKey is one sort key of a window: an expression and its direction.
type OrderKey struct {
	Expr       opt.ScalarExpr
	Descending bool
	NullsFirst bool
}

// FrameMode determines whether frame offsets count rows or values.
type FrameMode uint8

const (
	// RangeMode frames are bounded by the values of the order key.
	RangeMode FrameMode = iota
	// RowsMode frames are bounded by physical row offsets.
	RowsMode
)

// BoundType is the kind of one end of a window frame.
type BoundType uint8

const (
	UnboundedPreceding BoundType = iota
	OffsetPreceding
	CurrentRow
	OffsetFollowing
	UnboundedFollowing
)

var boundNames = [...]string{
	UnboundedPreceding: "unbounded preceding",
	OffsetPreceding:    "preceding",
	CurrentRow:         "current row",
	OffsetFollowing:    "following",
	UnboundedFollowing: "unbounded following",
}

// FrameBound is one end of a window frame. Offset is only meaningful for
// OffsetPreceding and OffsetFollowing.
type FrameBound struct {
	Type   BoundType
	Offset int64
}

func (b FrameBound) String() string {
	if b.Type == OffsetPreceding || b.Type == OffsetFollowing {
		return strconv.FormatInt(b.Offset, 10) + " " + boundNames[b.Type]
	}
	return boundNames[b.Type]
}

// WindowFrame is the set of rows, relative to the current row, over which a
// windowed aggregate is computed.
type WindowFrame struct {
	Mode  FrameMode
	Start FrameBound
	End   FrameBound
}

// DefaultFrame is the frame used when none is given: every row from the
// start of the partition up to the current row's peers.
var DefaultFrame = WindowFrame{
	Mode:  RangeMode,
	Start: FrameBound{Type: UnboundedPreceding},
	End:   FrameBound{Type: CurrentRow},
}

func (f WindowFrame) String() string {
	var sb strings.Builder
	if f.Mode == RowsMode {
		sb.WriteString("rows ")
	} else {
		sb.WriteString("range ")
	}
	sb.WriteString(f.Start.String())
	sb.WriteString(" and ")
	sb.WriteString(f.End.String())
	return sb.String()
}

// WindowSpec is the window of a windowed aggregate call: how rows are
// partitioned, how each partition is ordered, and the frame.
type WindowSpec struct {
	PartitionBy []opt.ScalarExpr
	OrderBy     []OrderKey
	Frame       WindowFrame
}

// String renders the window canonically. Two windows are identical if and
// only if their renderings are equal.
func (w *WindowSpec) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	if len(w.PartitionBy) > 0 {
		sb.WriteString("partition by ")
		for i, p := range w.PartitionBy {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.String())
		}
		sb.WriteByte(' ')
	}
	if len(w.OrderBy) > 0 {
		sb.WriteString("order by ")
		for i, k := range w.OrderBy {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k.Expr.String())
			if k.Descending {
				sb.WriteString(" desc")
			}
			if k.NullsFirst {
				sb.WriteString(" nulls first")
			}
		}
		sb.WriteByte(' ')
	}
	sb.WriteString(w.Frame.String())
	sb.WriteByte(')')
	return sb.String()
}

// Equals returns true if the two windows partition, order and frame rows
// identically.
func (w *WindowSpec) Equals(other *WindowSpec) bool {
	if w == other {
		return true
	}
	if w.Frame != other.Frame || len(w.PartitionBy) != len(other.PartitionBy) ||
		len(w.OrderBy) != len(other.OrderBy) {
		return false
	}
	for i := range w.PartitionBy {
		if !ScalarEqual(w.PartitionBy[i], other.PartitionBy[i]) {
			return false
		}
	}
	for i := range w.OrderBy {
		a, b := w.OrderBy[i], other.OrderBy[i]
		if a.Descending != b.Descending || a.NullsFirst != b.NullsFirst || !ScalarEqual(a.Expr, b.Expr) {
			return false
		}
	}
	return true
}

// withExprs returns a copy of the window whose partition and order
// expressions are replaced, in child order, by exprs.
func (w *WindowSpec) withExprs(exprs []opt.ScalarExpr) *WindowSpec {
	res := &WindowSpec{Frame: w.Frame}
	if len(w.PartitionBy) > 0 {
		res.PartitionBy = append([]opt.ScalarExpr(nil), exprs[:len(w.PartitionBy)]...)
	}
	exprs = exprs[len(w.PartitionBy):]
	if len(w.OrderBy) > 0 {
		res.OrderBy = make([]OrderKey, len(w.OrderBy))
		for i, k := range w.OrderBy {
			k.Expr = exprs[i]
			res.OrderBy[i] = k
		}
	}
	return res
}
