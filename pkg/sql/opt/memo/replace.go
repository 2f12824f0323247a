// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package memo

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
)

// ReplaceFunc is the callback function passed to ReplaceChildren. It is
// called with each child of the expression passed to ReplaceChildren and
// returns the replacement for that child.
type ReplaceFunc func(e opt.ScalarExpr) opt.ScalarExpr

// ReplaceChildren returns a copy of the scalar expression e with each child
// replaced by the result of calling replace on it. If no child changes, e
// itself is returned. Leaf expressions are always returned unchanged.
//
// ReplaceChildren is the building block of every scalar rewrite. A typical
// caller recurses from inside replace:
//
//	var replace ReplaceFunc
//	replace = func(e opt.ScalarExpr) opt.ScalarExpr {
//	  if ref, ok := e.(*InputRefExpr); ok {
//	    return &InputRefExpr{Index: ref.Index + 1, Typ: ref.Typ}
//	  }
//	  return ReplaceChildren(e, replace)
//	}
//	replace(root)
func ReplaceChildren(e opt.ScalarExpr, replace ReplaceFunc) opt.ScalarExpr {
	n := e.ChildCount()
	if n == 0 {
		return e
	}
	children := make([]opt.ScalarExpr, n)
	changed := false
	for i := 0; i < n; i++ {
		before := e.Child(i).(opt.ScalarExpr)
		after := replace(before)
		children[i] = after
		changed = changed || after != before
	}
	if !changed {
		return e
	}

	switch t := e.(type) {
	case *CallExpr:
		return &CallExpr{Func: t.Func, Args: children, Typ: t.Typ}

	case *WindowCallExpr:
		return &WindowCallExpr{
			Func:     t.Func,
			Args:     children[:len(t.Args):len(t.Args)],
			Window:   t.Window.withExprs(children[len(t.Args):]),
			Distinct: t.Distinct,
			Typ:      t.Typ,
		}

	case *FieldAccessExpr:
		return &FieldAccessExpr{Input: children[0], Field: t.Field, Name: t.Name, Typ: t.Typ}
	}
	panic(errors.AssertionFailedf("unhandled scalar expression %s", e.Op()))
}

// ShiftInputRefs returns e with every input reference at or above from moved
// by delta fields.
func ShiftInputRefs(e opt.ScalarExpr, from, delta int) opt.ScalarExpr {
	var replace ReplaceFunc
	replace = func(e opt.ScalarExpr) opt.ScalarExpr {
		if ref, ok := e.(*InputRefExpr); ok {
			if ref.Index >= from {
				return &InputRefExpr{Index: ref.Index + delta, Typ: ref.Typ}
			}
			return ref
		}
		return ReplaceChildren(e, replace)
	}
	return replace(e)
}

// RemapInputRefs returns e with every input reference $i replaced by
// $mapping[i]. It returns false if some referenced field has no mapping,
// which is signaled by a negative entry.
func RemapInputRefs(e opt.ScalarExpr, mapping []int) (opt.ScalarExpr, bool) {
	ok := true
	var replace ReplaceFunc
	replace = func(e opt.ScalarExpr) opt.ScalarExpr {
		if ref, isRef := e.(*InputRefExpr); isRef {
			if ref.Index >= len(mapping) || mapping[ref.Index] < 0 {
				ok = false
				return ref
			}
			return &InputRefExpr{Index: mapping[ref.Index], Typ: ref.Typ}
		}
		return ReplaceChildren(e, replace)
	}
	res := replace(e)
	return res, ok
}

// InputRefsUsed returns the input field ordinals referenced by e, in the
// order they are first encountered.
func InputRefsUsed(e opt.Expr) []int {
	var res []int
	seen := make(map[int]bool)
	var visit func(e opt.Expr)
	visit = func(e opt.Expr) {
		if ref, ok := e.(*InputRefExpr); ok {
			if !seen[ref.Index] {
				seen[ref.Index] = true
				res = append(res, ref.Index)
			}
			return
		}
		for i, n := 0, e.ChildCount(); i < n; i++ {
			visit(e.Child(i))
		}
	}
	visit(e)
	return res
}

// VisitLocalRefs calls fn for every local reference in e. Local references
// have no children, so the walk never continues below one.
func VisitLocalRefs(e opt.Expr, fn func(ref *LocalRefExpr)) {
	if ref, ok := e.(*LocalRefExpr); ok {
		fn(ref)
		return
	}
	for i, n := 0, e.ChildCount(); i < n; i++ {
		VisitLocalRefs(e.Child(i), fn)
	}
}
