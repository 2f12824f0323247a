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
	"github.com/cockroachdb/relopt/pkg/util/treeprinter"
)

// GroupID identifies a memo group. Group ids start at 1.
type GroupID int32

// group is a set of logically equivalent relational expressions. When two
// groups are found to be equivalent they are merged: the group with the
// higher id forwards to the other through parent.
type group struct {
	id      GroupID
	parent  GroupID
	rowType opt.RowType
	exprs   []RelExpr
}

// Memo records, for every relational expression a planning session has seen,
// the set of alternatives that compute the same result. It is the
// equivalence sink of the rule engine: rules report their output to
// RegisterEquivalent, and a search process later picks the cheapest
// alternative of each group.
//
// Recording is append-only. The Memo performs no cost comparison and never
// removes an alternative. A Memo is owned by a single planning session and is
// not safe for concurrent use.
type Memo struct {
	// groups is indexed by GroupID; groups[0] is unused.
	groups []*group

	// byDigest maps the digest of every memoized expression, with inputs
	// rendered as group references, to its group.
	byDigest map[string]GroupID

	// byExpr caches the group of expressions already memoized.
	byExpr map[RelExpr]GroupID
}

// Init prepares the memo for use, discarding any previous contents.
func (m *Memo) Init() {
	*m = Memo{
		groups:   []*group{nil},
		byDigest: make(map[string]GroupID),
		byExpr:   make(map[RelExpr]GroupID),
	}
}

// find returns the representative group that id has been merged into.
func (m *Memo) find(id GroupID) GroupID {
	for m.groups[id].parent != id {
		id = m.groups[id].parent
	}
	return id
}

// groupDigest returns the digest of e with its inputs replaced by references
// to their groups. Inputs are memoized as a side effect.
func (m *Memo) groupDigest(e RelExpr) string {
	var sb strings.Builder
	digest(&sb, e, func(sb *strings.Builder, input RelExpr) {
		sb.WriteString("G")
		sb.WriteString(formatGroupID(m.Memoize(input)))
	})
	return sb.String()
}

func (m *Memo) lookup(e RelExpr) (GroupID, string, bool) {
	if id, ok := m.byExpr[e]; ok {
		return m.find(id), "", true
	}
	d := m.groupDigest(e)
	if id, ok := m.byDigest[d]; ok {
		m.byExpr[e] = id
		return m.find(id), d, true
	}
	return 0, d, false
}

// Memoize adds e, and recursively its inputs, to the memo and returns the
// group of e. An expression identical to one already memoized joins that
// expression's group.
func (m *Memo) Memoize(e RelExpr) GroupID {
	id, d, ok := m.lookup(e)
	if ok {
		return id
	}
	id = GroupID(len(m.groups))
	m.groups = append(m.groups, &group{id: id, parent: id, rowType: e.RowType(), exprs: []RelExpr{e}})
	m.byDigest[d] = id
	m.byExpr[e] = id
	return id
}

// RegisterEquivalent records that alt computes the same rows as original.
// The original is memoized first if needed. If alt is already in another
// group, the two groups are merged.
//
// RegisterEquivalent panics with an assertion failure if the row types of
// the two expressions differ; a rule that produces such an alternative is
// broken.
func (m *Memo) RegisterEquivalent(original, alt RelExpr) {
	if !alt.RowType().Equals(original.RowType()) {
		panic(errors.AssertionFailedf(
			"alternative %s has row type %s, but original %s has %s",
			alt.Op(), alt.RowType(), original.Op(), original.RowType(),
		))
	}
	og := m.Memoize(original)
	ag, d, ok := m.lookup(alt)
	if ok {
		if ag != og {
			m.merge(og, ag)
		}
		return
	}
	grp := m.groups[og]
	grp.exprs = append(grp.exprs, alt)
	m.byDigest[d] = og
	m.byExpr[alt] = og
}

// merge folds the later of the two groups into the earlier one. Digests
// that referred to the merged-away group are recomputed, and groups whose
// expressions now have the same digest are merged in turn.
func (m *Memo) merge(a, b GroupID) {
	pending := [][2]GroupID{{a, b}}
	for len(pending) > 0 {
		a, b := m.find(pending[0][0]), m.find(pending[0][1])
		pending = pending[1:]
		if a == b {
			continue
		}
		if b < a {
			a, b = b, a
		}
		into, from := m.groups[a], m.groups[b]
		into.exprs = append(into.exprs, from.exprs...)
		from.exprs = nil
		from.parent = a
		pending = append(pending, m.rekey()...)
	}
}

// rekey rebuilds byDigest from the current groups. It returns the pairs of
// groups that hold expressions with the same digest.
func (m *Memo) rekey() [][2]GroupID {
	byDigest := make(map[string]GroupID, len(m.byDigest))
	var congruent [][2]GroupID
	for _, id := range m.Groups() {
		for _, e := range m.groups[id].exprs {
			d := m.peekDigest(e)
			if other, ok := byDigest[d]; ok && other != id {
				congruent = append(congruent, [2]GroupID{other, id})
				continue
			}
			byDigest[d] = id
		}
	}
	m.byDigest = byDigest
	return congruent
}

// Group returns the group of e, if e has been memoized.
func (m *Memo) Group(e RelExpr) (GroupID, bool) {
	if id, ok := m.byExpr[e]; ok {
		return m.find(id), true
	}
	if id, ok := m.byDigest[m.peekDigest(e)]; ok {
		return m.find(id), true
	}
	return 0, false
}

// peekDigest is like groupDigest, but does not memoize inputs. An input that
// is not memoized yields a digest no group can have.
func (m *Memo) peekDigest(e RelExpr) string {
	var sb strings.Builder
	digest(&sb, e, func(sb *strings.Builder, input RelExpr) {
		id, ok := m.Group(input)
		if !ok {
			sb.WriteString("G?")
			return
		}
		sb.WriteString("G")
		sb.WriteString(formatGroupID(id))
	})
	return sb.String()
}

// Groups returns the ids of all groups that have not been merged into
// another, in creation order.
func (m *Memo) Groups() []GroupID {
	var res []GroupID
	for _, g := range m.groups[1:] {
		if g.parent == g.id {
			res = append(res, g.id)
		}
	}
	return res
}

// Exprs returns the alternatives of a group, in the order they were added.
// The slice must not be modified.
func (m *Memo) Exprs(id GroupID) []RelExpr {
	return m.groups[m.find(id)].exprs
}

// RowType returns the row type shared by the alternatives of a group.
func (m *Memo) RowType(id GroupID) opt.RowType {
	return m.groups[m.find(id)].rowType
}

// Alternatives returns every expression known to be equivalent to e,
// including e itself. It returns nil if e has not been memoized.
func (m *Memo) Alternatives(e RelExpr) []RelExpr {
	id, ok := m.Group(e)
	if !ok {
		return nil
	}
	return m.Exprs(id)
}

// NumExprs returns the number of expressions in all groups.
func (m *Memo) NumExprs() int {
	n := 0
	for _, g := range m.groups[1:] {
		n += len(g.exprs)
	}
	return n
}

// String renders every group with its alternatives, inputs shown as group
// references:
//
//	memo (2 groups, 3 exprs)
//	 ├── G1: (filter condition=gt($1, 10) G2) (filter [enumerable] condition=gt($1, 10) G2)
//	 └── G2: (scan t)
func (m *Memo) String() string {
	tp := treeprinter.New()
	groups := m.Groups()
	root := tp.Childf("memo (%d groups, %d exprs)", len(groups), m.NumExprs())
	for _, id := range groups {
		var sb strings.Builder
		for i, e := range m.Exprs(id) {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(m.peekDigest(e))
		}
		root.Childf("G%d: %s", id, sb.String())
	}
	return tp.String()
}

func formatGroupID(id GroupID) string {
	return strconv.Itoa(int(id))
}
