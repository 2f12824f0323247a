// Copyright 2017 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package treeprinter

import (
	"bytes"
	"fmt"
)

var (
	edgeLinkChr = []byte(" │   ")
	edgeMidChr  = []byte(" ├── ")
	edgeLastChr = []byte(" └── ")
	emptyChr    = []byte("     ")
)

// Node is a handle associated with a specific depth in a tree. See below for
// sample usage.
type Node struct {
	tree  *tree
	level int
	idx   int
}

type tree struct {
	rows []row
}

type row struct {
	level int
	text  string
	// last is set for the last child of its parent; computed lazily.
	last bool
}

// New creates a tree printer and returns a sentinel node reference which
// should be used to add the root. Sample usage:
//
//	tp := New()
//	root := tp.Child("root")
//	root.Child("child-1")
//	root.Child("child-2").Child("grandchild\ngrandchild-more-info")
//	root.Child("child-3")
//
//	fmt.Print(tp.String())
//
// Output:
//
//	root
//	 ├── child-1
//	 ├── child-2
//	 │    └── grandchild
//	 └── child-3
func New() Node {
	return Node{tree: &tree{}, level: -1}
}

// Child adds a node as a child of the given node.
func (n Node) Child(text string) Node {
	t := n.tree
	t.rows = append(t.rows, row{level: n.level + 1, text: text})
	return Node{tree: t, level: n.level + 1, idx: len(t.rows) - 1}
}

// Childf adds a node as a child of the given node.
func (n Node) Childf(format string, args ...interface{}) Node {
	return n.Child(fmt.Sprintf(format, args...))
}

// String returns the tree as a string.
func (n Node) String() string {
	rows := n.tree.rows
	if len(rows) == 0 {
		return ""
	}
	// A row is the last child of its parent if no later row at the same level
	// appears before the next row at a shallower level.
	for i := range rows {
		rows[i].last = true
		for j := i + 1; j < len(rows); j++ {
			if rows[j].level < rows[i].level {
				break
			}
			if rows[j].level == rows[i].level {
				rows[i].last = false
				break
			}
		}
	}

	var buf bytes.Buffer
	// open[l] is true if the ancestor at level l still has siblings below.
	var open []bool
	for _, r := range rows {
		if r.level < len(open) {
			open = open[:r.level]
		}
		for l := 1; l < r.level; l++ {
			if open[l] {
				buf.Write(edgeLinkChr)
			} else {
				buf.Write(emptyChr)
			}
		}
		if r.level > 0 {
			if r.last {
				buf.Write(edgeLastChr)
			} else {
				buf.Write(edgeMidChr)
			}
		}
		buf.WriteString(r.text)
		buf.WriteByte('\n')
		for len(open) <= r.level {
			open = append(open, false)
		}
		open[r.level] = !r.last
	}
	return buf.String()
}
