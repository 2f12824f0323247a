// Copyright 2017 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package treeprinter

import (
	"strings"
	"testing"
)

func TestTreePrinter(t *testing.T) {
	n := New()

	r := n.Child("root")
	r.Child("1.1")
	n12 := r.Child("1.2")
	r.Child("1.3")
	n12.Child("1.2.1")
	n122 := n12.Child("1.2.2")
	n12.Childf("1.2.%d", 3)
	n122.Child("1.2.2.1")

	expected := `
root
 ├── 1.1
 ├── 1.2
 │    ├── 1.2.1
 │    ├── 1.2.2
 │    │    └── 1.2.2.1
 │    └── 1.2.3
 └── 1.3
`
	exp := strings.TrimLeft(expected, "\n")
	if res := n.String(); res != exp {
		t.Errorf("incorrect result:\n%s", res)
	}
}
