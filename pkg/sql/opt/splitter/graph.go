// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package splitter

import (
	"container/heap"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/emicklei/dot"
	"golang.org/x/tools/container/intsets"
)

// Graph is the dependency graph over the expressions of a program. Nodes
// are expression ordinals. An edge i -> j means that expression j refers to
// expression i through a local reference, so i must be computed first.
type Graph struct {
	succ [][]int
	pred [][]int
}

// NewGraph returns a graph with n nodes and no edges.
func NewGraph(n int) *Graph {
	return &Graph{succ: make([][]int, n), pred: make([][]int, n)}
}

// BuildGraph returns the dependency graph of a program. References made by
// the window of a windowed call count as references of the call.
func BuildGraph(p *memo.Program) *Graph {
	g := NewGraph(p.NumExprs())
	for j, e := range p.Exprs() {
		var seen intsets.Sparse
		memo.VisitLocalRefs(e, func(ref *memo.LocalRefExpr) {
			if seen.Insert(ref.Index) {
				g.AddEdge(ref.Index, j)
			}
		})
	}
	return g
}

// AddEdge adds the edge from -> to.
func (g *Graph) AddEdge(from, to int) {
	g.succ[from] = append(g.succ[from], to)
	g.pred[to] = append(g.pred[to], from)
}

// NumNodes returns the number of nodes of the graph.
func (g *Graph) NumNodes() int { return len(g.succ) }

// Successors returns the nodes that refer to node i.
func (g *Graph) Successors(i int) []int { return g.succ[i] }

// Predecessors returns the nodes that node i refers to.
func (g *Graph) Predecessors(i int) []int { return g.pred[i] }

// Rank returns the position of every node in a topological order of the
// graph. Among the nodes that are ready at some point, the one with the
// lowest ordinal comes first, so that for the graph of a program the rank of
// every expression is its ordinal. Rank panics with an assertion failure if
// the graph has a cycle.
func (g *Graph) Rank() []int {
	n := g.NumNodes()
	indegree := make([]int, n)
	for i := range g.pred {
		indegree[i] = len(g.pred[i])
	}
	var ready intHeap
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	heap.Init(&ready)

	rank := make([]int, n)
	next := 0
	for ready.Len() > 0 {
		i := heap.Pop(&ready).(int)
		rank[i] = next
		next++
		for _, j := range g.succ[i] {
			indegree[j]--
			if indegree[j] == 0 {
				heap.Push(&ready, j)
			}
		}
	}
	if next != n {
		panic(errors.AssertionFailedf("dependency graph has a cycle through %d nodes", n-next))
	}
	return rank
}

// Reaches returns true if there is a path from node from to node to. The
// search only visits nodes whose rank does not exceed the rank of to, since
// no path through a node of higher rank can lead back down to it.
func (g *Graph) Reaches(rank []int, from, to int) bool {
	if rank[from] > rank[to] {
		return false
	}
	var visited intsets.Sparse
	stack := []int{from}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if i == to {
			return true
		}
		if !visited.Insert(i) {
			continue
		}
		for _, j := range g.succ[i] {
			if rank[j] <= rank[to] && !visited.Has(j) {
				stack = append(stack, j)
			}
		}
	}
	return false
}

// Dependent returns true if either node can be reached from the other. A
// node is dependent on itself.
func (g *Graph) Dependent(rank []int, a, b int) bool {
	if rank[a] > rank[b] {
		a, b = b, a
	}
	return g.Reaches(rank, a, b)
}

// Dot renders the graph in the Graphviz dot language. If p is not nil, the
// nodes are labeled with the program's expressions.
func (g *Graph) Dot(p *memo.Program) string {
	dg := dot.NewGraph(dot.Directed)
	nodes := make([]dot.Node, g.NumNodes())
	for i := range nodes {
		label := "@" + strconv.Itoa(i)
		if p != nil {
			label += ": " + p.Expr(i).String()
		}
		nodes[i] = dg.Node(strconv.Itoa(i)).Label(label)
	}
	for i, succ := range g.succ {
		for _, j := range succ {
			dg.Edge(nodes[i], nodes[j])
		}
	}
	return dg.String()
}

// intHeap is a min-heap of node ordinals.
type intHeap []int

func (h intHeap) Len() int           { return len(h) }
func (h intHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *intHeap) Push(x interface{}) {
	// Push and Pop use pointer receivers because they modify the slice's length,
	// not just its contents.
	*h = append(*h, x.(int))
}

func (h *intHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
