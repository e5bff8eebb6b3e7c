// Package gss implements the graph-structured stack and descriptor worklist
// used by the GLL parser. Nodes live in an arena and refer to each other by
// index; a node may have any number of parents.
package gss

import (
	"fmt"

	"github.com/dhamidi/gll/grammar"
)

// Bottom is the index of the synthetic node the start symbol is called from.
const Bottom = 0

// Node is a call context: the slot to resume in the caller once the callee
// completes, and the input position at which the callee was entered.
type Node struct {
	Slot    grammar.Slot
	Pos     int
	parents []int
}

func (n Node) String() string {
	return fmt.Sprintf("(%d/%d/%d, %d)", n.Slot.NT, n.Slot.Alt, n.Slot.Pos, n.Pos)
}

type nodeKey struct {
	slot grammar.Slot
	pos  int
}

type edge struct {
	child, parent int
}

type popKey struct {
	node, pos int
}

// GSS is a graph-structured stack owned by a single parse.
type GSS struct {
	nodes  []Node
	index  map[nodeKey]int
	edges  map[edge]struct{}
	popped map[int][]int
	pops   map[popKey]struct{}
}

func New() *GSS {
	g := &GSS{
		index:  make(map[nodeKey]int),
		edges:  make(map[edge]struct{}),
		popped: make(map[int][]int),
		pops:   make(map[popKey]struct{}),
	}
	g.nodes = append(g.nodes, Node{Slot: grammar.Slot{NT: -1, Alt: -1, Pos: -1}})
	return g
}

// Create returns the node for (slot, pos), allocating it when it does not
// exist yet. created reports whether a new node was allocated.
func (g *GSS) Create(slot grammar.Slot, pos int) (idx int, created bool) {
	key := nodeKey{slot: slot, pos: pos}
	if idx, ok := g.index[key]; ok {
		return idx, false
	}
	idx = len(g.nodes)
	g.nodes = append(g.nodes, Node{Slot: slot, Pos: pos})
	g.index[key] = idx
	return idx, true
}

// AddEdge links child to parent. It returns false if the edge exists.
func (g *GSS) AddEdge(child, parent int) bool {
	e := edge{child: child, parent: parent}
	if _, ok := g.edges[e]; ok {
		return false
	}
	g.edges[e] = struct{}{}
	g.nodes[child].parents = append(g.nodes[child].parents, parent)
	return true
}

// Parents returns the parents of node idx in the order they were linked.
func (g *GSS) Parents(idx int) []int {
	return g.nodes[idx].parents
}

func (g *GSS) Node(idx int) Node {
	return g.nodes[idx]
}

// Len returns the number of nodes, including Bottom.
func (g *GSS) Len() int {
	return len(g.nodes)
}

// Edges returns the number of parent links.
func (g *GSS) Edges() int {
	return len(g.edges)
}

// Pop records that the callee of node idx completed at pos. It returns
// false when that pop was already recorded, so each resumption of the
// node's parents happens at most once per position.
func (g *GSS) Pop(idx, pos int) bool {
	key := popKey{node: idx, pos: pos}
	if _, ok := g.pops[key]; ok {
		return false
	}
	g.pops[key] = struct{}{}
	g.popped[idx] = append(g.popped[idx], pos)
	return true
}

// Popped returns the positions at which the callee of node idx completed.
func (g *GSS) Popped(idx int) []int {
	return g.popped[idx]
}
