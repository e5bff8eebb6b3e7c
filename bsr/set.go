// Package bsr implements a Binary Subtree Representation set: a packed
// parse forest that encodes every derivation of an input found by the
// parser in space polynomial in the input length.
//
// A completed alternate is identified by (nonterminal, alternate, left,
// right). Every valid split of that span is recorded as a pivot under the
// same identity, so an ambiguous span costs one node and a few integers
// rather than one tree per derivation. Partially matched alternates are
// recorded the same way for each slot, which lets child queries walk a
// node's pivot chain back to the first symbol.
package bsr

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/dhamidi/gll/grammar"
	"github.com/dhamidi/gll/token"
)

var (
	ErrAmbiguousRoot   = errors.New("ambiguous root")
	ErrNoRoot          = errors.New("no root")
	ErrWrongSymbolKind = errors.New("wrong symbol kind")
	ErrNoChild         = errors.New("no child")
)

type ntKey struct {
	nt, alt     int
	left, right int
}

type slotKey struct {
	nt, alt, pos int
	left, right  int
}

type spanKey struct {
	nt          int
	left, right int
}

type pivotKey struct {
	slotKey
	pivot int
}

// Set is the packed forest built by one parse. It is written only by the
// parser and is read-only once returned.
type Set struct {
	g      *grammar.Grammar
	toks   *token.Stream
	start  int
	frozen bool

	complete map[ntKey][]int
	order    []ntKey
	spans    map[spanKey][]ntKey
	slots    map[slotKey][]int
	seen     map[pivotKey]struct{}
}

// New returns an empty set for a parse of toks with g, rooted at start.
func New(g *grammar.Grammar, start int, toks *token.Stream) *Set {
	return &Set{
		g:        g,
		toks:     toks,
		start:    start,
		complete: make(map[ntKey][]int),
		spans:    make(map[spanKey][]ntKey),
		slots:    make(map[slotKey][]int),
		seen:     make(map[pivotKey]struct{}),
	}
}

// Add records that the symbols before slot s derive the input in
// [left, right), split at pivot. Slot position 0 is only valid for the
// empty alternate. Add returns false for a split that is already recorded.
func (s *Set) Add(slot grammar.Slot, left, pivot, right int) bool {
	if s.frozen {
		panic("bsr: Add on a frozen set")
	}
	alt := s.g.Alternate(slot.NT, slot.Alt)
	if alt == nil || slot.Pos > alt.Len() || (slot.Pos == 0 && !alt.Empty()) {
		panic(fmt.Sprintf("bsr: invalid slot %d/%d/%d", slot.NT, slot.Alt, slot.Pos))
	}
	if left > pivot || pivot > right {
		panic(fmt.Sprintf("bsr: invalid extents %d,%d,%d", left, pivot, right))
	}

	k := pivotKey{slotKey{slot.NT, slot.Alt, slot.Pos, left, right}, pivot}
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}

	if slot.Pos < alt.Len() {
		s.slots[k.slotKey] = append(s.slots[k.slotKey], pivot)
		return true
	}

	ck := ntKey{nt: slot.NT, alt: slot.Alt, left: left, right: right}
	if _, ok := s.complete[ck]; !ok {
		s.order = append(s.order, ck)
		sk := spanKey{nt: slot.NT, left: left, right: right}
		s.spans[sk] = append(s.spans[sk], ck)
	}
	s.complete[ck] = append(s.complete[ck], pivot)
	return true
}

// Freeze makes the set read-only.
func (s *Set) Freeze() {
	s.frozen = true
}

func (s *Set) Grammar() *grammar.Grammar {
	return s.g
}

func (s *Set) Stream() *token.Stream {
	return s.toks
}

// Start returns the id of the nonterminal the parse was rooted at.
func (s *Set) Start() int {
	return s.start
}

// Contains reports whether some alternate of nt derives [left, right).
func (s *Set) Contains(nt, left, right int) bool {
	return len(s.spans[spanKey{nt: nt, left: left, right: right}]) > 0
}

// GetRoots returns the nodes of the start symbol spanning the whole input,
// one per alternate, in discovery order.
func (s *Set) GetRoots() []Node {
	keys := s.spans[spanKey{nt: s.start, left: 0, right: s.toks.Len()}]
	roots := make([]Node, len(keys))
	for i, k := range keys {
		roots[i] = Node{set: s, key: k}
	}
	return roots
}

// GetRoot returns the single root node. Ambiguity inside the root is
// represented by its pivots; more than one alternate of the start symbol
// spanning the input is reported as ErrAmbiguousRoot.
func (s *Set) GetRoot() (Node, error) {
	roots := s.GetRoots()
	switch len(roots) {
	case 0:
		return Node{}, ErrNoRoot
	case 1:
		return roots[0], nil
	}
	return Node{}, fmt.Errorf("%d alternates of %s span the input: %w", len(roots), s.g.Name(s.start), ErrAmbiguousRoot)
}

// GetAll yields every completed node in discovery order.
func (s *Set) GetAll() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, k := range s.order {
			if !yield(Node{set: s, key: k}) {
				return
			}
		}
	}
}

// Size returns the number of completed nodes.
func (s *Set) Size() int {
	return len(s.order)
}

// Stats summarizes the forest.
type Stats struct {
	Nodes        int // completed alternates
	Intermediate int // partially matched alternates
	Pivots       int // recorded splits, completed and partial
}

func (s *Set) Stats() Stats {
	return Stats{
		Nodes:        len(s.order),
		Intermediate: len(s.slots),
		Pivots:       len(s.seen),
	}
}

// Reachable yields the nodes reachable from the roots, each once,
// parents before children.
func (s *Set) Reachable() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		visited := make(map[ntKey]bool)
		queue := s.GetRoots()
		for _, r := range queue {
			visited[r.key] = true
		}
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			if !yield(n) {
				return
			}
			alt := n.alternate()
			for i, sym := range alt.Symbols {
				if sym.Terminal {
					continue
				}
				children, err := n.GetNTChildrenI(i)
				if err != nil {
					continue
				}
				for c := range children {
					if !visited[c.key] {
						visited[c.key] = true
						queue = append(queue, c)
					}
				}
			}
		}
	}
}

// IsAmbiguous reports whether the input has more than one derivation.
func (s *Set) IsAmbiguous() bool {
	return len(s.Ambiguities()) > 0
}

// Ambiguities returns the reachable nodes that either have more than one
// derivation themselves or share their span with another alternate of
// the same nonterminal.
func (s *Set) Ambiguities() []Node {
	var out []Node
	for n := range s.Reachable() {
		sk := spanKey{nt: n.key.nt, left: n.key.left, right: n.key.right}
		if len(s.spans[sk]) > 1 || n.Ambiguous() {
			out = append(out, n)
		}
	}
	return out
}

// Dump writes every completed node with its pivots.
func (s *Set) Dump(w io.Writer) error {
	for _, k := range s.order {
		n := Node{set: s, key: k}
		if _, err := fmt.Fprintf(w, "%s pivots=%v\n", n, s.complete[k]); err != nil {
			return err
		}
	}
	return nil
}

// pivots returns the recorded splits for the first k symbols of the
// alternate of key spanning [left, right).
func (s *Set) pivots(key ntKey, k, left, right int) []int {
	if k == s.g.Alternate(key.nt, key.alt).Len() {
		return s.complete[ntKey{nt: key.nt, alt: key.alt, left: left, right: right}]
	}
	return s.slots[slotKey{key.nt, key.alt, k, left, right}]
}
