package bsr

import (
	"fmt"
	"iter"
	"strings"

	"github.com/dhamidi/gll/grammar"
	"github.com/dhamidi/gll/token"
)

// Node is a view of a completed alternate in a Set. A node obtained from
// the set covers all derivations of its span; a node obtained from
// Derivations is pinned to one derivation and its child queries only see
// the children of that derivation.
type Node struct {
	set *Set
	key ntKey
	d   *derivation
}

// derivation holds the input position at which each symbol of an
// alternate starts, followed by the right extent.
type derivation struct {
	ext []int
}

// IsZero reports whether n is the zero Node.
func (n Node) IsZero() bool {
	return n.set == nil
}

func (n Node) NT() int {
	return n.key.nt
}

// Name returns the name of the node's nonterminal.
func (n Node) Name() string {
	return n.set.g.Name(n.key.nt)
}

// Alternate returns the index of the alternate the node instantiates.
func (n Node) Alternate() int {
	return n.key.alt
}

func (n Node) LeftExtent() int {
	return n.key.left
}

func (n Node) RightExtent() int {
	return n.key.right
}

// Pivots returns the recorded splits of the node's span before its last
// symbol, in discovery order.
func (n Node) Pivots() []int {
	return append([]int(nil), n.set.complete[n.key]...)
}

// Label returns the rule of the node's alternate.
func (n Node) Label() string {
	return n.alternate().Rule
}

func (n Node) String() string {
	if n.IsZero() {
		return "<nil>"
	}
	if n.d != nil {
		return fmt.Sprintf("%s,%d,%d%v", n.Label(), n.key.left, n.key.right, n.d.ext)
	}
	return fmt.Sprintf("%s,%d,%d", n.Label(), n.key.left, n.key.right)
}

// Tokens returns the tokens the node spans.
func (n Node) Tokens() []token.Token {
	return n.set.toks.Slice(n.key.left, n.key.right)
}

// Text returns the literals of the spanned tokens, separated by a space
// where the source had a gap between them.
func (n Node) Text() string {
	var b strings.Builder
	toks := n.Tokens()
	for i, tok := range toks {
		if i > 0 && tok.Offset > toks[i-1].End().Offset {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Literal)
	}
	return b.String()
}

// Set returns the forest the node belongs to.
func (n Node) Set() *Set {
	return n.set
}

// Symbols returns the symbols of the node's alternate.
func (n Node) Symbols() []grammar.Symbol {
	return n.alternate().Symbols
}

func (n Node) alternate() *grammar.Alternate {
	return n.set.g.Alternate(n.key.nt, n.key.alt)
}

func (n Node) symbol(i int) (grammar.Symbol, error) {
	alt := n.alternate()
	if i < 0 || i >= alt.Len() {
		return grammar.Symbol{}, fmt.Errorf("%s has no symbol %d: %w", alt.Rule, i, ErrNoChild)
	}
	return alt.Symbols[i], nil
}

// Derivations yields one pinned view per derivation of the node, in
// discovery order. A pinned node yields itself.
func (n Node) Derivations() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if n.d != nil {
			yield(n)
			return
		}
		n.chains(func(ext []int) bool {
			pinned := Node{set: n.set, key: n.key, d: &derivation{ext: append([]int(nil), ext...)}}
			return yield(pinned)
		})
	}
}

// Ambiguous reports whether the node has more than one derivation of its
// own symbols. Ambiguity inside children is not considered.
func (n Node) Ambiguous() bool {
	if n.d != nil {
		return false
	}
	count := 0
	n.chains(func([]int) bool {
		count++
		return count < 2
	})
	return count > 1
}

// chains enumerates the symbol start positions of every derivation.
// It stops when yield returns false.
func (n Node) chains(yield func(ext []int) bool) {
	m := n.alternate().Len()
	ext := make([]int, m+1)
	ext[0], ext[m] = n.key.left, n.key.right

	var walk func(k, right int) bool
	walk = func(k, right int) bool {
		if k == 0 {
			if right != n.key.left {
				return true
			}
			return yield(ext)
		}
		for _, p := range n.set.pivots(n.key, k, n.key.left, right) {
			ext[k-1] = p
			if !walk(k-1, p) {
				return false
			}
		}
		return true
	}

	if m == 0 {
		yield(ext)
		return
	}
	walk(m, n.key.right)
}

// extents returns the distinct spans symbol i occupies across the node's
// derivations, in discovery order.
func (n Node) extents(i int) [][2]int {
	if n.d != nil {
		return [][2]int{{n.d.ext[i], n.d.ext[i+1]}}
	}

	type state struct{ k, right int }
	var out [][2]int
	seenExt := make(map[[2]int]bool)
	visited := make(map[state]bool)

	var walk func(k, right int)
	walk = func(k, right int) {
		if visited[state{k, right}] {
			return
		}
		visited[state{k, right}] = true
		for _, p := range n.set.pivots(n.key, k, n.key.left, right) {
			if k-1 == i {
				e := [2]int{p, right}
				if !seenExt[e] {
					seenExt[e] = true
					out = append(out, e)
				}
				continue
			}
			walk(k-1, p)
		}
	}
	walk(n.alternate().Len(), n.key.right)
	return out
}

// GetTChildI returns the token matched by symbol i of the node's alternate.
// On an ambiguous node the symbol may sit at different positions in
// different derivations; the first discovered one is returned. Walkers
// that need the exact token of one derivation query the pinned views
// yielded by Derivations.
func (n Node) GetTChildI(i int) (*token.Token, error) {
	sym, err := n.symbol(i)
	if err != nil {
		return nil, err
	}
	if !sym.Terminal {
		return nil, fmt.Errorf("symbol %d of %s is nonterminal %s: %w", i, n.Label(), sym, ErrWrongSymbolKind)
	}
	exts := n.extents(i)
	if len(exts) == 0 {
		return nil, fmt.Errorf("symbol %d of %s: %w", i, n, ErrNoChild)
	}
	return n.set.toks.At(exts[0][0]), nil
}

// GetNTChildI returns the first discovered node for symbol i.
func (n Node) GetNTChildI(i int) (Node, error) {
	children, err := n.GetNTChildrenI(i)
	if err != nil {
		return Node{}, err
	}
	for c := range children {
		return c, nil
	}
	return Node{}, fmt.Errorf("symbol %d of %s: %w", i, n, ErrNoChild)
}

// GetNTChildrenI returns every node that can derive symbol i of this node:
// one per alternate of the child nonterminal and per span the symbol
// occupies in the node's derivations. The sequence may be iterated any
// number of times.
func (n Node) GetNTChildrenI(i int) (iter.Seq[Node], error) {
	sym, err := n.symbol(i)
	if err != nil {
		return nil, err
	}
	if sym.Terminal {
		return nil, fmt.Errorf("symbol %d of %s is terminal %s: %w", i, n.Label(), sym, ErrWrongSymbolKind)
	}

	child := n.set.g.SymbolID(n.key.nt, n.key.alt, i)
	var keys []ntKey
	for _, e := range n.extents(i) {
		keys = append(keys, n.set.spans[spanKey{nt: child, left: e[0], right: e[1]}]...)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("symbol %d of %s: %w", i, n, ErrNoChild)
	}

	return func(yield func(Node) bool) {
		for _, k := range keys {
			if !yield(Node{set: n.set, key: k}) {
				return
			}
		}
	}, nil
}
