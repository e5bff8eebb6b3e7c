package cst

import (
	"errors"
	"fmt"

	"github.com/dhamidi/gll/bsr"
	"github.com/dhamidi/gll/disambig"
	"github.com/dhamidi/gll/grammar"
)

// ErrNoTree is returned when no derivation of a node can be turned into a
// finite tree.
var ErrNoTree = errors.New("no tree")

// Builder turns one derivation of a forest node into a tree.
type Builder struct {
	hooks  grammar.Hooks
	policy disambig.Policy
	active map[nodeKey]bool
	done   map[nodeKey]built
	// cuts counts the derivations skipped by the cycle guard.
	cuts int
}

// built is a finished node result. Results that did not depend on which
// nodes were under construction are reused across candidates.
type built struct {
	node *Node
	ok   bool
}

type nodeKey struct {
	nt, alt, left, right int
}

// NewBuilder returns a builder that chooses among derivations and
// children with policy and fills Node.Value from hooks, which may be nil.
func NewBuilder(hooks grammar.Hooks, policy disambig.Policy) *Builder {
	return &Builder{hooks: hooks, policy: policy}
}

// Build returns the tree for the first derivation of root, taking the
// first discovered child at every ambiguous position.
func Build(root bsr.Node, hooks grammar.Hooks) (*Node, error) {
	return NewBuilder(hooks, disambig.First).Build(root)
}

// Build returns the tree for root. A derivation that only leads back into
// a node already being built is skipped; if every derivation does,
// Build returns ErrNoTree.
func (b *Builder) Build(root bsr.Node) (*Node, error) {
	if root.IsZero() {
		return nil, fmt.Errorf("build tree: %w", bsr.ErrNoRoot)
	}
	b.active = make(map[nodeKey]bool)
	b.done = make(map[nodeKey]built)
	b.cuts = 0
	n, ok := b.node(root)
	if !ok {
		return nil, fmt.Errorf("build tree for %s: %w", root, ErrNoTree)
	}
	return n, nil
}

func (b *Builder) node(n bsr.Node) (*Node, bool) {
	k := nodeKey{n.NT(), n.Alternate(), n.LeftExtent(), n.RightExtent()}
	if r, ok := b.done[k]; ok {
		return r.node, r.ok
	}
	if b.active[k] {
		b.cuts++
		return nil, false
	}
	b.active[k] = true
	cuts := b.cuts
	out, ok := disambig.Resolve(n.Derivations(), b.derivation, b.policy)
	delete(b.active, k)
	if b.cuts == cuts {
		b.done[k] = built{node: out, ok: ok}
	}
	return out, ok
}

func (b *Builder) derivation(d bsr.Node) (*Node, bool) {
	out := NewNonTerminal(d.Name())
	out.Rule = d.Label()
	out.Alternate = d.Alternate()
	pos := d.Set().Stream().At(d.LeftExtent()).Position
	out.Span = Span{Start: pos, End: pos}

	syms := d.Symbols()
	values := make([]any, len(syms))
	for i, sym := range syms {
		if sym.Terminal {
			tok, err := d.GetTChildI(i)
			if err != nil {
				return nil, false
			}
			leaf := NewTerminal(*tok)
			values[i] = leaf.Token
			out.AddChild(leaf)
			continue
		}

		children, err := d.GetNTChildrenI(i)
		if err != nil {
			return nil, false
		}
		child, ok := disambig.Resolve(children, b.node, b.policy)
		if !ok {
			return nil, false
		}
		values[i] = child
		if child.Value != nil {
			values[i] = child.Value
		}
		if len(child.Children) > 0 {
			out.AddChild(child)
		}
	}

	if fn, ok := b.hooks.Lookup(d.NT(), d.Alternate()); ok {
		out.Value = fn(values)
	}
	return out, true
}
