// Package cst builds concrete syntax trees from a parse forest.
package cst

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/gll/token"
)

// Span represents a range in source code.
type Span struct {
	Start token.Position
	End   token.Position
}

// Node represents a node in the concrete syntax tree.
// Leaf nodes have a non-nil Token; interior nodes have Children.
type Node struct {
	Kind      string       // Nonterminal name or token kind
	Rule      string       // Alternate the node was built from (interior nodes)
	Alternate int          // Index of that alternate
	Children  []*Node      // Child nodes (nil for terminals)
	Token     *token.Token // The token (non-nil for terminals)
	Span      Span         // Source span covering this node
	Value     any          // Result of the reduce hook, if any
}

// IsTerminal returns true if this is a leaf node (token).
func (n *Node) IsTerminal() bool {
	return n.Token != nil
}

// Text returns the literal of a terminal, or the literals of all
// terminals below an interior node separated by spaces.
func (n *Node) Text() string {
	if n.Token != nil {
		return n.Token.Literal
	}
	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		if t := c.Text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// AddChild appends a child node and updates the span.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	n.Children = append(n.Children, child)
	if len(n.Children) == 1 {
		n.Span.Start = child.Span.Start
	}
	n.Span.End = child.Span.End
}

// NewTerminal creates a terminal node from a token.
func NewTerminal(tok token.Token) *Node {
	return &Node{
		Kind:  string(tok.Kind),
		Token: &tok,
		Span: Span{
			Start: tok.Position,
			End:   tok.End(),
		},
	}
}

// NewNonTerminal creates a non-terminal node.
func NewNonTerminal(kind string) *Node {
	return &Node{
		Kind:     kind,
		Children: make([]*Node, 0),
	}
}

// Walk calls fn for n and its descendants in depth-first order. fn returns
// false to skip the children of a node.
func (n *Node) Walk(fn func(*Node, int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Print writes the tree indented by depth, one node per line.
func (n *Node) Print(w io.Writer) error {
	var err error
	n.Walk(func(c *Node, depth int) bool {
		if err != nil {
			return false
		}
		indent := strings.Repeat("  ", depth)
		if c.IsTerminal() {
			_, err = fmt.Fprintf(w, "%s%s %q\n", indent, c.Kind, c.Token.Literal)
		} else {
			_, err = fmt.Fprintf(w, "%s%s\n", indent, c.Kind)
		}
		return true
	})
	return err
}
