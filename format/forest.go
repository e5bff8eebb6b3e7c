package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/gll/bsr"
)

// DOTEncoder renders the nodes reachable from the roots of a forest as a
// Graphviz digraph. Nonterminal children are linked per symbol position;
// positions with more than one candidate are drawn dashed.
type DOTEncoder struct {
	w io.Writer
}

func NewDOTEncoder(w io.Writer) *DOTEncoder {
	return &DOTEncoder{w: w}
}

func (e *DOTEncoder) Encode(set *bsr.Set) error {
	text, err := e.MarshalText(set)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *DOTEncoder) MarshalText(set *bsr.Set) ([]byte, error) {
	var sb strings.Builder
	ids := make(map[string]int)
	id := func(n bsr.Node) int {
		key := n.String()
		if i, ok := ids[key]; ok {
			return i
		}
		ids[key] = len(ids)
		return ids[key]
	}

	sb.WriteString("digraph forest {\n")
	sb.WriteString("  node [shape=box, fontname=\"monospace\"];\n")
	for n := range set.Reachable() {
		attrs := ""
		if n.Ambiguous() {
			attrs = ", color=red"
		}
		label := fmt.Sprintf("%s [%d,%d)", n.Label(), n.LeftExtent(), n.RightExtent())
		fmt.Fprintf(&sb, "  n%d [label=%s%s];\n", id(n), strconv.Quote(label), attrs)

		for i, sym := range n.Symbols() {
			if sym.Terminal {
				continue
			}
			children, err := n.GetNTChildrenI(i)
			if err != nil {
				continue
			}
			var targets []int
			for c := range children {
				targets = append(targets, id(c))
			}
			style := ""
			if len(targets) > 1 {
				style = " [style=dashed]"
			}
			for _, t := range targets {
				fmt.Fprintf(&sb, "  n%d -> n%d%s;\n", id(n), t, style)
			}
		}
	}
	sb.WriteString("}\n")
	return []byte(sb.String()), nil
}

// LineEncoder writes one tab separated line per completed node:
// nonterminal, alternate, left, right, pivots and the alternate's rule.
type LineEncoder struct {
	w io.Writer
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(set *bsr.Set) error {
	text, err := e.MarshalText(set)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText(set *bsr.Set) ([]byte, error) {
	var sb strings.Builder
	for n := range set.GetAll() {
		pivots := n.Pivots()
		parts := make([]string, len(pivots))
		for i, p := range pivots {
			parts[i] = strconv.Itoa(p)
		}
		fmt.Fprintf(&sb, "%s\t%d\t%d\t%d\t%s\t%s\n",
			n.Name(),
			n.Alternate(),
			n.LeftExtent(),
			n.RightExtent(),
			strings.Join(parts, ","),
			n.Label(),
		)
	}
	return []byte(sb.String()), nil
}
