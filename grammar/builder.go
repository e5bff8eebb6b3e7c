package grammar

import (
	"fmt"
	"strconv"

	"github.com/dhamidi/gll/token"
)

// Builder collects rules and produces an immutable Grammar.
//
//	b := grammar.NewBuilder()
//	b.Add("Exp", grammar.N("Exp"), grammar.N("Op"), grammar.N("Exp"))
//	b.Add("Exp", grammar.T("id"))
//	b.Add("Op", grammar.L("&"))
//	g, err := b.Build("Exp")
type Builder struct {
	heads []string
	rules map[string][][]Symbol
}

func NewBuilder() *Builder {
	return &Builder{rules: make(map[string][][]Symbol)}
}

// Add appends an alternate to head. An alternate without symbols is the
// empty alternate.
func (b *Builder) Add(head string, syms ...Symbol) *Builder {
	if _, ok := b.rules[head]; !ok {
		b.heads = append(b.heads, head)
	}
	b.rules[head] = append(b.rules[head], append([]Symbol(nil), syms...))
	return b
}

func (b *Builder) declare(head string) {
	if _, ok := b.rules[head]; !ok {
		b.heads = append(b.heads, head)
		b.rules[head] = nil
	}
}

// AddEmpty appends the empty alternate to head.
func (b *Builder) AddEmpty(head string) *Builder {
	return b.Add(head)
}

// Build resolves all symbols, checks the table and computes the lookahead
// sets. Nonterminal ids follow the order in which heads were first added.
func (b *Builder) Build(start string) (*Grammar, error) {
	if len(b.heads) == 0 {
		return nil, fmt.Errorf("no rules: %w", ErrIntegrity)
	}

	g := &Grammar{
		ntIDs:   make(map[string]int, len(b.heads)),
		termIDs: map[token.Kind]int{token.EOF: 0},
		terms:   []token.Kind{token.EOF},
	}
	for i, head := range b.heads {
		g.ntIDs[head] = i
		g.nts = append(g.nts, &Nonterminal{ID: i, Name: head})
	}

	startID, ok := g.ntIDs[start]
	if !ok {
		return nil, fmt.Errorf("start symbol %q: %w", start, ErrUnknownNonterminal)
	}
	g.start = startID

	seenLiteral := make(map[string]bool)
	for id, head := range b.heads {
		for altIdx, syms := range b.rules[head] {
			alt := &Alternate{
				NT:      id,
				Index:   altIdx,
				Symbols: syms,
				Rule:    head + " : " + body(syms),
				ids:     make([]int, len(syms)),
			}
			for j, sym := range syms {
				if sym.Terminal {
					alt.ids[j] = g.internTerminal(sym.Kind())
					if k := sym.Kind(); k.IsLiteral() && !seenLiteral[sym.Name] {
						seenLiteral[sym.Name] = true
						g.literals = append(g.literals, unquote(k))
					}
					continue
				}
				ref, ok := g.ntIDs[sym.Name]
				if !ok {
					return nil, fmt.Errorf("nonterminal %q used in %q has no alternates: %w", sym.Name, alt.Rule, ErrIntegrity)
				}
				alt.ids[j] = ref
			}
			g.nts[id].Alternates = append(g.nts[id].Alternates, alt)
			g.table = append(g.table, alt)
		}
	}

	g.computeSets()

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grammar) internTerminal(kind token.Kind) int {
	if id, ok := g.termIDs[kind]; ok {
		return id
	}
	id := len(g.terms)
	g.terms = append(g.terms, kind)
	g.termIDs[kind] = id
	return id
}

func unquote(k token.Kind) string {
	s := string(k)
	out, err := strconv.Unquote(s)
	if err != nil {
		return s[1 : len(s)-1]
	}
	return out
}
