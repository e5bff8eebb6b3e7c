// Package grammar describes the context-free grammars driven by the parser:
// an immutable table of nonterminals, each with ordered alternates.
package grammar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/dhamidi/gll/token"
)

var (
	// ErrIntegrity marks a malformed production table.
	ErrIntegrity = errors.New("grammar integrity violation")
	// ErrUnknownNonterminal marks a reference to a nonterminal that is not
	// part of the grammar.
	ErrUnknownNonterminal = errors.New("unknown nonterminal")
)

// Alternate is one entry of the production table.
type Alternate struct {
	NT      int
	Index   int
	Symbols []Symbol
	Rule    string

	// ids holds the nonterminal id or terminal id of each symbol.
	ids []int
	// sel holds, per slot, the terminals that may start the remainder of
	// the alternate, including FOLLOW of the head when the remainder is
	// nullable.
	sel []*bitset.BitSet
}

func (a *Alternate) Len() int {
	return len(a.Symbols)
}

func (a *Alternate) Empty() bool {
	return len(a.Symbols) == 0
}

// Nonterminal is a grammar rule with its alternates.
type Nonterminal struct {
	ID         int
	Name       string
	Alternates []*Alternate
}

// Grammar is an immutable grammar description. Construct it with a
// Builder or FromEBNF.
type Grammar struct {
	start    int
	nts      []*Nonterminal
	ntIDs    map[string]int
	terms    []token.Kind
	termIDs  map[token.Kind]int
	table    []*Alternate
	literals []string

	nullable []bool
	first    []*bitset.BitSet
	follow   []*bitset.BitSet
}

// WithStart returns a copy of g whose start symbol is name. FOLLOW sets and
// the lookahead sets are recomputed, since end of input follows the new
// start symbol instead of the old one. g itself is unchanged.
func (g *Grammar) WithStart(name string) (*Grammar, error) {
	id, ok := g.ntIDs[name]
	if !ok {
		return nil, fmt.Errorf("start symbol %q: %w", name, ErrUnknownNonterminal)
	}
	if id == g.start {
		return g, nil
	}

	c := *g
	c.start = id
	c.nts = make([]*Nonterminal, len(g.nts))
	c.table = make([]*Alternate, 0, len(g.table))
	for i, nt := range g.nts {
		cp := &Nonterminal{ID: nt.ID, Name: nt.Name, Alternates: make([]*Alternate, len(nt.Alternates))}
		for j, alt := range nt.Alternates {
			a := *alt
			a.sel = nil
			cp.Alternates[j] = &a
			c.table = append(c.table, &a)
		}
		c.nts[i] = cp
	}
	c.computeSets()
	return &c, nil
}

// Start returns the id of the start nonterminal.
func (g *Grammar) Start() int {
	return g.start
}

// NT returns the id of the named nonterminal.
func (g *Grammar) NT(name string) (int, bool) {
	id, ok := g.ntIDs[name]
	return id, ok
}

func (g *Grammar) Nonterminal(id int) *Nonterminal {
	if id < 0 || id >= len(g.nts) {
		return nil
	}
	return g.nts[id]
}

func (g *Grammar) Nonterminals() []*Nonterminal {
	return g.nts
}

// Name returns the name of nonterminal id.
func (g *Grammar) Name(id int) string {
	if nt := g.Nonterminal(id); nt != nil {
		return nt.Name
	}
	return fmt.Sprintf("NT(%d)", id)
}

// Alternate returns alternate alt of nonterminal nt, or nil.
func (g *Grammar) Alternate(nt, alt int) *Alternate {
	n := g.Nonterminal(nt)
	if n == nil || alt < 0 || alt >= len(n.Alternates) {
		return nil
	}
	return n.Alternates[alt]
}

// SymbolAt returns the symbol after slot s, if any.
func (g *Grammar) SymbolAt(s Slot) (Symbol, bool) {
	a := g.Alternate(s.NT, s.Alt)
	if a == nil || s.Pos < 0 || s.Pos >= len(a.Symbols) {
		return Symbol{}, false
	}
	return a.Symbols[s.Pos], true
}

// Table returns the production table in nonterminal, then alternate order.
func (g *Grammar) Table() []*Alternate {
	return g.table
}

// TerminalID returns the id of a terminal kind. EOF always has id 0.
func (g *Grammar) TerminalID(kind token.Kind) (int, bool) {
	id, ok := g.termIDs[kind]
	return id, ok
}

// Terminals returns all terminal kinds indexed by id.
func (g *Grammar) Terminals() []token.Kind {
	return g.terms
}

// Literals returns the quoted literal terminals used by the grammar,
// unquoted, in order of first use.
func (g *Grammar) Literals() []string {
	return g.literals
}

// Kinds converts a terminal set into kinds ordered by terminal id.
func (g *Grammar) Kinds(set *bitset.BitSet) []token.Kind {
	var out []token.Kind
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		if int(i) < len(g.terms) {
			out = append(out, g.terms[i])
		}
	}
	return out
}

// Validate checks the structural invariants the parser relies on.
// Every violation wraps ErrIntegrity.
func (g *Grammar) Validate() error {
	if g == nil || len(g.nts) == 0 {
		return fmt.Errorf("empty grammar: %w", ErrIntegrity)
	}
	if g.start < 0 || g.start >= len(g.nts) {
		return fmt.Errorf("start symbol %d out of range: %w", g.start, ErrIntegrity)
	}
	for id, nt := range g.nts {
		if nt.ID != id {
			return fmt.Errorf("nonterminal %q has id %d at index %d: %w", nt.Name, nt.ID, id, ErrIntegrity)
		}
		if len(nt.Alternates) == 0 {
			return fmt.Errorf("nonterminal %q has no alternates: %w", nt.Name, ErrIntegrity)
		}
		for i, alt := range nt.Alternates {
			if alt.NT != id || alt.Index != i {
				return fmt.Errorf("alternate %d of %q is labelled %d/%d: %w", i, nt.Name, alt.NT, alt.Index, ErrIntegrity)
			}
			if len(alt.ids) != len(alt.Symbols) || len(alt.sel) != len(alt.Symbols)+1 {
				return fmt.Errorf("alternate %q is not resolved: %w", alt.Rule, ErrIntegrity)
			}
			for j, sym := range alt.Symbols {
				limit := len(g.nts)
				if sym.Terminal {
					limit = len(g.terms)
				}
				if alt.ids[j] < 0 || alt.ids[j] >= limit {
					return fmt.Errorf("symbol %d of %q does not resolve: %w", j, alt.Rule, ErrIntegrity)
				}
			}
		}
	}
	return nil
}

func (g *Grammar) String() string {
	var b strings.Builder
	for _, nt := range g.nts {
		for i, alt := range nt.Alternates {
			if i == 0 {
				fmt.Fprintf(&b, "%s\n", alt.Rule)
			} else {
				fmt.Fprintf(&b, "%s| %s\n", strings.Repeat(" ", len(nt.Name)), body(alt.Symbols))
			}
		}
	}
	return b.String()
}

func body(syms []Symbol) string {
	if len(syms) == 0 {
		return "empty"
	}
	parts := make([]string, len(syms))
	for i, s := range syms {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}

// SymbolID returns the resolved id of symbol pos of alternate alt of nt:
// a nonterminal id for nonterminals, a terminal id for terminals.
func (g *Grammar) SymbolID(nt, alt, pos int) int {
	return g.nts[nt].Alternates[alt].ids[pos]
}
