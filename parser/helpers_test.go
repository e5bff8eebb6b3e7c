package parser

import (
	"fmt"
	"sort"
	"strings"
	"testing"
	"unicode"

	"github.com/dhamidi/gll/bsr"
	"github.com/dhamidi/gll/grammar"
	"github.com/dhamidi/gll/token"
)

// words splits src on spaces into tokens: words starting with a letter get
// kind alpha, digit runs get kind "int", everything else is a literal.
func words(alpha token.Kind, src string) *token.Stream {
	var toks []token.Token
	offset := 0
	for _, w := range strings.Split(src, " ") {
		if w == "" {
			offset++
			continue
		}
		kind := token.Literal(w)
		switch r := rune(w[0]); {
		case unicode.IsLetter(r):
			kind = alpha
		case unicode.IsDigit(r):
			kind = "int"
		}
		toks = append(toks, token.Token{
			Kind:     kind,
			Literal:  w,
			Position: token.Position{Offset: offset, Line: 1, Column: offset + 1},
		})
		offset += len(w) + 1
	}
	return token.NewStream(toks)
}

func build(t *testing.T, b *grammar.Builder, start string) *grammar.Grammar {
	t.Helper()
	g, err := b.Build(start)
	if err != nil {
		t.Fatalf("Build(%q): %v", start, err)
	}
	return g
}

func mustParse(t *testing.T, g *grammar.Grammar, toks *token.Stream, opts ...Option) *Result {
	t.Helper()
	res, err := Parse(g, "", toks, opts...)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return res
}

func dump(t *testing.T, set *bsr.Set) string {
	t.Helper()
	var b strings.Builder
	if err := set.Dump(&b); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	return b.String()
}

// reachable renders the nodes reachable from the roots with their pivots,
// sorted, so forests built in different orders can be compared.
func reachable(set *bsr.Set) []string {
	var out []string
	for n := range set.Reachable() {
		pivots := n.Pivots()
		sort.Ints(pivots)
		out = append(out, fmt.Sprintf("%s %v", n, pivots))
	}
	sort.Strings(out)
	return out
}

// nameGrammar is A : Name int ; Name : name | empty.
func nameGrammar(t *testing.T) *grammar.Grammar {
	return build(t, grammar.NewBuilder().
		Add("A", grammar.N("Name"), grammar.T("int")).
		Add("Name", grammar.T("name")).
		AddEmpty("Name"), "A")
}

// expGrammar is Exp : Exp Op Exp | id ; Op : "&" | "|".
func expGrammar(t *testing.T) *grammar.Grammar {
	return build(t, grammar.NewBuilder().
		Add("Exp", grammar.N("Exp"), grammar.N("Op"), grammar.N("Exp")).
		Add("Exp", grammar.T("id")).
		Add("Op", grammar.L("&")).
		Add("Op", grammar.L("|")), "Exp")
}

// sumGrammar is E : id R ; R : "+" id R | empty, i.e. id ("+" id)*.
func sumGrammar(t *testing.T) *grammar.Grammar {
	return build(t, grammar.NewBuilder().
		Add("E", grammar.T("id"), grammar.N("R")).
		Add("R", grammar.L("+"), grammar.T("id"), grammar.N("R")).
		AddEmpty("R"), "E")
}
