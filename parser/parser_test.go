package parser

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/dhamidi/gll/bsr"
	"github.com/dhamidi/gll/diag"
	"github.com/dhamidi/gll/grammar"
	"github.com/dhamidi/gll/token"
)

func TestParse_OptionalNamePresent(t *testing.T) {
	res := mustParse(t, nameGrammar(t), words("name", "aname 123"))

	root, err := res.Set.GetRoot()
	if err != nil {
		t.Fatalf("GetRoot: %v\n%s", err, dump(t, res.Set))
	}
	if root.Alternate() != 0 || root.LeftExtent() != 0 || root.RightExtent() != 2 {
		t.Errorf("unexpected root %s", root)
	}

	name, err := root.GetNTChildI(0)
	if err != nil {
		t.Fatalf("GetNTChildI(0): %v", err)
	}
	if name.Alternate() != 0 {
		t.Errorf("expected Name to use alternate 0, got %d", name.Alternate())
	}
	tok, err := name.GetTChildI(0)
	if err != nil {
		t.Fatalf("Name.GetTChildI(0): %v", err)
	}
	if tok.Literal != "aname" {
		t.Errorf("expected name literal %q, got %q", "aname", tok.Literal)
	}

	tok, err = root.GetTChildI(1)
	if err != nil {
		t.Fatalf("GetTChildI(1): %v", err)
	}
	if tok.Literal != "123" {
		t.Errorf("expected int literal %q, got %q", "123", tok.Literal)
	}
	if len(res.Errors) != 0 {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
}

func TestParse_OptionalNameAbsent(t *testing.T) {
	res := mustParse(t, nameGrammar(t), words("name", "123"))

	root, err := res.Set.GetRoot()
	if err != nil {
		t.Fatalf("GetRoot: %v\n%s", err, dump(t, res.Set))
	}
	name, err := root.GetNTChildI(0)
	if err != nil {
		t.Fatalf("GetNTChildI(0): %v", err)
	}
	if name.Alternate() != 1 {
		t.Errorf("expected Name to use the empty alternate, got %d", name.Alternate())
	}
	if name.LeftExtent() != 0 || name.RightExtent() != 0 {
		t.Errorf("expected an empty span, got %s", name)
	}
	tok, err := root.GetTChildI(1)
	if err != nil {
		t.Fatalf("GetTChildI(1): %v", err)
	}
	if tok.Literal != "123" {
		t.Errorf("expected %q, got %q", "123", tok.Literal)
	}
}

var precedence = map[string]int{"|": 1, "&": 2}

// resolveAll returns every reading of n in which each binary operand
// binds tighter than its operator.
func resolveAll(t *testing.T, n bsr.Node, min int) []string {
	t.Helper()
	var out []string
	for d := range n.Derivations() {
		if d.Alternate() == 1 {
			tok, err := d.GetTChildI(0)
			if err != nil {
				t.Fatalf("GetTChildI(0) of %s: %v", d, err)
			}
			out = append(out, tok.Literal)
			continue
		}
		opNode, err := d.GetNTChildI(1)
		if err != nil {
			t.Fatalf("GetNTChildI(1) of %s: %v", d, err)
		}
		opTok, err := opNode.GetTChildI(0)
		if err != nil {
			t.Fatalf("GetTChildI(0) of %s: %v", opNode, err)
		}
		prec := precedence[opTok.Literal]
		if prec <= min {
			continue
		}
		operands := func(i int) []string {
			children, err := d.GetNTChildrenI(i)
			if err != nil {
				t.Fatalf("GetNTChildrenI(%d) of %s: %v", i, d, err)
			}
			var all []string
			for c := range children {
				all = append(all, resolveAll(t, c, prec)...)
			}
			return all
		}
		for _, l := range operands(0) {
			for _, r := range operands(2) {
				out = append(out, "("+l+" "+opTok.Literal+" "+r+")")
			}
		}
	}
	return out
}

func TestParse_PrecedenceResolvesAmbiguity(t *testing.T) {
	for _, lookahead := range []bool{true, false} {
		res := mustParse(t, expGrammar(t), words("id", "a & b | c & d"), WithLookahead(lookahead))

		root, err := res.Set.GetRoot()
		if err != nil {
			t.Fatalf("GetRoot: %v", err)
		}
		if !res.Set.IsAmbiguous() || !root.Ambiguous() {
			t.Errorf("expected an ambiguous root")
		}
		count := 0
		for range root.Derivations() {
			count++
		}
		if count != 3 {
			t.Errorf("expected 3 top-level splits, got %d", count)
		}

		trees := resolveAll(t, root, 0)
		if len(trees) != 1 || trees[0] != "((a & b) | (c & d))" {
			t.Errorf("lookahead=%v: expected a single resolved tree, got %v", lookahead, trees)
		}
	}
}

func TestParse_ChildrenOfUnpinnedNodeCoverAllSplits(t *testing.T) {
	res := mustParse(t, expGrammar(t), words("id", "a & b & c"))
	root, err := res.Set.GetRoot()
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	children, err := root.GetNTChildrenI(0)
	if err != nil {
		t.Fatalf("GetNTChildrenI(0): %v", err)
	}
	var spans []string
	for c := range children {
		spans = append(spans, c.String())
	}
	// "a" and "a & b"
	if len(spans) != 2 {
		t.Errorf("expected two left operands, got %v", spans)
	}
	// Restartable.
	again := 0
	for range children {
		again++
	}
	if again != len(spans) {
		t.Errorf("second iteration yielded %d nodes, want %d", again, len(spans))
	}
}

func TestParse_TrailingOperatorIsRejected(t *testing.T) {
	for _, lookahead := range []bool{true, false} {
		toks := words("id", "a + a +")
		res := mustParse(t, sumGrammar(t), toks, WithLookahead(lookahead))

		if len(res.Set.GetRoots()) != 0 || res.Accepted() {
			t.Fatalf("expected no roots")
		}
		if _, err := res.Set.GetRoot(); !errors.Is(err, bsr.ErrNoRoot) {
			t.Errorf("expected ErrNoRoot, got %v", err)
		}
		if len(res.Errors) == 0 {
			t.Fatal("expected errors")
		}
		for _, e := range res.Errors {
			if e.Index > toks.Len() {
				t.Errorf("error %s beyond end of input", e)
			}
		}
		first := res.Errors[0]
		if first.Kind != diag.UnexpectedToken || first.Index != 4 || first.Token.Kind != token.EOF {
			t.Errorf("lookahead=%v: unexpected first error %s (index %d)", lookahead, first, first.Index)
		}
		if !slices.Equal(first.Expected, []token.Kind{"id"}) {
			t.Errorf("expected [id], got %v", first.Expected)
		}
	}
}

func TestParse_AcceptsRepetition(t *testing.T) {
	res := mustParse(t, sumGrammar(t), words("id", "a + b + c"))
	if !res.Accepted() {
		t.Fatalf("expected acceptance, errors: %v", res.Errors)
	}
	if res.Set.IsAmbiguous() {
		t.Errorf("unexpected ambiguity:\n%s", dump(t, res.Set))
	}
}

func TestParse_ErrorsFurthestFirst(t *testing.T) {
	// S : id "x" | id id "y"
	g := build(t, grammar.NewBuilder().
		Add("S", grammar.T("id"), grammar.L("x")).
		Add("S", grammar.T("id"), grammar.T("id"), grammar.L("y")), "S")

	res := mustParse(t, g, words("id", "a b z"))
	if res.Accepted() {
		t.Fatal("expected rejection")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
	e := res.Errors[0]
	if e.Index != 2 || e.Token.Literal != "z" {
		t.Errorf("expected error at z, got %s", e)
	}
	if !slices.Equal(e.Expected, []token.Kind{token.Literal("y")}) {
		t.Errorf("unexpected expectation %v", e.Expected)
	}
	if e.Column() != 5 {
		t.Errorf("expected column 5, got %d", e.Column())
	}
}

func TestParse_TrailingInput(t *testing.T) {
	g := build(t, grammar.NewBuilder().Add("S", grammar.T("id")), "S")
	res := mustParse(t, g, words("id", "a b"))
	if res.Accepted() {
		t.Fatal("expected rejection")
	}
	e := res.Errors[0]
	if e.Index != 1 || !slices.Equal(e.Expected, []token.Kind{token.EOF}) {
		t.Errorf("expected EOF at index 1, got %s", e)
	}
	// The prefix derivation is kept.
	if !res.Set.Contains(g.Start(), 0, 1) {
		t.Errorf("expected S over [0,1) to be kept:\n%s", dump(t, res.Set))
	}
}

func TestParse_EmptyInput(t *testing.T) {
	g := build(t, grammar.NewBuilder().AddEmpty("S"), "S")
	res := mustParse(t, g, token.NewStream(nil))
	root, err := res.Set.GetRoot()
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	if root.LeftExtent() != 0 || root.RightExtent() != 0 {
		t.Errorf("unexpected root %s", root)
	}

	g = build(t, grammar.NewBuilder().Add("S", grammar.T("id")), "S")
	res = mustParse(t, g, nil)
	if res.Accepted() || len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
	if res.Errors[0].Kind != diag.UnexpectedToken || res.Errors[0].Index != 0 {
		t.Errorf("unexpected error %s", res.Errors[0])
	}
}

func TestParse_UnknownTokenKind(t *testing.T) {
	g := build(t, grammar.NewBuilder().Add("S", grammar.T("id")), "S")
	toks := token.NewStream([]token.Token{{Kind: token.Error, Literal: "?", Position: token.Position{Line: 1, Column: 1}}})
	for _, lookahead := range []bool{true, false} {
		res := mustParse(t, g, toks, WithLookahead(lookahead))
		if res.Accepted() || len(res.Errors) == 0 {
			t.Fatalf("expected rejection")
		}
		if !strings.Contains(res.Errors[0].Message, `"?"`) {
			t.Errorf("expected the offending literal in %q", res.Errors[0].Message)
		}
	}
}

func TestParse_LeftRecursion(t *testing.T) {
	// E : E "+" id | id
	g := build(t, grammar.NewBuilder().
		Add("E", grammar.N("E"), grammar.L("+"), grammar.T("id")).
		Add("E", grammar.T("id")), "E")

	res := mustParse(t, g, words("id", "a + b + c"))
	root, err := res.Set.GetRoot()
	if err != nil {
		t.Fatalf("GetRoot: %v\n%s", err, dump(t, res.Set))
	}
	if res.Set.IsAmbiguous() {
		t.Errorf("left recursion should not be ambiguous:\n%s", dump(t, res.Set))
	}

	left, err := root.GetNTChildI(0)
	if err != nil {
		t.Fatalf("GetNTChildI(0): %v", err)
	}
	if left.Text() != "a + b" {
		t.Errorf("expected left operand %q, got %q", "a + b", left.Text())
	}
	last, err := root.GetTChildI(2)
	if err != nil {
		t.Fatalf("GetTChildI(2): %v", err)
	}
	if last.Literal != "c" {
		t.Errorf("expected c, got %q", last.Literal)
	}
}

func TestParse_IndirectLeftRecursionAndCycles(t *testing.T) {
	// A : B "!" | id ; B : A | C ; C : B
	g := build(t, grammar.NewBuilder().
		Add("A", grammar.N("B"), grammar.L("!")).
		Add("A", grammar.T("id")).
		Add("B", grammar.N("A")).
		Add("B", grammar.N("C")).
		Add("C", grammar.N("B")), "A")

	res := mustParse(t, g, words("id", "a ! !"))
	if !res.Accepted() {
		t.Fatalf("expected acceptance, errors: %v", res.Errors)
	}
}

func TestParse_Deterministic(t *testing.T) {
	g := expGrammar(t)
	toks := words("id", "a & b | c & d | e")
	first := dump(t, mustParse(t, g, toks).Set)
	for range 3 {
		if again := dump(t, mustParse(t, g, toks).Set); again != first {
			t.Fatalf("forests differ:\n%s\n---\n%s", first, again)
		}
	}
}

func TestParse_LookaheadDoesNotChangeForest(t *testing.T) {
	cases := []struct {
		g    *grammar.Grammar
		toks *token.Stream
	}{
		{nameGrammar(t), words("name", "aname 123")},
		{nameGrammar(t), words("name", "123")},
		{expGrammar(t), words("id", "a & b | c & d")},
		{sumGrammar(t), words("id", "a + b + c")},
	}
	for _, c := range cases {
		with := reachable(mustParse(t, c.g, c.toks).Set)
		without := reachable(mustParse(t, c.g, c.toks, WithLookahead(false)).Set)
		if !slices.Equal(with, without) {
			t.Errorf("forests differ:\n%v\n%v", with, without)
		}
	}
}

func TestParse_AmbiguityGrowsPolynomially(t *testing.T) {
	g := expGrammar(t)
	chain := func(n int) *token.Stream {
		parts := []string{"a"}
		for range n - 1 {
			parts = append(parts, "&", "a")
		}
		return words("id", strings.Join(parts, " "))
	}

	var prev Stats
	for _, n := range []int{4, 8, 16} {
		toks := chain(n)
		res := mustParse(t, g, toks)
		if !res.Accepted() {
			t.Fatalf("n=%d: rejected", n)
		}
		m := toks.Len()
		if res.Stats.Forest.Nodes > m*m {
			t.Errorf("n=%d: %d nodes for %d tokens", n, res.Stats.Forest.Nodes, m)
		}
		if prev.Descriptors > 0 && res.Stats.Descriptors > 16*prev.Descriptors {
			t.Errorf("n=%d: descriptors grew from %d to %d", n, prev.Descriptors, res.Stats.Descriptors)
		}
		t.Logf("n=%d tokens=%d descriptors=%d nodes=%d pivots=%d", n, m, res.Stats.Descriptors, res.Stats.Forest.Nodes, res.Stats.Forest.Pivots)
		prev = res.Stats
	}
}

func TestParse_DescriptorLimit(t *testing.T) {
	res := mustParse(t, expGrammar(t), words("id", "a & b | c & d"), WithDescriptorLimit(5))
	if !res.Stats.TimedOut {
		t.Fatal("expected the parse to time out")
	}
	if res.Accepted() {
		t.Error("a timed out parse should not have roots")
	}
	if len(res.Errors) != 1 || res.Errors[0].Kind != diag.Timeout {
		t.Errorf("expected a single timeout error, got %v", res.Errors)
	}
	if res.Stats.Descriptors != 5 {
		t.Errorf("expected 5 descriptors, got %d", res.Stats.Descriptors)
	}
}

func TestParse_IntegrityErrors(t *testing.T) {
	g := expGrammar(t)
	if _, err := Parse(g, "Missing", words("id", "a")); !errors.Is(err, grammar.ErrUnknownNonterminal) {
		t.Errorf("expected ErrUnknownNonterminal, got %v", err)
	}
	if _, err := Parse(nil, "", words("id", "a")); !errors.Is(err, grammar.ErrIntegrity) {
		t.Errorf("expected ErrIntegrity, got %v", err)
	}
}

func TestParse_StartOverride(t *testing.T) {
	res, err := Parse(expGrammar(t), "Op", words("id", "|"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	root, err := res.Set.GetRoot()
	if err != nil {
		t.Fatalf("GetRoot: %v", err)
	}
	if root.Name() != "Op" || root.Alternate() != 1 {
		t.Errorf("unexpected root %s", root)
	}
}

func TestParse_StartOverrideNullable(t *testing.T) {
	g := nameGrammar(t)
	tests := []struct {
		src     string
		wantAlt int
	}{
		{"", 1},
		{"aname", 0},
	}
	for _, tt := range tests {
		for _, lookahead := range []bool{true, false} {
			res, err := Parse(g, "Name", words("name", tt.src), WithLookahead(lookahead))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			root, err := res.Set.GetRoot()
			if err != nil {
				t.Errorf("%q lookahead=%v: GetRoot: %v; errors %v", tt.src, lookahead, err, res.Errors)
				continue
			}
			if root.Name() != "Name" || root.Alternate() != tt.wantAlt {
				t.Errorf("%q lookahead=%v: unexpected root %s", tt.src, lookahead, root)
			}
			if len(res.Errors) != 0 {
				t.Errorf("%q lookahead=%v: unexpected errors %v", tt.src, lookahead, res.Errors)
			}
		}
	}

	// The grammar's own start symbol still needs the int after Name.
	res := mustParse(t, g, words("name", "aname"))
	if res.Accepted() {
		t.Error("A should reject input without an int")
	}
}

func TestParse_TerminalPositionPerDerivation(t *testing.T) {
	// S : A "-" A ; A : "-" | empty
	g := build(t, grammar.NewBuilder().
		Add("S", grammar.N("A"), grammar.L("-"), grammar.N("A")).
		Add("A", grammar.L("-")).
		AddEmpty("A"), "S")

	res := mustParse(t, g, words("id", "- -"))
	root, err := res.Set.GetRoot()
	if err != nil {
		t.Fatalf("GetRoot: %v\n%s", err, dump(t, res.Set))
	}

	var columns []int
	for d := range root.Derivations() {
		tok, err := d.GetTChildI(1)
		if err != nil {
			t.Fatalf("GetTChildI on %s: %v", d, err)
		}
		columns = append(columns, tok.Column)
	}
	slices.Sort(columns)
	if !slices.Equal(columns, []int{1, 3}) {
		t.Errorf("expected the operator at columns [1 3] across derivations, got %v", columns)
	}

	tok, err := root.GetTChildI(1)
	if err != nil {
		t.Fatalf("GetTChildI: %v", err)
	}
	if !slices.Contains(columns, tok.Column) {
		t.Errorf("unpinned query returned column %d, not one of %v", tok.Column, columns)
	}
}

func TestParse_AmbiguousRoot(t *testing.T) {
	// S : A | B ; A : id ; B : id
	g := build(t, grammar.NewBuilder().
		Add("S", grammar.N("A")).
		Add("S", grammar.N("B")).
		Add("A", grammar.T("id")).
		Add("B", grammar.T("id")), "S")

	res := mustParse(t, g, words("id", "a"))
	if n := len(res.Set.GetRoots()); n != 2 {
		t.Fatalf("expected 2 roots, got %d", n)
	}
	if _, err := res.Set.GetRoot(); !errors.Is(err, bsr.ErrAmbiguousRoot) {
		t.Errorf("expected ErrAmbiguousRoot, got %v", err)
	}
}
