// Package parser implements a GLL parser. It explores every derivation of
// the input allowed by the grammar and records them in a bsr.Set.
//
// Work is scheduled as descriptors on a gss.Worklist that hands out all
// descriptors at an input position before any at a later one. Calls are
// shared through the graph-structured stack, and the completions of a call
// are memoized per position, which keeps left-recursive and ambiguous
// grammars cubic in the length of the input.
package parser

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/gll/bsr"
	"github.com/dhamidi/gll/diag"
	"github.com/dhamidi/gll/grammar"
	"github.com/dhamidi/gll/gss"
	"github.com/dhamidi/gll/token"
)

// Stats describes the work done by a parse.
type Stats struct {
	Descriptors int
	GSSNodes    int
	GSSEdges    int
	Forest      bsr.Stats
	TimedOut    bool
}

// Result is the outcome of a parse. Set holds everything that was derived,
// whether or not the input was accepted.
type Result struct {
	Set    *bsr.Set
	Errors []*diag.Error
	Stats  Stats
}

// Accepted reports whether the start symbol derives the whole input.
func (r *Result) Accepted() bool {
	return len(r.Set.GetRoots()) > 0
}

// Parse parses toks with g, starting at the nonterminal named start, or at
// the grammar's start symbol when start is empty.
//
// A rejected input is not an error: the returned Result carries the
// diagnostics. The error return is reserved for grammars the parser cannot
// run, and wraps grammar.ErrIntegrity or grammar.ErrUnknownNonterminal.
func Parse(g *grammar.Grammar, start string, toks *token.Stream, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if start != "" {
		sg, err := g.WithStart(start)
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
		g = sg
	}
	startID := g.Start()
	if toks == nil {
		toks = token.NewStream(nil)
	}

	p := newParser(g, startID, toks, o)
	p.run()
	return p.result(), nil
}

type parser struct {
	g     *grammar.Grammar
	start int
	toks  *token.Stream
	terms []int
	opts  options
	log   commonlog.Logger

	stack *gss.GSS
	work  *gss.Worklist
	set   *bsr.Set
	errs  diag.Collector

	// expected holds, per input position, the terminals that would have
	// let some descriptor advance there.
	expected map[int]*bitset.BitSet
	// consumed marks the positions whose token was matched at least once.
	consumed *bitset.BitSet
	timedOut bool
}

func newParser(g *grammar.Grammar, start int, toks *token.Stream, o options) *parser {
	n := toks.Len()
	terms := make([]int, n+1)
	for i := range terms {
		id, ok := g.TerminalID(toks.At(i).Kind)
		if !ok {
			id = -1
		}
		terms[i] = id
	}
	return &parser{
		g:        g,
		start:    start,
		toks:     toks,
		terms:    terms,
		opts:     o,
		log:      o.log,
		stack:    gss.New(),
		work:     gss.NewWorklist(),
		set:      bsr.New(g, start, toks),
		expected: make(map[int]*bitset.BitSet),
		consumed: bitset.New(uint(n + 1)),
	}
}

func (p *parser) run() {
	p.log.Debugf("parsing %d tokens from %s (%d alternates)", p.toks.Len(), p.g.Name(p.start), len(p.g.Table()))

	p.ntAdd(p.start, gss.Bottom, 0)
	for {
		if p.opts.limit > 0 && p.work.Processed() >= p.opts.limit && p.work.Pending() > 0 {
			p.timedOut = true
			p.log.Warningf("descriptor limit %d reached at position %d", p.opts.limit, p.work.Current())
			break
		}
		d, ok := p.work.Next()
		if !ok {
			break
		}
		p.process(d)
	}
	p.set.Freeze()

	st := p.set.Stats()
	p.log.Debugf("processed %d descriptors, %d GSS nodes, %d BSR nodes, %d pivots",
		p.work.Processed(), p.stack.Len(), st.Nodes, st.Pivots)
}

func (p *parser) process(d gss.Descriptor) {
	slot, u, i := d.Slot, d.Node, d.Pos
	alt := p.g.Alternate(slot.NT, slot.Alt)

	if slot.Pos == alt.Len() {
		if alt.Empty() {
			p.set.Add(slot, i, i, i)
		}
		p.rtn(u, i)
		return
	}

	sym := alt.Symbols[slot.Pos]
	id := p.g.SymbolID(slot.NT, slot.Alt, slot.Pos)
	next := grammar.Slot{NT: slot.NT, Alt: slot.Alt, Pos: slot.Pos + 1}

	if sym.Terminal {
		if p.terms[i] != id || i >= p.toks.Len() {
			p.expect(i, id)
			return
		}
		p.consumed.Set(uint(i))
		p.set.Add(next, p.stack.Node(u).Pos, i, i+1)
		p.work.Add(gss.Descriptor{Slot: next, Node: u, Pos: i + 1})
		return
	}

	p.call(next, u, i, id)
}

// call enters nonterminal nt at position i from call context u, returning
// to slot ret.
func (p *parser) call(ret grammar.Slot, u, i, nt int) {
	v, created := p.stack.Create(ret, i)
	if !p.stack.AddEdge(v, u) {
		return
	}
	if created {
		p.ntAdd(nt, v, i)
		return
	}
	for _, j := range p.stack.Popped(v) {
		p.resume(ret, u, i, j)
	}
}

// resume continues slot ret in call context u after its last symbol
// derived the input between pivot and j.
func (p *parser) resume(ret grammar.Slot, u, pivot, j int) {
	p.set.Add(ret, p.stack.Node(u).Pos, pivot, j)
	p.work.Add(gss.Descriptor{Slot: ret, Node: u, Pos: j})
}

// rtn completes the callee of node u at position j and resumes every
// caller, once per (node, position).
func (p *parser) rtn(u, j int) {
	if u == gss.Bottom {
		if j < p.toks.Len() {
			p.expect(j, 0)
		}
		return
	}
	if !p.stack.Pop(u, j) {
		return
	}
	n := p.stack.Node(u)
	for _, parent := range p.stack.Parents(u) {
		p.resume(n.Slot, parent, n.Pos, j)
	}
}

// ntAdd schedules every alternate of nt at position i that can start
// with the token there.
func (p *parser) ntAdd(nt, u, i int) {
	for _, alt := range p.g.Nonterminal(nt).Alternates {
		slot := grammar.Slot{NT: nt, Alt: alt.Index}
		if p.opts.lookahead && !p.g.Selects(p.terms[i], slot) {
			p.expectSet(i, p.g.SelectSet(slot))
			continue
		}
		p.work.Add(gss.Descriptor{Slot: slot, Node: u, Pos: i})
	}
}

func (p *parser) expectedAt(i int) *bitset.BitSet {
	set, ok := p.expected[i]
	if !ok {
		set = bitset.New(uint(len(p.g.Terminals())))
		p.expected[i] = set
	}
	return set
}

func (p *parser) expect(i, term int) {
	p.expectedAt(i).Set(uint(term))
}

func (p *parser) expectSet(i int, terms *bitset.BitSet) {
	p.expectedAt(i).InPlaceUnion(terms)
}

func (p *parser) result() *Result {
	if p.timedOut {
		tok := p.toks.At(p.work.Current())
		e := p.errs.Addf(diag.Timeout, tok.Position, "descriptor limit %d reached", p.opts.limit)
		e.Index = p.work.Current()
		e.Token = tok
	} else if len(p.set.GetRoots()) == 0 {
		p.reportFailures()
	}

	return &Result{
		Set:    p.set,
		Errors: p.errs.Errors(),
		Stats: Stats{
			Descriptors: p.work.Processed(),
			GSSNodes:    p.stack.Len(),
			GSSEdges:    p.stack.Edges(),
			Forest:      p.set.Stats(),
			TimedOut:    p.timedOut,
		},
	}
}

// reportFailures adds one UnexpectedToken error per position where some
// descriptor was stuck and no token was ever matched, furthest first.
func (p *parser) reportFailures() {
	var positions []int
	for i, set := range p.expected {
		if set.Any() && !p.consumed.Test(uint(i)) {
			positions = append(positions, i)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(positions)))

	for _, i := range positions {
		tok := p.toks.At(i)
		expected := p.g.Kinds(p.expected[i])
		sort.Slice(expected, func(a, b int) bool { return expected[a] < expected[b] })

		var e *diag.Error
		if tok.Kind == token.EOF {
			e = p.errs.Addf(diag.UnexpectedToken, tok.Position, "unexpected end of input")
		} else {
			e = p.errs.Addf(diag.UnexpectedToken, tok.Position, "unexpected %s %q", tok.Kind, tok.Literal)
		}
		e.Index = i
		e.Token = tok
		e.Expected = expected
	}

	if p.errs.Len() == 0 {
		i := p.furthest()
		tok := p.toks.At(i)
		e := p.errs.Addf(diag.NoProgress, tok.Position, "no derivation of %s covers the input", p.g.Name(p.start))
		e.Index = i
		e.Token = tok
	}
}

// furthest returns the position after the last matched token.
func (p *parser) furthest() int {
	if p.consumed.None() {
		return 0
	}
	last := uint(0)
	for i, ok := p.consumed.NextSet(0); ok; i, ok = p.consumed.NextSet(i + 1) {
		last = i
	}
	return int(last) + 1
}
