package grammar

import "github.com/bits-and-blooms/bitset"

// computeSets fills nullable, FIRST and FOLLOW by fixpoint iteration and
// derives the per-slot selection sets used for lookahead.
func (g *Grammar) computeSets() {
	n := len(g.nts)
	size := uint(len(g.terms))

	g.nullable = make([]bool, n)
	g.first = make([]*bitset.BitSet, n)
	g.follow = make([]*bitset.BitSet, n)
	for i := range n {
		g.first[i] = bitset.New(size)
		g.follow[i] = bitset.New(size)
	}

	for changed := true; changed; {
		changed = false
		for _, alt := range g.table {
			if g.nullable[alt.NT] {
				continue
			}
			if _, nullable := g.firstOfSuffix(alt, 0); nullable {
				g.nullable[alt.NT] = true
				changed = true
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for _, alt := range g.table {
			f := g.first[alt.NT]
			before := f.Count()
			for j, sym := range alt.Symbols {
				id := alt.ids[j]
				if sym.Terminal {
					f.Set(uint(id))
					break
				}
				f.InPlaceUnion(g.first[id])
				if !g.nullable[id] {
					break
				}
			}
			if f.Count() != before {
				changed = true
			}
		}
	}

	g.follow[g.start].Set(0)
	for changed := true; changed; {
		changed = false
		for _, alt := range g.table {
			for j, sym := range alt.Symbols {
				if sym.Terminal {
					continue
				}
				f := g.follow[alt.ids[j]]
				before := f.Count()
				rest, nullable := g.firstOfSuffix(alt, j+1)
				f.InPlaceUnion(rest)
				if nullable {
					f.InPlaceUnion(g.follow[alt.NT])
				}
				if f.Count() != before {
					changed = true
				}
			}
		}
	}

	for _, alt := range g.table {
		alt.sel = make([]*bitset.BitSet, len(alt.Symbols)+1)
		for pos := range alt.sel {
			set, nullable := g.firstOfSuffix(alt, pos)
			if nullable {
				set.InPlaceUnion(g.follow[alt.NT])
			}
			alt.sel[pos] = set
		}
	}
}

func (g *Grammar) firstOfSuffix(alt *Alternate, pos int) (*bitset.BitSet, bool) {
	set := bitset.New(uint(len(g.terms)))
	for j := pos; j < len(alt.Symbols); j++ {
		id := alt.ids[j]
		if alt.Symbols[j].Terminal {
			set.Set(uint(id))
			return set, false
		}
		set.InPlaceUnion(g.first[id])
		if !g.nullable[id] {
			return set, false
		}
	}
	return set, true
}

// Nullable reports whether nonterminal nt derives the empty string.
func (g *Grammar) Nullable(nt int) bool {
	return g.nullable[nt]
}

// First returns a copy of FIRST(nt) as a set of terminal ids.
func (g *Grammar) First(nt int) *bitset.BitSet {
	return g.first[nt].Clone()
}

// Follow returns a copy of FOLLOW(nt) as a set of terminal ids.
func (g *Grammar) Follow(nt int) *bitset.BitSet {
	return g.follow[nt].Clone()
}

// SelectSet returns the terminals that may appear at the input position
// of slot s when the remainder of its alternate can be derived there.
// The returned set must not be modified.
func (g *Grammar) SelectSet(s Slot) *bitset.BitSet {
	return g.nts[s.NT].Alternates[s.Alt].sel[s.Pos]
}

// Selects reports whether terminal id term can continue slot s.
// Unknown terminals (negative ids) never select.
func (g *Grammar) Selects(term int, s Slot) bool {
	if term < 0 {
		return false
	}
	return g.SelectSet(s).Test(uint(term))
}
