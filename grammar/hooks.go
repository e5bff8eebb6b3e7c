package grammar

import "fmt"

// ReduceFunc builds a semantic value for an alternate from the values of
// its matched children. The parser never calls it.
type ReduceFunc func(children []any) any

// AltKey identifies an alternate of a nonterminal.
type AltKey struct {
	NT  int
	Alt int
}

// Hooks maps alternates to reduce functions.
type Hooks map[AltKey]ReduceFunc

// Set registers fn for alternate alt of the named nonterminal.
func (h Hooks) Set(g *Grammar, head string, alt int, fn ReduceFunc) error {
	nt, ok := g.NT(head)
	if !ok {
		return fmt.Errorf("hook for %q: %w", head, ErrUnknownNonterminal)
	}
	if g.Alternate(nt, alt) == nil {
		return fmt.Errorf("hook for %q alternate %d: %w", head, alt, ErrIntegrity)
	}
	h[AltKey{NT: nt, Alt: alt}] = fn
	return nil
}

func (h Hooks) Lookup(nt, alt int) (ReduceFunc, bool) {
	fn, ok := h[AltKey{NT: nt, Alt: alt}]
	return fn, ok
}
