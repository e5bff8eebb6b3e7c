// Package disambig picks one candidate out of the alternatives a forest
// offers at an ambiguous position.
//
// Walkers call Select with the children returned by
// bsr.Node.GetNTChildrenI or the derivations returned by
// bsr.Node.Derivations and a predicate deciding whether a candidate is
// acceptable in its context, for example an operator precedence check.
// When no candidate is acceptable the walker fails its own subtree so that
// the caller can try its next candidate.
package disambig

import (
	"fmt"
	"iter"
)

// Policy decides which acceptable candidate wins.
type Policy int

const (
	// First keeps the first acceptable candidate in discovery order and
	// stops looking.
	First Policy = iota
	// Last keeps the last acceptable candidate in discovery order.
	Last
)

func (p Policy) String() string {
	switch p {
	case First:
		return "first"
	case Last:
		return "last"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy returns the policy named s.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "first":
		return First, nil
	case "last":
		return Last, nil
	}
	return First, fmt.Errorf("unknown disambiguation policy %q", s)
}

// Select returns the candidate of seq chosen by p among those accepted by
// ok. It reports false when no candidate is accepted.
func Select[T any](seq iter.Seq[T], ok func(T) bool, p Policy) (T, bool) {
	var chosen T
	found := false
	for c := range seq {
		if !ok(c) {
			continue
		}
		chosen, found = c, true
		if p == First {
			break
		}
	}
	return chosen, found
}

// Resolve is Select for walkers whose acceptance test also builds a value:
// try returns the value for a candidate, or false when the candidate fails.
func Resolve[T, V any](seq iter.Seq[T], try func(T) (V, bool), p Policy) (V, bool) {
	var chosen V
	found := false
	for c := range seq {
		v, ok := try(c)
		if !ok {
			continue
		}
		chosen, found = v, true
		if p == First {
			break
		}
	}
	return chosen, found
}
