package grammar

import (
	"fmt"

	"github.com/dhamidi/gll/token"
)

// Symbol is a grammar symbol: a terminal kind or a nonterminal name.
type Symbol struct {
	Terminal bool
	Name     string
}

// T returns the terminal symbol matching tokens of the given kind.
func T(kind token.Kind) Symbol {
	return Symbol{Terminal: true, Name: string(kind)}
}

// L returns the terminal symbol for a quoted literal such as "&".
func L(literal string) Symbol {
	return T(token.Literal(literal))
}

// N returns the nonterminal symbol with the given name.
func N(name string) Symbol {
	return Symbol{Name: name}
}

// Kind returns the token kind of a terminal symbol.
func (s Symbol) Kind() token.Kind {
	return token.Kind(s.Name)
}

func (s Symbol) String() string {
	return s.Name
}

// Slot is a position inside an alternate: Pos symbols have been matched.
type Slot struct {
	NT  int
	Alt int
	Pos int
}

// Format renders the slot with a bullet marking Pos, e.g. "Exp : Exp • Op Exp".
func (s Slot) Format(g *Grammar) string {
	alt := g.Alternate(s.NT, s.Alt)
	if alt == nil {
		return fmt.Sprintf("%d/%d/%d", s.NT, s.Alt, s.Pos)
	}
	out := g.nts[s.NT].Name + " :"
	for i, sym := range alt.Symbols {
		if i == s.Pos {
			out += " •"
		}
		out += " " + sym.String()
	}
	if s.Pos == len(alt.Symbols) {
		out += " •"
	}
	return out
}
