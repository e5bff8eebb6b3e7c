// Package token defines the tokens consumed by the parser and the
// EOF-terminated stream that holds them.
package token

import (
	"fmt"
	"strconv"
)

// Kind identifies the terminal a token belongs to.
type Kind string

const (
	EOF   Kind = "EOF"
	Error Kind = "ERROR"
)

// Literal returns the kind used for a quoted literal terminal such as "&".
// Literal kinds keep their quotes so they never collide with named kinds.
func Literal(s string) Kind {
	return Kind(strconv.Quote(s))
}

// IsLiteral reports whether k was produced by Literal.
func (k Kind) IsLiteral() bool {
	return len(k) >= 2 && k[0] == '"' && k[len(k)-1] == '"'
}

// Position represents a location in source code.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token with its position.
type Token struct {
	Kind    Kind
	Literal string
	Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Position, t.Kind, t.Literal)
}

// End returns the position just past the token's literal.
func (t Token) End() Position {
	return Position{
		Filename: t.Filename,
		Offset:   t.Offset + len(t.Literal),
		Line:     t.Line,
		Column:   t.Column + len(t.Literal),
	}
}
