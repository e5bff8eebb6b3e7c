// Package diag holds the errors reported by the lexer and the parser.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dhamidi/gll/token"
)

// Kind classifies an Error.
type Kind int

const (
	// LexError marks input the lexer could not scan.
	LexError Kind = iota
	// UnexpectedToken marks a position where no alternate could advance.
	UnexpectedToken
	// NoProgress marks a rejected input with no recorded expectation.
	NoProgress
	// Timeout marks a parse stopped by its descriptor budget.
	Timeout
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case UnexpectedToken:
		return "unexpected token"
	case NoProgress:
		return "no progress"
	case Timeout:
		return "timeout"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a positioned diagnostic. Index is the token index the error
// refers to, or -1 for lexer errors.
type Error struct {
	Kind     Kind
	Pos      token.Position
	Index    int
	Token    *token.Token
	Expected []token.Kind
	Message  string
}

func (e *Error) Line() int   { return e.Pos.Line }
func (e *Error) Column() int { return e.Pos.Column }

func (e *Error) Error() string {
	return e.String()
}

func (e *Error) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s", e.Pos, e.Kind, e.Message)
	if len(e.Expected) > 0 {
		b.WriteString("; expected one of: ")
		for i, k := range e.Expected {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(string(k))
		}
	}
	return b.String()
}

// Collector accumulates errors in discovery order.
type Collector struct {
	errs []*Error
}

func (c *Collector) Add(e *Error) {
	c.errs = append(c.errs, e)
}

// Addf records an error of the given kind at pos.
func (c *Collector) Addf(kind Kind, pos token.Position, format string, args ...any) *Error {
	e := &Error{
		Kind:    kind,
		Pos:     pos,
		Index:   -1,
		Message: fmt.Sprintf(format, args...),
	}
	c.Add(e)
	return e
}

func (c *Collector) Len() int {
	return len(c.errs)
}

func (c *Collector) Errors() []*Error {
	return c.errs
}

// FirstLine returns the errors on the line of the first error, the way
// command line tools report a failed parse.
func FirstLine(errs []*Error) []*Error {
	if len(errs) == 0 {
		return nil
	}
	ln := errs[0].Line()
	var out []*Error
	for _, e := range errs {
		if e.Line() == ln {
			out = append(out, e)
		}
	}
	return out
}

// SortByPosition orders errors by line, then column. The sort is stable.
func SortByPosition(errs []*Error) {
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Pos.Line != errs[j].Pos.Line {
			return errs[i].Pos.Line < errs[j].Pos.Line
		}
		return errs[i].Pos.Column < errs[j].Pos.Column
	})
}
