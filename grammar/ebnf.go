package grammar

import (
	"fmt"
	"io"
	"os"
	"sort"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/gll/token"
)

// FromEBNF converts the syntactic productions of an EBNF grammar into a
// production table. Lowercase productions become nonterminals; uppercase
// names refer to token kinds and quoted strings to literal tokens.
// Groups, options and repetitions become synthetic nonterminals named
// after their enclosing production.
func FromEBNF(src ebnf.Grammar, start string) (*Grammar, error) {
	if IsLexical(start) {
		return nil, fmt.Errorf("start production %q is lexical: %w", start, ErrIntegrity)
	}
	if p, ok := src[start]; !ok || p == nil {
		return nil, fmt.Errorf("start production %q: %w", start, ErrUnknownNonterminal)
	}

	names := make([]string, 0, len(src))
	for name := range src {
		if name != start && !IsLexical(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	names = append([]string{start}, names...)

	c := &ebnfConverter{b: NewBuilder(), counts: make(map[string]int)}
	for _, name := range names {
		if err := c.production(name, src[name].Expr); err != nil {
			return nil, err
		}
	}
	return c.b.Build(start)
}

// LoadEBNF reads an EBNF file and converts it with FromEBNF.
func LoadEBNF(filename, start string) (*Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()
	return ReadEBNF(filename, f, start)
}

// ReadEBNF parses EBNF source from r and converts it with FromEBNF.
func ReadEBNF(filename string, r io.Reader, start string) (*Grammar, error) {
	src, err := ebnf.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}
	return FromEBNF(src, start)
}

// IsLexical reports whether name denotes a token production.
func IsLexical(name string) bool {
	ch, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(ch)
}

type ebnfConverter struct {
	b      *Builder
	counts map[string]int
}

func (c *ebnfConverter) production(head string, expr ebnf.Expression) error {
	c.b.declare(head)
	if expr == nil {
		c.b.AddEmpty(head)
		return nil
	}
	alts, ok := expr.(ebnf.Alternative)
	if !ok {
		alts = ebnf.Alternative{expr}
	}
	for _, alt := range alts {
		syms, err := c.sequence(head, alt)
		if err != nil {
			return err
		}
		c.b.Add(head, syms...)
	}
	return nil
}

func (c *ebnfConverter) sequence(head string, expr ebnf.Expression) ([]Symbol, error) {
	if expr == nil {
		return nil, nil
	}
	seq, ok := expr.(ebnf.Sequence)
	if !ok {
		seq = ebnf.Sequence{expr}
	}
	syms := make([]Symbol, 0, len(seq))
	for _, e := range seq {
		sym, err := c.symbol(head, e)
		if err != nil {
			return nil, err
		}
		syms = append(syms, sym)
	}
	return syms, nil
}

func (c *ebnfConverter) symbol(head string, expr ebnf.Expression) (Symbol, error) {
	switch e := expr.(type) {
	case *ebnf.Name:
		if IsLexical(e.String) {
			return T(token.Kind(e.String)), nil
		}
		return N(e.String), nil

	case *ebnf.Token:
		return L(e.String), nil

	case *ebnf.Group:
		name := c.synthetic(head, "grp")
		return N(name), c.production(name, e.Body)

	case ebnf.Alternative:
		name := c.synthetic(head, "grp")
		return N(name), c.production(name, e)

	case ebnf.Sequence:
		name := c.synthetic(head, "grp")
		return N(name), c.production(name, e)

	case *ebnf.Option:
		name := c.synthetic(head, "opt")
		if err := c.production(name, e.Body); err != nil {
			return Symbol{}, err
		}
		c.b.AddEmpty(name)
		return N(name), nil

	case *ebnf.Repetition:
		name := c.synthetic(head, "rep")
		c.b.declare(name)
		body := e.Body
		alts, ok := body.(ebnf.Alternative)
		if !ok {
			alts = ebnf.Alternative{body}
		}
		for _, alt := range alts {
			syms, err := c.sequence(name, alt)
			if err != nil {
				return Symbol{}, err
			}
			c.b.Add(name, append(syms, N(name))...)
		}
		c.b.AddEmpty(name)
		return N(name), nil

	case *ebnf.Range:
		return Symbol{}, fmt.Errorf("%s: character range in production %q belongs in the lexical grammar: %w", e.Pos(), head, ErrIntegrity)

	case *ebnf.Bad:
		return Symbol{}, fmt.Errorf("%s: %s: %w", e.Pos(), e.Error, ErrIntegrity)
	}
	return Symbol{}, fmt.Errorf("unsupported expression %T in production %q: %w", expr, head, ErrIntegrity)
}

func (c *ebnfConverter) synthetic(head, kind string) string {
	c.counts[head]++
	return fmt.Sprintf("%s·%s%d", head, kind, c.counts[head])
}
