// Package lexer turns source text into a token.Stream using a lexical
// grammar written in EBNF. Every production whose name starts with an
// uppercase letter is a token kind; the longest match wins.
package lexer

import (
	"fmt"
	"os"
	"sort"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/gll/diag"
	"github.com/dhamidi/gll/token"
)

// memoKey is used for memoization of match results.
type memoKey struct {
	name   string
	offset int
}

// Lexer tokenizes input based on an EBNF grammar.
type Lexer struct {
	grammar  ebnf.Grammar
	kinds    []string
	literals []string
	skip     map[token.Kind]bool
	input    []byte
	filename string
	pos      int
	line     int
	column   int
	memo     map[memoKey]int  // match length per production and offset, -1 = no match
	visiting map[memoKey]bool // cycle detection
	errs     diag.Collector
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithLiterals scans each string as a token of kind token.Literal(s).
// A literal wins against a named production matching the same length,
// so keywords take precedence over identifiers.
func WithLiterals(lits ...string) Option {
	return func(l *Lexer) {
		l.literals = append(l.literals, lits...)
	}
}

// WithSkip drops tokens of the given kinds from the stream.
func WithSkip(kinds ...token.Kind) Option {
	return func(l *Lexer) {
		for _, k := range kinds {
			l.skip[k] = true
		}
	}
}

// New creates a lexer for the given grammar and input. The grammar may be
// nil when all tokens are literals.
func New(grammar ebnf.Grammar, input []byte, filename string, opts ...Option) *Lexer {
	l := &Lexer{
		grammar:  grammar,
		input:    input,
		filename: filename,
		line:     1,
		column:   1,
		skip:     make(map[token.Kind]bool),
		memo:     make(map[memoKey]int),
		visiting: make(map[memoKey]bool),
	}
	for _, opt := range opts {
		opt(l)
	}

	for name, prod := range grammar {
		if prod.Expr != nil && isTokenName(name) {
			l.kinds = append(l.kinds, name)
		}
	}
	sort.Strings(l.kinds)
	// Longer literals first so that "<=" beats "<" without a second pass.
	sort.SliceStable(l.literals, func(i, j int) bool {
		return len(l.literals[i]) > len(l.literals[j])
	})
	return l
}

// LoadGrammar loads an EBNF grammar from a file.
func LoadGrammar(filename string) (ebnf.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	grammar, err := ebnf.Parse(filename, f)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}

	return grammar, nil
}

func isTokenName(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}

// Position returns the current position in the input.
func (l *Lexer) Position() token.Position {
	return token.Position{
		Filename: l.filename,
		Offset:   l.pos,
		Line:     l.line,
		Column:   l.column,
	}
}

func (l *Lexer) advance(n int) {
	for _, ch := range l.input[l.pos : l.pos+n] {
		if ch == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
	}
	l.pos += n
}

// Next returns the next token, including skipped kinds. At the end of the
// input it returns an EOF token and false.
func (l *Lexer) Next() (token.Token, bool) {
	start := l.Position()
	if l.pos >= len(l.input) {
		return token.Token{Kind: token.EOF, Position: start}, false
	}

	// Positions change with every token.
	l.memo = make(map[memoKey]int)

	var bestKind token.Kind
	bestLen := 0
	for _, lit := range l.literals {
		if len(lit) > bestLen && l.tryMatchToken(lit, l.pos) > 0 {
			bestLen = len(lit)
			bestKind = token.Literal(lit)
		}
	}
	for _, name := range l.kinds {
		l.visiting = make(map[memoKey]bool)
		if n := l.tryMatch(l.grammar[name].Expr, l.pos); n > bestLen {
			bestLen = n
			bestKind = token.Kind(name)
		}
	}

	if bestLen == 0 {
		_, size := utf8.DecodeRune(l.input[l.pos:])
		tok := token.Token{
			Kind:     token.Error,
			Literal:  string(l.input[l.pos : l.pos+size]),
			Position: start,
		}
		e := l.errs.Addf(diag.LexError, start, "unexpected character %q", tok.Literal)
		e.Token = &tok
		l.advance(size)
		return tok, true
	}

	tok := token.Token{
		Kind:     bestKind,
		Literal:  string(l.input[l.pos : l.pos+bestLen]),
		Position: start,
	}
	l.advance(bestLen)
	return tok, true
}

// tryMatch returns the length of the longest match of expr at offset,
// or 0 if there is none.
func (l *Lexer) tryMatch(expr ebnf.Expression, offset int) int {
	switch e := expr.(type) {
	case *ebnf.Token:
		return l.tryMatchToken(e.String, offset)

	case *ebnf.Range:
		return l.tryMatchRange(e.Begin.String, e.End.String, offset)

	case ebnf.Sequence:
		total := 0
		for _, item := range e {
			n := l.tryMatch(item, offset+total)
			if n == 0 && !nullable(item) {
				return 0
			}
			total += n
		}
		return total

	case ebnf.Alternative:
		best := 0
		for _, alt := range e {
			if n := l.tryMatch(alt, offset); n > best {
				best = n
			}
		}
		return best

	case *ebnf.Repetition:
		total := 0
		for {
			n := l.tryMatch(e.Body, offset+total)
			if n == 0 {
				break
			}
			total += n
		}
		return total

	case *ebnf.Option:
		return l.tryMatch(e.Body, offset)

	case *ebnf.Group:
		return l.tryMatch(e.Body, offset)

	case *ebnf.Name:
		return l.tryMatchName(e.String, offset)
	}
	return 0
}

// nullable reports whether expr matches the empty string without input,
// which lets an option or repetition inside a sequence match nothing.
func nullable(expr ebnf.Expression) bool {
	switch e := expr.(type) {
	case *ebnf.Option, *ebnf.Repetition:
		return true
	case *ebnf.Group:
		return nullable(e.Body)
	case ebnf.Sequence:
		for _, item := range e {
			if !nullable(item) {
				return false
			}
		}
		return true
	case ebnf.Alternative:
		for _, alt := range e {
			if nullable(alt) {
				return true
			}
		}
	}
	return false
}

// tryMatchName matches a named production with memoization and cycle detection.
func (l *Lexer) tryMatchName(name string, offset int) int {
	key := memoKey{name: name, offset: offset}
	if result, ok := l.memo[key]; ok {
		if result == -1 {
			return 0
		}
		return result
	}

	// Left recursion at the same offset cannot make progress.
	if l.visiting[key] {
		return 0
	}

	prod, ok := l.grammar[name]
	if !ok || prod.Expr == nil {
		l.memo[key] = -1
		return 0
	}

	l.visiting[key] = true
	result := l.tryMatch(prod.Expr, offset)
	delete(l.visiting, key)

	if result == 0 {
		l.memo[key] = -1
	} else {
		l.memo[key] = result
	}
	return result
}

func (l *Lexer) tryMatchToken(s string, offset int) int {
	if offset+len(s) > len(l.input) {
		return 0
	}
	if string(l.input[offset:offset+len(s)]) == s {
		return len(s)
	}
	return 0
}

// tryMatchRange matches one character in a range such as "a" … "z".
func (l *Lexer) tryMatchRange(begin, end string, offset int) int {
	if offset >= len(l.input) {
		return 0
	}
	lo, n1 := utf8.DecodeRuneInString(begin)
	hi, n2 := utf8.DecodeRuneInString(end)
	if n1 != len(begin) || n2 != len(end) {
		return 0
	}
	ch, size := utf8.DecodeRune(l.input[offset:])
	if ch >= lo && ch <= hi {
		return size
	}
	return 0
}

// Tokenize scans the whole input. Unscannable characters become
// token.Error tokens and are reported as LexError diagnostics; scanning
// continues after them.
func (l *Lexer) Tokenize() (*token.Stream, []*diag.Error) {
	var tokens []token.Token
	for {
		tok, ok := l.Next()
		if !ok {
			tokens = append(tokens, tok)
			break
		}
		if !l.skip[tok.Kind] {
			tokens = append(tokens, tok)
		}
	}
	return token.NewStream(tokens), l.errs.Errors()
}

// Kinds returns the token kinds the lexer can produce, named productions
// first, then literals.
func (l *Lexer) Kinds() []token.Kind {
	out := make([]token.Kind, 0, len(l.kinds)+len(l.literals))
	for _, k := range l.kinds {
		out = append(out, token.Kind(k))
	}
	for _, lit := range l.literals {
		out = append(out, token.Literal(lit))
	}
	return out
}
