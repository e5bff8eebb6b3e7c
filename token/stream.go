package token

// Stream is an immutable, randomly indexable token sequence that always
// ends with exactly one EOF token.
type Stream struct {
	tokens []Token
}

// NewStream wraps tokens. An EOF token is appended when the slice is not
// already EOF-terminated, so an empty slice yields a stream holding only EOF.
// Tokens after the first EOF are dropped.
func NewStream(tokens []Token) *Stream {
	toks := make([]Token, 0, len(tokens)+1)
	for _, tok := range tokens {
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return &Stream{tokens: toks}
		}
	}

	eof := Token{Kind: EOF, Position: Position{Line: 1, Column: 1}}
	if len(toks) > 0 {
		eof.Position = toks[len(toks)-1].End()
	}
	toks = append(toks, eof)
	return &Stream{tokens: toks}
}

// Len returns the number of tokens before EOF.
func (s *Stream) Len() int {
	return len(s.tokens) - 1
}

// At returns the token at index i; At(Len()) is the EOF token.
func (s *Stream) At(i int) *Token {
	return &s.tokens[i]
}

// Tokens returns all tokens including the trailing EOF.
func (s *Stream) Tokens() []Token {
	return s.tokens
}

// Slice returns the tokens in [left, right).
func (s *Stream) Slice(left, right int) []Token {
	return s.tokens[left:right]
}

// Filter returns a stream without tokens of the given trivia kinds.
// The EOF token is always kept.
func (s *Stream) Filter(skip ...Kind) *Stream {
	if len(skip) == 0 {
		return s
	}
	skipKinds := make(map[Kind]bool, len(skip))
	for _, k := range skip {
		skipKinds[k] = true
	}

	filtered := make([]Token, 0, len(s.tokens))
	for _, tok := range s.tokens {
		if tok.Kind == EOF || !skipKinds[tok.Kind] {
			filtered = append(filtered, tok)
		}
	}
	return &Stream{tokens: filtered}
}
