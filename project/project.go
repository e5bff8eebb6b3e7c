// Package project ties a gll.toml configuration to a loaded grammar and
// lexer, and runs documents through them.
package project

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tliron/commonlog"
	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/gll/bsr"
	"github.com/dhamidi/gll/config"
	"github.com/dhamidi/gll/cst"
	"github.com/dhamidi/gll/diag"
	"github.com/dhamidi/gll/disambig"
	"github.com/dhamidi/gll/grammar"
	"github.com/dhamidi/gll/lexer"
	"github.com/dhamidi/gll/parser"
	"github.com/dhamidi/gll/token"
)

// Project is a language loaded from configuration: the parser grammar,
// the lexical grammar used to tokenize documents and the parse settings.
type Project struct {
	Config  *config.Config
	Grammar *grammar.Grammar
	Lexicon ebnf.Grammar
	Policy  disambig.Policy

	log commonlog.Logger
}

// Document is one parsed input.
type Document struct {
	Filename string
	Tokens   *token.Stream
	Result   *parser.Result
	// Errors holds the lexer errors followed by the parse errors.
	Errors []*diag.Error
}

// Accepted reports whether the document lexed cleanly and parsed.
func (d *Document) Accepted() bool {
	return len(d.Errors) == 0 && d.Result.Accepted()
}

// Load reads gll.toml from the current directory.
func Load() (*Project, error) {
	return LoadFrom(".")
}

// LoadFrom reads gll.toml from rootDir, falling back to the defaults and
// the GLL_* environment variables when the file is missing.
func LoadFrom(rootDir string) (*Project, error) {
	cfg, err := config.Find(rootDir)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// New loads the grammars named by cfg. Without a lexicon the lexical
// productions of the parser grammar file are used.
func New(cfg *config.Config) (*Project, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Start == "" {
		return nil, errors.New("load project: no start production configured")
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	src, err := lexer.LoadGrammar(cfg.GrammarPath())
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	g, err := grammar.FromEBNF(src, cfg.Start)
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", cfg.GrammarPath(), err)
	}

	lexicon := src
	if path := cfg.LexiconPath(); path != "" {
		lexicon, err = lexer.LoadGrammar(path)
		if err != nil {
			return nil, fmt.Errorf("load project: %w", err)
		}
	}

	p := &Project{
		Config:  cfg,
		Grammar: g,
		Lexicon: lexicon,
		Policy:  policy,
		log:     commonlog.GetLogger("gll.project"),
	}
	p.log.Debugf("loaded %s: %d nonterminals, %d terminals", cfg.GrammarPath(), len(g.Nonterminals()), len(g.Terminals()))
	return p, nil
}

// Tokenize scans src with the project's lexicon, dropping the configured
// skip kinds.
func (p *Project) Tokenize(filename string, src []byte) (*token.Stream, []*diag.Error) {
	skip := make([]token.Kind, len(p.Config.Skip))
	for i, k := range p.Config.Skip {
		skip[i] = token.Kind(k)
	}
	l := lexer.New(p.Lexicon, src, filename,
		lexer.WithLiterals(p.Grammar.Literals()...),
		lexer.WithSkip(skip...),
	)
	return l.Tokenize()
}

// ParserOptions returns the parser options derived from the configuration.
func (p *Project) ParserOptions() []parser.Option {
	return []parser.Option{
		parser.WithDescriptorLimit(p.Config.Parse.DescriptorLimit),
		parser.WithLookahead(p.Config.Parse.Lookahead),
	}
}

// Parse tokenizes and parses src from the configured start production.
func (p *Project) Parse(filename string, src []byte) (*Document, error) {
	toks, lexErrs := p.Tokenize(filename, src)
	res, err := parser.Parse(p.Grammar, "", toks, p.ParserOptions()...)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		Filename: filename,
		Tokens:   toks,
		Result:   res,
	}
	doc.Errors = append(doc.Errors, lexErrs...)
	doc.Errors = append(doc.Errors, res.Errors...)
	p.log.Debugf("parsed %s: %d tokens, %d errors", filename, toks.Len(), len(doc.Errors))
	return doc, nil
}

// Tree builds the syntax tree of an accepted document. When several
// alternates of the start production span the input, the project's
// policy chooses among them.
func (p *Project) Tree(doc *Document, hooks grammar.Hooks) (*cst.Node, error) {
	roots := doc.Result.Set.GetRoots()
	if len(roots) == 0 {
		return nil, fmt.Errorf("build tree for %s: %w", doc.Filename, bsr.ErrNoRoot)
	}
	b := cst.NewBuilder(hooks, p.Policy)
	tree, ok := disambig.Resolve(slices.Values(roots), func(root bsr.Node) (*cst.Node, bool) {
		n, err := b.Build(root)
		return n, err == nil
	}, p.Policy)
	if !ok {
		return nil, fmt.Errorf("build tree for %s: %w", doc.Filename, cst.ErrNoTree)
	}
	return tree, nil
}
