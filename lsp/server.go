// Package lsp serves parse diagnostics for documents written in a
// configured language over the Language Server Protocol.
package lsp

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/gll/config"
	"github.com/dhamidi/gll/diag"
	"github.com/dhamidi/gll/project"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "gll"

type Server struct {
	project *project.Project
	handler protocol.Handler
	server  *server.Server
	version string
	log     commonlog.Logger

	mu       sync.Mutex
	versions map[string]protocol.Integer
}

// NewServer loads the language described by cfg and prepares a server
// for it.
func NewServer(cfg *config.Config, version string) (*Server, error) {
	p, err := project.New(cfg)
	if err != nil {
		return nil, err
	}

	ls := &Server{
		project:  p,
		version:  version,
		log:      commonlog.GetLogger("gll.lsp"),
		versions: make(map[string]protocol.Integer),
	}

	ls.handler = protocol.Handler{
		Initialize:            ls.initialize,
		Initialized:           ls.initialized,
		Shutdown:              ls.shutdown,
		SetTrace:              ls.setTrace,
		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidClose:  ls.textDocumentDidClose,
		TextDocumentDidSave:   ls.textDocumentDidSave,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls, nil
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	ls.setVersion(doc.URI, doc.Version)
	ls.check(ctx, doc.URI, []byte(doc.Text))
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
		ls.setVersion(params.TextDocument.URI, params.TextDocument.Version)
		ls.check(ctx, params.TextDocument.URI, []byte(whole.Text))
	}
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	ls.mu.Lock()
	delete(ls.versions, uri)
	ls.mu.Unlock()
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI
	if params.Text != nil {
		ls.check(ctx, uri, []byte(*params.Text))
		return nil
	}
	path, err := uriToPath(uri)
	if err != nil {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		ls.log.Warningf("read %s: %s", path, err)
		return nil
	}
	ls.check(ctx, uri, content)
	return nil
}

func (ls *Server) setVersion(uri string, v protocol.Integer) {
	ls.mu.Lock()
	ls.versions[uri] = v
	ls.mu.Unlock()
}

// check parses content and publishes its errors, replacing the previous
// diagnostics of the document.
func (ls *Server) check(ctx *glsp.Context, uri string, content []byte) {
	filename := uri
	if path, err := uriToPath(uri); err == nil {
		filename = path
	}

	doc, err := ls.project.Parse(filename, content)
	if err != nil {
		ls.log.Errorf("parse %s: %s", filename, err)
		return
	}

	params := protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: Diagnostics(doc.Errors),
	}
	ls.mu.Lock()
	if v, ok := ls.versions[uri]; ok && v >= 0 {
		version := protocol.UInteger(v)
		params.Version = &version
	}
	ls.mu.Unlock()
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, params)
}

// Diagnostics converts parse and lex errors to LSP diagnostics with
// zero-based positions. A diagnostic spans its offending token, or is
// empty when the error sits at the end of input.
func Diagnostics(errs []*diag.Error) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(errs))
	for _, e := range errs {
		start := position(e.Line(), e.Column())
		end := start
		if e.Token != nil && e.Token.Literal != "" {
			tokEnd := e.Token.End()
			end = position(tokEnd.Line, tokEnd.Column)
		}

		msg := e.Message
		if len(e.Expected) > 0 {
			kinds := make([]string, len(e.Expected))
			for i, k := range e.Expected {
				kinds[i] = string(k)
			}
			msg += "; expected one of: " + strings.Join(kinds, " ")
		}

		out = append(out, protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: end},
			Severity: severityPtr(protocol.DiagnosticSeverityError),
			Code:     &protocol.IntegerOrString{Value: e.Kind.String()},
			Source:   stringPtr(lsName),
			Message:  msg,
		})
	}
	return out
}

func position(line, column int) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(max(line-1, 0)),
		Character: protocol.UInteger(max(column-1, 0)),
	}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func stringPtr(s string) *string {
	return &s
}

func severityPtr(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
