// Package lsp serves parse and type diagnostics and type hovers over the
// language server protocol.
package lsp

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"pywat/internal/compiler"
	"pywat/internal/diag"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "pywat-lsp"

var log = commonlog.GetLogger("pywat.lsp")

type document struct {
	text string
	// symbols from the last text that type checked
	symbols []Symbol
}

// Server bridges editor requests to the compiler front end.
type Server struct {
	mu   sync.Mutex
	docs map[protocol.DocumentUri]*document

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// New creates a language server. version is reported to the client.
func New(version string) *Server {
	s := &Server{
		docs:    make(map[protocol.DocumentUri]*document),
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidSave:   s.textDocumentDidSave,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover: s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// RunStdio serves on stdin/stdout until the client disconnects.
func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Infof("initializing %s %s", lspName, s.version)

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	opts, ok := capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	if !ok {
		opts = &protocol.TextDocumentSyncOptions{}
		capabilities.TextDocumentSync = opts
	}
	opts.OpenClose = boolPtr(true)
	opts.Change = &syncKind

	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Infof("initialized")
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	log.Infof("shutting down")
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	// full sync: the last change carries the whole text
	last := params.ContentChanges[len(params.ContentChanges)-1]
	if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
		s.update(ctx, params.TextDocument.URI, whole.Text)
	}
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI
	if params.Text != nil {
		s.update(ctx, uri, *params.Text)
		return nil
	}
	s.mu.Lock()
	doc, ok := s.docs[uri]
	s.mu.Unlock()
	if ok {
		s.update(ctx, uri, doc.text)
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.mu.Lock()
	doc, ok := s.docs[params.TextDocument.URI]
	var symbols []Symbol
	if ok {
		symbols = doc.symbols
	}
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return Hover(symbols, params.Position), nil
}

// update stores text, re-checks it and publishes the result. Symbols from
// the previous successful check survive a failing edit.
func (s *Server) update(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics, symbols, ok := Analyze(text)

	s.mu.Lock()
	doc, exists := s.docs[uri]
	if !exists {
		doc = &document{}
		s.docs[uri] = doc
	}
	doc.text = text
	if ok {
		doc.symbols = symbols
	}
	s.mu.Unlock()

	log.Debugf("%s: %d diagnostics", uri, len(diagnostics))
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// Analyze checks source. On success it returns no diagnostics and the
// symbol index; otherwise every parse error, or the single type error.
func Analyze(source string) ([]protocol.Diagnostic, []Symbol, bool) {
	program, err := compiler.Check(source)
	if err == nil {
		return []protocol.Diagnostic{}, Symbols(program), true
	}

	var cerr *compiler.Error
	if !errors.As(err, &cerr) {
		return []protocol.Diagnostic{Diagnostic(source, "", diag.CodeError{Message: err.Error()})}, nil, false
	}
	errs := cerr.All
	if len(errs) == 0 {
		errs = []diag.CodeError{cerr.Diagnostic}
	}
	kind := string(cerr.Stage)
	out := make([]protocol.Diagnostic, 0, len(errs))
	for _, e := range errs {
		out = append(out, Diagnostic(source, kind, e))
	}
	return out, nil, false
}

// Diagnostic converts a positioned error to the protocol's 0-based range.
// The range spans the error's context when it sits at that position.
func Diagnostic(source string, kind string, err diag.CodeError) protocol.Diagnostic {
	var start protocol.Position
	if line, col, ok := err.Position(source); ok {
		start = protocol.Position{
			Line:      protocol.UInteger(line - 1),
			Character: protocol.UInteger(col - 1),
		}
	}
	end := start
	if err.Line > 0 && err.Context != "" && err.Context != "\n" {
		end.Character += protocol.UInteger(len(err.Context))
	}

	severity := protocol.DiagnosticSeverityError
	origin := lspName
	message := err.Message
	if kind != "" {
		message = fmt.Sprintf("%s error: %s", kind, err.Message)
	}
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: start, End: end},
		Severity: &severity,
		Source:   &origin,
		Message:  message,
	}
}

// Hover describes the symbol under pos, or returns nil.
func Hover(symbols []Symbol, pos protocol.Position) *protocol.Hover {
	sym, ok := SymbolAt(symbols, pos)
	if !ok {
		return nil
	}
	start := protocol.Position{Line: protocol.UInteger(sym.Line - 1), Character: protocol.UInteger(sym.Column - 1)}
	end := start
	end.Character += protocol.UInteger(len(sym.Name))
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: fmt.Sprintf("```python\n%s : %s\n```", sym.Name, sym.Type),
		},
		Range: &protocol.Range{Start: start, End: end},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
