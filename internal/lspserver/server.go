// Package lspserver wires the analysis workspace to an LSP transport.
// The JSON-RPC framing, dispatch, and protocol types are glsp's
// concern; this package only maps document lifecycle notifications
// onto the workspace's revision discipline and analysis queries onto
// protocol responses.
package lspserver

import (
	"sync"

	"github.com/juju/loggo"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserv "github.com/tliron/glsp/server"

	"github.com/djls-dev/djls/internal/completion"
	"github.com/djls-dev/djls/internal/config"
	"github.com/djls-dev/djls/internal/diag"
	"github.com/djls-dev/djls/internal/workspace"
)

var logger = loggo.GetLogger("djls.lsp")

const serverName = "djls"

// Server holds the per-session state: one workspace, one config, and
// the lock the event loop takes for the duration of a handler. The
// loop is single-threaded, so the lock is uncontended; it exists so
// the handler type satisfies the transport's Send requirement.
type Server struct {
	mu  sync.Mutex
	ws  *workspace.Workspace
	cfg *config.Config

	version string
}

// New builds a server around an already-populated workspace.
func New(ws *workspace.Workspace, cfg *config.Config, version string) *Server {
	return &Server{ws: ws, cfg: cfg, version: version}
}

// RunStdio serves LSP over stdin/stdout until the client disconnects.
func (s *Server) RunStdio() error {
	handler := s.buildHandler()
	srv := glspserv.NewServer(handler, serverName, false)
	return srv.RunStdio()
}

func (s *Server) buildHandler() *protocol.Handler {
	handler := &protocol.Handler{}
	handler.Initialize = func(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
		capabilities := handler.CreateServerCapabilities()
		syncKind := protocol.TextDocumentSyncKindIncremental
		capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
			OpenClose: boolPtr(true),
			Change:    &syncKind,
		}
		capabilities.CompletionProvider = &protocol.CompletionOptions{}
		return protocol.InitializeResult{
			Capabilities: capabilities,
			ServerInfo: &protocol.InitializeResultServerInfo{
				Name:    serverName,
				Version: &s.version,
			},
		}, nil
	}
	handler.Initialized = func(ctx *glsp.Context, params *protocol.InitializedParams) error {
		return nil
	}
	handler.Shutdown = func(ctx *glsp.Context) error {
		return nil
	}
	handler.SetTrace = func(ctx *glsp.Context, params *protocol.SetTraceParams) error {
		return nil
	}

	handler.TextDocumentDidOpen = s.didOpen
	handler.TextDocumentDidChange = s.didChange
	handler.TextDocumentDidClose = s.didClose
	handler.TextDocumentDidSave = s.didSave
	handler.TextDocumentCompletion = s.complete
	handler.TextDocumentHover = s.hover
	handler.WorkspaceDidChangeConfiguration = func(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
		return nil
	}
	return handler
}

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := workspace.PathFromURI(string(params.TextDocument.URI))
	if err != nil {
		logger.Debugf("didOpen: %v", err)
		return nil
	}
	s.ws.OpenDocument(path, params.TextDocument.Text)
	s.publishDiagnostics(ctx, path, params.TextDocument.URI)
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := workspace.PathFromURI(string(params.TextDocument.URI))
	if err != nil {
		return nil
	}
	text, ok := s.ws.FS.Buffer(path)
	if !ok {
		text = s.ws.SourceText(path)
	}
	for _, raw := range params.ContentChanges {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				text = change.Text
				continue
			}
			text = workspace.ApplyChange(text,
				int(change.Range.Start.Line), int(change.Range.Start.Character),
				int(change.Range.End.Line), int(change.Range.End.Character),
				change.Text)
		case protocol.TextDocumentContentChangeEventWhole:
			text = change.Text
		}
	}
	s.ws.ChangeDocument(path, text)
	s.publishDiagnostics(ctx, path, params.TextDocument.URI)
	return nil
}

func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := workspace.PathFromURI(string(params.TextDocument.URI))
	if err != nil {
		return nil
	}
	s.ws.CloseDocument(path)
	s.publishDiagnostics(ctx, path, params.TextDocument.URI)
	return nil
}

func (s *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := workspace.PathFromURI(string(params.TextDocument.URI))
	if err != nil {
		return nil
	}
	s.publishDiagnostics(ctx, path, params.TextDocument.URI)
	return nil
}

func (s *Server) complete(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := workspace.PathFromURI(string(params.TextDocument.URI))
	if err != nil {
		return nil, nil
	}
	text := s.ws.SourceText(path)
	offset := workspace.OffsetFromPosition(text,
		int(params.Position.Line), int(params.Position.Character))

	items := completion.Completions(text, offset, s.ws.Database(), s.ws.Loads(path))
	out := make([]protocol.CompletionItem, 0, len(items))
	kind := protocol.CompletionItemKindKeyword
	format := protocol.InsertTextFormatPlainText
	for _, item := range items {
		it := protocol.CompletionItem{
			Label:            item.Label,
			Kind:             &kind,
			Detail:           strPtr(item.Detail),
			InsertText:       strPtr(item.InsertText),
			InsertTextFormat: &format,
		}
		if item.Documentation != "" {
			it.Documentation = protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: item.Documentation,
			}
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *Server) hover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := workspace.PathFromURI(string(params.TextDocument.URI))
	if err != nil {
		return nil, nil
	}
	text := s.ws.SourceText(path)
	offset := workspace.OffsetFromPosition(text,
		int(params.Position.Line), int(params.Position.Character))

	doc := completion.Hover(text, offset, s.ws.Database(), s.ws.Loads(path))
	if doc == "" {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: doc,
		},
	}, nil
}

// publishDiagnostics runs validation for path and pushes the result to
// the editor. Severity overrides from the project config are applied
// here, with Off suppressing the diagnostic entirely.
func (s *Server) publishDiagnostics(ctx *glsp.Context, path string, uri protocol.DocumentUri) {
	if !workspace.IsTemplate(path) {
		return
	}
	text := s.ws.SourceText(path)
	diags := s.ws.Diagnose(path)

	out := make([]protocol.Diagnostic, 0, len(diags))
	source := serverName
	for _, d := range diags {
		sev := s.cfg.SeverityFor(d.Code)
		if sev == diag.Off {
			continue
		}
		lspSev := severityFor(sev)
		code := protocol.IntegerOrString{Value: d.Code}
		out = append(out, protocol.Diagnostic{
			Range:    rangeFor(text, d.Primary.Start, d.Primary.End),
			Severity: &lspSev,
			Code:     &code,
			Source:   &source,
			Message:  d.Message,
		})
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: out,
	})
}

func rangeFor(text string, start, end uint32) protocol.Range {
	sl, sc := workspace.PositionFromOffset(text, int(start))
	el, ec := workspace.PositionFromOffset(text, int(end))
	return protocol.Range{
		Start: protocol.Position{Line: uint32(sl), Character: uint32(sc)},
		End:   protocol.Position{Line: uint32(el), Character: uint32(ec)},
	}
}

func severityFor(sev diag.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case diag.Warning:
		return protocol.DiagnosticSeverityWarning
	case diag.Info:
		return protocol.DiagnosticSeverityInformation
	case diag.Hint:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
