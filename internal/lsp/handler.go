// Package lsp implements a diagnostics-only language server for the
// textual IR (spec §4.0/C15), grounded on the teacher's
// internal/lsp/handler.go: same open/change/close lifecycle, same
// content+parsed-artifact cache guarded by one mutex, but reporting
// entity-table well-formedness errors instead of AST semantic errors.
package lsp

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"bef/internal/bef/entities"
	"bef/internal/ir"
	"bef/internal/parser"
)

// Handler implements the LSP methods this server supports.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
	modules map[string]*ir.Module
}

func NewHandler() *Handler {
	return &Handler{
		content: make(map[string]string),
		modules: make(map[string]*ir.Module),
	}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("bef-lsp Initialize called")
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("bef-lsp Initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("bef-lsp Shutdown")
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	diagnostics, err := h.reparse(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", params.TextDocument.URI, err)
	}
	sendDiagnostics(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	diagnostics, err := h.reparse(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", params.TextDocument.URI, err)
	}
	sendDiagnostics(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.modules, path)
	return nil
}

// reparse reads the file, parses it, resolves it into an ir.Module, and
// runs pass 1 (entities.Collect) purely to surface well-formedness
// errors; it never emits BEF for a live-editing document.
func (h *Handler) reparse(rawURI protocol.DocumentUri) ([]protocol.Diagnostic, error) {
	path, err := uriToPath(rawURI)
	if err != nil {
		return nil, err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	g, parseErr := parser.ParseString(path, string(source))
	if parseErr != nil {
		return []protocol.Diagnostic{diagnosticAt(path, parseErr.Position.Line, parseErr.Position.Column, parseErr.Message, "bef-parser")}, nil
	}

	mod, err := parser.Resolve(path, g)
	if err != nil {
		return []protocol.Diagnostic{diagnosticAt(path, 1, 1, err.Error(), "bef-resolve")}, nil
	}

	if _, err := entities.Collect(mod, entities.Options{}); err != nil {
		return []protocol.Diagnostic{diagnosticAt(path, 1, 1, err.Error(), "bef-entities")}, nil
	}

	h.mu.Lock()
	h.content[path] = string(source)
	h.modules[path] = mod
	h.mu.Unlock()

	return nil, nil
}

func sendDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func diagnosticAt(_ string, line, col int, message, source string) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(line - 1), Character: uint32(col - 1)},
			End:   protocol.Position{Line: uint32(line - 1), Character: uint32(col + 4)},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString(source),
		Message:  message,
	}
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func ptrBool(b bool) *bool                                             { return &b }
func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }
func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity     { return &s }
func ptrString(s string) *string                                       { return &s }
