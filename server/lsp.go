package server

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/bfcloud/vm"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "bfcloud-lsp"

// LspServer provides editor features for Brainfuck sources: bracket
// diagnostics, hover help for instruction symbols and completion.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
	log     commonlog.Logger
}

// NewLSP creates a new LSP server.
func NewLSP() *LspServer {
	s := &LspServer{
		docs:    make(map[string]string),
		version: "0.1.0",
		log:     commonlog.GetLogger("bfcloud.lsp"),
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.log.Info("bfcloud LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	s.mu.Lock()
	_, ok := s.docs[string(params.TextDocument.URI)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return completionItems(), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.mu.Lock()
	text, ok := s.docs[string(params.TextDocument.URI)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return hoverAt(text, params.Position), nil
}

// completionItems offers one item per instruction symbol.
func completionItems() []protocol.CompletionItem {
	ops := vm.Ops()
	items := make([]protocol.CompletionItem, 0, len(ops))
	for _, op := range ops {
		kind := protocol.CompletionItemKindOperator
		label := string(op.Symbol())
		detail := op.String()
		doc := op.Description()
		items = append(items, protocol.CompletionItem{
			Label:         label,
			Kind:          &kind,
			Detail:        &detail,
			Documentation: doc,
			InsertText:    &label,
		})
	}
	return items
}

// hoverAt describes the instruction symbol under pos, or returns nil when
// the character there is a comment.
func hoverAt(text string, pos protocol.Position) *protocol.Hover {
	ch, ok := charAt(text, pos)
	if !ok {
		return nil
	}
	op := vm.Lookup(ch)
	if op == vm.OpInvalid {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**`%c`** %s\n\n%s", ch, op, op.Description())
	if !op.Countable() {
		b.WriteString("\n\nNot counted in executed instructions.")
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
		Range: &protocol.Range{
			Start: pos,
			End:   protocol.Position{Line: pos.Line, Character: pos.Character + 1},
		},
	}
}

// --- Diagnostics ---

// bracketDiagnostics converts unmatched brackets into LSP diagnostics.
func bracketDiagnostics(text string) []protocol.Diagnostic {
	issues := vm.CheckBrackets(text)
	if len(issues) == 0 {
		return []protocol.Diagnostic{}
	}
	lines := strings.Split(text, "\n")
	diagnostics := make([]protocol.Diagnostic, 0, len(issues))
	for _, issue := range issues {
		severity := protocol.DiagnosticSeverityError
		source := lspName
		col := utf16Column(lines[issue.Line], issue.Column)
		start := protocol.Position{Line: protocol.UInteger(issue.Line), Character: protocol.UInteger(col)}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: start,
				End:   protocol.Position{Line: start.Line, Character: start.Character + 1},
			},
			Severity: &severity,
			Source:   &source,
			Message:  issue.Message,
		})
	}
	return diagnostics
}

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := bracketDiagnostics(text)
	if len(diagnostics) > 0 {
		s.log.Debugf("%s: %d bracket issues", uri, len(diagnostics))
	}
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// --- Text extraction helpers ---

// charAt returns the byte at pos. Positions count UTF-16 code units; only
// single-byte characters are returned.
func charAt(text string, pos protocol.Position) (byte, bool) {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return 0, false
	}
	line := lines[pos.Line]
	i, ok := byteColumn(line, int(pos.Character))
	if !ok || line[i] >= utf8.RuneSelf {
		return 0, false
	}
	return line[i], true
}

// utf16Column converts a byte offset within line to UTF-16 code units.
func utf16Column(line string, byteCol int) int {
	col := 0
	for _, r := range line[:byteCol] {
		col += utf16.RuneLen(r)
	}
	return col
}

// byteColumn converts a UTF-16 column to the byte offset of the character
// starting there.
func byteColumn(line string, col int) (int, bool) {
	units := 0
	for i, r := range line {
		if units == col {
			return i, true
		}
		if units > col {
			return 0, false
		}
		units += utf16.RuneLen(r)
	}
	return 0, false
}

func boolPtr(b bool) *bool {
	return &b
}
