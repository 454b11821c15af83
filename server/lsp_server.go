// Package server exposes the outline session to editors over LSP.
// Transport is JSON-RPC 2.0 with Content-Length framing on stdio; the
// client drives document lifecycle events and reads the outline back
// through documentSymbol and the specnav.activate command.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/specnav/outline"
	"github.com/lexcodex/specnav/parser"
	"github.com/lexcodex/specnav/session"
)

// msgError is the window/showMessage error severity.
const msgError protocol.MessageType = 1

// outlineChangedMethod is the custom notification sent when the view
// must refresh its outline.
const outlineChangedMethod = "specnav/outlineChanged"

// Document tracks an open file from the editor.
type Document struct {
	URI        string
	LanguageID string
	Version    int32
	Text       string
}

// Server wires editor events into the outline session.
type Server struct {
	session *session.Session
	logger  *log.Logger

	mu            sync.RWMutex
	conn          *jsonrpc2.Conn
	openDocuments map[string]*Document
}

// New builds a server around a parse function and initial settings.
func New(parse parser.Func, settings session.Settings, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		logger:        logger,
		openDocuments: make(map[string]*Document),
	}
	s.session = session.New(parse, session.SystemClock(), logger, settings, session.Hooks{
		Refresh:      s.notifyOutlineChanged,
		ParseFailure: s.notifyParseFailure,
	})
	return s
}

// Serve runs the server over stdio until the connection closes.
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeStream(ctx, &stdioReadWriteCloser{reader: os.Stdin, writer: os.Stdout})
}

// ServeStream runs the server over an arbitrary stream, which tests
// use with in-memory pipes.
func (s *Server) ServeStream(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handle))
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	<-conn.DisconnectNotify()
	s.session.Close()
	return nil
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "initialize":
		return s.initialize(req)
	case "initialized":
		return nil, nil
	case "shutdown":
		return nil, nil
	case "exit":
		return nil, conn.Close()
	case "textDocument/didOpen":
		var params protocol.DidOpenTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		s.didOpen(params)
		return nil, nil
	case "textDocument/didChange":
		var params protocol.DidChangeTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		s.didChange(params)
		return nil, nil
	case "textDocument/didSave":
		var params protocol.DidSaveTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		s.didSave(params)
		return nil, nil
	case "textDocument/didClose":
		var params protocol.DidCloseTextDocumentParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		s.didClose(params)
		return nil, nil
	case "textDocument/documentSymbol":
		var params protocol.DocumentSymbolParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.documentSymbols(ctx, string(params.TextDocument.URI)), nil
	case "workspace/executeCommand":
		var params protocol.ExecuteCommandParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		return s.executeCommand(ctx, params)
	case "workspace/didChangeConfiguration":
		var params configurationParams
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
		s.session.ApplyConfig(params.Settings.sessionSettings())
		return nil, nil
	default:
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method not handled: %s", req.Method)}
	}
}

func unmarshalParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	return json.Unmarshal(*req.Params, v)
}

// InitializeResult is the minimal capability announcement.
type InitializeResult struct {
	Capabilities map[string]interface{} `json:"capabilities"`
}

func (s *Server) initialize(req *jsonrpc2.Request) (*InitializeResult, error) {
	return &InitializeResult{
		Capabilities: map[string]interface{}{
			"textDocumentSync":       1, // full content on change
			"documentSymbolProvider": true,
			"executeCommandProvider": map[string]interface{}{
				"commands": []string{commandActivate},
			},
		},
	}, nil
}

func (s *Server) didOpen(params protocol.DidOpenTextDocumentParams) {
	doc := &Document{
		URI:        string(params.TextDocument.URI),
		LanguageID: string(params.TextDocument.LanguageID),
		Version:    params.TextDocument.Version,
		Text:       params.TextDocument.Text,
	}
	s.mu.Lock()
	s.openDocuments[doc.URI] = doc
	s.mu.Unlock()
	// Every real document opened by the client is a primary editor;
	// embedded panes never reach the server.
	s.session.ActivateEditor(doc.URI, doc.LanguageID, doc.Text, true)
}

func (s *Server) didChange(params protocol.DidChangeTextDocumentParams) {
	uri := string(params.TextDocument.URI)
	changes := len(params.ContentChanges)
	if changes == 0 {
		return
	}
	// Full sync: the last change carries the complete document.
	text := params.ContentChanges[changes-1].Text

	s.mu.Lock()
	if doc, ok := s.openDocuments[uri]; ok {
		doc.Text = text
		doc.Version = params.TextDocument.Version
	}
	s.mu.Unlock()
	s.session.DocumentChanged(uri, text, changes)
}

func (s *Server) didSave(params protocol.DidSaveTextDocumentParams) {
	uri := string(params.TextDocument.URI)
	text := params.Text
	s.mu.Lock()
	if doc, ok := s.openDocuments[uri]; ok {
		if text == "" {
			text = doc.Text
		} else {
			doc.Text = text
		}
	}
	s.mu.Unlock()
	s.session.DocumentSaved(uri, text)
}

func (s *Server) didClose(params protocol.DidCloseTextDocumentParams) {
	uri := string(params.TextDocument.URI)
	s.mu.Lock()
	delete(s.openDocuments, uri)
	s.mu.Unlock()
	s.session.Deactivate(uri)
}

// documentSymbols maps the cached outline onto the LSP symbol tree.
// Errors have already been absorbed at the session boundary, so the
// client always receives symbols or an empty list.
func (s *Server) documentSymbols(ctx context.Context, uri string) []protocol.DocumentSymbol {
	if uri != s.session.URI() {
		return []protocol.DocumentSymbol{}
	}
	roots := s.session.Children(ctx, nil)
	index := newLineIndex(s.documentText(uri))
	symbols := make([]protocol.DocumentSymbol, 0, len(roots))
	for _, node := range roots {
		symbols = append(symbols, toDocumentSymbol(node, index))
	}
	return symbols
}

func toDocumentSymbol(node *outline.Node, index *lineIndex) protocol.DocumentSymbol {
	sym := protocol.DocumentSymbol{
		Name:           node.Label(),
		Detail:         symbolDetail(node),
		Kind:           symbolKind(node),
		Range:          index.rangeFor(node.Start, node.End),
		SelectionRange: index.rangeFor(node.Start, node.Start),
	}
	for _, child := range node.Children {
		sym.Children = append(sym.Children, toDocumentSymbol(child, index))
	}
	return sym
}

func symbolKind(node *outline.Node) protocol.SymbolKind {
	if node.Leaf {
		return protocol.SymbolKindFunction
	}
	return protocol.SymbolKindNamespace
}

func symbolDetail(node *outline.Node) string {
	switch {
	case node.Focused:
		return "focused"
	case node.Pending:
		return "pending"
	default:
		return ""
	}
}

func (s *Server) documentText(uri string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.openDocuments[uri]; ok {
		return doc.Text
	}
	return ""
}

func (s *Server) notifyOutlineChanged() {
	s.notify(outlineChangedMethod, struct {
		URI string `json:"uri"`
	}{URI: s.session.URI()})
}

func (s *Server) notifyParseFailure(execErr *parser.ExecError) {
	s.notify("window/showMessage", protocol.ShowMessageParams{
		Type:    msgError,
		Message: fmt.Sprintf("spec outline parse failed (%s, exit %d); see server logs", execErr.Command, execErr.ExitCode),
	})
}

func (s *Server) notify(method string, params interface{}) {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return
	}
	if err := conn.Notify(context.Background(), method, params); err != nil {
		s.logger.Printf("notify %s failed: %v", method, err)
	}
}

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *stdioReadWriteCloser) Write(p []byte) (int, error) { return s.writer.Write(p) }
func (s *stdioReadWriteCloser) Close() error {
	_ = s.reader.Close()
	return s.writer.Close()
}
