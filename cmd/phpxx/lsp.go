package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/phpxx-lang/phpxx/phpxx"
)

const (
	completionKindFunction = 3
	completionKindKeyword  = 14

	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
)

var lspKeywords = []string{"echo", "else", "function", "if", "while"}

type rpcMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcReply struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  any              `json:"params,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *rpcError        `json:"error,omitempty"`
}

type textDocumentID struct {
	URI string `json:"uri"`
}

type textPosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type textRange struct {
	Start textPosition `json:"start"`
	End   textPosition `json:"end"`
}

type diagnostic struct {
	Range    textRange `json:"range"`
	Severity int       `json:"severity"`
	Source   string    `json:"source"`
	Message  string    `json:"message"`
}

type publishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Diagnostics []diagnostic `json:"diagnostics"`
}

type completionItem struct {
	Label  string `json:"label"`
	Kind   int    `json:"kind"`
	Detail string `json:"detail"`
}

type hoverResult struct {
	Contents struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	} `json:"contents"`
}

type documentParams struct {
	TextDocument struct {
		URI  string `json:"uri"`
		Text string `json:"text"`
	} `json:"textDocument"`
	ContentChanges []struct {
		Text string `json:"text"`
	} `json:"contentChanges"`
}

type positionParams struct {
	TextDocument textDocumentID `json:"textDocument"`
	Position     textPosition   `json:"position"`
}

type lspServer struct {
	reader *textproto.Reader
	writer *bufio.Writer
	engine *phpxx.Engine
	docs   map[string]string
}

func newLSPServer(r io.Reader, w io.Writer) *lspServer {
	return &lspServer{
		reader: textproto.NewReader(bufio.NewReader(r)),
		writer: bufio.NewWriter(w),
		engine: phpxx.MustNewEngine(phpxx.Config{}),
		docs:   make(map[string]string),
	}
}

func runLSP() error {
	return newLSPServer(os.Stdin, os.Stdout).serve()
}

func (s *lspServer) serve() error {
	for {
		payload, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		for _, reply := range s.handle(msg) {
			if err := s.writeMessage(reply); err != nil {
				return err
			}
		}
		if msg.Method == "exit" {
			return nil
		}
	}
}

func (s *lspServer) handle(msg rpcMessage) []rpcReply {
	switch msg.Method {
	case "initialize":
		return respond(msg, map[string]any{
			"capabilities": map[string]any{
				"textDocumentSync":   1,
				"hoverProvider":      true,
				"completionProvider": map[string]any{"resolveProvider": false},
			},
			"serverInfo": map[string]any{"name": "phpxx-lsp"},
		})
	case "initialized", "exit":
		return nil
	case "shutdown":
		return respond(msg, nil)
	case "textDocument/didOpen", "textDocument/didChange":
		return s.handleDocumentSync(msg)
	case "textDocument/didClose":
		var params documentParams
		if err := json.Unmarshal(msg.Params, &params); err == nil {
			delete(s.docs, params.TextDocument.URI)
		}
		return nil
	case "textDocument/completion":
		var params positionParams
		_ = json.Unmarshal(msg.Params, &params)
		return respond(msg, map[string]any{
			"isIncomplete": false,
			"items":        completionItems(s.documentFunctions(params.TextDocument.URI)),
		})
	case "textDocument/hover":
		return s.handleHover(msg)
	default:
		return fail(msg, rpcMethodNotFound, "method not found")
	}
}

// respond answers a request; notifications carry no id and get no reply.
func respond(msg rpcMessage, result any) []rpcReply {
	if msg.ID == nil {
		return nil
	}
	return []rpcReply{{JSONRPC: "2.0", ID: msg.ID, Result: result}}
}

func fail(msg rpcMessage, code int, text string) []rpcReply {
	if msg.ID == nil {
		return nil
	}
	return []rpcReply{{JSONRPC: "2.0", ID: msg.ID, Error: &rpcError{Code: code, Message: text}}}
}

func (s *lspServer) handleDocumentSync(msg rpcMessage) []rpcReply {
	var params documentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	uri, text := params.TextDocument.URI, params.TextDocument.Text
	if msg.Method == "textDocument/didChange" {
		if len(params.ContentChanges) == 0 {
			return nil
		}
		text = params.ContentChanges[len(params.ContentChanges)-1].Text
	}
	s.docs[uri] = text
	return []rpcReply{{
		JSONRPC: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params:  publishDiagnosticsParams{URI: uri, Diagnostics: diagnosticsForSource(s.engine, text)},
	}}
}

func (s *lspServer) handleHover(msg rpcMessage) []rpcReply {
	var params positionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return fail(msg, rpcInvalidParams, "invalid hover params")
	}
	source := s.docs[params.TextDocument.URI]
	word := wordAtPosition(source, params.Position.Line, params.Position.Character)
	if word == "" {
		return respond(msg, nil)
	}
	var hover hoverResult
	hover.Contents.Kind = "markdown"
	hover.Contents.Value = s.describe(source, word)
	return respond(msg, hover)
}

// documentFunctions lists the user functions of a document that compiles.
func (s *lspServer) documentFunctions(uri string) []phpxx.FunctionEntry {
	source, ok := s.docs[uri]
	if !ok {
		return nil
	}
	program, err := s.engine.Compile(source)
	if err != nil {
		return nil
	}
	var entries []phpxx.FunctionEntry
	for _, name := range program.Functions.Names() {
		fn, _ := program.Functions.Lookup(name)
		entries = append(entries, fn)
	}
	return entries
}

func (s *lspServer) describe(source, word string) string {
	label, kind := word, "symbol"
	switch {
	case strings.HasPrefix(word, "$"):
		kind = "variable"
	case slices.Contains(lspKeywords, word):
		kind = "keyword"
	case phpxx.IsBuiltin(word):
		kind = "builtin"
	default:
		if program, err := s.engine.Compile(source); err == nil {
			if fn, ok := program.Functions.Lookup(word); ok {
				label, kind = functionSignature(fn), "function"
			}
		}
	}
	return fmt.Sprintf("`%s`\n\nphpxx %s", label, kind)
}

func functionSignature(fn phpxx.FunctionEntry) string {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = "$" + p
	}
	return "function " + fn.Name + "(" + strings.Join(params, ", ") + ")"
}

// diagnosticsForSource reports the parse error, if any, over the span of
// the offending token.
func diagnosticsForSource(engine *phpxx.Engine, source string) []diagnostic {
	_, err := engine.Compile(source)
	if err == nil {
		return []diagnostic{}
	}

	d := diagnostic{Severity: 1, Source: "phpxx-lsp", Message: err.Error()}
	var perr *phpxx.ParseError
	if errors.As(err, &perr) {
		d.Message = perr.Message
		d.Range.Start = protocolPosition(source, phpxx.PositionAt(source, perr.Span.Start))
		d.Range.End = protocolPosition(source, phpxx.PositionAt(source, perr.Span.End))
	}
	if d.Range.End.Line == d.Range.Start.Line && d.Range.End.Character <= d.Range.Start.Character {
		d.Range.End.Character = d.Range.Start.Character + 1
	}
	return []diagnostic{d}
}

// protocolPosition converts a 1-based rune position to a 0-based line and
// UTF-16 character offset.
func protocolPosition(source string, pos phpxx.Position) textPosition {
	line := max(0, pos.Line-1)
	lines := strings.Split(source, "\n")
	if line >= len(lines) {
		return textPosition{Line: line, Character: max(0, pos.Column-1)}
	}
	runes := []rune(lines[line])
	units := 0
	for _, r := range runes[:min(max(0, pos.Column-1), len(runes))] {
		units += utf16.RuneLen(r)
	}
	return textPosition{Line: line, Character: units}
}

func completionItems(functions []phpxx.FunctionEntry) []completionItem {
	items := make([]completionItem, 0, len(lspKeywords)+len(functions)+16)
	for _, keyword := range lspKeywords {
		items = append(items, completionItem{Label: keyword, Kind: completionKindKeyword, Detail: "keyword"})
	}
	for _, name := range phpxx.BuiltinNames() {
		items = append(items, completionItem{Label: name, Kind: completionKindFunction, Detail: "builtin"})
	}
	for _, fn := range functions {
		// Built-ins always win over user functions of the same name.
		if phpxx.IsBuiltin(fn.Name) {
			continue
		}
		items = append(items, completionItem{Label: fn.Name, Kind: completionKindFunction, Detail: functionSignature(fn)})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

// wordAtPosition finds the word under a 0-based line and UTF-16 character
// offset.
func wordAtPosition(source string, line, character int) string {
	lines := strings.Split(source, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	runes := []rune(strings.TrimRight(lines[line], "\r"))
	if len(runes) == 0 {
		return ""
	}

	cursor := 0
	for units := 0; cursor < len(runes) && units < character; cursor++ {
		units += utf16.RuneLen(runes[cursor])
	}
	cursor = min(cursor, len(runes)-1)
	if !isWordRune(runes[cursor]) {
		if cursor == 0 || !isWordRune(runes[cursor-1]) {
			return ""
		}
		cursor--
	}

	start, end := cursor, cursor
	for start > 0 && isWordRune(runes[start-1]) {
		start--
	}
	for end < len(runes) && isWordRune(runes[end]) {
		end++
	}
	return string(runes[start:end])
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$'
}

func (s *lspServer) readMessage() ([]byte, error) {
	header, err := s.reader.ReadMIMEHeader()
	if err != nil {
		if len(header) == 0 && errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	raw := header.Get("Content-Length")
	if raw == "" {
		return nil, errors.New("missing Content-Length header")
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid Content-Length %q", raw)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(s.reader.R, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *lspServer) writeMessage(reply rpcReply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.Flush()
}
