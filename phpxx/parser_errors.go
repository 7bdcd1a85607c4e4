package phpxx

import (
	"fmt"
	"strings"
)

// ParseError is the single fatal diagnostic of a failed parse. Span covers
// the offending token.
type ParseError struct {
	Message string
	Span    Span
	source  string
}

// Position reports where the error starts.
func (e *ParseError) Position() Position {
	return PositionAt(e.source, e.Span.Start)
}

// Excerpt is the source text covered by the offending token.
func (e *ParseError) Excerpt() string {
	return e.Span.Slice(e.source)
}

// CodeFrame renders the offending source line with a caret under the error.
func (e *ParseError) CodeFrame() string {
	return formatCodeFrame(e.source, e.Position())
}

func (e *ParseError) Error() string {
	pos := e.Position()
	var b strings.Builder
	fmt.Fprintf(&b, "parse error at %d:%d: %s", pos.Line, pos.Column, e.Message)
	if frame := formatCodeFrame(e.source, pos); frame != "" {
		b.WriteString("\n")
		b.WriteString(frame)
	}
	return b.String()
}

func (p *parser) errorExpected(tok Token, expected string) {
	if tok.Type == tokenIllegal {
		p.errorIllegal(tok)
		return
	}
	p.addParseError(tok.Span, fmt.Sprintf("expected %s, got %s", expected, tokenLabel(tok.Type)))
}

func (p *parser) errorIllegal(tok Token) {
	p.addParseError(tok.Span, tok.Literal)
}

// addParseError records the first error only; parsing stops once one is set.
func (p *parser) addParseError(span Span, msg string) {
	if p.err != nil {
		return
	}
	p.err = &ParseError{Message: msg, Span: span, source: p.source}
}

func tokenLabel(tt TokenType) string {
	switch tt {
	case tokenIllegal:
		return "invalid token"
	case tokenEOF:
		return "end of input"
	case tokenIdent:
		return "identifier"
	case tokenVariable:
		return "variable"
	case tokenNumber:
		return "number"
	case tokenString:
		return "string"
	case tokenEcho:
		return "'echo'"
	case tokenFunction:
		return "'function'"
	case tokenIf:
		return "'if'"
	case tokenElse:
		return "'else'"
	case tokenWhile:
		return "'while'"
	default:
		return "'" + string(tt) + "'"
	}
}
