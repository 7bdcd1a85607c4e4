package phpxx

import "fmt"

type prefixParseFn func() Node

type parser struct {
	s      *tokenStream
	source string

	program *Program
	open    *openFunction

	err *ParseError

	prefixFns map[TokenType]prefixParseFn
}

// openFunction tracks the declaration whose closing brace is still pending.
type openFunction struct {
	jump   *JumpStmt
	name   string
	header Span
}

// newParser lexes source[base:] and offsets every span by base so that
// positions stay absolute when appending to a program built from earlier
// chunks of the same text.
func newParser(source string, base int, program *Program) *parser {
	tokens := tokenize(source[base:])
	if base > 0 {
		for i := range tokens {
			tokens[i].Span.Start += base
			tokens[i].Span.End += base
		}
	}

	p := &parser{
		s:       newTokenStream(tokens),
		source:  source,
		program: program,
	}

	p.prefixFns = map[TokenType]prefixParseFn{
		tokenNumber:   p.parseNumberLiteral,
		tokenString:   p.parseStringLiteral,
		tokenVariable: p.parseVariable,
		tokenIdent:    p.parseIdentifier,
		tokenSpread:   p.parseSpreadExpression,
		tokenMinus:    p.parseNegation,
		tokenLParen:   p.parseGroupedExpression,
	}

	return p
}

func parseProgram(source string) (*Program, error) {
	program := &Program{Functions: newFunctionTable(), source: source}
	if err := parseInto(program, source, 0); err != nil {
		return nil, err
	}
	return program, nil
}

// parseInto appends the statements of source[base:] to program. On error the
// program may hold a partial result; callers that keep using it must restore
// a snapshot.
func parseInto(program *Program, source string, base int) error {
	p := newParser(source, base, program)
	p.parseProgram()
	if p.err != nil {
		return p.err
	}
	program.source = source
	return nil
}

func (p *parser) parseProgram() {
	for p.err == nil && !p.s.atEOF() {
		switch p.s.current().Type {
		case tokenFunction:
			p.parseFunctionHeader()
		case tokenRBrace:
			p.closeFunction()
		default:
			if stmt := p.parseStatement(); stmt != nil {
				p.emit(stmt)
			}
		}
	}

	if p.err == nil && p.open != nil {
		p.addParseError(p.open.header, fmt.Sprintf("unexpected end of input: function '%s' is missing '}'", p.open.name))
	}
}

func (p *parser) emit(stmt Node) {
	p.program.Statements = append(p.program.Statements, stmt)
}

// parseFunctionHeader emits the placeholder jump over the body and registers
// the entry point right after it.
func (p *parser) parseFunctionHeader() {
	start := p.s.next()
	if p.open != nil {
		p.addParseError(start.Span, fmt.Sprintf("function declaration inside function '%s'", p.open.name))
		return
	}

	name := p.s.current()
	if name.Type != tokenIdent {
		p.errorExpected(name, "function name")
		return
	}
	p.s.next()

	if _, ok := p.expect(tokenLParen, "'('"); !ok {
		return
	}
	params := p.parseParams()
	if p.err != nil {
		return
	}
	brace, ok := p.expect(tokenLBrace, "'{'")
	if !ok {
		return
	}

	header := Span{Start: start.Span.Start, End: brace.Span.End}
	jump := &JumpStmt{Function: name.Literal, span: header}
	p.emit(jump)
	p.program.Functions.register(FunctionEntry{
		Name:   name.Literal,
		Entry:  len(p.program.Statements),
		Params: params,
		Span:   header,
	})
	p.open = &openFunction{jump: jump, name: name.Literal, header: header}
}

func (p *parser) parseParams() []string {
	params := []string{}
	if p.s.current().Type == tokenRParen {
		p.s.next()
		return params
	}

	for {
		tok := p.s.current()
		if tok.Type != tokenVariable && tok.Type != tokenIdent {
			p.errorExpected(tok, "parameter name")
			return nil
		}
		p.s.next()
		params = append(params, tok.Literal)

		switch sep := p.s.next(); sep.Type {
		case tokenComma:
		case tokenRParen:
			return params
		default:
			p.errorExpected(sep, "',' or ')'")
			return nil
		}
	}
}

// closeFunction terminates the open body with an implicit throw() so falling
// off the end returns void, then backpatches the header jump past it.
func (p *parser) closeFunction() {
	tok := p.s.next()
	if p.open == nil {
		p.addParseError(tok.Span, "unmatched '}'")
		return
	}

	p.emit(&CallExpr{Function: "throw", Args: []Node{}, span: tok.Span})
	p.open.jump.Target = len(p.program.Statements)
	p.open.jump.patched = true
	p.open = nil
}

// expect consumes the current token when it has type tt.
func (p *parser) expect(tt TokenType, label string) (Token, bool) {
	tok := p.s.current()
	if tok.Type != tt {
		p.errorExpected(tok, label)
		return tok, false
	}
	p.s.next()
	return tok, true
}

func spanBetween(start, end Span) Span {
	return Span{Start: start.Start, End: end.End}
}
