package phpxx

import "fmt"

// parseStatement parses one statement of a block or of the top level. It
// returns nil for empty statements and after an error.
func (p *parser) parseStatement() Node {
	tok := p.s.current()
	switch tok.Type {
	case tokenSemicolon:
		p.s.next()
		return nil
	case tokenEcho:
		return p.parseEchoStatement()
	case tokenVariable:
		return p.parseAssignStatement()
	case tokenIdent:
		switch next := p.s.peek(1); next.Type {
		case tokenLParen:
			return p.parseCallStatement()
		case tokenAssign:
			return p.parseAssignStatement()
		default:
			p.errorExpected(next, "'(' or '=' after identifier")
			return nil
		}
	case tokenIf:
		return p.parseConditional(false)
	case tokenWhile:
		return p.parseConditional(true)
	case tokenFunction:
		p.addParseError(tok.Span, "function declarations are only allowed at the top level")
		return nil
	case tokenIllegal:
		p.errorIllegal(tok)
		return nil
	default:
		p.addParseError(tok.Span, fmt.Sprintf("unknown statement starting with %s", tokenLabel(tok.Type)))
		return nil
	}
}

func (p *parser) parseEchoStatement() Node {
	start := p.s.next()

	// "-n" directly adjacent and not a call is the no-newline flag.
	noNewline := false
	if minus := p.s.current(); minus.Type == tokenMinus {
		flag := p.s.peek(1)
		if flag.Type == tokenIdent && flag.Literal == "n" &&
			flag.Span.Start == minus.Span.End && p.s.peek(2).Type != tokenLParen {
			p.s.next()
			p.s.next()
			noNewline = true
		}
	}

	value := p.parseExpression(lowestPrec)
	if value == nil {
		return nil
	}
	end, ok := p.expect(tokenSemicolon, "';'")
	if !ok {
		return nil
	}
	return &EchoStmt{Value: value, NoNewline: noNewline, span: spanBetween(start.Span, end.Span)}
}

func (p *parser) parseAssignStatement() Node {
	name := p.s.next()
	if _, ok := p.expect(tokenAssign, "'='"); !ok {
		return nil
	}
	value := p.parseExpression(lowestPrec)
	if value == nil {
		return nil
	}
	end, ok := p.expect(tokenSemicolon, "';'")
	if !ok {
		return nil
	}
	return &AssignStmt{Name: name.Literal, Value: value, span: spanBetween(name.Span, end.Span)}
}

func (p *parser) parseCallStatement() Node {
	call := p.parseCallExpression(p.s.next())
	if call == nil {
		return nil
	}
	if _, ok := p.expect(tokenSemicolon, "';'"); !ok {
		return nil
	}
	return call
}

// parseConditional parses `if` and `while`. An `else if` chain nests as a
// single conditional in the false branch.
func (p *parser) parseConditional(isWhile bool) Node {
	start := p.s.next()
	cond := p.parseExpression(lowestPrec)
	if cond == nil {
		return nil
	}
	whenTrue, ok := p.parseBlock()
	if !ok {
		return nil
	}

	stmt := &ConditionalStmt{Condition: cond, WhenTrue: whenTrue, IsWhile: isWhile}
	if p.s.current().Type == tokenElse {
		p.s.next()
		if p.s.current().Type == tokenIf {
			nested := p.parseConditional(false)
			if nested == nil {
				return nil
			}
			stmt.WhenFalse = []Node{nested}
		} else {
			whenFalse, ok := p.parseBlock()
			if !ok {
				return nil
			}
			stmt.WhenFalse = whenFalse
		}
	}
	stmt.span = spanBetween(start.Span, p.s.last().Span)
	return stmt
}

// parseBlock parses `{ stmt* }`. Blocks own their statements; nothing inside
// them is flattened into the program.
func (p *parser) parseBlock() ([]Node, bool) {
	open, ok := p.expect(tokenLBrace, "'{'")
	if !ok {
		return nil, false
	}

	stmts := []Node{}
	for p.err == nil {
		switch p.s.current().Type {
		case tokenRBrace:
			p.s.next()
			return stmts, true
		case tokenEOF:
			p.addParseError(open.Span, "unexpected end of input: block is missing '}'")
			return nil, false
		}
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return nil, false
}
