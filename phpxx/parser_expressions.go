package phpxx

import "strconv"

// parseExpression climbs precedence: operators binding tighter than
// precedence are folded into the right operand, equal ones associate left.
func (p *parser) parseExpression(precedence int) Node {
	left := p.parsePrimary()
	if left == nil {
		return nil
	}

	for {
		op := p.s.current()
		opPrec, ok := precedences[op.Type]
		if !ok || opPrec <= precedence {
			return left
		}
		p.s.next()

		right := p.parseExpression(opPrec)
		if right == nil {
			return nil
		}
		left = &MathExpr{
			Left:     left,
			Operator: op.Type,
			Right:    right,
			span:     spanBetween(left.Span(), right.Span()),
		}
	}
}

func (p *parser) parsePrimary() Node {
	tok := p.s.current()
	prefix := p.prefixFns[tok.Type]
	if prefix == nil {
		p.errorExpected(tok, "expression")
		return nil
	}
	return prefix()
}

func (p *parser) parseNumberLiteral() Node {
	tok := p.s.next()
	value, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.addParseError(tok.Span, "bad number")
		return nil
	}
	return &NumberLiteral{Value: value, span: tok.Span}
}

func (p *parser) parseStringLiteral() Node {
	tok := p.s.next()
	return &StringLiteral{Value: tok.Literal, span: tok.Span}
}

func (p *parser) parseVariable() Node {
	tok := p.s.next()
	return &VariableExpr{Name: tok.Literal, span: tok.Span}
}

// parseIdentifier reads a call when the name is followed by '(' and a
// sigil-less variable otherwise.
func (p *parser) parseIdentifier() Node {
	tok := p.s.next()
	if p.s.current().Type == tokenLParen {
		return p.parseCallExpression(tok)
	}
	return &VariableExpr{Name: tok.Literal, span: tok.Span}
}

// parseCallExpression parses the argument list after an already consumed
// function name.
func (p *parser) parseCallExpression(name Token) Node {
	if _, ok := p.expect(tokenLParen, "'('"); !ok {
		return nil
	}

	args := []Node{}
	if end := p.s.current(); end.Type == tokenRParen {
		p.s.next()
		return &CallExpr{Function: name.Literal, Args: args, span: spanBetween(name.Span, end.Span)}
	}

	for {
		arg := p.parseExpression(lowestPrec)
		if arg == nil {
			return nil
		}
		args = append(args, arg)

		switch sep := p.s.next(); sep.Type {
		case tokenComma:
		case tokenRParen:
			return &CallExpr{Function: name.Literal, Args: args, span: spanBetween(name.Span, sep.Span)}
		default:
			p.errorExpected(sep, "',' or ')'")
			return nil
		}
	}
}

func (p *parser) parseSpreadExpression() Node {
	tok := p.s.next()
	value := p.parsePrimary()
	if value == nil {
		return nil
	}
	return &SpreadExpr{Value: value, span: spanBetween(tok.Span, value.Span())}
}

// parseNegation lowers unary minus on a primary to a subtraction from zero.
func (p *parser) parseNegation() Node {
	tok := p.s.next()
	operand := p.parsePrimary()
	if operand == nil {
		return nil
	}
	return &MathExpr{
		Left:     &NumberLiteral{Value: 0, span: Span{Start: tok.Span.Start, End: tok.Span.Start}},
		Operator: tokenMinus,
		Right:    operand,
		span:     spanBetween(tok.Span, operand.Span()),
	}
}

func (p *parser) parseGroupedExpression() Node {
	p.s.next()
	expr := p.parseExpression(lowestPrec)
	if expr == nil {
		return nil
	}
	if _, ok := p.expect(tokenRParen, "')'"); !ok {
		return nil
	}
	return expr
}
