package phpxx

// tokenStream is an indexable view over the lexer output. It never runs past
// the trailing EOF token, so peeking beyond the end keeps returning EOF.
type tokenStream struct {
	tokens []Token
	pos    int
}

func newTokenStream(tokens []Token) *tokenStream {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != tokenEOF {
		end := 0
		if len(tokens) > 0 {
			end = tokens[len(tokens)-1].Span.End
		}
		tokens = append(tokens, Token{Type: tokenEOF, Span: Span{Start: end, End: end}})
	}
	return &tokenStream{tokens: tokens}
}

// peek returns the token n places ahead of the cursor without consuming it.
func (s *tokenStream) peek(n int) Token {
	idx := s.pos + n
	if idx >= len(s.tokens) {
		idx = len(s.tokens) - 1
	}
	return s.tokens[idx]
}

func (s *tokenStream) current() Token {
	return s.peek(0)
}

// next consumes and returns the current token.
func (s *tokenStream) next() Token {
	tok := s.current()
	if s.pos < len(s.tokens)-1 {
		s.pos++
	}
	return tok
}

// last returns the most recently consumed token, or the current one when
// nothing was consumed yet.
func (s *tokenStream) last() Token {
	if s.pos == 0 {
		return s.current()
	}
	return s.tokens[s.pos-1]
}

func (s *tokenStream) mark() int {
	return s.pos
}

func (s *tokenStream) reset(mark int) {
	s.pos = mark
}

func (s *tokenStream) atEOF() bool {
	return s.current().Type == tokenEOF
}
