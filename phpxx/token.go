package phpxx

// TokenType identifies the lexical category of a token.
type TokenType string

const (
	tokenIllegal TokenType = "ILLEGAL"
	tokenEOF     TokenType = "EOF"

	tokenIdent    TokenType = "IDENT"
	tokenVariable TokenType = "VARIABLE"
	tokenNumber   TokenType = "NUMBER"
	tokenString   TokenType = "STRING"

	tokenAssign   TokenType = "="
	tokenPlus     TokenType = "+"
	tokenMinus    TokenType = "-"
	tokenAsterisk TokenType = "*"
	tokenSlash    TokenType = "/"
	tokenSpread   TokenType = ".."

	tokenComma     TokenType = ","
	tokenSemicolon TokenType = ";"
	tokenLParen    TokenType = "("
	tokenRParen    TokenType = ")"
	tokenLBrace    TokenType = "{"
	tokenRBrace    TokenType = "}"

	tokenEcho     TokenType = "ECHO"
	tokenFunction TokenType = "FUNCTION"
	tokenIf       TokenType = "IF"
	tokenElse     TokenType = "ELSE"
	tokenWhile    TokenType = "WHILE"
)

// Token captures lexical information for the parser. Literal holds the
// decoded text for strings and variables (without the sigil) and the raw
// source text otherwise.
type Token struct {
	Type    TokenType
	Literal string
	Span    Span
}

// Span is a half-open byte range into the source text.
type Span struct {
	Start int
	End   int
}

// Len reports the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Slice returns the source text covered by the span, clamped to the source.
func (s Span) Slice(source string) string {
	start, end := s.Start, s.End
	if start < 0 {
		start = 0
	}
	if end > len(source) {
		end = len(source)
	}
	if start >= end {
		return ""
	}
	return source[start:end]
}

// Position identifies a 1-based line and column in the source file.
type Position struct {
	Line   int
	Column int
}
