package phpxx

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type lexer struct {
	input string

	offset int
	width  int

	ch rune
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readRune()
	return l
}

// tokenize runs the lexer to completion. The result always ends with an EOF
// token whose span sits at the end of the input.
func tokenize(input string) []Token {
	l := newLexer(input)
	tokens := make([]Token, 0, len(input)/3+1)
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == tokenEOF {
			return tokens
		}
	}
}

func (l *lexer) readRune() {
	if l.offset >= len(l.input) {
		l.width = 0
		l.offset = len(l.input) + 1
		l.ch = 0
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.offset:])
	l.width = w
	l.offset += w
	l.ch = r
}

func (l *lexer) peekRune() rune {
	if l.offset >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])
	return r
}

// currentOffset is the byte offset of l.ch.
func (l *lexer) currentOffset() int {
	if l.offset > len(l.input) {
		return len(l.input)
	}
	return l.offset - l.width
}

func (l *lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	start := l.currentOffset()
	var tok Token

	switch l.ch {
	case 0:
		if start >= len(l.input) {
			return Token{Type: tokenEOF, Span: Span{Start: start, End: start}}
		}
		l.readRune()
		tok = Token{Type: tokenIllegal, Literal: "unexpected character"}
	case '+':
		tok = l.single(tokenPlus)
	case '-':
		tok = l.single(tokenMinus)
	case '*':
		tok = l.single(tokenAsterisk)
	case '/':
		tok = l.single(tokenSlash)
	case '=':
		tok = l.single(tokenAssign)
	case ',':
		tok = l.single(tokenComma)
	case ';':
		tok = l.single(tokenSemicolon)
	case '(':
		tok = l.single(tokenLParen)
	case ')':
		tok = l.single(tokenRParen)
	case '{':
		tok = l.single(tokenLBrace)
	case '}':
		tok = l.single(tokenRBrace)
	case '.':
		if l.peekRune() == '.' {
			l.readRune()
			l.readRune()
			tok = Token{Type: tokenSpread, Literal: ".."}
		} else {
			l.readRune()
			tok = Token{Type: tokenIllegal, Literal: "unexpected character '.'"}
		}
	case '"':
		literal, msg := l.readString()
		if msg != "" {
			tok = Token{Type: tokenIllegal, Literal: msg}
		} else {
			tok = Token{Type: tokenString, Literal: literal}
		}
	case '$':
		if !isIdentifierStart(l.peekRune()) {
			l.readRune()
			tok = Token{Type: tokenIllegal, Literal: "expected variable name after '$'"}
			break
		}
		l.readRune()
		tok = Token{Type: tokenVariable, Literal: l.readIdentifier()}
	default:
		switch {
		case isIdentifierStart(l.ch):
			literal := l.readIdentifier()
			tok = Token{Type: lookupIdent(literal), Literal: literal}
		case isDigit(l.ch):
			tok = l.readNumber()
		default:
			ch := l.ch
			l.readRune()
			tok = Token{Type: tokenIllegal, Literal: "unexpected character " + strconv.QuoteRune(ch)}
		}
	}

	tok.Span = Span{Start: start, End: l.currentOffset()}
	if tok.Literal == "" && tok.Type != tokenString {
		tok.Literal = tok.Span.Slice(l.input)
	}
	return tok
}

func (l *lexer) single(tt TokenType) Token {
	l.readRune()
	return Token{Type: tt}
}

func (l *lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ', l.ch == '\t', l.ch == '\r', l.ch == '\n', l.ch == '\f':
			l.readRune()
		case l.ch == '#':
			l.skipComment()
		case l.ch == '/' && l.peekRune() == '/':
			l.skipComment()
		default:
			return
		}
	}
}

func (l *lexer) skipComment() {
	for l.ch != 0 && l.ch != '\n' {
		l.readRune()
	}
}

// readIdentifier consumes identifier runes starting at l.ch.
func (l *lexer) readIdentifier() string {
	start := l.currentOffset()
	for isIdentifierRune(l.ch) {
		l.readRune()
	}
	return l.input[start:l.currentOffset()]
}

func (l *lexer) readNumber() Token {
	var sb strings.Builder
	hasDot := false

	for {
		switch {
		case isDigit(l.ch):
			sb.WriteRune(l.ch)
			l.readRune()
		case l.ch == '_':
			// Underscores are visual separators and never reach the literal.
			l.readRune()
		case l.ch == '.' && !hasDot && isDigit(l.peekRune()):
			hasDot = true
			sb.WriteByte('.')
			l.readRune()
		default:
			goto done
		}
	}

done:
	if isIdentifierStart(l.ch) {
		for isIdentifierRune(l.ch) {
			l.readRune()
		}
		return Token{Type: tokenIllegal, Literal: "bad number"}
	}
	literal := sb.String()
	if _, err := strconv.ParseFloat(literal, 64); err != nil {
		return Token{Type: tokenIllegal, Literal: "bad number"}
	}
	return Token{Type: tokenNumber, Literal: literal}
}

// readString consumes a double-quoted string starting at the opening quote.
// On a bad escape it still scans to the closing quote so that the reported
// span covers the whole literal.
func (l *lexer) readString() (string, string) {
	var sb strings.Builder
	problem := ""

	for {
		l.readRune()
		switch l.ch {
		case 0:
			if l.currentOffset() >= len(l.input) {
				return "", "unterminated string"
			}
			sb.WriteRune(l.ch)
		case '"':
			l.readRune()
			return sb.String(), problem
		case '\\':
			l.readRune()
			switch l.ch {
			case '"', '\\', '\'', '$':
				sb.WriteRune(l.ch)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			case 'u':
				r, ok := l.readUnicodeEscape()
				if !ok {
					problem = "bad string escape"
					continue
				}
				sb.WriteRune(r)
			case 0:
				if l.currentOffset() >= len(l.input) {
					return "", "unterminated string"
				}
				problem = "bad string escape"
			default:
				problem = "bad string escape"
			}
		default:
			sb.WriteRune(l.ch)
		}
	}
}

// readUnicodeEscape reads the `{HEX}` part of a `\u{HEX}` escape. l.ch is the
// 'u' on entry and the closing brace on success.
func (l *lexer) readUnicodeEscape() (rune, bool) {
	if l.peekRune() != '{' {
		return 0, false
	}
	l.readRune()
	var digits strings.Builder
	for {
		next := l.peekRune()
		if next == '}' {
			l.readRune()
			break
		}
		if !isHexDigit(next) || digits.Len() >= 6 {
			return 0, false
		}
		l.readRune()
		digits.WriteRune(next)
	}
	if digits.Len() == 0 {
		return 0, false
	}
	code, err := strconv.ParseUint(digits.String(), 16, 32)
	if err != nil || !utf8.ValidRune(rune(code)) {
		return 0, false
	}
	return rune(code), true
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func lookupIdent(ident string) TokenType {
	switch ident {
	case "echo":
		return tokenEcho
	case "function":
		return tokenFunction
	case "if":
		return tokenIf
	case "else":
		return tokenElse
	case "while":
		return tokenWhile
	}
	return tokenIdent
}
