package psl

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf16"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokIdent
	tokString
	tokNumber
	tokComment
	tokDocComment
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokColon
	tokEquals
	tokQuestion
	tokAt
	tokAtAt
	tokDot
)

var tokenNames = map[tokenKind]string{
	tokEOF:        "end of input",
	tokNewline:    "newline",
	tokIdent:      "identifier",
	tokString:     "string",
	tokNumber:     "number",
	tokComment:    "comment",
	tokDocComment: "doc comment",
	tokLBrace:     "'{'",
	tokRBrace:     "'}'",
	tokLParen:     "'('",
	tokRParen:     "')'",
	tokLBracket:   "'['",
	tokRBracket:   "']'",
	tokComma:      "','",
	tokColon:      "':'",
	tokEquals:     "'='",
	tokQuestion:   "'?'",
	tokAt:         "'@'",
	tokAtAt:       "'@@'",
	tokDot:        "'.'",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

type token struct {
	kind tokenKind
	// text is the identifier, number spelling, unescaped string or comment body.
	text string
	// raw is the source spelling of a string literal between its quotes.
	raw    string
	line   int
	column int
}

type lexer struct {
	src    []rune
	pos    int
	line   int
	column int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src), line: 1, column: 1}
}

// tokenize splits the whole input up front; schemas are small enough.
func tokenize(src string) ([]token, error) {
	l := newLexer(src)
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) peek(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *lexer) errorf(line, column int, format string, args ...any) error {
	return newParseError(line, column, format, args...)
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		r := l.peek(0)
		if r == ' ' || r == '\t' || r == '\r' || r == '\uFEFF' {
			l.advance()
			continue
		}
		break
	}

	line, col := l.line, l.column
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: line, column: col}, nil
	}

	single := func(kind tokenKind) (token, error) {
		l.advance()
		return token{kind: kind, line: line, column: col}, nil
	}

	r := l.peek(0)
	switch {
	case r == '\n':
		return single(tokNewline)
	case r == '{':
		return single(tokLBrace)
	case r == '}':
		return single(tokRBrace)
	case r == '(':
		return single(tokLParen)
	case r == ')':
		return single(tokRParen)
	case r == '[':
		return single(tokLBracket)
	case r == ']':
		return single(tokRBracket)
	case r == ',':
		return single(tokComma)
	case r == ':':
		return single(tokColon)
	case r == '=':
		return single(tokEquals)
	case r == '?':
		return single(tokQuestion)
	case r == '.':
		return single(tokDot)
	case r == '@':
		l.advance()
		if l.peek(0) == '@' {
			l.advance()
			return token{kind: tokAtAt, line: line, column: col}, nil
		}
		return token{kind: tokAt, line: line, column: col}, nil
	case r == '/' && l.peek(1) == '/':
		return l.lexComment(line, col), nil
	case r == '"':
		return l.lexString(line, col)
	case isDigit(r) || (r == '-' && isDigit(l.peek(1))):
		return l.lexNumber(line, col), nil
	case isIdentStart(r):
		return l.lexIdent(line, col), nil
	}

	return token{}, l.errorf(line, col, "unexpected character %q", r)
}

func (l *lexer) lexComment(line, col int) token {
	l.advance()
	l.advance()
	kind := tokComment
	if l.peek(0) == '/' {
		l.advance()
		kind = tokDocComment
	}
	start := l.pos
	for l.pos < len(l.src) && l.peek(0) != '\n' {
		l.advance()
	}
	text := strings.TrimRight(string(l.src[start:l.pos]), " \t\r")
	return token{kind: kind, text: text, line: line, column: col}
}

func (l *lexer) lexString(line, col int) (token, error) {
	l.advance()
	start := l.pos
	for {
		if l.pos >= len(l.src) || l.peek(0) == '\n' {
			return token{}, l.errorf(line, col, "unterminated string literal")
		}
		r := l.advance()
		if r == '"' {
			break
		}
		if r == '\\' {
			if l.pos >= len(l.src) || l.peek(0) == '\n' {
				return token{}, l.errorf(line, col, "unterminated string literal")
			}
			l.advance()
		}
	}

	raw := string(l.src[start : l.pos-1])
	text, err := unescape(raw)
	if err != nil {
		return token{}, l.errorf(line, col, "%s", err)
	}
	return token{kind: tokString, text: text, raw: raw, line: line, column: col}, nil
}

// unescape decodes the escapes of a string literal body. \uXXXX is decoded,
// surrogate pairs included; unknown escapes such as \p are kept as written.
func unescape(raw string) (string, error) {
	if !strings.ContainsRune(raw, '\\') {
		return raw, nil
	}
	rs := []rune(raw)
	var b strings.Builder
	for i := 0; i < len(rs); i++ {
		if rs[i] != '\\' || i+1 >= len(rs) {
			b.WriteRune(rs[i])
			continue
		}
		i++
		switch esc := rs[i]; esc {
		case 'n':
			b.WriteRune('\n')
		case 't':
			b.WriteRune('\t')
		case 'r':
			b.WriteRune('\r')
		case '"', '\\', '\'':
			b.WriteRune(esc)
		case 'u':
			cp, ok := hex4(rs[i+1:])
			if !ok {
				return "", errors.New("invalid unicode escape in string literal")
			}
			i += 4
			if utf16.IsSurrogate(cp) && i+6 < len(rs) && rs[i+1] == '\\' && rs[i+2] == 'u' {
				if lo, ok := hex4(rs[i+3:]); ok {
					cp = utf16.DecodeRune(cp, lo)
					i += 6
				}
			}
			b.WriteRune(cp)
		default:
			b.WriteRune('\\')
			b.WriteRune(esc)
		}
	}
	return b.String(), nil
}

func hex4(rs []rune) (rune, bool) {
	if len(rs) < 4 {
		return 0, false
	}
	n, err := strconv.ParseUint(string(rs[:4]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}

func (l *lexer) lexNumber(line, col int) token {
	start := l.pos
	if l.peek(0) == '-' {
		l.advance()
	}
	for isDigit(l.peek(0)) {
		l.advance()
	}
	if l.peek(0) == '.' && isDigit(l.peek(1)) {
		l.advance()
		for isDigit(l.peek(0)) {
			l.advance()
		}
	}
	return token{kind: tokNumber, text: string(l.src[start:l.pos]), line: line, column: col}
}

func (l *lexer) lexIdent(line, col int) token {
	start := l.pos
	for isIdentPart(l.peek(0)) {
		l.advance()
	}
	return token{kind: tokIdent, text: string(l.src[start:l.pos]), line: line, column: col}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r) || r == '-'
}
