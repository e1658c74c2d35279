package grammar

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokNumber
	tokString
	tokArrow
	tokPunct
)

type token struct {
	kind      tokenKind
	text      string
	num       float64
	line, col int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return strconv.Quote(t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

type lexer struct {
	src       string
	pos       int
	line, col int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) errorf(line, col int, format string, args ...any) error {
	return &SyntaxError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		r := l.peekRune()
		switch {
		case r == '#':
			for l.pos < len(l.src) && l.peekRune() != '\n' {
				l.advance()
			}
		case unicode.IsSpace(r):
			l.advance()
		default:
			return
		}
	}
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNamePart(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r) || r == '.'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// next scans one token.
func (l *lexer) next() (token, error) {
	l.skipSpace()
	tok := token{line: l.line, col: l.col}
	if l.pos >= len(l.src) {
		tok.kind = tokEOF
		return tok, nil
	}

	start := l.pos
	r := l.peekRune()
	switch {
	case isNameStart(r):
		for l.pos < len(l.src) && isNamePart(l.peekRune()) {
			l.advance()
		}
		tok.kind = tokName
		tok.text = l.src[start:l.pos]
		return tok, nil

	case isDigit(r) || (r == '.' && l.pos+1 < len(l.src) && isDigit(rune(l.src[l.pos+1]))):
		l.scanNumber()
		tok.kind = tokNumber
		tok.text = l.src[start:l.pos]
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return tok, l.errorf(tok.line, tok.col, "bad number %q", tok.text)
		}
		tok.num = v
		return tok, nil

	case r == '"':
		l.advance()
		for l.pos < len(l.src) && l.peekRune() != '"' {
			if l.peekRune() == '\n' {
				return tok, l.errorf(tok.line, tok.col, "unterminated string")
			}
			l.advance()
		}
		if l.pos >= len(l.src) {
			return tok, l.errorf(tok.line, tok.col, "unterminated string")
		}
		tok.kind = tokString
		tok.text = l.src[start+1 : l.pos]
		l.advance()
		return tok, nil

	case r == '-' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '>':
		l.advance()
		l.advance()
		tok.kind = tokArrow
		tok.text = "->"
		return tok, nil
	}

	switch r {
	case '(', ')', '[', ']', ',', ';', ':', '@', '*', '+', '-', '/', '<', '>', '=', '&', '|':
		l.advance()
		tok.kind = tokPunct
		tok.text = string(r)
		return tok, nil
	}
	return tok, l.errorf(tok.line, tok.col, "unexpected character %q", r)
}

func (l *lexer) scanNumber() {
	for l.pos < len(l.src) && isDigit(l.peekRune()) {
		l.advance()
	}
	if l.pos < len(l.src) && l.peekRune() == '.' {
		l.advance()
		for l.pos < len(l.src) && isDigit(l.peekRune()) {
			l.advance()
		}
	}
	if l.pos < len(l.src) && (l.peekRune() == 'e' || l.peekRune() == 'E') {
		save, line, col := l.pos, l.line, l.col
		l.advance()
		if l.pos < len(l.src) && (l.peekRune() == '+' || l.peekRune() == '-') {
			l.advance()
		}
		if l.pos >= len(l.src) || !isDigit(l.peekRune()) {
			l.pos, l.line, l.col = save, line, col
			return
		}
		for l.pos < len(l.src) && isDigit(l.peekRune()) {
			l.advance()
		}
	}
}
