// Package lexer implements the hand-written scanner that turns cellang
// source text into a stream of tokens.
package lexer

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/skx/cellang/cellerr"
	"github.com/skx/cellang/token"
)

// Lexer holds our object-state.
type Lexer struct {
	position     int    // current character position
	readPosition int    // next character position
	ch           rune   // current character
	characters   []rune // rune slice of input string

	line int // current 1-based line number
	col  int // current 1-based column number on that line
}

// New creates a Lexer instance from string input.
func New(input string) *Lexer {
	l := &Lexer{characters: []rune(input), line: 1, col: 0}
	l.readChar()
	return l
}

// read one forward character, tracking line/column as we go
func (l *Lexer) readChar() {
	if l.ch == rune('\n') {
		l.line++
		l.col = 0
	}

	if l.readPosition >= len(l.characters) {
		l.ch = rune(0)
	} else {
		l.ch = l.characters[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.col++
}

func (l *Lexer) pos() token.Position {
	return token.Position{Line: l.line, Col: l.col, Offset: l.position}
}

// NextToken reads the next token, skipping whitespace and comments.
func (l *Lexer) NextToken() (token.Token, error) {
	l.skipWhitespaceAndComments()

	pos := l.pos()
	var tok token.Token
	tok.Pos = pos

	switch l.ch {
	case rune(';'):
		tok = newToken(token.SEMI, l.ch, pos)
	case rune(':'):
		tok = newToken(token.COLON, l.ch, pos)
	case rune('?'):
		tok = newToken(token.QUESTION, l.ch, pos)
	case rune(','):
		tok = newToken(token.COMMA, l.ch, pos)
	case rune('('):
		tok = newToken(token.LPAREN, l.ch, pos)
	case rune(')'):
		tok = newToken(token.RPAREN, l.ch, pos)
	case rune('+'):
		tok = newToken(token.PLUS, l.ch, pos)
	case rune('%'):
		tok = newToken(token.PERCENT, l.ch, pos)
	case rune('*'):
		tok = newToken(token.ASTERISK, l.ch, pos)
	case rune('/'):
		tok = newToken(token.SLASH, l.ch, pos)
	case rune('-'):
		// "-3" is a negative NUMBER, "-3.4" likewise, but "3 - 4" keeps
		// "-" as its own MINUS token.
		if isDigit(l.peekChar()) {
			l.readChar() // swallow the '-'
			tok = l.readDecimal(pos)
			tok.Literal = "-" + tok.Literal
			return tok, nil
		}
		tok = newToken(token.MINUS, l.ch, pos)
	case rune('"'):
		return l.readString(pos)
	case rune('='):
		if l.peekChar() == rune('=') {
			l.readChar()
			tok = token.Token{Type: token.EQ, Literal: "==", Pos: pos}
		} else {
			return tok, errors.WithStack(&cellerr.LexError{
				Pos:     toErrPos(pos),
				Message: "'=' is not a valid token (there is no assignment operator; did you mean '=='?)",
			})
		}
	case rune('>'):
		if l.peekChar() == rune('=') {
			l.readChar()
			tok = token.Token{Type: token.GE, Literal: ">=", Pos: pos}
		} else {
			tok = newToken(token.GT, l.ch, pos)
		}
	case rune('<'):
		if l.peekChar() == rune('=') {
			l.readChar()
			tok = token.Token{Type: token.LE, Literal: "<=", Pos: pos}
		} else {
			tok = newToken(token.LT, l.ch, pos)
		}
	case rune(0):
		tok.Literal = ""
		tok.Type = token.EOF
		return tok, nil
	default:
		if isDigit(l.ch) {
			return l.readDecimal(pos), nil
		}
		if isIdentStart(l.ch) {
			lit := l.readIdentifier()
			return token.Token{Type: token.LookupIdentifier(lit), Literal: lit, Pos: pos}, nil
		}
		return tok, errors.WithStack(&cellerr.LexError{
			Pos:     toErrPos(pos),
			Message: fmt.Sprintf("unrecognized character %q", l.ch),
		})
	}
	l.readChar()
	return tok, nil
}

// newToken builds a single-character token.
func newToken(tokenType token.Type, ch rune, pos token.Position) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Pos: pos}
}

// skipWhitespaceAndComments consumes runs of whitespace and '#' comments
// (to the next newline), which never produce tokens.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		if isWhitespace(l.ch) {
			l.readChar()
			continue
		}
		if l.ch == rune('#') {
			for l.ch != rune('\n') && l.ch != rune(0) {
				l.readChar()
			}
			continue
		}
		break
	}
}

// readNumber handles reading a run of digits 0-9.
func (l *Lexer) readNumber() string {
	var sb strings.Builder

	for isDigit(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	return sb.String()
}

// readDecimal reads a decimal / floating point number.
func (l *Lexer) readDecimal(pos token.Position) token.Token {
	integer := l.readNumber()

	// We might have more content: .[digits] -> converts us from int to float.
	if l.ch == rune('.') && isDigit(l.peekChar()) {
		l.readChar() // skip the period
		fraction := l.readNumber()
		return token.Token{Type: token.NUMBER, Literal: integer + "." + fraction, Pos: pos}
	}
	return token.Token{Type: token.NUMBER, Literal: integer, Pos: pos}
}

// readString reads a double-quoted string literal. The grammar admits
// string tokens but nothing evaluates them; the parser rejects one in any
// expression position.
func (l *Lexer) readString(pos token.Position) (token.Token, error) {
	l.readChar() // swallow the opening quote

	var sb strings.Builder
	for l.ch != rune('"') {
		if l.ch == rune(0) {
			return token.Token{}, errors.WithStack(&cellerr.LexError{
				Pos:     toErrPos(pos),
				Message: "string literal opened but never closed",
			})
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar() // swallow the closing quote

	return token.Token{Type: token.STRING, Literal: sb.String(), Pos: pos}, nil
}

// peekChar returns the character after the current one, without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.characters) {
		return rune(0)
	}
	return l.characters[l.readPosition]
}

func isWhitespace(ch rune) bool {
	return ch == rune(' ') || ch == rune('\t') || ch == rune('\n') || ch == rune('\r')
}

func isDigit(ch rune) bool {
	return rune('0') <= ch && ch <= rune('9')
}

func isIdentStart(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// readIdentifier reads an identifier: an ASCII letter followed by any
// number of alphanumerics.
func (l *Lexer) readIdentifier() string {
	var sb strings.Builder

	for isIdentPart(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	return sb.String()
}

func toErrPos(p token.Position) cellerr.Position {
	return cellerr.Position{Line: p.Line, Col: p.Col, Offset: p.Offset}
}
