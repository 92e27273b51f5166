// Package parse turns textual search expressions into query trees.
// The syntax is key:value criteria combined with '&' (or adjacency) and
// '|', with parentheses for grouping:
//
//	time:2016-01-01..2016-01-02 & (instrument:aia | instrument:hmi)
//
// Which keys exist, and how their values become criteria, is decided by
// the Grammar the caller supplies.
package parse

import (
	"unicode"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF    TokenType = iota
	TokenIdent            // bare run: keys and unquoted values
	TokenColon            // :
	TokenAmp              // &
	TokenPipe             // |
	TokenLParen           // (
	TokenRParen           // )
	TokenString           // "quoted value"
	TokenError            // unexpected byte
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of input"
	case TokenIdent:
		return "identifier"
	case TokenColon:
		return "':'"
	case TokenAmp:
		return "'&'"
	case TokenPipe:
		return "'|'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenString:
		return "string"
	default:
		return "invalid token"
	}
}

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Lexer tokenizes a search expression.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}

	start := l.pos
	switch ch := l.input[l.pos]; ch {
	case ':':
		l.pos++
		return Token{Type: TokenColon, Value: ":", Pos: start}
	case '&':
		l.pos++
		return Token{Type: TokenAmp, Value: "&", Pos: start}
	case '|':
		l.pos++
		return Token{Type: TokenPipe, Value: "|", Pos: start}
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: start}
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: start}
	case '"':
		return l.scanString()
	default:
		if isBareChar(ch) {
			return l.scanBare()
		}
		l.pos++
		return Token{Type: TokenError, Value: string(ch), Pos: start}
	}
}

// NextValue scans a criterion value: a quoted string, or a bare run that
// may contain ':' (timestamps carry clock separators). The parser calls
// this instead of NextToken for the position straight after a key's colon.
func (l *Lexer) NextValue() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}
	}
	if l.input[l.pos] == '"' {
		return l.scanString()
	}

	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if !isBareChar(ch) && ch != ':' {
			break
		}
		l.pos++
	}
	if l.pos == start {
		l.pos++
		return Token{Type: TokenError, Value: string(l.input[start]), Pos: start}
	}
	return Token{Type: TokenIdent, Value: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func (l *Lexer) scanBare() Token {
	start := l.pos
	for l.pos < len(l.input) && isBareChar(l.input[l.pos]) {
		l.pos++
	}
	return Token{Type: TokenIdent, Value: l.input[start:l.pos], Pos: start}
}

func (l *Lexer) scanString() Token {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.input) && l.input[l.pos] != '"' {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return Token{Type: TokenError, Value: l.input[start:], Pos: start}
	}
	value := l.input[start+1 : l.pos]
	l.pos++ // closing quote
	return Token{Type: TokenString, Value: value, Pos: start}
}

func isBareChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '_' || ch == '.' ||
		ch == '/' || ch == '+' || ch == '~' || ch == '@'
}
