package query

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF      TokenType = iota
	TokenIdent              // bare words: fields, values, search terms
	TokenString             // "quoted string"
	TokenTag                // #tag shorthand; Value excludes the '#'
	TokenAnd                // AND
	TokenOr                 // OR
	TokenNot                // NOT
	TokenLParen             // (
	TokenRParen             // )
	TokenLBracket           // [
	TokenRBracket           // ]
	TokenRange              // ..
	TokenColon              // :
	TokenEq                 // = or ==
	TokenNeq                // !=
	TokenGt                 // >
	TokenGte                // >=
	TokenLt                 // <
	TokenLte                // <=
)

var tokenNames = map[TokenType]string{
	TokenEOF:      "end of query",
	TokenIdent:    "word",
	TokenString:   "quoted string",
	TokenTag:      "tag",
	TokenAnd:      "AND",
	TokenOr:       "OR",
	TokenNot:      "NOT",
	TokenLParen:   "'('",
	TokenRParen:   "')'",
	TokenLBracket: "'['",
	TokenRBracket: "']'",
	TokenRange:    "'..'",
	TokenColon:    "':'",
	TokenEq:       "'='",
	TokenNeq:      "'!='",
	TokenGt:       "'>'",
	TokenGte:      "'>='",
	TokenLt:       "'<'",
	TokenLte:      "'<='",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// IsComparator reports whether t is one of : = != > >= < <=.
func (t TokenType) IsComparator() bool {
	return t >= TokenColon && t <= TokenLte
}

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string // unescaped value; keywords keep their original spelling
	Pos   int    // byte offset of the first character
	End   int    // byte offset just past the last character
}

// Lexer tokenizes a query string. Lexical problems are collected rather than
// returned, so the parser can keep going.
type Lexer struct {
	input  string
	pos    int
	errors []*Error
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize returns every token in input, terminated by a TokenEOF, together
// with any lexical errors.
func Tokenize(input string) ([]Token, []*Error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, l.Errors()
		}
	}
}

// Errors returns the lexical errors seen so far.
func (l *Lexer) Errors() []*Error {
	return l.errors
}

func (l *Lexer) errorf(pos int, format string, args ...interface{}) {
	l.errors = append(l.errors, &Error{Kind: ErrLexical, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// NextToken returns the next token from the input. Characters that cannot
// start a token are reported and skipped.
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespace()

		if l.pos >= len(l.input) {
			return Token{Type: TokenEOF, Pos: l.pos, End: l.pos}
		}

		start := l.pos
		ch := l.input[l.pos]

		switch ch {
		case '(':
			return l.single(TokenLParen, start)
		case ')':
			return l.single(TokenRParen, start)
		case '[':
			return l.single(TokenLBracket, start)
		case ']':
			return l.single(TokenRBracket, start)
		case ':':
			return l.single(TokenColon, start)
		case '=':
			if l.peekByte(1) == '=' {
				return l.multi(TokenEq, start, 2)
			}
			return l.single(TokenEq, start)
		case '!':
			if l.peekByte(1) == '=' {
				return l.multi(TokenNeq, start, 2)
			}
			l.pos++
			l.errorf(start, "unexpected character '!'")
			continue
		case '>':
			if l.peekByte(1) == '=' {
				return l.multi(TokenGte, start, 2)
			}
			return l.single(TokenGt, start)
		case '<':
			if l.peekByte(1) == '=' {
				return l.multi(TokenLte, start, 2)
			}
			return l.single(TokenLt, start)
		case '.':
			if l.peekByte(1) == '.' {
				return l.multi(TokenRange, start, 2)
			}
		case '"':
			return l.scanString()
		case '#':
			tok, ok := l.scanTag()
			if !ok {
				continue
			}
			return tok
		}

		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if unicode.IsControl(r) {
			l.pos += size
			l.errorf(start, "unexpected character %q", r)
			continue
		}
		return l.scanIdent()
	}
}

func (l *Lexer) single(t TokenType, start int) Token {
	return l.multi(t, start, 1)
}

func (l *Lexer) multi(t TokenType, start, n int) Token {
	l.pos += n
	return Token{Type: t, Value: l.input[start:l.pos], Pos: start, End: l.pos}
}

func (l *Lexer) peekByte(offset int) byte {
	if l.pos+offset < len(l.input) {
		return l.input[l.pos+offset]
	}
	return 0
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

// atBoundary reports whether the input at l.pos ends a bare word.
func (l *Lexer) atBoundary() bool {
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	if unicode.IsSpace(r) || unicode.IsControl(r) {
		return true
	}
	switch r {
	case '(', ')', '[', ']', ':', '=', '>', '<', '"':
		return true
	case '!':
		return l.peekByte(1) == '='
	case '.':
		return l.peekByte(1) == '.'
	}
	return false
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.input) && !l.atBoundary() {
		_, size := utf8.DecodeRuneInString(l.input[l.pos:])
		l.pos += size
	}
	value := l.input[start:l.pos]
	tok := Token{Type: TokenIdent, Value: value, Pos: start, End: l.pos}
	switch strings.ToUpper(value) {
	case "AND":
		tok.Type = TokenAnd
	case "OR":
		tok.Type = TokenOr
	case "NOT":
		tok.Type = TokenNot
	}
	return tok
}

// scanString scans a double-quoted string. Backslash escapes the next
// character. An unterminated string is reported and yields everything up to
// the end of input.
func (l *Lexer) scanString() Token {
	start := l.pos
	l.pos++ // opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\\' && l.pos+1 < len(l.input):
			sb.WriteByte(l.input[l.pos+1])
			l.pos += 2
		case ch == '"':
			l.pos++
			return Token{Type: TokenString, Value: sb.String(), Pos: start, End: l.pos}
		default:
			sb.WriteByte(ch)
			l.pos++
		}
	}

	l.errorf(start, "unterminated string")
	return Token{Type: TokenString, Value: sb.String(), Pos: start, End: l.pos}
}

// scanTag scans #word. A bare '#' is reported and produces no token.
func (l *Lexer) scanTag() (Token, bool) {
	start := l.pos
	l.pos++ // '#'
	valueStart := l.pos
	for l.pos < len(l.input) && !l.atBoundary() {
		_, size := utf8.DecodeRuneInString(l.input[l.pos:])
		l.pos += size
	}
	if l.pos == valueStart {
		l.errorf(start, "empty tag after '#'")
		return Token{}, false
	}
	return Token{Type: TokenTag, Value: l.input[valueStart:l.pos], Pos: start, End: l.pos}, true
}
