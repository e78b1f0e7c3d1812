package parser

import (
	"strings"
)

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenBlank
	TokenSeparator
	TokenVariable
	TokenComment
	TokenText
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of file"
	case TokenBlank:
		return "blank line"
	case TokenSeparator:
		return "separator"
	case TokenVariable:
		return "variable definition"
	case TokenComment:
		return "comment"
	case TokenText:
		return "text"
	default:
		return "unknown"
	}
}

// Token is one source line. Text is the line without its terminator. For
// separators Value holds the optional request name written after ###.
type Token struct {
	Type  TokenType
	Text  string
	Value string
	Line  int
}

// Lexer splits a request file into classified lines. It accepts both LF
// and CRLF line endings.
type Lexer struct {
	input string
	pos   int
	line  int
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

func (l *Lexer) NextToken() Token {
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Line: l.line + 1}
	}

	l.line++
	text := l.readLine()
	tok := Token{Text: text, Line: l.line}
	trimmed := strings.TrimSpace(text)

	switch {
	case trimmed == "":
		tok.Type = TokenBlank
	case isSeparator(trimmed):
		tok.Type = TokenSeparator
		tok.Value = strings.TrimSpace(trimmed[3:])
	case strings.HasPrefix(trimmed, "@"):
		tok.Type = TokenVariable
	case strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//"):
		tok.Type = TokenComment
		tok.Value = strings.TrimSpace(strings.TrimLeft(trimmed, "#/"))
	default:
		tok.Type = TokenText
	}
	return tok
}

func (l *Lexer) readLine() string {
	end := strings.IndexByte(l.input[l.pos:], '\n')
	var text string
	if end < 0 {
		text = l.input[l.pos:]
		l.pos = len(l.input)
	} else {
		text = l.input[l.pos : l.pos+end]
		l.pos += end + 1
	}
	return strings.TrimSuffix(text, "\r")
}

func isSeparator(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "###") {
		return false
	}
	rest := trimmed[3:]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}
