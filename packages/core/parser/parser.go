package parser

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/rq/packages/core/template"
)

type Parser struct {
	lexer    *Lexer
	curToken Token
	peek     Token
	file     string
}

func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}
	p.nextToken()
	p.nextToken()
	return p
}

func ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(content), path)
}

// Parse parses a whole request file. On error no partial File is returned.
func Parse(input, filename string) (*File, error) {
	p := NewParser(input)
	p.file = filename
	return p.ParseFile()
}

func (p *Parser) nextToken() {
	p.curToken = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) ParseFile() (*File, error) {
	file := &File{
		Path:      p.file,
		Variables: make(template.Vars),
	}

	name := ""
	for p.curToken.Type != TokenEOF {
		switch p.curToken.Type {
		case TokenSeparator:
			name = p.curToken.Value
			p.nextToken()
		case TokenBlank, TokenComment:
			p.nextToken()
		case TokenVariable:
			varName, value, err := p.parseVariable(p.curToken)
			if err != nil {
				return nil, err
			}
			file.Variables[varName] = value
			p.nextToken()
		default:
			req, err := p.parseRequest(name)
			if err != nil {
				return nil, err
			}
			file.Requests = append(file.Requests, req)
			name = ""
		}
	}

	return file, nil
}

// parseVariable parses "@name = value".
func (p *Parser) parseVariable(tok Token) (string, template.String, error) {
	c := newCursor(tok)
	c.skipSpace()
	c.pos++ // '@'

	start := c.pos
	for !c.eol() && !isSpace(c.peekChar()) && c.peekChar() != '=' {
		c.pos++
	}
	name := c.src[start:c.pos]
	if name == "" {
		return "", template.String{}, p.errorAt(c, "expected variable name after '@'")
	}
	if !template.IsIdentifier(name) {
		c.pos = start
		return "", template.String{}, p.errorAt(c, fmt.Sprintf("invalid variable name %q", name))
	}

	c.skipSpace()
	if c.peekChar() != '=' {
		return "", template.String{}, p.errorAt(c, fmt.Sprintf("expected '=' after variable name %q", name))
	}
	c.pos++
	c.skipSpace()

	value, err := template.Parse(strings.TrimRight(c.rest(), " \t"))
	if err != nil {
		return "", template.String{}, p.valueError(c, err)
	}
	return name, value, nil
}

func (p *Parser) parseRequest(name string) (*TemplateRequest, error) {
	req := &TemplateRequest{
		Name:    name,
		Line:    p.curToken.Line,
		Method:  DefaultMethod,
		Version: DefaultVersion,
		Query:   make(template.Map),
		Headers: make(template.Map),
	}

	if err := p.parseRequestLine(req); err != nil {
		return nil, err
	}

	for {
		switch p.curToken.Type {
		case TokenSeparator, TokenEOF:
			return req, nil
		case TokenComment:
			p.nextToken()
		case TokenBlank:
			p.nextToken()
			req.Body = p.parseBody()
			return req, nil
		default:
			if err := p.parseHeader(req); err != nil {
				return nil, err
			}
			p.nextToken()
		}
	}
}

// parseRequestLine consumes the request line and any query continuation
// lines, leaving curToken on the line after them.
func (p *Parser) parseRequestLine(req *TemplateRequest) error {
	c := newCursor(p.curToken)
	c.skipSpace()

	fields := strings.Fields(c.rest())
	if len(fields) >= 2 && looksLikeMethod(fields[0]) && !startsQueryOrVersion(fields[1]) {
		if !IsKnownMethod(fields[0]) {
			return p.errorAt(c, fmt.Sprintf("invalid HTTP method %q", fields[0]))
		}
		req.Method = fields[0]
		c.pos += len(fields[0])
		c.skipSpace()
	}

	url, err := p.scanValue(c, isURLStop)
	if err != nil {
		return err
	}
	if url.IsEmpty() {
		return p.errorAt(c, "expected URL")
	}
	req.URL = url

	c.skipSpace()
	hasQuery := false
	if c.peekChar() == '?' {
		if err := p.parseQuery(c, req); err != nil {
			return err
		}
		hasQuery = true
	}

	for c.eol() && p.isQueryContinuation(hasQuery) {
		p.nextToken()
		c = newCursor(p.curToken)
		c.skipSpace()
		if err := p.parseQuery(c, req); err != nil {
			return err
		}
		hasQuery = true
	}

	if !c.eol() {
		word := c.word()
		version, ok := ParseVersion(word)
		if !ok {
			return p.errorAt(c, fmt.Sprintf("unknown HTTP version %q", word))
		}
		req.Version = version
		c.pos += len(word)
		c.skipSpace()
		if !c.eol() {
			return p.errorAt(c, fmt.Sprintf("unexpected %q after HTTP version", c.rest()))
		}
	}

	p.nextToken()
	return nil
}

func (p *Parser) isQueryContinuation(hasQuery bool) bool {
	if p.peek.Type != TokenText {
		return false
	}
	trimmed := strings.TrimLeft(p.peek.Text, " \t")
	if strings.HasPrefix(trimmed, "&") {
		return hasQuery
	}
	return !hasQuery && strings.HasPrefix(trimmed, "?")
}

// parseQuery reads key=value pairs introduced by ? or & until the end of
// the pairs on the current line.
func (p *Parser) parseQuery(c *cursor, req *TemplateRequest) error {
	for {
		c.pos++ // '?' or '&'

		start := c.pos
		for !c.eol() && !isQueryKeyStop(c.peekChar()) {
			c.pos++
		}
		key := c.src[start:c.pos]
		if key == "" {
			return p.errorAt(c, "expected query parameter name")
		}
		if c.peekChar() != '=' {
			return p.errorAt(c, fmt.Sprintf("expected '=' after query parameter %q", key))
		}
		c.pos++

		value, err := p.scanValue(c, isQueryValueStop)
		if err != nil {
			return err
		}
		req.Query[key] = value

		c.skipSpace()
		if c.peekChar() != '&' {
			return nil
		}
	}
}

func (p *Parser) parseHeader(req *TemplateRequest) error {
	c := newCursor(p.curToken)
	idx := strings.IndexByte(c.src, ':')
	if idx < 0 {
		c.skipSpace()
		return p.errorAt(c, "expected header in the form 'name: value'")
	}

	key := strings.TrimSpace(c.src[:idx])
	if key == "" || strings.ContainsAny(key, " \t") {
		c.skipSpace()
		return p.errorAt(c, fmt.Sprintf("invalid header name %q", key))
	}

	c.pos = idx + 1
	c.skipSpace()
	value, err := template.Parse(strings.TrimRight(c.rest(), " \t"))
	if err != nil {
		return p.valueError(c, err)
	}
	req.Headers[key] = value
	return nil
}

// parseBody takes every line up to the next separator. Blank lines around
// the body are dropped.
func (p *Parser) parseBody() template.String {
	var lines []string
	for p.curToken.Type != TokenSeparator && p.curToken.Type != TokenEOF {
		lines = append(lines, p.curToken.Text)
		p.nextToken()
	}

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return template.String{}
	}
	return template.ParseBody(strings.Join(lines, "\n"))
}

func (p *Parser) scanValue(c *cursor, stop func(byte) bool) (template.String, error) {
	value, n, err := template.Scan(c.rest(), stop)
	if err != nil {
		return template.String{}, p.valueError(c, err)
	}
	c.pos += n
	return value, nil
}

func (p *Parser) valueError(c *cursor, err error) error {
	var syntaxErr *template.SyntaxError
	if errors.As(err, &syntaxErr) {
		return p.errorAtColumn(c, c.pos+syntaxErr.Offset+1, syntaxErr.Message)
	}
	return p.errorAt(c, err.Error())
}

func (p *Parser) errorAt(c *cursor, message string) error {
	return p.errorAtColumn(c, c.pos+1, message)
}

func (p *Parser) errorAtColumn(c *cursor, column int, message string) error {
	return &ParseError{
		File:    p.file,
		Line:    c.line,
		Column:  column,
		Message: message,
		Snippet: c.src,
	}
}

// looksLikeMethod reports whether a leading word is meant as a method
// rather than a URL. Quoted or templated words are always URLs.
func looksLikeMethod(word string) bool {
	return !strings.ContainsAny(word, "\"'{/.:")
}

func startsQueryOrVersion(word string) bool {
	if strings.HasPrefix(word, "?") {
		return true
	}
	_, ok := ParseVersion(word)
	return ok
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t'
}

func isURLStop(ch byte) bool {
	return isSpace(ch) || ch == '?'
}

func isQueryKeyStop(ch byte) bool {
	return isSpace(ch) || ch == '=' || ch == '&'
}

func isQueryValueStop(ch byte) bool {
	return isSpace(ch) || ch == '&'
}

// cursor walks a single source line.
type cursor struct {
	src  string
	pos  int
	line int
}

func newCursor(tok Token) *cursor {
	return &cursor{src: tok.Text, line: tok.Line}
}

func (c *cursor) eol() bool {
	return c.pos >= len(c.src)
}

func (c *cursor) peekChar() byte {
	if c.eol() {
		return 0
	}
	return c.src[c.pos]
}

func (c *cursor) skipSpace() {
	for !c.eol() && isSpace(c.src[c.pos]) {
		c.pos++
	}
}

func (c *cursor) rest() string {
	return c.src[c.pos:]
}

// word returns the text up to the next whitespace without consuming it.
func (c *cursor) word() string {
	end := c.pos
	for end < len(c.src) && !isSpace(c.src[end]) {
		end++
	}
	return c.src[c.pos:end]
}
