package template

import (
	"strconv"
	"strings"
)

// SyntaxError reports a malformed value. Offset is a byte offset into the
// scanned text.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return "offset " + strconv.Itoa(e.Offset) + ": " + e.Message
}

// Parse tokenizes a single-line value such as a variable definition or a
// header value. Quotes do not delimit anything here; they are only stripped
// from literal runs that are fully enclosed in them. A run that opens with a
// quote the rest of the value never closes is an error.
func Parse(text string) (String, error) {
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		return String{}, &SyntaxError{Offset: i, Message: "value must fit on a single line"}
	}
	s, _, err := scan(text, nil, scanValue)
	return s, err
}

// MustParse is like Parse but panics on error.
func MustParse(text string) String {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseBody tokenizes a request body, which may span several lines.
func ParseBody(text string) String {
	s, _, _ := scan(text, nil, scanBody)
	return s
}

// Scan tokenizes a delimited value (URL, query value) from the start of src.
// It stops before the first byte for which stop returns true, unless that
// byte sits inside a quoted span. A quoted span opens when a literal run
// starts with ' or " and the matching quote ends the run, that is, it is
// followed by a stop byte, a variable reference or the end of src. Otherwise
// the quote is literal text. Scan returns the number of bytes consumed.
func Scan(src string, stop func(byte) bool) (String, int, error) {
	return scan(src, stop, scanDelimited)
}

type scanMode int

const (
	scanValue scanMode = iota
	scanBody
	scanDelimited
)

func scan(src string, stop func(byte) bool, mode scanMode) (String, int, error) {
	var fragments []Fragment
	var run strings.Builder
	var quote byte
	runStart := 0
	spanned := false

	flush := func() error {
		if run.Len() == 0 {
			spanned = quote != 0
			return nil
		}
		text := run.String()
		if mode == scanValue && isQuote(text[0]) && strings.IndexByte(src[runStart+1:], text[0]) < 0 {
			return &SyntaxError{Offset: runStart, Message: "unterminated quote"}
		}
		if !spanned {
			text = unquote(text)
		}
		fragments = append(fragments, Raw(text))
		run.Reset()
		spanned = quote != 0
		return nil
	}

	i := 0
	for i < len(src) {
		if name, n, ok := readRef(src[i:]); ok {
			if err := flush(); err != nil {
				return String{}, runStart, err
			}
			fragments = append(fragments, Var(name))
			i += n
			continue
		}

		c := src[i]
		if run.Len() == 0 && !spanned {
			runStart = i
		}
		if mode == scanDelimited {
			if quote != 0 {
				if c == quote {
					quote = 0
				} else {
					run.WriteByte(c)
				}
				i++
				continue
			}
			if run.Len() == 0 && !spanned && isQuote(c) {
				j := strings.IndexByte(src[i+1:], c)
				if j < 0 {
					return String{}, i, &SyntaxError{Offset: i, Message: "unterminated quote"}
				}
				if endsRun(src, i+j+2, stop) {
					quote = c
					spanned = true
					i++
					continue
				}
			}
		}
		if stop != nil && stop(c) {
			break
		}
		run.WriteByte(c)
		i++
	}

	if err := flush(); err != nil {
		return String{}, runStart, err
	}
	return String{fragments: fragments}, i, nil
}

// endsRun reports whether a literal run ends at offset i of src.
func endsRun(src string, i int, stop func(byte) bool) bool {
	if i >= len(src) {
		return true
	}
	if stop != nil && stop(src[i]) {
		return true
	}
	_, _, ok := readRef(src[i:])
	return ok
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

// readRef matches {{identifier}} at the start of src.
func readRef(src string) (string, int, bool) {
	if !strings.HasPrefix(src, "{{") {
		return "", 0, false
	}
	i := 2
	for i < len(src) && isIdentByte(src[i]) {
		i++
	}
	if i == 2 || !strings.HasPrefix(src[i:], "}}") {
		return "", 0, false
	}
	return src[2:i], i + 2, true
}

// IsIdentifier reports whether name is a valid variable name.
func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isIdentByte(name[i]) {
			return false
		}
	}
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// unquote strips one matching pair of surrounding quotes.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first == last && isQuote(first) {
		return s[1 : len(s)-1]
	}
	return s
}
