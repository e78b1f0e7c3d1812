package parser

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/abdul-hamid-achik/rq/packages/core/template"
)

// File is the parsed form of a request file.
type File struct {
	Path      string
	Requests  []*TemplateRequest
	Variables template.Vars
}

// TemplateRequest is a request whose values may still reference variables.
// It is not modified after parsing.
type TemplateRequest struct {
	Name    string
	Line    int
	Method  string
	URL     template.String
	Query   template.Map
	Version Version
	Headers template.Map
	Body    template.String
}

// Request is a fully resolved request, ready to be sent.
type Request struct {
	Method  string
	URL     string
	Query   map[string]string
	Version Version
	Headers map[string]string
	Body    string
}

// DefaultMethod is used when a request line has no method.
const DefaultMethod = http.MethodGet

// IsKnownMethod reports whether s is one of the standard request methods.
func IsKnownMethod(s string) bool {
	switch s {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
		http.MethodHead, http.MethodOptions, http.MethodTrace, http.MethodConnect:
		return true
	}
	return false
}

type Version int

const (
	HTTP09 Version = iota + 1
	HTTP10
	HTTP11
	HTTP20
	HTTP30
)

// DefaultVersion is used when a request line has no version.
const DefaultVersion = HTTP11

func (v Version) String() string {
	switch v {
	case HTTP09:
		return "HTTP/0.9"
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	case HTTP20:
		return "HTTP/2.0"
	case HTTP30:
		return "HTTP/3.0"
	default:
		return "unknown"
	}
}

// ProtoMajorMinor returns the numbers net/http uses for this version.
func (v Version) ProtoMajorMinor() (int, int) {
	switch v {
	case HTTP09:
		return 0, 9
	case HTTP10:
		return 1, 0
	case HTTP20:
		return 2, 0
	case HTTP30:
		return 3, 0
	default:
		return 1, 1
	}
}

func ParseVersion(s string) (Version, bool) {
	switch s {
	case "HTTP/0.9":
		return HTTP09, true
	case "HTTP/1.0":
		return HTTP10, true
	case "HTTP/1.1":
		return HTTP11, true
	case "HTTP/2.0":
		return HTTP20, true
	case "HTTP/3.0":
		return HTTP30, true
	}
	return 0, false
}

// Variables returns every variable name the request references, in order
// of appearance: URL, query, headers, body.
func (r *TemplateRequest) Variables() []string {
	var names []string
	seen := make(map[string]bool)
	add := func(s template.String) {
		for _, name := range s.Variables() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	add(r.URL)
	for _, k := range r.Query.Keys() {
		add(r.Query[k])
	}
	for _, k := range r.Headers.Keys() {
		add(r.Headers[k])
	}
	add(r.Body)
	return names
}

// Undefined returns the sorted names referenced by requests or variable
// definitions in f that are defined neither in f nor in extra.
func (f *File) Undefined(extra template.Vars) []string {
	missing := make(map[string]bool)
	check := func(names []string) {
		for _, name := range names {
			if _, ok := f.Variables[name]; ok {
				continue
			}
			if _, ok := extra[name]; ok {
				continue
			}
			missing[name] = true
		}
	}
	for _, req := range f.Requests {
		check(req.Variables())
	}
	for _, name := range f.Variables.Names() {
		check(f.Variables[name].Variables())
	}

	out := make([]string, 0, len(missing))
	for name := range missing {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
	Snippet string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return e.File + ":" + strconv.Itoa(e.Line) + ":" + strconv.Itoa(e.Column) + ": " + e.Message
	}
	return "line " + strconv.Itoa(e.Line) + ", column " + strconv.Itoa(e.Column) + ": " + e.Message
}
