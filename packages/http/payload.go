package http

import (
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

type PayloadKind int

const (
	PayloadBytes PayloadKind = iota
	PayloadText
)

func (k PayloadKind) String() string {
	if k == PayloadText {
		return "text"
	}
	return "bytes"
}

// Payload is a response body after content-type inspection. Text payloads
// carry the decoded text and the name of the charset that was used.
type Payload struct {
	Kind      PayloadKind
	Extension string
	Charset   string
	Text      string
	Bytes     []byte
}

// DefaultCharset is assumed when a text response does not declare one.
const DefaultCharset = "utf-8"

// ClassifyPayload inspects contentType and decodes body when it is text.
// text/* and any */json subtype are text; everything else, including a
// missing or malformed content type, stays bytes.
func ClassifyPayload(contentType string, body []byte) Payload {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if contentType == "" || err != nil {
		return Payload{Kind: PayloadBytes, Bytes: body}
	}

	major, subtype, _ := strings.Cut(mediaType, "/")
	ext := extensionFor(subtype)

	if major != "text" && subtype != "json" {
		return Payload{Kind: PayloadBytes, Extension: ext, Bytes: body}
	}

	charset := params["charset"]
	if charset == "" {
		charset = DefaultCharset
	}
	text, name := decode(body, charset)
	return Payload{
		Kind:      PayloadText,
		Extension: ext,
		Charset:   name,
		Text:      text,
		Bytes:     body,
	}
}

// decode converts body from the named charset to UTF-8. Unknown labels fall
// back to UTF-8 and invalid sequences become U+FFFD.
func decode(body []byte, charset string) (string, string) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		enc = unicode.UTF8
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = DefaultCharset
	}

	if enc == unicode.UTF8 {
		return toValidUTF8(body), name
	}

	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return toValidUTF8(body), name
	}
	return string(out), name
}

func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}

var extensions = map[string]string{
	"pdf":        "pdf",
	"html":       "html",
	"bmp":        "bmp",
	"css":        "css",
	"csv":        "csv",
	"gif":        "gif",
	"javascript": "js",
	"jpeg":       "jpg",
	"json":       "json",
	"mp4":        "mp4",
	"mpeg":       "mpeg",
	"png":        "png",
	"svg":        "svg",
	"xml":        "xml",
}

// extensionFor maps a MIME subtype to a file extension. Structured suffixes
// such as "svg+xml" use the part before the '+'.
func extensionFor(subtype string) string {
	if ext, ok := extensions[subtype]; ok {
		return ext
	}
	if base, _, ok := strings.Cut(subtype, "+"); ok {
		return extensions[base]
	}
	return ""
}
