// Package parser parses request files into templated requests.
//
// A request file holds optional @name = value variable definitions followed
// by requests separated by ### lines. Each request is written as
//
//	[METHOD] URL[?key=value&...] [HTTP/x.y]
//	header: value
//
//	body
//
// The URL ends at the first unquoted space or ?. Whitespace between the URL
// and the ? that opens the query is allowed, so "GET localhost ?a=1" carries
// the query a=1. Query parameters may continue on following lines that start
// with & (or with ? when the request line had none). Values anywhere in the file may
// reference variables with {{name}}; references are kept unresolved until
// TemplateRequest.Fill is called.
package parser
