package parser

import (
	"strings"

	"github.com/abdul-hamid-achik/rq/packages/core/template"
)

// RenderRequest writes req back in request-file syntax without resolving
// variables. Query parameters go on continuation lines in key order.
func RenderRequest(req *TemplateRequest) string {
	var b strings.Builder

	if req.Name != "" {
		b.WriteString("### " + req.Name + "\n")
	}

	b.WriteString(req.Method)
	b.WriteString(" ")
	b.WriteString(req.URL.String())

	indent := strings.Repeat(" ", len(req.Method)+1)
	for i, key := range req.Query.Keys() {
		b.WriteString("\n")
		b.WriteString(indent)
		if i == 0 {
			b.WriteString("?")
		} else {
			b.WriteString("&")
		}
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(renderQueryValue(req.Query[key]))
	}
	b.WriteString(" ")
	b.WriteString(req.Version.String())
	b.WriteString("\n")

	for _, key := range req.Headers.Keys() {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(req.Headers[key].String())
		b.WriteString("\n")
	}

	if !req.Body.IsEmpty() {
		b.WriteString("\n")
		b.WriteString(req.Body.String())
		b.WriteString("\n")
	}

	return b.String()
}

// RenderFile writes the variable definitions and requests of f.
func RenderFile(f *File) string {
	var b strings.Builder
	for _, name := range f.Variables.Names() {
		b.WriteString("@" + name + " = " + f.Variables[name].String() + "\n")
	}

	for i, req := range f.Requests {
		if i > 0 || len(f.Variables) > 0 {
			b.WriteString("\n")
			if req.Name == "" {
				b.WriteString("###\n\n")
			}
		}
		b.WriteString(RenderRequest(req))
	}
	return b.String()
}

// renderQueryValue writes a query value fragment by fragment, quoting
// literal runs that would otherwise be cut at a space or '&' or lose their
// own quotes on the way back in.
func renderQueryValue(s template.String) string {
	var b strings.Builder
	for _, f := range s.Fragments() {
		if f.Kind == template.FragmentVar {
			b.WriteString(f.String())
			continue
		}
		b.WriteString(quoteQueryRun(f.Text))
	}
	return b.String()
}

func quoteQueryRun(text string) string {
	if text == "" {
		return text
	}
	if !strings.ContainsAny(text, " &\t") && text[0] != '"' && text[0] != '\'' {
		return text
	}
	if strings.Contains(text, "'") {
		return `"` + text + `"`
	}
	return "'" + text + "'"
}
