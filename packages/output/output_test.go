package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/rq/packages/core/parser"
	"github.com/abdul-hamid-achik/rq/packages/core/runner"
	"github.com/abdul-hamid-achik/rq/packages/core/template"
	"github.com/abdul-hamid-achik/rq/packages/history"
	"github.com/abdul-hamid-achik/rq/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Status:     "200 OK",
		Proto:      "HTTP/1.1",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Payload:    http.ClassifyPayload("application/json", []byte(body)),
	}
}

func sampleResult(t *testing.T) *runner.RunResult {
	t.Helper()
	file, err := parser.Parse("### Users\nGET {{host}}/users\n\n###\nGET {{host}}/missing\n\n###\nGET other.dev\n", "api.http")
	require.NoError(t, err)

	return &runner.RunResult{
		File: "api.http",
		Results: []*runner.RequestResult{
			{
				Index:    0,
				Name:     "Users",
				Template: file.Requests[0],
				Request:  &parser.Request{Method: "GET", URL: "localhost/users", Version: parser.HTTP11},
				Response: jsonResponse(`{"users":[{"name":"ada"}]}`),
				Duration: 12 * time.Millisecond,
				Passed:   true,
			},
			{
				Index:    1,
				Template: file.Requests[1],
				Error:    &template.FillError{Kind: template.MissingVariable, Variable: template.Variable{Name: "host"}},
			},
			{
				Index:      2,
				Template:   file.Requests[2],
				Skipped:    true,
				SkipReason: "filtered out",
			},
		},
		Duration: 20 * time.Millisecond,
		Passed:   1,
		Failed:   1,
		Skipped:  1,
	}
}

func TestFormatBody(t *testing.T) {
	t.Run("pretty json", func(t *testing.T) {
		body, err := FormatBody(jsonResponse(`{"a":1,"b":[1,2]}`), "")
		require.NoError(t, err)
		assert.Contains(t, body, "\n")
		assert.Contains(t, body, `"a": 1`)
	})

	t.Run("select object", func(t *testing.T) {
		body, err := FormatBody(jsonResponse(`{"user":{"id":7}}`), "user")
		require.NoError(t, err)
		assert.Contains(t, body, `"id": 7`)
	})

	t.Run("select string is unquoted", func(t *testing.T) {
		body, err := FormatBody(jsonResponse(`{"users":[{"name":"ada"}]}`), "users.0.name")
		require.NoError(t, err)
		assert.Equal(t, "ada", body)
	})

	t.Run("select missing path", func(t *testing.T) {
		_, err := FormatBody(jsonResponse(`{"a":1}`), "b")
		assert.Error(t, err)
	})

	t.Run("plain text", func(t *testing.T) {
		resp := &http.Response{Payload: http.ClassifyPayload("text/plain", []byte("hello"))}
		body, err := FormatBody(resp, "")
		require.NoError(t, err)
		assert.Equal(t, "hello", body)

		_, err = FormatBody(resp, "a")
		assert.Error(t, err)
	})

	t.Run("binary summarised", func(t *testing.T) {
		resp := &http.Response{Payload: http.ClassifyPayload("image/png", []byte{1, 2, 3})}
		body, err := FormatBody(resp, "")
		require.NoError(t, err)
		assert.Equal(t, "<3 bytes, png>", body)
	})
}

func TestConsoleFormatter_FormatResult(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatResult(sampleResult(t))

	out := buf.String()
	assert.Contains(t, out, "Running: api.http")
	assert.Contains(t, out, "✓ Users 200 OK (12ms)")
	assert.Contains(t, out, `"name": "ada"`)
	assert.Contains(t, out, "✗ GET {{host}}/missing (missing variable 'host')")
	assert.NotContains(t, out, "other.dev", "filtered requests are hidden")
	assert.Contains(t, out, "1 sent, 1 failed, 1 skipped, 3 total")
}

func TestConsoleFormatter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true), WithShowBody(false))
	f.FormatResult(sampleResult(t))

	out := buf.String()
	assert.Contains(t, out, "GET localhost/users")
	assert.Contains(t, out, "< Content-Type: application/json")
	assert.Contains(t, out, "- GET other.dev")
	assert.NotContains(t, out, "ada")
}

func TestConsoleFormatter_FormatParseError(t *testing.T) {
	_, err := parser.Parse("GET foo.bar HTTP/4.0", "api.http")
	require.Error(t, err)

	var buf bytes.Buffer
	NewConsoleFormatter(WithWriter(&buf), WithNoColor(true)).FormatError(err)

	lines := strings.Split(buf.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[0], "api.http:1:13")
	assert.Equal(t, "  GET foo.bar HTTP/4.0", lines[1])
	assert.Equal(t, "  "+strings.Repeat(" ", 12)+"^", lines[2])
}

func TestConsoleFormatter_FormatRequests(t *testing.T) {
	file, err := parser.Parse("### Users\nGET {{host}}/users\n###\nPOST x.dev\n", "")
	require.NoError(t, err)

	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatRequests(file, false)
	assert.Equal(t, "  1  GET {{host}}/users # Users\n  2  POST x.dev\n", buf.String())

	buf.Reset()
	f.FormatRequests(file, true)
	assert.Equal(t, parser.RenderFile(file), buf.String())
}

func TestConsoleFormatter_FormatVariables(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatVariables(template.Vars{
		"b":   template.MustParse("{{a}}/x"),
		"a":   template.RawString("1"),
		"pad": template.RawString(" p "),
	})
	assert.Equal(t, "@a = 1\n@b = {{a}}/x\n@pad =  p \n", buf.String())
}

func TestConsoleFormatter_FormatHistory(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	f.FormatHistory([]*history.Entry{
		{ID: "0123456789abcdef", Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), Method: "GET", URL: "a.dev", Status: 200, DurationMs: 5},
		{ID: "x", Method: "POST", URL: "b.dev", Error: "dial tcp: refused"},
	})

	out := buf.String()
	assert.Contains(t, out, "01234567  2024-05-01 10:00:00  200  GET a.dev (5ms)")
	assert.Contains(t, out, "ERR  POST b.dev")
	assert.Contains(t, out, "dial tcp: refused")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf), JSONWithBody(true))
	f.FormatResult(sampleResult(t))
	f.FormatError(errors.New("other.http: boom"))
	require.NoError(t, f.Flush(30*time.Millisecond))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, JSONSummary{Total: 3, Passed: 1, Failed: 1, Skipped: 1}, out.Summary)
	assert.Equal(t, []string{"other.http: boom"}, out.Errors)
	require.Len(t, out.Requests, 3)

	first := out.Requests[0]
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, "HTTP/1.1", first.Request.Version)
	assert.Equal(t, "text", first.Response.Payload)
	assert.JSONEq(t, `{"users":[{"name":"ada"}]}`, string(first.Response.Body))

	assert.Equal(t, "missing variable 'host'", out.Requests[1].Error)
	assert.Nil(t, out.Requests[1].Request)
	assert.Empty(t, out.Requests[2].SkipReason)
}

func TestNewFormatter(t *testing.T) {
	f, err := NewFormatter("console", Options{})
	require.NoError(t, err)
	assert.IsType(t, &ConsoleFormatter{}, f)

	f, err = NewFormatter("json", Options{})
	require.NoError(t, err)
	_, ok := f.(Flushable)
	assert.True(t, ok)

	_, err = NewFormatter("xml", Options{})
	assert.Error(t, err)
}
