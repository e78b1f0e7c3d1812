package parser

import (
	"testing"

	"github.com/abdul-hamid-achik/rq/packages/core/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, input string) *File {
	t.Helper()
	file, err := Parse(input, "test.http")
	require.NoError(t, err)
	return file
}

func assertTemplate(t *testing.T, expected, actual template.String) {
	t.Helper()
	assert.True(t, expected.Equal(actual), "got %#v, want %#v", actual.Fragments(), expected.Fragments())
}

func TestParser_EmptyInput(t *testing.T) {
	file := mustParse(t, "")
	assert.Empty(t, file.Requests)
	assert.Empty(t, file.Variables)
}

func TestParser_SingleRequest(t *testing.T) {
	file := mustParse(t, "GET foo.bar HTTP/1.1\n\n")
	require.Len(t, file.Requests, 1)

	req := file.Requests[0]
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "foo.bar", req.URL.String())
	assert.Equal(t, HTTP11, req.Version)
	assert.Empty(t, req.Headers)
	assert.Empty(t, req.Query)
	assert.True(t, req.Body.IsEmpty())
	assert.Equal(t, 1, req.Line)
}

func TestParser_OptionalMethod(t *testing.T) {
	file := mustParse(t, "foo.bar HTTP/1.1\n\n")
	require.Len(t, file.Requests, 1)
	assert.Equal(t, DefaultMethod, file.Requests[0].Method)
	assert.Equal(t, "foo.bar", file.Requests[0].URL.String())
}

func TestParser_OptionalVersion(t *testing.T) {
	file := mustParse(t, `
GET foo.bar

`)
	require.Len(t, file.Requests, 1)
	assert.Equal(t, DefaultVersion, file.Requests[0].Version)
}

func TestParser_URLOnly(t *testing.T) {
	file := mustParse(t, "https://example.com/health")
	require.Len(t, file.Requests, 1)
	assert.Equal(t, "GET", file.Requests[0].Method)
	assert.Equal(t, "https://example.com/health", file.Requests[0].URL.String())
}

func TestParser_Versions(t *testing.T) {
	tests := []struct {
		input    string
		expected Version
	}{
		{"GET a HTTP/0.9", HTTP09},
		{"GET a HTTP/1.0", HTTP10},
		{"GET a HTTP/1.1", HTTP11},
		{"GET a HTTP/2.0", HTTP20},
		{"GET a HTTP/3.0", HTTP30},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			file := mustParse(t, tt.input)
			require.Len(t, file.Requests, 1)
			assert.Equal(t, tt.expected, file.Requests[0].Version)
			assert.Equal(t, tt.input[6:], file.Requests[0].Version.String())
		})
	}
}

func TestParser_VarInURL(t *testing.T) {
	file := mustParse(t, `
GET foo{{url}}bar HTTP/1.1

`)
	assertTemplate(t, template.New(template.Raw("foo"), template.Var("url"), template.Raw("bar")), file.Requests[0].URL)
}

func TestParser_Headers(t *testing.T) {
	file := mustParse(t, `
POST test.dev HTTP/1.0
authorization: Bearer xxxx
Content-Type:application/json

`)
	require.Len(t, file.Requests, 1)
	req := file.Requests[0]
	assert.Equal(t, HTTP10, req.Version)
	require.Len(t, req.Headers, 2)
	assert.Equal(t, "Bearer xxxx", req.Headers["authorization"].String())
	assert.Equal(t, "application/json", req.Headers["Content-Type"].String())
}

func TestParser_VarInHeaders(t *testing.T) {
	file := mustParse(t, `
POST test.dev HTTP/1.0
aabb: {{value}}{{barbar}}

`)
	assertTemplate(t, template.New(template.Var("value"), template.Var("barbar")), file.Requests[0].Headers["aabb"])
}

func TestParser_QuotedHeaderValue(t *testing.T) {
	file := mustParse(t, "GET test.dev\nx-pad: '  x  '\n")
	assertTemplate(t, template.RawString("  x  "), file.Requests[0].Headers["x-pad"])
}

func TestParser_CommentsBetweenHeaders(t *testing.T) {
	file := mustParse(t, `
# list users
GET test.dev
// accept anything
Accept: */*
# X-Debug: 1

`)
	require.Len(t, file.Requests, 1)
	assert.Len(t, file.Requests[0].Headers, 1)
}

func TestParser_Body(t *testing.T) {
	file := mustParse(t, `
POST test.dev HTTP/1.0

{ "test": "body" }`)
	assert.Equal(t, `{ "test": "body" }`, file.Requests[0].Body.String())
}

func TestParser_MultilineBody(t *testing.T) {
	file := mustParse(t, `
POST test.dev
Content-Type: application/json


{
  "name": "{{name}}",

  "tags": []
}


###
GET other.dev
`)
	require.Len(t, file.Requests, 2)
	body, err := file.Requests[0].Body.Fill(template.Vars{"name": template.RawString("rq")})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"rq\",\n\n  \"tags\": []\n}", body)
}

func TestParser_VarInBody(t *testing.T) {
	file := mustParse(t, `
POST test.dev HTTP/1.0

aaa{{var}}bbb`)
	assertTemplate(t, template.New(template.Raw("aaa"), template.Var("var"), template.Raw("bbb")), file.Requests[0].Body)
}

func TestParser_MultipleRequests(t *testing.T) {
	file := mustParse(t, `
POST test.dev HTTP/1.0
authorization: token

###

GET test.dev HTTP/1.0

`)
	require.Len(t, file.Requests, 2)
	assert.Equal(t, "POST", file.Requests[0].Method)
	assert.Equal(t, "GET", file.Requests[1].Method)
	assert.Equal(t, 7, file.Requests[1].Line)
}

func TestParser_NamedSeparator(t *testing.T) {
	file := mustParse(t, `### List users
GET test.dev/users

### Create user
POST test.dev/users

###
DELETE test.dev/users/1
`)
	require.Len(t, file.Requests, 3)
	assert.Equal(t, "List users", file.Requests[0].Name)
	assert.Equal(t, "Create user", file.Requests[1].Name)
	assert.Equal(t, "", file.Requests[2].Name)
}

func TestParser_EmptyBlocksAreSkipped(t *testing.T) {
	file := mustParse(t, "###\n\n###\nGET a\n###\n# nothing here\n###\n")
	require.Len(t, file.Requests, 1)
	assert.Equal(t, "a", file.Requests[0].URL.String())
}

func TestParser_QueryParams(t *testing.T) {
	file := mustParse(t, `
POST test.dev?foo=bar&baz=2&fif=fof HTTP/1.0
authorization: token

`)
	require.Len(t, file.Requests, 1)
	req := file.Requests[0]
	assert.Equal(t, "test.dev", req.URL.String())
	require.Len(t, req.Query, 3)
	assertTemplate(t, template.RawString("bar"), req.Query["foo"])
	assertTemplate(t, template.RawString("2"), req.Query["baz"])
	assertTemplate(t, template.RawString("fof"), req.Query["fif"])
	assert.Equal(t, "token", req.Headers["authorization"].String())
}

func TestParser_QueryParamsWithQuotes(t *testing.T) {
	file := mustParse(t, `
POST test.dev?foo=" bar"&baz='  &ciao' HTTP/1.0
authorization: token

`)
	require.Len(t, file.Requests, 1)
	req := file.Requests[0]
	require.Len(t, req.Query, 2)
	assertTemplate(t, template.RawString(" bar"), req.Query["foo"])
	assertTemplate(t, template.RawString("  &ciao"), req.Query["baz"])
	assert.Equal(t, HTTP10, req.Version)
}

func TestParser_MultilineQuery(t *testing.T) {
	multiline := mustParse(t, `
POST test.dev
        ?foo=bar
        &baz=42 HTTP/1.0
authorization: token

`)
	single := mustParse(t, `
POST test.dev?foo=bar&baz=42 HTTP/1.0
authorization: token

`)

	require.Len(t, multiline.Requests, 1)
	m, s := multiline.Requests[0], single.Requests[0]
	assert.Equal(t, s.Method, m.Method)
	assertTemplate(t, s.URL, m.URL)
	assert.Equal(t, s.Version, m.Version)
	require.Len(t, m.Query, 2)
	for key, value := range s.Query {
		assertTemplate(t, value, m.Query[key])
	}
	assert.Equal(t, "token", m.Headers["authorization"].String())
}

func TestParser_MultilineQueryWithTabsAndTrailingSpace(t *testing.T) {
	file := mustParse(t, "POST test.dev\n\t?foo=bar   \n\t&baz=42\t&qux=1 HTTP/1.0\n")
	require.Len(t, file.Requests, 1)
	assert.Len(t, file.Requests[0].Query, 3)
	assert.Equal(t, HTTP10, file.Requests[0].Version)
}

func TestParser_SpaceBeforeQuery(t *testing.T) {
	file := mustParse(t, "GET localhost ?a=1 HTTP/1.0")
	req := file.Requests[0]
	assertTemplate(t, template.RawString("localhost"), req.URL)
	assertTemplate(t, template.RawString("1"), req.Query["a"])
	assert.Equal(t, HTTP10, req.Version)
}

func TestParser_VarInQuery(t *testing.T) {
	file := mustParse(t, `
POST test.dev
        ?foo=aaa{{var}}
        &baz="bbb"{{var2}} HTTP/1.0
authorization: token

`)
	req := file.Requests[0]
	assertTemplate(t, template.New(template.Raw("aaa"), template.Var("var")), req.Query["foo"])
	assertTemplate(t, template.New(template.Raw("bbb"), template.Var("var2")), req.Query["baz"])
}

func TestParser_FileVariables(t *testing.T) {
	file := mustParse(t, `
@name = foo
@bar = baz
@foo = " 123"

###

POST test.dev
        ?foo=bar
        &baz=42 HTTP/1.0
authorization: token

`)
	assert.Len(t, file.Variables, 3)
	assertTemplate(t, template.RawString("foo"), file.Variables["name"])
	assertTemplate(t, template.RawString("baz"), file.Variables["bar"])
	assertTemplate(t, template.RawString(" 123"), file.Variables["foo"])
	assert.Len(t, file.Requests, 1)
}

func TestParser_VarInFileVar(t *testing.T) {
	file := mustParse(t, `
@name = foo
@bar = aaa{{var}}
@foo = " 123"

###

POST test.dev HTTP/1.0
`)
	assertTemplate(t, template.New(template.Raw("aaa"), template.Var("var")), file.Variables["bar"])
}

func TestParser_VariablesWithoutSeparator(t *testing.T) {
	file := mustParse(t, "@host=example.com\n\nGET {{host}}/a\n")
	assert.Len(t, file.Variables, 1)
	require.Len(t, file.Requests, 1)
	assertTemplate(t, template.New(template.Var("host"), template.Raw("/a")), file.Requests[0].URL)
}

func TestParser_FileVariableFill(t *testing.T) {
	file := mustParse(t, "@name = foo\n@bar = aaa{{var}}\n\n###\n\nGET {{name}} HTTP/1.1\n\n")

	vars := file.Variables.Clone()
	vars["var"] = template.RawString("X")
	bar, err := file.Variables["bar"].Fill(vars)
	require.NoError(t, err)
	assert.Equal(t, "aaaX", bar)

	require.Len(t, file.Requests, 1)
	url, err := file.Requests[0].URL.Fill(template.Vars{"name": template.RawString("foo")})
	require.NoError(t, err)
	assert.Equal(t, "foo", url)
}

func TestParser_CRLF(t *testing.T) {
	file := mustParse(t, "GET test.dev HTTP/1.1\r\nAccept: text/plain\r\n\r\nhello\r\n")
	require.Len(t, file.Requests, 1)
	assert.Equal(t, "text/plain", file.Requests[0].Headers["Accept"].String())
	assert.Equal(t, "hello", file.Requests[0].Body.String())
}

func TestParser_QuotedURL(t *testing.T) {
	file := mustParse(t, `"test.dev/a b" HTTP/1.1`)
	require.Len(t, file.Requests, 1)
	assert.Equal(t, "GET", file.Requests[0].Method)
	assertTemplate(t, template.RawString("test.dev/a b"), file.Requests[0].URL)
}

func TestParser_QuotesStrippedPerRunInEverySlot(t *testing.T) {
	file := mustParse(t, "@v = \"a\"b\"c\"\n\nGET x?a=\"a\"b\"c\"\nX: \"a\"b\"c\"\n")
	req := file.Requests[0]
	want := template.New(template.Raw(`a"b"c`))

	assert.True(t, want.Equal(file.Variables["v"]))
	assert.True(t, want.Equal(req.Query["a"]))
	assert.True(t, want.Equal(req.Headers["X"]))

	file = mustParse(t, `GET "foo"bar`)
	assert.True(t, template.New(template.Raw(`"foo"bar`)).Equal(file.Requests[0].URL))
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		column  int
		message string
	}{
		{
			name:    "lowercase method",
			input:   "get foo.bar",
			line:    1,
			column:  1,
			message: `invalid HTTP method "get"`,
		},
		{
			name:    "unknown method",
			input:   "\nFETCH foo.bar HTTP/1.1",
			line:    2,
			column:  1,
			message: `invalid HTTP method "FETCH"`,
		},
		{
			name:    "unknown version",
			input:   "GET foo.bar HTTP/4.0",
			line:    1,
			column:  13,
			message: `unknown HTTP version "HTTP/4.0"`,
		},
		{
			name:    "unterminated quote in query",
			input:   "GET foo.bar?a=\"open HTTP/1.1",
			line:    1,
			column:  15,
			message: "unterminated quote",
		},
		{
			name:    "unterminated quote in header",
			input:   "GET foo.bar\nX-Name: \"abc",
			line:    2,
			column:  9,
			message: "unterminated quote",
		},
		{
			name:    "unterminated quote in variable",
			input:   "@a = 'abc\nGET foo.bar",
			line:    1,
			column:  6,
			message: "unterminated quote",
		},
		{
			name:    "query without equals",
			input:   "GET foo.bar?flag HTTP/1.1",
			line:    1,
			column:  17,
			message: `expected '=' after query parameter "flag"`,
		},
		{
			name:    "garbage after version",
			input:   "GET foo.bar HTTP/1.1 extra",
			line:    1,
			column:  22,
			message: `unexpected "extra" after HTTP version`,
		},
		{
			name:    "invalid header",
			input:   "GET foo.bar\nnot a header",
			line:    2,
			column:  1,
			message: "expected header in the form 'name: value'",
		},
		{
			name:    "variable without equals",
			input:   "@name foo\nGET a",
			line:    1,
			column:  7,
			message: `expected '=' after variable name "name"`,
		},
		{
			name:    "invalid variable name",
			input:   "@bad-name = 1",
			line:    1,
			column:  2,
			message: `invalid variable name "bad-name"`,
		},
		{
			name:    "error in a later request",
			input:   "GET a\n\n###\nGET b HTTP/9",
			line:    4,
			column:  7,
			message: `unknown HTTP version "HTTP/9"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := Parse(tt.input, "test.http")
			require.Error(t, err)
			assert.Nil(t, file)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, "test.http", parseErr.File)
			assert.Equal(t, tt.line, parseErr.Line)
			assert.Equal(t, tt.column, parseErr.Column)
			assert.Equal(t, tt.message, parseErr.Message)
		})
	}
}

func TestParseError_Format(t *testing.T) {
	err := &ParseError{File: "api.http", Line: 3, Column: 7, Message: "boom"}
	assert.Equal(t, "api.http:3:7: boom", err.Error())

	err.File = ""
	assert.Equal(t, "line 3, column 7: boom", err.Error())
}

func TestFile_Undefined(t *testing.T) {
	file := mustParse(t, `
@host = {{scheme}}://example.com

GET {{host}}/users/{{id}}
Authorization: Bearer {{token}}
`)
	assert.Equal(t, []string{"id", "scheme", "token"}, file.Undefined(nil))
	assert.Equal(t, []string{"id"}, file.Undefined(template.Vars{
		"scheme": template.RawString("https"),
		"token":  template.RawString("t"),
	}))
}
