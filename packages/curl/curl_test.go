package curl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/rq/packages/core/parser"
	"github.com/abdul-hamid-achik/rq/packages/core/template"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		method  string
		url     string
		body    string
		headers map[string]string
	}{
		{
			name:    "simple get",
			cmd:     `curl https://api.example.com/users`,
			method:  "GET",
			url:     "https://api.example.com/users",
			headers: map[string]string{},
		},
		{
			name:    "post with data",
			cmd:     `curl -X POST https://api.example.com/users -d '{"name":"John"}'`,
			method:  "POST",
			url:     "https://api.example.com/users",
			body:    `{"name":"John"}`,
			headers: map[string]string{},
		},
		{
			name:    "implicit post",
			cmd:     `curl https://api.example.com/users --data-raw 'a=1' --data 'b=2'`,
			method:  "POST",
			url:     "https://api.example.com/users",
			body:    "a=1&b=2",
			headers: map[string]string{},
		},
		{
			name:   "headers",
			cmd:    `curl -H "Content-Type: application/json" -H "Authorization: Bearer token123" https://api.example.com/users`,
			method: "GET",
			url:    "https://api.example.com/users",
			headers: map[string]string{
				"Content-Type":  "application/json",
				"Authorization": "Bearer token123",
			},
		},
		{
			name:   "json flag",
			cmd:    `curl --json '{"a":1}' https://api.example.com/items`,
			method: "POST",
			url:    "https://api.example.com/items",
			body:   `{"a":1}`,
			headers: map[string]string{
				"Content-Type": "application/json",
				"Accept":       "application/json",
			},
		},
		{
			name:    "get data",
			cmd:     `curl -G https://api.example.com/search -d q=rq -d page=2`,
			method:  "GET",
			url:     "https://api.example.com/search?q=rq&page=2",
			headers: map[string]string{},
		},
		{
			name:   "shorthand headers",
			cmd:    `curl -A rq/1.0 -e https://example.com -b "session=abc" {{base}}/me`,
			method: "GET",
			url:    "{{base}}/me",
			headers: map[string]string{
				"User-Agent": "rq/1.0",
				"Referer":    "https://example.com",
				"Cookie":     "session=abc",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := NewConverter().Parse(tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.method, parsed.Method)
			assert.Equal(t, tt.url, parsed.URL)
			assert.Equal(t, tt.body, parsed.Body)
			assert.Equal(t, tt.headers, parsed.Headers)
		})
	}
}

func TestParse_Flags(t *testing.T) {
	parsed, err := NewConverter().Parse(`curl -k -L --compressed https://api.example.com/users`)
	require.NoError(t, err)
	assert.True(t, parsed.Insecure)
	assert.True(t, parsed.FollowRedirects)
	assert.Equal(t, "https://api.example.com/users", parsed.URL)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		want string
	}{
		{"bare curl", "curl", "no URL specified"},
		{"no url", "curl -X GET", "no URL found"},
		{"missing header value", "curl https://example.com -H", "missing value for -H"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConverter().Parse(tt.cmd)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestToRequest(t *testing.T) {
	c := NewConverter()
	parsed, err := c.Parse(`curl -X PUT 'https://api.example.com/users/{{id}}?fields=name&q=a%20b' -H 'Authorization: Bearer {{token}}' -d '{"name":"{{name}}"}'`)
	require.NoError(t, err)

	req, err := c.ToRequest(parsed)
	require.NoError(t, err)

	assert.Equal(t, "put_users_id", req.Name)
	assert.Equal(t, "PUT", req.Method)
	assert.Equal(t, parser.DefaultVersion, req.Version)
	assert.True(t, template.New(template.Raw("https://api.example.com/users/"), template.Var("id")).Equal(req.URL))
	assert.Equal(t, "name", req.Query["fields"].String())
	assert.Equal(t, "a b", mustFill(t, req.Query["q"], nil))
	assert.Equal(t, []string{"token"}, req.Headers["Authorization"].Variables())
	assert.Equal(t, []string{"name"}, req.Body.Variables())
}

func TestToRequest_BasicAuth(t *testing.T) {
	c := NewConverter()
	parsed, err := c.Parse(`curl -u admin:password123 https://api.example.com/admin`)
	require.NoError(t, err)

	req, err := c.ToRequest(parsed)
	require.NoError(t, err)
	assert.Equal(t, "Basic YWRtaW46cGFzc3dvcmQxMjM=", req.Headers["Authorization"].String())

	parsed.BasicAuth = "admin"
	_, err = c.ToRequest(parsed)
	assert.Error(t, err)
}

func TestToRequest_UnknownMethod(t *testing.T) {
	c := NewConverter()
	parsed, err := c.Parse(`curl -X PURGE https://cdn.example.com/asset`)
	require.NoError(t, err)

	_, err = c.ToRequest(parsed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported method "PURGE"`)
}

func TestConvertCommand(t *testing.T) {
	out, err := NewConverter().ConvertCommand(`curl -X POST https://api.example.com/users -H "Content-Type: application/json" -d '{"name":"Test"}'`)
	require.NoError(t, err)

	f, err := parser.Parse(out, "")
	require.NoError(t, err)
	require.Len(t, f.Requests, 1)

	req := f.Requests[0]
	assert.Equal(t, "post_users", req.Name)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "https://api.example.com/users", req.URL.String())
	assert.Equal(t, "application/json", req.Headers["Content-Type"].String())
	assert.Equal(t, `{"name":"Test"}`, req.Body.String())
}

func TestConvert(t *testing.T) {
	input := `# saved from the browser
curl https://api.example.com/users

curl -X DELETE \
  https://api.example.com/users/1 \
  -k
`
	f, cmds, err := NewConverter(WithNames(false)).Convert(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, f.Requests, 2)
	require.Len(t, cmds, 2)
	assert.Empty(t, f.Requests[0].Name)
	assert.Equal(t, "DELETE", f.Requests[1].Method)
	assert.True(t, cmds[1].Insecure)

	reparsed, err := parser.Parse(parser.RenderFile(f), "")
	require.NoError(t, err)
	require.Len(t, reparsed.Requests, 2)
	assert.Equal(t, "https://api.example.com/users/1", reparsed.Requests[1].URL.String())

	_, _, err = NewConverter().Convert(strings.NewReader("curl -X GET\n"))
	assert.ErrorContains(t, err, "command 1")
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{`simple command`, []string{"simple", "command"}},
		{`"quoted string"`, []string{"quoted string"}},
		{`'single quoted'`, []string{"single quoted"}},
		{`-H "Content-Type: application/json"`, []string{"-H", "Content-Type: application/json"}},
		{`'{"key": "value"}'`, []string{`{"key": "value"}`}},
		{`a\ b`, []string{"a b"}},
		{`'a\b'`, []string{`a\b`}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, tokenize(tt.input))
		})
	}
}

func TestGenerateName(t *testing.T) {
	tests := []struct {
		url    string
		method string
		want   string
	}{
		{"https://api.example.com/users", "GET", "get_users"},
		{"https://api.example.com/users/123", "POST", "post_users_123"},
		{"https://api.example.com/", "GET", "get_root"},
		{"https://api.example.com/user-profile", "PUT", "put_user_profile"},
		{"https://api.example.com/search?q=x", "GET", "get_search"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, generateName(tt.url, tt.method))
		})
	}
}

func mustFill(t *testing.T, s template.String, vars template.Vars) string {
	t.Helper()
	out, err := s.Fill(vars)
	require.NoError(t, err)
	return out
}
