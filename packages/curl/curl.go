// Package curl converts curl command lines into request-file requests.
package curl

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/rq/packages/core/parser"
	"github.com/abdul-hamid-achik/rq/packages/core/template"
)

// Converter converts curl commands to requests.
type Converter struct {
	generateNames bool
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithNames configures whether requests are named after their method and path.
func WithNames(generate bool) Option {
	return func(c *Converter) {
		c.generateNames = generate
	}
}

// NewConverter creates a new curl converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		generateNames: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Command is a parsed curl command line. Insecure and FollowRedirects are
// client settings with no per-request equivalent; they are reported, not
// converted.
type Command struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            string
	BasicAuth       string
	Insecure        bool
	FollowRedirects bool
	Name            string
}

// ConvertCommand converts a single curl command to request-file text.
func (c *Converter) ConvertCommand(curlCmd string) (string, error) {
	parsed, err := c.Parse(curlCmd)
	if err != nil {
		return "", err
	}
	req, err := c.ToRequest(parsed)
	if err != nil {
		return "", err
	}
	return parser.RenderRequest(req), nil
}

// ConvertFile converts a file of curl commands, one per line or continued
// with trailing backslashes.
func (c *Converter) ConvertFile(path string) (*parser.File, []*Command, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return c.Convert(file)
}

// Convert reads curl commands from r and returns them as a request file,
// together with the parsed commands in the same order.
func (c *Converter) Convert(r io.Reader) (*parser.File, []*Command, error) {
	var commands []string
	var currentCmd strings.Builder
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Handle line continuations
		if strings.HasSuffix(line, "\\") {
			currentCmd.WriteString(strings.TrimSuffix(line, "\\"))
			currentCmd.WriteString(" ")
			continue
		}

		currentCmd.WriteString(line)
		commands = append(commands, currentCmd.String())
		currentCmd.Reset()
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read commands: %w", err)
	}

	// Handle any remaining command
	if currentCmd.Len() > 0 {
		commands = append(commands, currentCmd.String())
	}

	f := &parser.File{Variables: template.Vars{}}
	parsed := make([]*Command, 0, len(commands))
	for i, cmd := range commands {
		p, err := c.Parse(cmd)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to convert command %d: %w", i+1, err)
		}
		req, err := c.ToRequest(p)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to convert command %d: %w", i+1, err)
		}
		f.Requests = append(f.Requests, req)
		parsed = append(parsed, p)
	}

	return f, parsed, nil
}

// Parse parses a curl command string into a Command.
func (c *Converter) Parse(curlCmd string) (*Command, error) {
	parsed := &Command{
		Headers: make(map[string]string),
	}

	// Normalize the command
	curlCmd = strings.TrimSpace(curlCmd)

	// Remove "curl" prefix if present
	if strings.HasPrefix(curlCmd, "curl ") {
		curlCmd = strings.TrimPrefix(curlCmd, "curl ")
	} else if curlCmd == "curl" {
		return nil, fmt.Errorf("no URL specified")
	}

	tokens := tokenize(curlCmd)

	var data []string
	getData := false

	value := func(i int) (string, error) {
		if i+1 < len(tokens) {
			return tokens[i+1], nil
		}
		return "", fmt.Errorf("missing value for %s", tokens[i])
	}

	i := 0
	for i < len(tokens) {
		token := tokens[i]

		switch token {
		case "-X", "--request":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Method = strings.ToUpper(v)
			i += 2

		case "-H", "--header":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			if key, val, ok := strings.Cut(v, ":"); ok {
				parsed.Headers[strings.TrimSpace(key)] = strings.TrimSpace(val)
			}
			i += 2

		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii", "--data-urlencode":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			data = append(data, v)
			i += 2

		case "--json":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			data = append(data, v)
			setDefault(parsed.Headers, "Content-Type", "application/json")
			setDefault(parsed.Headers, "Accept", "application/json")
			i += 2

		case "-G", "--get":
			getData = true
			i++

		case "-u", "--user":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.BasicAuth = v
			i += 2

		case "-k", "--insecure":
			parsed.Insecure = true
			i++

		case "-L", "--location":
			parsed.FollowRedirects = true
			i++

		case "-A", "--user-agent":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers["User-Agent"] = v
			i += 2

		case "-e", "--referer":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers["Referer"] = v
			i += 2

		case "-b", "--cookie":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers["Cookie"] = v
			i += 2

		case "--url":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.URL = v
			i += 2

		default:
			if strings.HasPrefix(token, "-") {
				// Skip unknown flags with potential values
				if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
					i += 2
				} else {
					i++
				}
				continue
			}
			if parsed.URL == "" && isURL(token) {
				parsed.URL = token
			}
			i++
		}
	}

	if parsed.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}

	if len(data) > 0 {
		joined := strings.Join(data, "&")
		if getData {
			sep := "?"
			if strings.Contains(parsed.URL, "?") {
				sep = "&"
			}
			parsed.URL += sep + joined
		} else {
			parsed.Body = joined
		}
	}

	if parsed.Method == "" {
		switch {
		case parsed.Body != "":
			parsed.Method = "POST"
		default:
			parsed.Method = parser.DefaultMethod
		}
	}

	parsed.Name = generateName(parsed.URL, parsed.Method)

	return parsed, nil
}

// ToRequest builds a request from a parsed command. The query string is
// split into parameters; {{name}} references in any value are kept as
// variables.
func (c *Converter) ToRequest(cmd *Command) (*parser.TemplateRequest, error) {
	if !parser.IsKnownMethod(cmd.Method) {
		return nil, fmt.Errorf("unsupported method %q", cmd.Method)
	}

	req := &parser.TemplateRequest{
		Method:  cmd.Method,
		Version: parser.DefaultVersion,
		Query:   template.Map{},
		Headers: template.Map{},
	}
	if c.generateNames {
		req.Name = sanitizeName(cmd.Name)
	}

	rawURL, rawQuery, _ := strings.Cut(cmd.URL, "?")
	if i := strings.IndexByte(rawQuery, '#'); i >= 0 {
		rawQuery = rawQuery[:i]
	}

	var err error
	if req.URL, err = template.Parse(rawURL); err != nil {
		return nil, fmt.Errorf("url: %w", err)
	}

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, val, _ := strings.Cut(pair, "=")
		key, val = unescape(key), unescape(val)
		if req.Query[key], err = template.Parse(val); err != nil {
			return nil, fmt.Errorf("query %s: %w", key, err)
		}
	}

	for key, val := range cmd.Headers {
		if req.Headers[key], err = template.Parse(val); err != nil {
			return nil, fmt.Errorf("header %s: %w", key, err)
		}
	}

	if cmd.BasicAuth != "" {
		if !strings.Contains(cmd.BasicAuth, ":") {
			return nil, fmt.Errorf("--user %q has no password", cmd.BasicAuth)
		}
		token := base64.StdEncoding.EncodeToString([]byte(cmd.BasicAuth))
		req.Headers["Authorization"] = template.RawString("Basic " + token)
	}

	req.Body = template.ParseBody(cmd.Body)
	return req, nil
}

func setDefault(headers map[string]string, key, value string) {
	if _, ok := headers[key]; !ok {
		headers[key] = value
	}
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

// tokenize splits a curl command into tokens, respecting quotes.
func tokenize(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inSingleQuote {
				current.WriteRune(r)
			} else {
				escaped = true
			}
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// isURL checks if a string looks like a URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "{{")
}

var urlPathPattern = regexp.MustCompile(`https?://[^/]+(/[^?#]*)?`)

// generateName generates a request name from the URL and method.
func generateName(rawURL, method string) string {
	matches := urlPathPattern.FindStringSubmatch(rawURL)

	path := "/"
	if len(matches) > 1 && matches[1] != "" {
		path = matches[1]
	}

	path = strings.Trim(path, "/")
	if path == "" {
		path = "root"
	}

	path = strings.ReplaceAll(path, "/", "_")
	path = strings.ReplaceAll(path, "-", "_")

	return strings.ToLower(method) + "_" + path
}

var nonIdentPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// sanitizeName sanitizes a name for use as an identifier.
func sanitizeName(name string) string {
	result := nonIdentPattern.ReplaceAllString(name, "_")
	return strings.Trim(result, "_")
}
