package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/abdul-hamid-achik/rq/packages/core/parser"
)

// DefaultScheme is prepended to URLs written without one, such as
// "localhost:8080/users".
const DefaultScheme = "http://"

// BuildURL adds the default scheme when missing and merges query into the
// URL's existing query string.
func BuildURL(rawURL string, query map[string]string) (string, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = DefaultScheme + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: missing host", rawURL)
	}

	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// NewHTTPRequest converts a resolved request. The version is recorded on
// the request but the transport negotiates the protocol on its own.
func NewHTTPRequest(ctx context.Context, req *parser.Request) (*http.Request, error) {
	target, err := BuildURL(req.URL, req.Query)
	if err != nil {
		return nil, err
	}
	if err := ValidateURL(target); err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}

	httpReq.ProtoMajor, httpReq.ProtoMinor = req.Version.ProtoMajorMinor()
	httpReq.Proto = req.Version.String()

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// ValidateURL checks that rawURL is an absolute http or https URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q (only http and https are supported)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}
	return nil
}
