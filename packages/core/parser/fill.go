package parser

import (
	"github.com/abdul-hamid-achik/rq/packages/core/template"
)

// Fill resolves the request against vars. URL, query values, header values
// and body are resolved in that order and the first error is returned; no
// partial request is produced.
func (r *TemplateRequest) Fill(vars template.Vars) (*Request, error) {
	url, err := r.URL.Fill(vars)
	if err != nil {
		return nil, err
	}

	query, err := r.Query.Fill(vars)
	if err != nil {
		return nil, err
	}

	headers, err := r.Headers.Fill(vars)
	if err != nil {
		return nil, err
	}

	body, err := r.Body.Fill(vars)
	if err != nil {
		return nil, err
	}

	return &Request{
		Method:  r.Method,
		URL:     url,
		Query:   query,
		Version: r.Version,
		Headers: headers,
		Body:    body,
	}, nil
}
