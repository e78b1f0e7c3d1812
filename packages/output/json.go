package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/rq/packages/core/runner"
	"github.com/abdul-hamid-achik/rq/packages/http"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary   `json:"summary"`
	Requests []JSONRequest `json:"requests"`
	Errors   []string      `json:"errors,omitempty"`
	Duration float64       `json:"duration"`
	Time     string        `json:"time"`
}

// JSONSummary represents the run summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// JSONRequest represents a single request result
type JSONRequest struct {
	Index      int           `json:"index"`
	Name       string        `json:"name,omitempty"`
	File       string        `json:"file"`
	Passed     bool          `json:"passed"`
	Skipped    bool          `json:"skipped,omitempty"`
	SkipReason string        `json:"skipReason,omitempty"`
	Duration   float64       `json:"duration"`
	Error      string        `json:"error,omitempty"`
	Request    *JSONSent     `json:"request,omitempty"`
	Response   *JSONResponse `json:"response,omitempty"`
}

// JSONSent represents the resolved request
type JSONSent struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Query   map[string]string `json:"query,omitempty"`
	Version string            `json:"version"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// JSONResponse represents response details
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Proto      string            `json:"proto"`
	Headers    map[string]string `json:"headers,omitempty"`
	Payload    string            `json:"payload"`
	Extension  string            `json:"extension,omitempty"`
	Charset    string            `json:"charset,omitempty"`
	Body       json.RawMessage   `json:"body,omitempty"`
	Text       string            `json:"text,omitempty"`
	Size       int               `json:"size"`
	Duration   float64           `json:"duration"`
}

// JSONFormatter formats run results as JSON
type JSONFormatter struct {
	writer   io.Writer
	withBody bool
	results  []JSONRequest
	errors   []string
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONRequest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// JSONWithBody includes response bodies. JSON bodies are embedded as
// values, other text as a string.
func JSONWithBody(include bool) JSONOption {
	return func(f *JSONFormatter) {
		f.withBody = include
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		entry := JSONRequest{
			Index:    r.Index + 1,
			Name:     r.Name,
			File:     result.File,
			Passed:   r.Passed,
			Skipped:  r.Skipped,
			Duration: float64(r.Duration.Milliseconds()),
		}

		if r.SkipReason != "" && r.SkipReason != "filtered out" {
			entry.SkipReason = r.SkipReason
		}

		if r.Error != nil {
			entry.Error = r.Error.Error()
		}

		if r.Request != nil {
			entry.Request = &JSONSent{
				Method:  r.Request.Method,
				URL:     r.Request.URL,
				Query:   r.Request.Query,
				Version: r.Request.Version.String(),
				Headers: r.Request.Headers,
				Body:    r.Request.Body,
			}
		}

		if r.Response != nil {
			entry.Response = f.response(r.Response)
		}

		f.results = append(f.results, entry)
	}
}

func (f *JSONFormatter) response(resp *http.Response) *JSONResponse {
	out := &JSONResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Proto:      resp.Proto,
		Headers:    resp.Headers,
		Payload:    resp.Payload.Kind.String(),
		Extension:  resp.Payload.Extension,
		Charset:    resp.Payload.Charset,
		Size:       len(resp.Payload.Bytes),
		Duration:   float64(resp.Duration.Milliseconds()),
	}
	if !f.withBody || resp.Payload.Kind != http.PayloadText {
		return out
	}
	if resp.IsJSON() && json.Valid([]byte(resp.Payload.Text)) {
		out.Body = json.RawMessage(resp.Payload.Text)
	} else {
		out.Text = resp.Payload.Text
	}
	return out
}

// FormatError records errors that stopped a whole file.
func (f *JSONFormatter) FormatError(err error) {
	f.errors = append(f.errors, err.Error())
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var passed, failed, skipped int
	for _, r := range f.results {
		if r.Skipped {
			skipped++
		} else if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	output := JSONOutput{
		Summary: JSONSummary{
			Total:   len(f.results),
			Passed:  passed,
			Failed:  failed,
			Skipped: skipped,
		},
		Requests: f.results,
		Errors:   f.errors,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
