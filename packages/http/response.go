package http

import (
	"strings"
	"time"
)

type Response struct {
	StatusCode int
	Status     string
	Proto      string
	Headers    map[string]string
	Payload    Payload
	Duration   time.Duration
}

// BodyString returns the decoded text for text payloads and the raw bytes
// otherwise.
func (r *Response) BodyString() string {
	if r.Payload.Kind == PayloadText {
		return r.Payload.Text
	}
	return string(r.Payload.Bytes)
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return r.Payload.Extension == "json"
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
