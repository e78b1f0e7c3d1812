package output

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/rq/packages/http"
)

// FormatBody renders a response body for the terminal. JSON is
// pretty-printed; selectPath is a gjson path applied to JSON bodies first.
// Binary payloads are summarised rather than printed.
func FormatBody(resp *http.Response, selectPath string) (string, error) {
	payload := resp.Payload
	if payload.Kind != http.PayloadText {
		if selectPath != "" {
			return "", fmt.Errorf("cannot select %q from a binary response", selectPath)
		}
		desc := fmt.Sprintf("<%d bytes", len(payload.Bytes))
		if payload.Extension != "" {
			desc += ", " + payload.Extension
		}
		return desc + ">", nil
	}

	text := payload.Text
	if !resp.IsJSON() || !gjson.Valid(text) {
		if selectPath != "" {
			return "", fmt.Errorf("cannot select %q from a non-JSON response", selectPath)
		}
		return text, nil
	}

	if selectPath != "" {
		res := gjson.Get(text, selectPath)
		if !res.Exists() {
			return "", fmt.Errorf("path %q not found in response", selectPath)
		}
		if res.Type == gjson.String {
			return res.String(), nil
		}
		text = res.Raw
	}
	return strings.TrimRight(gjson.Get(text, "@pretty").Raw, "\n"), nil
}
