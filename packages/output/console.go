package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/rq/packages/core/parser"
	"github.com/abdul-hamid-achik/rq/packages/core/runner"
	"github.com/abdul-hamid-achik/rq/packages/core/template"
	"github.com/abdul-hamid-achik/rq/packages/history"
	"github.com/abdul-hamid-achik/rq/packages/http"
)

type ConsoleFormatter struct {
	writer     io.Writer
	verbose    bool
	noColor    bool
	showBody   bool
	selectPath string
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer:   os.Stdout,
		showBody: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithShowBody controls whether response bodies are printed.
func WithShowBody(show bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.showBody = show
	}
}

// WithSelect sets a gjson path applied to JSON response bodies.
func WithSelect(path string) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.selectPath = path
	}
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 500:
		return color.New(color.FgRed, color.Bold)
	case code >= 400:
		return color.New(color.FgYellow)
	case code >= 300:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgGreen)
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Running: "+result.File))

	for _, r := range result.Results {
		if r.Skipped {
			if f.verbose || r.SkipReason != "filtered out" {
				fmt.Fprintf(f.writer, "  %s %s", yellow("-"), r.Label())
				if r.SkipReason != "" && r.SkipReason != "filtered out" {
					fmt.Fprintf(f.writer, " (%s)", r.SkipReason)
				}
				fmt.Fprintf(f.writer, "\n")
			}
			continue
		}

		if r.Error != nil {
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), r.Label(), red(fmt.Sprintf("(%v)", r.Error)))
			continue
		}

		resp := r.Response
		fmt.Fprintf(f.writer, "  %s %s %s %s\n",
			green("✓"), r.Label(),
			statusColor(resp.StatusCode).Sprint(resp.Status),
			cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))

		if f.verbose && r.Request != nil {
			fmt.Fprintf(f.writer, "    %s %s\n", r.Request.Method, r.Request.URL)
			f.writeHeaders("    > ", r.Request.Headers)
			fmt.Fprintf(f.writer, "    %s\n", resp.Proto)
			f.writeHeaders("    < ", resp.Headers)
		}

		if f.showBody {
			f.writeBody(resp)
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Requests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d sent", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	total := result.Passed + result.Failed + result.Skipped
	fmt.Fprintf(f.writer, "%d total\n", total)
	fmt.Fprintf(f.writer, "Time:     %dms\n", result.Duration.Milliseconds())
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) writeHeaders(prefix string, headers map[string]string) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(f.writer, "%s%s: %s\n", prefix, k, headers[k])
	}
}

func (f *ConsoleFormatter) writeBody(resp *http.Response) {
	body, err := FormatBody(resp, f.selectPath)
	if err != nil {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(f.writer, "    %s\n", red(err.Error()))
		return
	}
	if body == "" {
		return
	}
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(f.writer, "    %s\n", line)
	}
}

// FormatError prints err. Parse errors also show the offending line with
// a caret under the reported column.
func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)

	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) && parseErr.Snippet != "" {
		fmt.Fprintf(f.writer, "  %s\n", parseErr.Snippet)
		pad := strings.Repeat(" ", max(parseErr.Column-1, 0))
		fmt.Fprintf(f.writer, "  %s%s\n", pad, red("^"))
	}
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("rq"), version)
}

// FormatRequests lists the requests of a file, one line each, or in full
// request-file syntax when raw is set.
func (f *ConsoleFormatter) FormatRequests(file *parser.File, raw bool) {
	if raw {
		fmt.Fprint(f.writer, parser.RenderFile(file))
		return
	}

	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	for i, req := range file.Requests {
		name := ""
		if req.Name != "" {
			name = " " + dim("# "+req.Name)
		}
		fmt.Fprintf(f.writer, "%3d  %s %s%s\n", i+1, bold(req.Method), highlightTemplate(req.URL), name)
	}
}

// FormatVariables prints a variable table, highlighting references.
func (f *ConsoleFormatter) FormatVariables(vars template.Vars) {
	blue := color.New(color.FgBlue).SprintFunc()
	for _, name := range vars.Names() {
		fmt.Fprintf(f.writer, "@%s = %s\n", blue(name), highlightTemplate(vars[name]))
	}
}

// FormatUndefined reports variables referenced but never defined.
func (f *ConsoleFormatter) FormatUndefined(path string, names []string) {
	yellow := color.New(color.FgYellow).SprintFunc()
	for _, name := range names {
		fmt.Fprintf(f.writer, "%s %s: undefined variable %s\n", yellow("warning:"), path, name)
	}
}

// FormatHistory prints history entries, newest first.
func (f *ConsoleFormatter) FormatHistory(entries []*history.Entry) {
	red := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	for _, e := range entries {
		status := red("ERR")
		if e.Error == "" {
			status = statusColor(e.Status).Sprintf("%d", e.Status)
		}
		fmt.Fprintf(f.writer, "%s  %s  %-3s  %s %s %s\n",
			dim(shortID(e.ID)),
			e.Time.Format("2006-01-02 15:04:05"),
			status, e.Method, e.URL,
			dim(fmt.Sprintf("(%dms)", e.DurationMs)))
		if e.Error != "" && f.verbose {
			fmt.Fprintf(f.writer, "          %s\n", red(e.Error))
		}
	}
}

func highlightTemplate(s template.String) string {
	magenta := color.New(color.FgMagenta).SprintFunc()
	var b strings.Builder
	for _, frag := range s.Fragments() {
		if frag.Kind == template.FragmentVar {
			b.WriteString(magenta(frag.String()))
		} else {
			b.WriteString(frag.Text)
		}
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
