package output

import (
	"fmt"
	"io"
	"time"

	"github.com/abdul-hamid-achik/rq/packages/core/runner"
)

type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
}

// Flushable is implemented by formatters that write everything at the end.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Options configure NewFormatter.
type Options struct {
	Writer   io.Writer
	Verbose  bool
	NoColor  bool
	Select   string
	ShowBody bool
}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, opts Options) (Formatter, error) {
	switch name {
	case "", "console":
		consoleOpts := []ConsoleOption{
			WithVerbose(opts.Verbose),
			WithNoColor(opts.NoColor),
			WithSelect(opts.Select),
			WithShowBody(opts.ShowBody),
		}
		if opts.Writer != nil {
			consoleOpts = append(consoleOpts, WithWriter(opts.Writer))
		}
		return NewConsoleFormatter(consoleOpts...), nil
	case "json":
		var jsonOpts []JSONOption
		if opts.Writer != nil {
			jsonOpts = append(jsonOpts, JSONWithWriter(opts.Writer))
		}
		if opts.ShowBody {
			jsonOpts = append(jsonOpts, JSONWithBody(true))
		}
		return NewJSONFormatter(jsonOpts...), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want console or json)", name)
	}
}
