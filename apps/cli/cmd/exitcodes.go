package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/rq/packages/core/parser"
	"github.com/abdul-hamid-achik/rq/packages/core/runner"
	"github.com/abdul-hamid-achik/rq/packages/core/template"
	"github.com/abdul-hamid-achik/rq/packages/http"
)

// Exit codes for the rq CLI
const (
	// ExitSuccess indicates every request was sent
	ExitSuccess = 0

	// ExitRequestFailure indicates one or more requests failed
	ExitRequestFailure = 1

	// ExitParseError indicates a request file could not be parsed
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitFillError indicates a variable was missing or cyclic
	ExitFillError = 5

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// usageError marks errors caused by how rq was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// configError marks errors loading configuration or variables.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }

func (e *configError) Unwrap() error { return e.err }

// reportedError marks errors the formatter has already shown.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// exitCodeFor maps an error returned by a command to a process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usageErr   *usageError
		configErr  *configError
		parseErr   *parser.ParseError
		syntaxErr  *template.SyntaxError
		fillErr    *template.FillError
		requestErr *http.RequestError
	)
	switch {
	case errors.As(err, &usageErr), errors.Is(err, runner.ErrNoMatch):
		return ExitUsageError
	case errors.As(err, &configErr):
		return ExitConfigError
	case errors.As(err, &parseErr), errors.As(err, &syntaxErr):
		return ExitParseError
	case errors.As(err, &fillErr):
		return ExitFillError
	case errors.As(err, &requestErr):
		return ExitNetworkError
	}
	return ExitRequestFailure
}
