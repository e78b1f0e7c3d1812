// Package runner executes the requests of a parsed request file.
//
// It provides functionality for:
//   - Layering variable sources over the file's definitions
//   - Selecting requests by position or name pattern
//   - Sequential or parallel execution with configurable concurrency
//   - Optional rate limiting of outgoing requests
//   - Waiting for a service to become ready before the first request
//
// A request whose variables cannot be filled fails on its own; the rest
// of the file still runs.
package runner
