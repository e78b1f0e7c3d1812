// Package env collects request variables from outside the request file.
//
// It provides functionality for:
//   - Loading environment files (.env, .env.local, etc.)
//   - Reading RQ_VAR_* variables from the process environment
//   - Parsing name=value assignments given on the command line
//   - Layering all sources over the file's own @variables
package env
