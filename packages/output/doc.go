// Package output provides formatters for displaying run results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
//
// Each formatter implements the Formatter interface and can optionally
// implement Flushable for formats that accumulate results before output.
// The console formatter also renders request templates, variable tables
// and history entries for the CLI's inspection commands.
package output
