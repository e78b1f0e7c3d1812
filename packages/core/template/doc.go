// Package template implements the {{variable}} micro-language used inside
// request files.
//
// It provides:
//   - Fragment and String, the parsed form of a templated value
//   - The value grammar that turns source text into fragments
//   - Fill, which resolves a String against a variable table
//   - Canonical rendering back to request-file text
package template
