// Package http sends resolved requests and reads their responses.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts, redirects, proxy and TLS verification
//   - Query parameters merged into the request URL
//   - A default http:// scheme for bare host names
//   - Response payloads classified as text or bytes, with charset decoding
package http
