// Package httpmsg builds HTTP/1.1 request strings and decodes raw response
// bytes, byte-exactly, for use over the raw encrypted channel in the
// transport package.
//
// This is deliberately not net/http. The tool's contract is a hand-rolled
// HTTP/1.1 implementation: deterministic header ordering on the wire,
// verbatim status lines, and case-sensitive last-value-wins header maps.
// net/http canonicalizes header keys and hides the status line, both of
// which the crawl policy depends on observing exactly.
package httpmsg
