package httpmsg

import (
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// Response is a decoded HTTP response.
type Response struct {
	// StatusLine is the verbatim first line, e.g. "HTTP/1.1 200 OK".
	// The crawl compares it exactly; it is never normalized.
	StatusLine string

	// Headers maps header keys to values. Keys are case-sensitive and
	// duplicates collapse to the last value seen.
	Headers map[string]string

	// Body is the raw decoded body text.
	Body string
}

// ParseResponse splits raw response text into status line, headers, and
// body.
//
// The split happens at the first CRLFCRLF; if none is present the whole
// input is treated as a header section with an empty body rather than
// failing, since a truncated response should still yield its status line.
// Header lines are split on the first ": "; lines without the separator
// are ignored.
func ParseResponse(raw string) Response {
	resp := Response{Headers: make(map[string]string)}

	headerSection, body, found := strings.Cut(raw, "\r\n\r\n")
	if found {
		resp.Body = body
	}

	lines := strings.Split(headerSection, "\r\n")
	resp.StatusLine = lines[0]
	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		resp.Headers[key] = value
	}
	return resp
}

// Header returns the value of the named header, or "" when absent.
func (r Response) Header(key string) string {
	return r.Headers[key]
}

// DecodedBody returns the body transcoded to UTF-8 according to the
// charset parameter of the Content-Type header. Bodies with no charset,
// a UTF-8 charset, or an unknown charset are returned unchanged; the
// scanners downstream would rather see mojibake than lose a page.
func (r Response) DecodedBody() string {
	charset := contentTypeCharset(r.Header("Content-Type"))
	if charset == "" {
		return r.Body
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return r.Body
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return r.Body
	}

	decoded, err := enc.NewDecoder().String(r.Body)
	if err != nil {
		return r.Body
	}
	return decoded
}

// contentTypeCharset extracts the charset parameter from a Content-Type
// value such as "text/html; charset=ISO-8859-1".
func contentTypeCharset(contentType string) string {
	for _, part := range strings.Split(contentType, ";") {
		part = strings.TrimSpace(part)
		if rest, ok := strings.CutPrefix(strings.ToLower(part), "charset="); ok {
			return strings.Trim(rest, `"`)
		}
	}
	return ""
}
