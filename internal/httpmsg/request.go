package httpmsg

import (
	"fmt"
	"strconv"
	"strings"
)

// Fixed base header values sent with every request. The exact strings are
// not load-bearing for correctness but keep the target server's bot
// heuristics happy.
const (
	baseUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:136.0) Gecko/20100101 Firefox/136.0"
	baseAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	baseAcceptLanguage = "en-US,en;q=0.5"
)

const crlf = "\r\n"

// Header is one key/value pair in a request's header list.
//
// Design decision: Requests carry headers as an ordered slice, not a map.
// Serialization order must be deterministic and reproducible: base headers
// in fixed order, caller overrides merged in place, new caller headers
// appended. A map would shuffle the wire format on every call.
type Header struct {
	Key   string
	Value string
}

// BuildRequest assembles a complete HTTP/1.1 request string.
//
// The base header set (Host, User-Agent, Accept, Accept-Language,
// Connection, Upgrade-Insecure-Requests, TE) is overlaid by extra: an
// entry whose key matches a base header replaces its value in place, any
// other entry is appended in the order given. Content-Length is computed
// from the body when the body is non-empty and the caller did not supply
// one explicitly.
func BuildRequest(method, path, host string, extra []Header, body string) string {
	headers := []Header{
		{"Host", host},
		{"User-Agent", baseUserAgent},
		{"Accept", baseAccept},
		{"Accept-Language", baseAcceptLanguage},
		{"Connection", "keep-alive"},
		{"Upgrade-Insecure-Requests", "1"},
		{"TE", "trailers"},
	}

	for _, h := range extra {
		merged := false
		for i := range headers {
			if headers[i].Key == h.Key {
				headers[i].Value = h.Value
				merged = true
				break
			}
		}
		if !merged {
			headers = append(headers, h)
		}
	}

	if body != "" && !hasHeader(headers, "Content-Length") {
		headers = append(headers, Header{"Content-Length", strconv.Itoa(len(body))})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1%s", method, path, crlf)
	for _, h := range headers {
		b.WriteString(h.Key)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString(crlf)
	}
	b.WriteString(crlf)
	b.WriteString(body)
	return b.String()
}

func hasHeader(headers []Header, key string) bool {
	for _, h := range headers {
		if h.Key == key {
			return true
		}
	}
	return false
}
