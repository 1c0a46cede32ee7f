package scan

import (
	"strings"

	"golang.org/x/net/html"
)

// flagPrefixLen is the length of the literal "FLAG: " prefix stripped
// from marker text.
const flagPrefixLen = 6

// flagContainerTag and flagClass identify the element the flag hides in:
// <h3 class="secret_flag">FLAG: ...</h3>.
const (
	flagContainerTag = "h3"
	flagClass        = "secret_flag"
)

// ExtractLinks returns the href targets of anchor tags that stay on the
// given site, in first-seen order. Duplicates are kept; the frontier
// deduplicates.
//
// A link stays on-site when it is site-relative (leading "/") or contains
// the hostname as a substring. Absolute links to other hosts are dropped
// here so the frontier never sees them.
func ExtractLinks(doc, host string) []string {
	z := html.NewTokenizer(strings.NewReader(doc))

	var links []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way the scan is done.
			return links
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "a" {
				continue
			}
			for _, attr := range tok.Attr {
				if attr.Key == "href" && sameSite(attr.Val, host) {
					links = append(links, attr.Val)
				}
			}
		}
	}
}

// sameSite reports whether an href points at the crawled site.
func sameSite(href, host string) bool {
	if strings.HasPrefix(href, "/") {
		return true
	}
	return host != "" && strings.Contains(href, host)
}

// ExtractFlag scans for a secret flag marker and returns its value with
// the "FLAG: " prefix stripped, plus whether one was found.
//
// The scan tracks a single inside-container bit: set on an <h3> start tag
// whose class attribute is secret_flag, cleared on the matching </h3>.
// Text observed while inside that contains the literal "FLAG" is trimmed
// of surrounding whitespace and has the six-character prefix removed.
func ExtractFlag(doc string) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(doc))

	inside := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken:
			tok := z.Token()
			if tok.Data == flagContainerTag && hasClass(tok, flagClass) {
				inside = true
			}
		case html.EndTagToken:
			if tok := z.Token(); tok.Data == flagContainerTag {
				inside = false
			}
		case html.TextToken:
			if !inside {
				continue
			}
			text := z.Token().Data
			if !strings.Contains(text, "FLAG") {
				continue
			}
			trimmed := strings.TrimSpace(text)
			if len(trimmed) <= flagPrefixLen {
				continue
			}
			return trimmed[flagPrefixLen:], true
		}
	}
}

// hasClass reports whether a token's class attribute equals the given
// class. The marker pages use a single bare class, so exact match is
// enough; multi-class attributes are split on whitespace anyway.
func hasClass(tok html.Token, class string) bool {
	for _, attr := range tok.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
