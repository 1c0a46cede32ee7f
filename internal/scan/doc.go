// Package scan provides the two single-pass HTML extractions the crawl
// needs: anchor targets for the frontier and the hidden flag marker.
//
// Design decision: We use golang.org/x/net/html's pull tokenizer rather
// than building a DOM because:
//  1. Both extractions are narrow scans; a tree buys nothing
//  2. The tokenizer tolerates the malformed HTML real pages serve
//  3. A pull loop keeps each reducer independent and single-pass
//
// The two scans are deliberately separate functions rather than one pass
// with callbacks: the crawl only runs the link scan on pages that carried
// no flag, so fusing them would couple policy into the scanner.
package scan
