package model

import "time"

// Flag is a secret marker extracted from a crawled page.
//
// Flags are counted by extraction event, not by value: if the same value
// appears on two pages, both discoveries are recorded. The crawl's stop
// condition is the number of events, so deduplicating here would change
// termination behavior.
type Flag struct {
	// Value is the marker text with the "FLAG: " prefix already stripped.
	Value string `json:"value"`

	// FoundOn is the path of the page the flag was extracted from.
	// Empty for a flag found on the post-login landing page.
	FoundOn string `json:"found_on,omitempty"`

	// Position is the 1-based discovery order within the run.
	Position int `json:"position"`

	// FoundAt is the wall-clock time of the extraction.
	FoundAt time.Time `json:"found_at"`
}
