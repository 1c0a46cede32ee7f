package model

import "time"

// CrawlReport is the result of one crawl run.
//
// Design decision: The crawl returns this struct instead of terminating the
// process when the flag limit is reached. Callers (the CLI, tests, the batch
// pipeline) observe "limit reached" as data rather than as an exit code.
type CrawlReport struct {
	// Server is the target host that was crawled.
	Server string `json:"server"`

	// Port is the TCP port the crawl connected to.
	Port int `json:"port"`

	// Username is the account the crawl authenticated as.
	Username string `json:"username"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// PagesVisited counts pages fetched and examined, including the
	// post-login landing page.
	PagesVisited int `json:"pages_visited"`

	// Flags holds the discovered flags in discovery order.
	Flags []Flag `json:"flags"`

	// FlagLimit is the number of flags the run was asked to find.
	FlagLimit int `json:"flag_limit"`

	// Completed is true when the run stopped because it reached FlagLimit.
	// False means the frontier was exhausted (or the run was cancelled)
	// with fewer flags found.
	Completed bool `json:"completed"`
}

// Duration returns the elapsed time of the run.
func (r *CrawlReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// FlagValues returns just the flag strings in discovery order.
func (r *CrawlReport) FlagValues() []string {
	values := make([]string, 0, len(r.Flags))
	for _, f := range r.Flags {
		values = append(values, f.Value)
	}
	return values
}

// AddFlag appends a flag discovery event, assigning its position.
func (r *CrawlReport) AddFlag(value, foundOn string) Flag {
	f := Flag{
		Value:    value,
		FoundOn:  foundOn,
		Position: len(r.Flags) + 1,
		FoundAt:  time.Now(),
	}
	r.Flags = append(r.Flags, f)
	return f
}
