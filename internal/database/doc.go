// Package database provides SQLite-based storage for crawl history.
//
// Each finished run is recorded with its discovered flags so the history
// command can answer "what did we find last time" without re-crawling.
// Storage is optional: the crawl itself never depends on this package.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
