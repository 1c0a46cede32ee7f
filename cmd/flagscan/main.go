// Package main provides the entry point for the flagscan CLI.
//
// Flagscan logs into a Fakebook-style site over TLS with a hand-built
// HTTP/1.1 client and crawls it breadth-first until the hidden flags
// are found.
//
// Usage:
//
//	flagscan crawl <username> <password>
//	flagscan crawl -s host -p 443 <username> <password>
//
// See --help for all available options.
package main

// main is the entry point for flagscan.
func main() {
	Execute()
}
