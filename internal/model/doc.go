// Package model defines the core data types shared across flagscan:
// discovered flags and the crawl report produced by a run.
//
// The types here are plain data with small helper methods. All behavior
// (crawling, parsing, persistence, reporting) lives in the packages that
// consume these types.
package model
