// Package competition provides the record types produced by the extractors
// and consumed by the duplicate matcher.
//
// The package also holds the pure helpers that give those records their
// matchable shape: calendar dates resolved from free text against an explicit
// reference date, normalized titles used as deduplication keys, and prize
// values parsed from prize descriptions. Nothing in this package reads the
// wall clock or performs I/O.
package competition
