// Package cli implements the command-line interface for comp-scout.
//
// The cli package provides the Cobra-based CLI with one subcommand per
// pipeline operation: listings, urls, detail, details-batch and classify.
// Each command writes exactly one JSON document to standard output; logs
// and progress lines go to standard error. It coordinates the fetcher,
// scraper, batch, filter, match and storage packages.
package cli
